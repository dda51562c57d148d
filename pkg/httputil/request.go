package httputil

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// Validation messages reported per form field
const (
	MsgRequired    = "This field is required."
	MsgWholeNumber = "Enter a whole number."
	MsgNumber      = "Enter a number."
)

// FieldErrors maps a form field to its validation messages
type FieldErrors map[string][]string

// Add records a message for field
func (e FieldErrors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// FormValues returns the query string for GET and HEAD requests and the
// parsed body otherwise
func FormValues(r *http.Request) (url.Values, error) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return r.URL.Query(), nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form body: %w", err)
	}
	return r.PostForm, nil
}

// Form reads typed fields from url.Values and collects validation errors
type Form struct {
	values url.Values
	Errors FieldErrors
}

// NewForm wraps values
func NewForm(values url.Values) *Form {
	return &Form{values: values, Errors: FieldErrors{}}
}

// Valid reports whether no field failed validation
func (f *Form) Valid() bool {
	return len(f.Errors) == 0
}

func (f *Form) raw(key string, required bool) (string, bool) {
	v := strings.TrimSpace(f.values.Get(key))
	if v == "" {
		if required {
			f.Errors.Add(key, MsgRequired)
		}
		return "", false
	}
	return v, true
}

// Int reads an integer field, returning def when it is absent
func (f *Form) Int(key string, def int64, required bool) int64 {
	v, ok := f.raw(key, required)
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		f.Errors.Add(key, MsgWholeNumber)
		return def
	}
	return n
}

// Float reads a finite float field, returning def when it is absent
func (f *Form) Float(key string, def float64, required bool) float64 {
	v, ok := f.raw(key, required)
	if !ok {
		return def
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		f.Errors.Add(key, MsgNumber)
		return def
	}
	return n
}

// Bool reads an optional boolean field. Empty, "false", "0", "off" and
// "no" are false; any other value is true.
func (f *Form) Bool(key string, def bool) bool {
	v, ok := f.raw(key, false)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "false", "0", "off", "no":
		return false
	}
	return true
}

// ParsePathString extracts a string path parameter
func ParsePathString(r *http.Request, key string) (string, error) {
	vars := mux.Vars(r)
	str := vars[key]
	if str == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return str, nil
}

// ParsePathStringOrError extracts a string path parameter and writes error on failure
func ParsePathStringOrError(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	val, err := ParsePathString(r, key)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return "", false
	}
	return val, true
}
