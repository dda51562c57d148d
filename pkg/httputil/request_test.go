package httputil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormValues(t *testing.T) {
	t.Run("GET reads the query string", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics/incr/foo?count=5", nil)
		values, err := FormValues(req)
		require.NoError(t, err)
		assert.Equal(t, "5", values.Get("count"))
	})

	t.Run("POST reads the body only", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/metrics/incr/foo?count=9", strings.NewReader("count=5"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		values, err := FormValues(req)
		require.NoError(t, err)
		assert.Equal(t, "5", values.Get("count"))
	})
}

func TestForm_Int(t *testing.T) {
	tests := []struct {
		name     string
		values   url.Values
		required bool
		want     int64
		errs     []string
	}{
		{name: "default", values: url.Values{}, want: 1},
		{name: "value", values: url.Values{"n": {"5"}}, want: 5},
		{name: "negative", values: url.Values{"n": {"-3"}}, want: -3},
		{name: "blank uses default", values: url.Values{"n": {" "}}, want: 1},
		{name: "not a number", values: url.Values{"n": {"abc"}}, want: 1, errs: []string{MsgWholeNumber}},
		{name: "float", values: url.Values{"n": {"1.5"}}, want: 1, errs: []string{MsgWholeNumber}},
		{name: "required missing", values: url.Values{}, required: true, want: 1, errs: []string{MsgRequired}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := NewForm(tt.values)
			got := form.Int("n", 1, tt.required)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.errs, form.Errors["n"])
			assert.Equal(t, len(tt.errs) == 0, form.Valid())
		})
	}
}

func TestForm_Float(t *testing.T) {
	tests := []struct {
		name     string
		values   url.Values
		required bool
		want     float64
		errs     []string
	}{
		{name: "default", values: url.Values{}, want: 1.0},
		{name: "value", values: url.Values{"v": {"0.25"}}, want: 0.25},
		{name: "integer", values: url.Values{"v": {"3"}}, want: 3},
		{name: "garbage", values: url.Values{"v": {"x"}}, want: 1.0, errs: []string{MsgNumber}},
		{name: "nan", values: url.Values{"v": {"NaN"}}, want: 1.0, errs: []string{MsgNumber}},
		{name: "required missing", values: url.Values{}, required: true, want: 1.0, errs: []string{MsgRequired}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := NewForm(tt.values)
			assert.Equal(t, tt.want, form.Float("v", 1.0, tt.required))
			assert.Equal(t, tt.errs, form.Errors["v"])
		})
	}
}

func TestForm_Bool(t *testing.T) {
	tests := map[string]bool{
		"":      false,
		"false": false,
		"False": false,
		"0":     false,
		"off":   false,
		"true":  true,
		"1":     true,
		"on":    true,
		"yes":   true,
	}

	for raw, want := range tests {
		form := NewForm(url.Values{"delta": {raw}})
		assert.Equal(t, want, form.Bool("delta", false), "value %q", raw)
		assert.True(t, form.Valid())
	}
}

func TestParsePathString(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics/activity/login", nil)
	req = mux.SetURLVars(req, map[string]string{"what": "login"})

	val, err := ParsePathString(req, "what")
	require.NoError(t, err)
	assert.Equal(t, "login", val)

	_, err = ParsePathString(req, "missing")
	assert.Error(t, err)
}

func TestParsePathStringOrError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	_, ok := ParsePathStringOrError(w, req, "stat")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
