package api

import (
	"net/http"

	"github.com/platinummonkey/pulse/pkg/httputil"
	"github.com/platinummonkey/pulse/pkg/statsd"
)

// Pixel is a 1x1 transparent PNG
var Pixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x03, 0x00, 0x00, 0x00, 0x28, 0xcb, 0x34, 0xbb, 0x00, 0x00, 0x00,
	0x19, 0x74, 0x45, 0x58, 0x74, 0x53, 0x6f, 0x66, 0x74, 0x77, 0x61, 0x72,
	0x65, 0x00, 0x41, 0x64, 0x6f, 0x62, 0x65, 0x20, 0x49, 0x6d, 0x61, 0x67,
	0x65, 0x52, 0x65, 0x61, 0x64, 0x79, 0x71, 0xc9, 0x65, 0x3c, 0x00, 0x00,
	0x00, 0x06, 0x50, 0x4c, 0x54, 0x45, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xa5, 0x67, 0xb9, 0xcf, 0x00, 0x00, 0x00, 0x01, 0x74, 0x52, 0x4e, 0x53,
	0x00, 0x40, 0xe6, 0xd8, 0x66, 0x00, 0x00, 0x00, 0x0c, 0x49, 0x44, 0x41,
	0x54, 0x78, 0xda, 0x62, 0x60, 0x00, 0x08, 0x30, 0x00, 0x00, 0x02, 0x00,
	0x01, 0x4f, 0x6d, 0x59, 0xe1, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e,
	0x44, 0xae, 0x42, 0x60, 0x82, 0x00,
}

// respond answers GET with the pixel and anything else with 204
func respond(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		httputil.WriteImage(w, "image/png", Pixel)
		return
	}
	httputil.WriteNoContent(w)
}

// parseForm reads the request's form values, writing a 400 on failure
func parseForm(w http.ResponseWriter, r *http.Request) (*httputil.Form, bool) {
	values, err := httputil.FormValues(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return nil, false
	}
	return httputil.NewForm(values), true
}

// invalidStatMessage is returned for names the line protocol cannot carry
const invalidStatMessage = "Enter a valid metric name."

// parseStat reads the {stat} path value, answering 400 for names containing
// protocol separators or whitespace
func parseStat(w http.ResponseWriter, r *http.Request) (string, bool) {
	stat, ok := httputil.ParsePathStringOrError(w, r, "stat")
	if !ok {
		return "", false
	}
	if !statsd.ValidName(stat) {
		errs := httputil.FieldErrors{}
		errs.Add("stat", invalidStatMessage)
		httputil.WriteFieldErrors(w, errs)
		return "", false
	}
	return stat, true
}

// incr handles /metrics/incr/{stat}
// Form fields:
//   - count: whole number, default 1
//   - rate: sample rate, default 1.0
func (s *Server) incr(w http.ResponseWriter, r *http.Request) {
	s.count(w, r, false)
}

// decr handles /metrics/decr/{stat} with the same fields as incr
func (s *Server) decr(w http.ResponseWriter, r *http.Request) {
	s.count(w, r, true)
}

func (s *Server) count(w http.ResponseWriter, r *http.Request, decrement bool) {
	stat, ok := parseStat(w, r)
	if !ok {
		return
	}
	form, ok := parseForm(w, r)
	if !ok {
		return
	}

	count := form.Int("count", 1, false)
	rate := form.Float("rate", 1.0, false)
	if !form.Valid() {
		httputil.WriteFieldErrors(w, form.Errors)
		return
	}

	statter := s.statter(r)
	var err error
	if decrement {
		err = statter.Decr(stat, count, rate)
	} else {
		err = statter.Incr(stat, count, rate)
	}
	s.logEmit(r, stat, err)

	respond(w, r)
}

// timing handles /metrics/timing/{stat}
// Form fields:
//   - delta: milliseconds, required
func (s *Server) timing(w http.ResponseWriter, r *http.Request) {
	stat, ok := parseStat(w, r)
	if !ok {
		return
	}
	form, ok := parseForm(w, r)
	if !ok {
		return
	}

	delta := form.Int("delta", 0, true)
	if !form.Valid() {
		httputil.WriteFieldErrors(w, form.Errors)
		return
	}

	s.logEmit(r, stat, s.statter(r).Timing(stat, delta, 1))
	respond(w, r)
}

// gauge handles /metrics/gauge/{stat}
// Form fields:
//   - value: number, required
//   - delta: adjust the current value instead of replacing it, default false
func (s *Server) gauge(w http.ResponseWriter, r *http.Request) {
	stat, ok := parseStat(w, r)
	if !ok {
		return
	}
	form, ok := parseForm(w, r)
	if !ok {
		return
	}

	value := form.Float("value", 0, true)
	delta := form.Bool("delta", false)
	if !form.Valid() {
		httputil.WriteFieldErrors(w, form.Errors)
		return
	}

	s.logEmit(r, stat, s.statter(r).Gauge(stat, value, delta))
	respond(w, r)
}

// logEmit logs a failed send. Metric transport errors never fail the request.
func (s *Server) logEmit(r *http.Request, stat string, err error) {
	if err != nil {
		s.requestLogger(r).WithField("stat", stat).WithError(err).Warn("failed to emit metric")
	}
}
