// Package httputil provides HTTP helpers shared by the pulse handlers.
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//	)(router)
//
// RequestIDMiddleware puts a UUID request id into the context and the
// X-Request-ID response header. LoggingMiddleware stores a request-scoped
// logger in the context; handlers read it with observability.GetLogger.
//
// # Forms
//
// Form reads typed fields from a GET query string or POST body and collects
// per-field messages:
//
//	values, err := httputil.FormValues(r)
//	form := httputil.NewForm(values)
//	count := form.Int("count", 1, false)
//	if !form.Valid() {
//		httputil.WriteFieldErrors(w, form.Errors)
//		return
//	}
package httputil
