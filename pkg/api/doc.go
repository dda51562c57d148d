// Package api serves the metric pixel endpoints.
//
// Browsers and other clients report metrics by requesting a tracking pixel:
//
//	GET  /metrics/incr/{stat}?count=2&rate=0.5
//	POST /metrics/gauge/{stat}            value=12.5&delta=true
//	GET  /metrics/timing/{stat}?delta=340
//	GET  /metrics/activity/{what}
//	GET  /metrics/report-request-rendered/{request_id}
//
// GET requests read the query string and receive a 1x1 transparent PNG.
// POST requests read the form body and receive 204 No Content. Invalid
// fields produce a 400 with a JSON object mapping each field to its
// messages.
//
// When a request runs under instrument.Instrumenter.Middleware the metric
// is added to the request's batch, so it leaves in the same datagram as the
// request timings.
package api
