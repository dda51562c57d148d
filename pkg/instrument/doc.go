// Package instrument times HTTP requests and tracks user activity.
//
// Instrumenter.Middleware opens one Scope per request and stores it in the
// request context. When the handler returns it emits
//
//	<view>            timing
//	view.all          timing
//	<view>.requests   counter
//	view.requests     counter
//
// through the scope's batch and sends it. <view> is "view." followed by
// the matched gorilla/mux route name or path template, with "_ajax"
// appended for XMLHttpRequest calls. A panicking handler increments
// view.exceptions and <view>.exceptions before the panic continues.
//
// For identified users the middleware also keeps LastSeenData current.
// Lifecycle covers account events the host reports explicitly, and
// RenderStash remembers request start times for the browser render report.
package instrument
