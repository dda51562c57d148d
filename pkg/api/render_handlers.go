package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/mssola/useragent"

	"github.com/platinummonkey/pulse/pkg/httputil"
	"github.com/platinummonkey/pulse/pkg/instrument"
)

// reportRendered handles /metrics/report-request-rendered/{request_id}. The
// page calls it once rendering finishes; the time since the server began
// handling the page request is emitted per view and per browser.
func (s *Server) reportRendered(w http.ResponseWriter, r *http.Request) {
	requestID, ok := httputil.ParsePathStringOrError(w, r, "request_id")
	if !ok {
		return
	}
	logger := s.requestLogger(r).WithField("rendered_request_id", requestID)

	timing, found, err := s.stash.Pop(r.Context(), requestID)
	switch {
	case err != nil:
		logger.WithError(err).Warn("failed to read render timing")
	case !found:
		logger.Debug("no render timing stashed")
	default:
		elapsed := s.now().Sub(timing.Started)
		statter := s.statter(r)
		for _, name := range RenderTimingNames(timing) {
			s.logEmit(r, name, statter.TimingDuration(name, elapsed, 1))
		}
	}

	respond(w, r)
}

// RenderTimingNames returns the sorted timing names for a rendered request:
// the view, the view per browser and the browser overall. It returns nil
// when the user agent is unknown.
func RenderTimingNames(timing instrument.RenderTiming) []string {
	if timing.UserAgent == "" {
		return nil
	}
	browser, _ := useragent.New(timing.UserAgent).Browser()
	if browser == "" {
		return nil
	}
	browser = strings.ReplaceAll(browser, " ", "-")

	names := []string{
		strings.ReplaceAll(timing.ViewName, " ", "-"),
		strings.ReplaceAll(timing.ViewName, " ", "-") + "." + browser,
		"browsers." + browser,
	}
	sort.Strings(names)
	return names
}
