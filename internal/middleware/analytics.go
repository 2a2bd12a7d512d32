package middleware

import (
	"net/http"
	"strings"

	"github.com/asso7/concert_ledger/internal/platform/analytics"
	"github.com/gin-gonic/gin"
)

const trackerGinKey = "analytics.tracker"

// pathsToSkip contains paths that are never tracked.
var pathsToSkip = map[string]bool{
	"/health": true,
}

// AnalyticsMiddleware reports every successful authenticated request to the tracker.
// The event name is derived from the route, e.g. "/api/v1/bookings/:bookingID/settle"
// becomes "api_v1_bookings_:bookingID_settle".
func AnalyticsMiddleware(tracker analytics.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tracker == nil || pathsToSkip[c.Request.URL.Path] {
			c.Next()
			return
		}
		c.Set(trackerGinKey, tracker)

		c.Next()

		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		operatorID, exists := GetOperatorIDFromContext(c)
		if !exists {
			return
		}

		eventName := strings.ReplaceAll(strings.TrimPrefix(c.FullPath(), "/"), "/", "_")
		if eventName == "" {
			return
		}

		props := map[string]any{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
		}
		if len(c.Params) > 0 {
			params := make(map[string]string, len(c.Params))
			for _, param := range c.Params {
				params[param.Key] = param.Value
			}
			props["params"] = params
		}

		tracker.Enqueue(operatorID, eventName, props)
	}
}

// TrackEvent sends a custom event from a handler. It is a no-op when no tracker was installed
// or the request is anonymous.
func TrackEvent(c *gin.Context, eventName string, properties map[string]any) {
	value, ok := c.Get(trackerGinKey)
	if !ok {
		return
	}
	tracker, ok := value.(analytics.Tracker)
	if !ok {
		return
	}
	operatorID, exists := GetOperatorIDFromContext(c)
	if !exists {
		return
	}

	if properties == nil {
		properties = make(map[string]any)
	}
	properties["method"] = c.Request.Method
	properties["path"] = c.Request.URL.Path

	tracker.Enqueue(operatorID, eventName, properties)
}
