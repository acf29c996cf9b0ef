package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"lgd_site/logging"
)

// CORSDebugMiddleware logs the CORS relevant parts of each request and the
// resulting Access-Control headers at debug level.
func CORSDebugMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context(), "cors")
		log.Debug("cors request",
			"origin", r.Header.Get("Origin"),
			"method", r.Method,
			"preflight", r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "",
			"request_headers", r.Header.Get("Access-Control-Request-Headers"),
		)

		next.ServeHTTP(w, r)

		log.Debug("cors response",
			"allow_origin", w.Header().Get("Access-Control-Allow-Origin"),
			"allow_methods", w.Header().Get("Access-Control-Allow-Methods"),
		)
	})
}

// CORSLogger adapts slog to the Printf logger rs/cors writes its debug
// output to.
type CORSLogger struct {
	Log *slog.Logger
}

func (l CORSLogger) Printf(format string, args ...interface{}) {
	log := l.Log
	if log == nil {
		log = logging.Component("cors")
	}
	log.Debug(fmt.Sprintf(format, args...))
}
