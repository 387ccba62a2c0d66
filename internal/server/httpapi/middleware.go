package httpapi

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/acedema/acedema-back/internal/common"
	"github.com/acedema/acedema-back/internal/logging"
	"github.com/acedema/acedema-back/internal/server/authz"
	"github.com/acedema/acedema-back/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type ctxKey string

const (
	callerKey      ctxKey = "caller"
	requestInfoKey ctxKey = "requestInfo"
)

// requestInfo is filled by inner middleware and read by the access log.
type requestInfo struct {
	caller string
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// routeOf returns the matched chi pattern, which keeps metric labels bounded.
func routeOf(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// accessLog logs one line per request with method, path, status, duration
// and the authenticated caller if any. 5xx logs at error, 4xx at warn.
func accessLog(l logging.Logger, m Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := &requestInfo{}
			r = r.WithContext(context.WithValue(r.Context(), requestInfoKey, info))
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			d := time.Since(start)
			route := routeOf(r)
			m.RecordHTTP(route, rec.statusCode, d)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.statusCode,
				"duration_ms", float64(d.Nanoseconds()) / float64(time.Millisecond),
			}
			if info.caller != "" {
				args = append(args, "caller", info.caller)
			}

			switch {
			case rec.statusCode >= 500:
				l.Error(r.Context(), "http_request", args...)
			case rec.statusCode >= 400:
				l.Warn(r.Context(), "http_request", args...)
			default:
				l.Info(r.Context(), "http_request", args...)
			}
		})
	}
}

// recoverer turns a handler panic into a 500 response.
func recoverer(l logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					l.Error(r.Context(), "panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					writeError(w, common.ErrPersistence)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requireSession authorizes the bearer token and stores the caller in the
// request context. Owner checks happen in the handlers, which know the
// declared owner.
func requireSession(a Authorizer) func(http.Handler) http.Handler {
	return session(a, true)
}

// optionalSession is requireSession for endpoints that also serve anonymous
// callers. A token that is present must still be valid.
func optionalSession(a Authorizer) func(http.Handler) http.Handler {
	return session(a, false)
}

func session(a Authorizer, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(common.AuthorizationHeader)
			if header == "" && !required {
				next.ServeHTTP(w, r)
				return
			}

			p, err := a.Authorize(r.Context(), authz.BearerToken(header), "")
			if err != nil {
				writeError(w, err)
				return
			}

			if info, ok := r.Context().Value(requestInfoKey).(*requestInfo); ok {
				info.caller = p.Email
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey, p)))
		})
	}
}

func callerFrom(ctx context.Context) *models.Person {
	p, _ := ctx.Value(callerKey).(*models.Person)
	return p
}
