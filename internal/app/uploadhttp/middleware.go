package uploadhttp

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/yourname/ufs/pkg/uploadproto"
)

type ctxKey int

const connIDKey ctxKey = iota

// WithConnID attaches the accepting connection's id to ctx.
func WithConnID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, connIDKey, id)
}

// ConnIDFromContext returns the connection id if present.
func ConnIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(connIDKey).(string)
	return id
}

func (a *Server) requestLogger(r *http.Request) logrus.FieldLogger {
	return a.log.WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"conn_id":    ConnIDFromContext(r.Context()),
	})
}

// logRequests пишет одну строку на запрос и обновляет счётчики.
func (a *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			w.Header().Set(uploadproto.HeaderRequestID, rid)
		}

		lrw := &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r)

		a.metrics.RecordRequest(lrw.status)
		a.requestLogger(r).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": lrw.status,
			"bytes":  lrw.size,
			"ms":     time.Since(start).Milliseconds(),
			"remote": r.RemoteAddr,
		}).Info("request")
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *loggingResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}
