package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/academy-client/internal/errs"
)

// RequestIDHeader carries a per-request UUID.
const RequestIDHeader = "X-Request-ID"

type ctxKey string

const opKey ctxKey = "api.op"

func withOp(ctx context.Context, op errs.Op) context.Context {
	return context.WithValue(ctx, opKey, op)
}

// OpFromCtx returns the operation the request belongs to.
func OpFromCtx(ctx context.Context) (errs.Op, bool) {
	op, ok := ctx.Value(opKey).(errs.Op)
	return op, ok
}

type loggingTransport struct {
	next http.RoundTripper
	log  *zap.Logger
}

// NewLoggingTransport logs one line per exchange and stamps X-Request-ID.
// Bodies and headers are not logged.
func NewLoggingTransport(next http.RoundTripper, log *zap.Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &loggingTransport{next: next, log: log}
}

func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	rid := r.Header.Get(RequestIDHeader)
	if rid == "" {
		id, err := uuid.NewV4()
		if err == nil {
			rid = id.String()
			r = r.Clone(r.Context())
			r.Header.Set(RequestIDHeader, rid)
		}
	}
	op, _ := OpFromCtx(r.Context())

	start := time.Now()
	resp, err := t.next.RoundTrip(r)

	fields := []zap.Field{
		zap.String("op", string(op)),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Duration("dur", time.Since(start)),
		zap.String("request_id", rid),
	}
	if err != nil {
		t.log.Warn("http", append(fields, zap.Error(err))...)
		return resp, err
	}
	t.log.Info("http", append(fields, zap.Int("status", resp.StatusCode))...)
	return resp, nil
}
