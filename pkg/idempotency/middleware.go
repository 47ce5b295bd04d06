package idempotency

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kitchenops/inventory-ledger/pkg/errors"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/metrics"
	"github.com/kitchenops/inventory-ledger/pkg/middleware"
)

// CodeKeyReused is returned when a key is replayed with a different request
const CodeKeyReused = "IDEMPOTENCY_KEY_REUSED"

// Config configures Middleware
type Config struct {
	Repository Repository
	Logger     *logging.Logger
	Metrics    *metrics.Metrics

	// LockTimeout is how long an unfinished request holds its key
	LockTimeout     time.Duration
	RetentionPeriod time.Duration
	// Responses above MaxResponseSize are not stored; the key is released instead
	MaxResponseSize int
}

func DefaultConfig(repository Repository) *Config {
	return &Config{
		Repository:      repository,
		LockTimeout:     DefaultLockTimeout,
		RetentionPeriod: DefaultRetentionPeriod,
		MaxResponseSize: DefaultMaxResponseSize,
	}
}

// Middleware makes mutating requests that carry an Idempotency-Key safe to retry. The
// first request runs and its response is stored; a retry with the same key and body gets
// the stored response. Requests without the header pass through. Keys are scoped to the
// tenant, so the middleware must run after tenant resolution.
func Middleware(config *Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderKey))
		if key == "" || !isMutating(c.Request.Method) {
			c.Next()
			return
		}
		if err := ValidateKey(key); err != nil {
			middleware.AbortWithAppError(c, errors.ErrValidation("invalid idempotency key").
				WithDetail(HeaderKey, err.Error()))
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			middleware.AbortWithAppError(c, errors.ErrBadRequest("failed to read request body"))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var tenantID string
		if tc := middleware.GetTenantContext(c); tc != nil {
			tenantID = tc.TenantID
		}

		now := time.Now().UTC()
		rec := &Record{
			ID:          uuid.NewString(),
			TenantID:    tenantID,
			Key:         key,
			Method:      c.Request.Method,
			Path:        c.Request.URL.Path,
			Fingerprint: Fingerprint(c.Request.Method, c.Request.URL.Path, body),
			CreatedAt:   now,
			ExpiresAt:   now.Add(config.RetentionPeriod),
		}

		ctx := c.Request.Context()
		stored, acquired, err := config.Repository.Acquire(ctx, rec, now.Add(-config.LockTimeout))
		switch {
		case stderrors.Is(err, ErrConcurrentRequest):
			config.Metrics.RecordIdempotencyOutcome("conflict")
			middleware.AbortWithAppError(c, errors.ErrConflict(err.Error()))
			return
		case err != nil:
			config.logger(ctx).WithError(err).Error("Idempotency store unavailable", "key", key)
			middleware.AbortWithAppError(c, errors.ErrServiceUnavailable("idempotency store"))
			return
		}

		if !acquired {
			reject(c, config, stored, rec)
			return
		}

		capture := &capturingWriter{ResponseWriter: c.Writer, limit: config.MaxResponseSize}
		c.Writer = capture
		c.Next()

		// the client may be gone; the record must still be settled
		settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		status := capture.Status()
		if status >= http.StatusInternalServerError || capture.overflow {
			if err := config.Repository.Release(settleCtx, rec.ID); err != nil {
				config.logger(ctx).WithError(err).Warn("Failed to release idempotency key", "key", key)
			}
			return
		}

		err = config.Repository.Complete(settleCtx, rec.ID, Response{
			Code:        status,
			Body:        capture.body.Bytes(),
			ContentType: capture.Header().Get("Content-Type"),
		})
		if err != nil {
			config.logger(ctx).WithError(err).Warn("Failed to store idempotent response", "key", key)
			return
		}
		config.Metrics.RecordIdempotencyOutcome("processed")
	}
}

func reject(c *gin.Context, config *Config, stored, rec *Record) {
	switch {
	case stored.Fingerprint != rec.Fingerprint:
		config.Metrics.RecordIdempotencyOutcome("mismatch")
		middleware.AbortWithAppError(c, errors.NewAppError(CodeKeyReused,
			"idempotency key was already used with a different request", http.StatusUnprocessableEntity))
	case stored.IsCompleted():
		config.Metrics.RecordIdempotencyOutcome("replayed")
		c.Header(HeaderReplayed, "true")
		c.Data(stored.ResponseCode, stored.ResponseContentType, stored.ResponseBody)
		c.Abort()
	default:
		config.Metrics.RecordIdempotencyOutcome("conflict")
		middleware.AbortWithAppError(c, errors.ErrConflict(ErrConcurrentRequest.Error()))
	}
}

func (config *Config) logger(ctx context.Context) *logging.Logger {
	if config.Logger == nil {
		return logging.NewNop()
	}
	return config.Logger.WithContext(ctx)
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

type capturingWriter struct {
	gin.ResponseWriter
	body     bytes.Buffer
	limit    int
	overflow bool
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.body.Len()+len(b) > w.limit {
			w.overflow = true
			w.body.Reset()
		} else {
			w.body.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}
