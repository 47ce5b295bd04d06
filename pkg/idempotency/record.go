package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"time"
)

const (
	// HeaderKey carries the client-chosen key on mutating requests
	HeaderKey = "Idempotency-Key"
	// HeaderReplayed is set on responses served from a stored record
	HeaderReplayed = "Idempotent-Replayed"

	MaxKeyLength           = 255
	DefaultLockTimeout     = 5 * time.Minute
	DefaultRetentionPeriod = 24 * time.Hour
	DefaultMaxResponseSize = 1 << 20
)

var (
	ErrKeyInvalid        = errors.New("idempotency key may only contain letters, digits, '-' and '_'")
	ErrKeyTooLong        = errors.New("idempotency key exceeds 255 characters")
	ErrConcurrentRequest = errors.New("a request with this idempotency key is in progress")
)

var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Record is a stored keyed request. A record is locked while the first request runs and
// holds the response once it completes.
type Record struct {
	ID          string `bson:"_id"`
	TenantID    string `bson:"tenantId"`
	Key         string `bson:"key"`
	Method      string `bson:"method"`
	Path        string `bson:"path"`
	Fingerprint string `bson:"fingerprint"`

	LockedAt *time.Time `bson:"lockedAt,omitempty"`

	ResponseCode        int    `bson:"responseCode,omitempty"`
	ResponseBody        []byte `bson:"responseBody,omitempty"`
	ResponseContentType string `bson:"responseContentType,omitempty"`

	CreatedAt   time.Time  `bson:"createdAt"`
	CompletedAt *time.Time `bson:"completedAt,omitempty"`
	ExpiresAt   time.Time  `bson:"expiresAt"`
}

func (r *Record) IsCompleted() bool {
	return r.CompletedAt != nil
}

// Response is what gets stored against a completed record
type Response struct {
	Code        int
	Body        []byte
	ContentType string
}

// Repository stores records. Acquire must be atomic: for a given tenant and key, at most
// one caller gets acquired == true until the record is completed, released or its lock
// goes stale.
type Repository interface {
	// Acquire inserts rec, or takes over an unlocked or stale record with the same
	// fingerprint. When acquired is false the returned record is the stored one.
	Acquire(ctx context.Context, rec *Record, staleBefore time.Time) (stored *Record, acquired bool, err error)
	Complete(ctx context.Context, id string, resp Response) error
	// Release drops an uncompleted record so the key can be retried
	Release(ctx context.Context, id string) error
}

// ValidateKey checks the key charset and length
func ValidateKey(key string) error {
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if !keyPattern.MatchString(key) {
		return ErrKeyInvalid
	}
	return nil
}

// Fingerprint hashes the parts of a request that must match on retry.
func Fingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
