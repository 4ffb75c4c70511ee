package r2client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/garyellow/taichung-eats-linebot/internal/errors"
)

// LockInfo is the body of a lock object.
type LockInfo struct {
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Lock is a lease on an R2 key. Only one fetch job holds it at a time; a
// lease past its expiry may be taken over.
type Lock struct {
	client *Client
	key    string
	ttl    time.Duration
	owner  string
	etag   string
	now    func() time.Time
}

// NewLock creates a lock with a random owner ID.
func NewLock(client *Client, key string, ttl time.Duration) *Lock {
	return &Lock{
		client: client,
		key:    key,
		ttl:    ttl,
		owner:  uuid.NewString(),
		now:    time.Now,
	}
}

// Owner returns the owner ID written into the lock object.
func (l *Lock) Owner() string {
	return l.owner
}

func (l *Lock) body() (io.Reader, error) {
	data, err := json.Marshal(LockInfo{Owner: l.owner, ExpiresAt: l.now().Add(l.ttl)})
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// Acquire takes the lock, or returns apperrors.ErrLockHeld when another
// owner holds an unexpired lease.
func (l *Lock) Acquire(ctx context.Context) error {
	body, err := l.body()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	etag, err := l.client.Put(ctx, l.key, body, PutOptions{ContentType: "application/json", IfNoneMatch: true})
	if err == nil {
		l.etag = etag
		return nil
	}
	if !errors.Is(err, ErrPreconditionFailed) {
		return fmt.Errorf("acquire lock: %w", err)
	}

	info, current, err := l.read(ctx)
	if errors.Is(err, apperrors.ErrNotFound) {
		// Released between our write and read; try once more from scratch.
		return l.acquireFresh(ctx)
	}
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if info != nil && l.now().Before(info.ExpiresAt) {
		return fmt.Errorf("%w: %s until %s", apperrors.ErrLockHeld, info.Owner, info.ExpiresAt.Format(time.RFC3339))
	}

	// Expired or unreadable: take it over if nobody else did first.
	if body, err = l.body(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	etag, err = l.client.Put(ctx, l.key, body, PutOptions{ContentType: "application/json", IfMatch: current})
	if errors.Is(err, ErrPreconditionFailed) {
		return apperrors.ErrLockHeld
	}
	if err != nil {
		return fmt.Errorf("acquire lock: take over: %w", err)
	}
	l.etag = etag
	return nil
}

func (l *Lock) acquireFresh(ctx context.Context) error {
	body, err := l.body()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	etag, err := l.client.Put(ctx, l.key, body, PutOptions{ContentType: "application/json", IfNoneMatch: true})
	if errors.Is(err, ErrPreconditionFailed) {
		return apperrors.ErrLockHeld
	}
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	l.etag = etag
	return nil
}

// Renew extends the lease. It returns apperrors.ErrLockHeld when the lock
// was taken over.
func (l *Lock) Renew(ctx context.Context) error {
	if l.etag == "" {
		return errors.New("renew lock: not held")
	}
	body, err := l.body()
	if err != nil {
		return fmt.Errorf("renew lock: %w", err)
	}
	etag, err := l.client.Put(ctx, l.key, body, PutOptions{ContentType: "application/json", IfMatch: l.etag})
	if errors.Is(err, ErrPreconditionFailed) {
		l.etag = ""
		return apperrors.ErrLockHeld
	}
	if err != nil {
		return fmt.Errorf("renew lock: %w", err)
	}
	l.etag = etag
	return nil
}

// Release deletes the lock object if this owner still holds it.
func (l *Lock) Release(ctx context.Context) error {
	if l.etag == "" {
		return nil
	}
	info, _, err := l.read(ctx)
	if errors.Is(err, apperrors.ErrNotFound) {
		l.etag = ""
		return nil
	}
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if info != nil && info.Owner != l.owner {
		l.etag = ""
		return nil
	}
	l.etag = ""
	return l.client.Delete(ctx, l.key)
}

// read returns the current lock body and ETag. A body that is not valid
// JSON yields a nil LockInfo.
func (l *Lock) read(ctx context.Context) (*LockInfo, string, error) {
	obj, err := l.client.Get(ctx, l.key)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = obj.Body.Close() }()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read lock: %w", err)
	}
	var info LockInfo
	if json.Unmarshal(data, &info) != nil {
		return nil, obj.ETag, nil
	}
	return &info, obj.ETag, nil
}
