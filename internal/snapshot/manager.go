// Package snapshot publishes the catalog CSV to R2 as a zstd-compressed
// object and serves it back as a catalog source. It also holds the lease
// that keeps two fetch jobs from running at once.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	apperrors "github.com/garyellow/taichung-eats-linebot/internal/errors"
	"github.com/garyellow/taichung-eats-linebot/internal/logger"
	"github.com/garyellow/taichung-eats-linebot/internal/r2client"
)

// SourceR2 is the catalog source name of Manager.
const SourceR2 = "r2"

// ContentType of published snapshots.
const ContentType = "application/zstd"

// Config holds snapshot manager configuration.
type Config struct {
	SnapshotKey string        // e.g. snapshots/catalog.csv.zst
	LockKey     string        // fetch job lease
	LockTTL     time.Duration // lease length; renewed every third of it
}

// Manager uploads and downloads catalog snapshots.
type Manager struct {
	client *r2client.Client
	config Config
	log    *logger.Logger

	mu          sync.RWMutex
	currentETag string

	leaderMu    sync.Mutex
	leaderLock  *r2client.Lock
	renewCancel context.CancelFunc
	renewDone   chan struct{}
}

// New creates a new snapshot manager.
func New(client *r2client.Client, cfg Config, log *logger.Logger) *Manager {
	return &Manager{
		client: client,
		config: cfg,
		log:    log.WithModule("snapshot"),
	}
}

// Name implements catalog.Source.
func (m *Manager) Name() string { return SourceR2 }

// Open implements catalog.Source. It downloads the snapshot and returns a
// reader over the decompressed CSV.
func (m *Manager) Open(ctx context.Context) (io.ReadCloser, error) {
	obj, err := m.client.Get(ctx, m.config.SnapshotKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("snapshot %s: %w", m.config.SnapshotKey, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("download snapshot: %w", err)
	}

	dec, err := zstd.NewReader(obj.Body)
	if err != nil {
		_ = obj.Body.Close()
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}

	m.setETag(obj.ETag)
	m.log.Info("Snapshot downloaded", "etag", obj.ETag, "records", obj.Metadata[metaRecords])
	return &decodedBody{dec: dec, body: obj.Body}, nil
}

type decodedBody struct {
	dec  *zstd.Decoder
	body io.Closer
}

func (d *decodedBody) Read(p []byte) (int, error) { return d.dec.Read(p) }

func (d *decodedBody) Close() error {
	d.dec.Close()
	return d.body.Close()
}

const metaRecords = "records"

// Publish compresses the catalog file at path and uploads it. records is
// stored as object metadata for operators. It returns the new ETag.
func (m *Manager) Publish(ctx context.Context, path string, records int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	if err := Compress(&buf, f); err != nil {
		return "", err
	}

	etag, err := m.client.Put(ctx, m.config.SnapshotKey, &buf, r2client.PutOptions{
		ContentType: ContentType,
		Metadata:    map[string]string{metaRecords: strconv.Itoa(records)},
	})
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}

	m.setETag(etag)
	m.log.Info("Snapshot published", "key", m.config.SnapshotKey, "etag", etag, "records", records)
	return etag, nil
}

// Compress writes src to dst as a single zstd frame.
func Compress(dst io.Writer, src io.Reader) error {
	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("create encoder: %w", err)
	}
	if _, err := io.Copy(enc, src); err != nil {
		_ = enc.Close()
		return fmt.Errorf("compress: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("compress: %w", err)
	}
	return nil
}

// Changed reports whether the remote snapshot differs from the one last
// downloaded or published by this manager.
func (m *Manager) Changed(ctx context.Context) (bool, error) {
	etag, err := m.client.Head(ctx, m.config.SnapshotKey)
	if err != nil {
		return false, err
	}
	return etag != m.CurrentETag(), nil
}

// CurrentETag returns the ETag of the last snapshot seen.
func (m *Manager) CurrentETag() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentETag
}

func (m *Manager) setETag(etag string) {
	m.mu.Lock()
	m.currentETag = etag
	m.mu.Unlock()
}

// AcquireLeaderLock takes the fetch lease and keeps renewing it in the
// background until ReleaseLeaderLock. It returns false when another job
// holds the lease.
func (m *Manager) AcquireLeaderLock(ctx context.Context) (bool, error) {
	lock := r2client.NewLock(m.client, m.config.LockKey, m.config.LockTTL)
	if err := lock.Acquire(ctx); err != nil {
		if errors.Is(err, apperrors.ErrLockHeld) {
			m.log.Info("Fetch lease held elsewhere", "reason", err.Error())
			return false, nil
		}
		return false, err
	}

	m.leaderMu.Lock()
	defer m.leaderMu.Unlock()
	m.stopRenewLocked()
	m.leaderLock = lock
	renewCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.renewCancel = cancel
	m.renewDone = make(chan struct{})
	go m.renewLoop(renewCtx, lock, m.renewDone)

	m.log.Info("Fetch lease acquired", "owner", lock.Owner(), "ttl", m.config.LockTTL)
	return true, nil
}

// ReleaseLeaderLock stops renewing and deletes the lease.
func (m *Manager) ReleaseLeaderLock(ctx context.Context) error {
	m.leaderMu.Lock()
	lock := m.leaderLock
	m.leaderLock = nil
	m.stopRenewLocked()
	m.leaderMu.Unlock()

	if lock == nil {
		return nil
	}
	return lock.Release(ctx)
}

func (m *Manager) stopRenewLocked() {
	if m.renewCancel != nil {
		m.renewCancel()
		<-m.renewDone
	}
	m.renewCancel = nil
	m.renewDone = nil
}

func (m *Manager) renewLoop(ctx context.Context, lock *r2client.Lock, done chan struct{}) {
	defer close(done)

	interval := max(m.config.LockTTL/3, 10*time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := lock.Renew(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				m.log.WithError(err).Warn("Fetch lease renew failed")
				return
			}
		}
	}
}
