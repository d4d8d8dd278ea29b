// Package snapshot publishes the committed attendance table as a CSV file at
// a fixed local path and, when object storage is configured, as a
// zstd-compressed copy in R2. It can also restore a missing local file from R2.
package snapshot

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garyellow/attendance-go/internal/attendance"
	domerrors "github.com/garyellow/attendance-go/internal/errors"
	"github.com/garyellow/attendance-go/internal/export"
	"github.com/garyellow/attendance-go/internal/r2client"
)

// Publication targets, used as metric labels.
const (
	TargetLocal = "local"
	TargetR2    = "r2"
)

// Publication results, used as metric labels.
const (
	ResultSuccess   = "success"
	ResultError     = "error"
	ResultUnchanged = "unchanged"
)

// checksumKey is the object metadata key holding the hex SHA-256 of the uploaded body.
const checksumKey = "sha256"

var publishErr = domerrors.NewWrapper("snapshot", "publish")

// ObjectStore is the object storage used for remote snapshots.
// *r2client.Client implements it.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string, metadata map[string]string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	Head(ctx context.Context, key string) (r2client.ObjectInfo, error)
}

// MetricsRecorder records publication outcomes.
type MetricsRecorder interface {
	RecordSnapshot(target, result string)
}

// Config holds publisher configuration.
type Config struct {
	CSVPath     string // local CSV path
	BOM         bool   // prefix the local CSV with a UTF-8 BOM
	SnapshotKey string // object key of the compressed snapshot
}

// Result describes one publication.
type Result struct {
	Records   int
	LocalPath string
	RemoteKey string // empty when no object store is configured
	ETag      string
	Unchanged bool // the remote copy already held identical content
}

// Publisher writes snapshots. A nil store disables the remote copy.
type Publisher struct {
	config  Config
	store   ObjectStore
	metrics MetricsRecorder
	logger  *slog.Logger

	mu          sync.RWMutex
	currentETag string
}

// New creates a publisher. store and metrics may be nil.
func New(cfg Config, store ObjectStore, metrics MetricsRecorder, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{config: cfg, store: store, metrics: metrics, logger: logger}
}

// RemoteEnabled reports whether snapshots are uploaded to object storage.
func (p *Publisher) RemoteEnabled() bool {
	return p.store != nil && p.config.SnapshotKey != ""
}

// Publish writes records to the local CSV and uploads the compressed copy concurrently.
// Both targets must succeed; errors from both are reported.
func (p *Publisher) Publish(ctx context.Context, records []attendance.Record) (Result, error) {
	start := time.Now()
	res := Result{Records: len(records), LocalPath: p.config.CSVPath}

	g, gctx := errgroup.WithContext(ctx)
	var localErr, remoteErr error

	g.Go(func() error {
		localErr = export.SaveFile(p.config.CSVPath, records, p.config.BOM)
		p.record(TargetLocal, localErr)
		return nil
	})

	if p.RemoteEnabled() {
		res.RemoteKey = p.config.SnapshotKey
		g.Go(func() error {
			etag, unchanged, err := p.upload(gctx, records)
			remoteErr = err
			res.ETag = etag
			res.Unchanged = unchanged
			if unchanged {
				p.recordResult(TargetR2, ResultUnchanged)
			} else {
				p.record(TargetR2, err)
			}
			return nil
		})
	}

	_ = g.Wait()
	if err := errors.Join(localErr, remoteErr); err != nil {
		var failed []string
		if localErr != nil {
			failed = append(failed, TargetLocal)
		}
		if remoteErr != nil {
			failed = append(failed, TargetR2)
		}
		return res, publishErr.Wrapf(err, "snapshot publication failed (%s)", strings.Join(failed, ", "))
	}

	if res.ETag != "" {
		p.setETag(res.ETag)
	}
	p.logger.InfoContext(ctx, "snapshot published",
		"records", res.Records,
		"path", res.LocalPath,
		"remote_key", res.RemoteKey,
		"unchanged", res.Unchanged,
		"duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

// upload compresses records and stores them under the snapshot key. When the
// stored object already has the same checksum the upload is skipped and its
// ETag is returned with unchanged set.
func (p *Publisher) upload(ctx context.Context, records []attendance.Record) (etag string, unchanged bool, err error) {
	var buf bytes.Buffer
	// The remote copy never carries a BOM; it is decoded by this program only.
	if err := export.WriteCSV(&buf, records, false); err != nil {
		return "", false, fmt.Errorf("encode csv: %w", err)
	}
	compressed, err := r2client.Compress(buf.Bytes())
	if err != nil {
		return "", false, err
	}
	sum := sha256.Sum256(compressed)
	checksum := hex.EncodeToString(sum[:])

	info, err := p.store.Head(ctx, p.config.SnapshotKey)
	switch {
	case err == nil && info.Metadata[checksumKey] == checksum:
		p.logger.DebugContext(ctx, "remote snapshot unchanged", "key", p.config.SnapshotKey, "etag", info.ETag)
		return info.ETag, true, nil
	case err != nil && !errors.Is(err, r2client.ErrNotFound):
		p.logger.WarnContext(ctx, "remote snapshot head failed, uploading anyway", "key", p.config.SnapshotKey, "error", err)
	}

	metadata := map[string]string{
		"records":      strconv.Itoa(len(records)),
		"published-at": time.Now().UTC().Format(time.RFC3339),
		checksumKey:    checksum,
	}
	etag, err = p.store.Upload(ctx, p.config.SnapshotKey, bytes.NewReader(compressed), r2client.ContentTypeZstd, metadata)
	return etag, false, err
}

// Restore downloads the remote snapshot into the local CSV path when the local
// file does not exist. Reports whether a file was restored. A missing remote
// snapshot is not an error.
func (p *Publisher) Restore(ctx context.Context) (bool, error) {
	if !p.RemoteEnabled() {
		return false, nil
	}
	if _, err := os.Stat(p.config.CSVPath); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", p.config.CSVPath, err)
	}

	body, etag, err := p.store.Download(ctx, p.config.SnapshotKey)
	if errors.Is(err, r2client.ErrNotFound) {
		p.logger.InfoContext(ctx, "no remote snapshot to restore", "key", p.config.SnapshotKey)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("download snapshot: %w", err)
	}
	defer func() { _ = body.Close() }()

	if err := writeDecompressed(body, p.config.CSVPath); err != nil {
		return false, err
	}

	p.setETag(etag)
	p.logger.InfoContext(ctx, "snapshot restored", "key", p.config.SnapshotKey, "path", p.config.CSVPath)
	return true, nil
}

func writeDecompressed(r io.Reader, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.restore")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := r2client.DecompressStream(r, tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (p *Publisher) record(target string, err error) {
	if err != nil {
		p.recordResult(target, ResultError)
		return
	}
	p.recordResult(target, ResultSuccess)
}

func (p *Publisher) recordResult(target, result string) {
	if p.metrics != nil {
		p.metrics.RecordSnapshot(target, result)
	}
}

// CurrentETag returns the ETag of the last published or restored snapshot.
func (p *Publisher) CurrentETag() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentETag
}

func (p *Publisher) setETag(etag string) {
	p.mu.Lock()
	p.currentETag = etag
	p.mu.Unlock()
}
