// Package snapshot reads the records of one browser store. SQLite stores
// are copied to a private temporary file first because the browser keeps
// the live file open and locked.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/runnerr0/browsersearch/internal/browser"
	"github.com/runnerr0/browsersearch/internal/logging"
	"github.com/runnerr0/browsersearch/internal/record"
	"github.com/runnerr0/browsersearch/internal/storage"
)

// Failure classes. Errors returned by Extract wrap exactly one of these.
var (
	ErrSnapshotCopy  = errors.New("snapshot copy failed")
	ErrStoreQuery    = errors.New("store query failed")
	ErrMetadataParse = errors.New("metadata parse failed")
)

// TempPrefix prefixes every snapshot file name.
const TempPrefix = "browsersearch-"

// Extractor reads rows from a single Source without modifying it.
type Extractor struct {
	tempDir string
	logger  *zap.Logger
}

// New creates an Extractor that places snapshots in tempDir (os.TempDir
// when empty).
func New(tempDir string, logger *zap.Logger) *Extractor {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	logger = logging.OrNop(logger)
	return &Extractor{tempDir: tempDir, logger: logger}
}

// Extract returns the raw rows of src.
func (e *Extractor) Extract(ctx context.Context, src browser.Source) ([]record.Raw, error) {
	start := time.Now()

	var (
		rows []record.Raw
		err  error
	)
	switch {
	case src.Store == browser.History:
		rows, err = e.history(ctx, src.StorePath)
	case src.Family == browser.FamilySafari:
		rows, err = readPlistBookmarks(src.StorePath)
	default:
		rows, err = readJSONBookmarks(src.StorePath, e.logger)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("extracted",
		zap.Stringer("source", src),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rows, nil
}

// history snapshots a SQLite history file and queries the copy. The copy
// is removed on every path out of this function.
func (e *Extractor) history(ctx context.Context, path string) ([]record.Raw, error) {
	tmp, err := e.copyToTemp(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotCopy, err)
	}
	defer e.remove(tmp)

	db, err := storage.Open(tmp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreQuery, err)
	}
	defer db.Close()

	rows, err := db.Visits(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStoreQuery, path, err)
	}
	return rows, nil
}

// copyToTemp copies src to a uniquely named file in the temp directory.
// On failure nothing is left behind.
func (e *Extractor) copyToTemp(ctx context.Context, src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	dst := filepath.Join(e.tempDir, TempPrefix+uuid.NewString()+".db")
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}

	_, copyErr := io.Copy(out, &ctxReader{ctx: ctx, r: in})
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		e.remove(dst)
		if copyErr != nil {
			return "", fmt.Errorf("copy %s: %w", src, copyErr)
		}
		return "", fmt.Errorf("close %s: %w", dst, closeErr)
	}
	return dst, nil
}

func (e *Extractor) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		e.logger.Warn("remove snapshot", zap.String("path", path), zap.Error(err))
	}
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
