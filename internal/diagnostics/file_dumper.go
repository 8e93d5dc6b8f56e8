// Package diagnostics keeps copies of raw vendor responses for troubleshooting.
// Every dumper is best-effort: failures are logged and never returned.
package diagnostics

import (
	"context"
	"os"
	"path/filepath"

	"gluco_watch/internal/jsonval"
	"gluco_watch/internal/logger"
	"gluco_watch/internal/models"
	"gluco_watch/internal/sanitize"
	"gluco_watch/internal/service"
)

const lastStatusFile = "last_status.json"

// FileDumper overwrites <dir>/last_status.json after every successful tick.
type FileDumper struct {
	dir string
	log *logger.Logger
}

var _ service.TickObserver = (*FileDumper)(nil)

func NewFileDumper(dir string, log *logger.Logger) *FileDumper {
	return &FileDumper{dir: dir, log: log}
}

func (d *FileDumper) OnSuccess(_ context.Context, _ models.Record, raw jsonval.Value) error {
	if err := d.write(raw); err != nil {
		d.log.Debugw("diagnostic dump failed", "dir", d.dir, "err", err)
	}
	return nil
}

func (d *FileDumper) OnFailure(context.Context, error) error { return nil }

func (d *FileDumper) write(raw jsonval.Value) error {
	body, err := encodeRaw(raw)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(d.dir, lastStatusFile+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(d.dir, lastStatusFile))
}

// encodeRaw keeps the vendor payload verbatim unless it holds NaN or ±Inf,
// which JSON cannot carry; those payloads are dumped sanitized.
func encodeRaw(raw jsonval.Value) ([]byte, error) {
	body, err := raw.MarshalJSON()
	if err == nil {
		return body, nil
	}
	return sanitize.Default(raw).MarshalJSON()
}
