package diagnostics

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gluco_watch/internal/jsonval"
	"gluco_watch/internal/logger"
	"gluco_watch/internal/models"

	"github.com/minio/minio-go/v7"
)

func rawPayload(t *testing.T) jsonval.Value {
	t.Helper()
	v, err := jsonval.Parse([]byte(`{"data":{"chart":{"sg":[[1700000000,5.5]]}}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return v
}

func TestFileDumper_WritesLastStatus(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "diag")
	d := NewFileDumper(dir, logger.Get(logger.ErrorLevel))

	if err := d.OnSuccess(context.Background(), models.Record{}, rawPayload(t)); err != nil {
		t.Fatalf("OnSuccess returned %v", err)
	}
	body, err := os.ReadFile(filepath.Join(dir, "last_status.json"))
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if string(body) != `{"data":{"chart":{"sg":[[1700000000,5.5]]}}}` {
		t.Fatalf("dump = %s", body)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestFileDumper_NonFinitePayloadIsDumpedSanitized(t *testing.T) {
	dir := t.TempDir()
	d := NewFileDumper(dir, logger.Get(logger.ErrorLevel))
	raw, err := jsonval.Parse([]byte(`{"data":{"chart":{"sg":[[100,NaN],[200,6.1]]}}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if err := d.OnSuccess(context.Background(), models.Record{}, raw); err != nil {
		t.Fatalf("OnSuccess returned %v", err)
	}
	body, err := os.ReadFile(filepath.Join(dir, "last_status.json"))
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if want := `{"data":{"chart":{"sg":[{"0":100,"1":null},{"0":200,"1":6.1}]}}}`; string(body) != want {
		t.Fatalf("dump = %s, want %s", body, want)
	}
}

func TestFileDumper_SwallowsErrors(t *testing.T) {
	// A regular file where the directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	d := NewFileDumper(filepath.Join(blocker, "diag"), logger.Get(logger.ErrorLevel))

	if err := d.OnSuccess(context.Background(), models.Record{}, rawPayload(t)); err != nil {
		t.Fatalf("dump errors must be swallowed, got %v", err)
	}
	if err := d.OnFailure(context.Background(), errors.New("tick failed")); err != nil {
		t.Fatalf("OnFailure: %v", err)
	}
}

type fakePutter struct {
	bucket, object string
	body           []byte
	contentType    string
	err            error
}

func (f *fakePutter) PutObject(_ context.Context, bucket, object string, r io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.bucket, f.object, f.contentType = bucket, object, opts.ContentType
	f.body, _ = io.ReadAll(r)
	return minio.UploadInfo{Bucket: bucket, Key: object}, f.err
}

func TestArchiveDumper_UploadsPartitionedObject(t *testing.T) {
	fake := &fakePutter{}
	d := &ArchiveDumper{client: fake, bucket: "raw-status", log: logger.Get(logger.ErrorLevel)}

	rec := models.Record{Identity: "42", FetchedAt: time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("X", -3600))}
	if err := d.OnSuccess(context.Background(), rec, rawPayload(t)); err != nil {
		t.Fatalf("OnSuccess: %v", err)
	}

	want := "raw/42/year=2024/month=03/day=10/1710030600.json"
	if fake.object != want {
		t.Fatalf("object = %q, want %q", fake.object, want)
	}
	if fake.bucket != "raw-status" || fake.contentType != "application/json" {
		t.Fatalf("bucket=%q content-type=%q", fake.bucket, fake.contentType)
	}
	if len(fake.body) == 0 {
		t.Fatalf("empty upload")
	}
}

func TestArchiveDumper_SwallowsUploadError(t *testing.T) {
	d := &ArchiveDumper{client: &fakePutter{err: errors.New("access denied")}, bucket: "b", log: logger.Get(logger.ErrorLevel)}
	if err := d.OnSuccess(context.Background(), models.Record{Identity: "1"}, rawPayload(t)); err != nil {
		t.Fatalf("upload errors must be swallowed, got %v", err)
	}
}
