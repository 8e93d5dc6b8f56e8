package diagnostics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"gluco_watch/internal/jsonval"
	"gluco_watch/internal/logger"
	"gluco_watch/internal/models"
	"gluco_watch/internal/service"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIOOpts struct {
	Endpoint, AccessKey, SecretKey string
	Bucket                         string
	UseTLS                         bool
}

type objectPutter interface {
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ArchiveDumper uploads every raw payload to object storage, partitioned by day.
type ArchiveDumper struct {
	client objectPutter
	bucket string
	log    *logger.Logger
}

var _ service.TickObserver = (*ArchiveDumper)(nil)

// NewArchiveDumper connects to MinIO and creates the bucket when missing.
func NewArchiveDumper(ctx context.Context, o MinIOOpts, log *logger.Logger) (*ArchiveDumper, error) {
	mc, err := minio.New(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	exists, err := mc.BucketExists(ctx, o.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", o.Bucket, err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, o.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", o.Bucket, err)
		}
	}
	return &ArchiveDumper{client: mc, bucket: o.Bucket, log: log}, nil
}

func (d *ArchiveDumper) OnSuccess(ctx context.Context, rec models.Record, raw jsonval.Value) error {
	body, err := encodeRaw(raw)
	if err != nil {
		d.log.Debugw("archive encode failed", "err", err)
		return nil
	}
	object := ObjectPath(rec.Identity, rec.FetchedAt)
	_, err = d.client.PutObject(ctx, d.bucket, object, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		d.log.Debugw("archive upload failed", "bucket", d.bucket, "object", object, "err", err)
	}
	return nil
}

func (d *ArchiveDumper) OnFailure(context.Context, error) error { return nil }

// ObjectPath is raw/{identity}/year=YYYY/month=MM/day=DD/{unix}.json in UTC.
func ObjectPath(identity string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("raw/%s/year=%04d/month=%02d/day=%02d/%d.json",
		identity, at.Year(), at.Month(), at.Day(), at.Unix())
}
