// Package archive ships finished-run artifacts to S3 compatible object
// storage. Archiving is strictly best effort: a failed upload is logged and
// the panel carries on.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/benchdeck/benchdeck/pkg/config"
	"github.com/benchdeck/benchdeck/pkg/logging"
)

// uploadConcurrency bounds parallel PutObject calls per run.
const uploadConcurrency = 4

// Artifact is one object to upload for a run.
type Artifact struct {
	Key         string // object key relative to the run's prefix
	Body        []byte
	ContentType string
}

// objectPutter is the slice of the S3 client the uploader needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader writes run artifacts to a bucket under <prefix>/<run id>/.
type Uploader struct {
	client objectPutter
	bucket string
	prefix string
	logger logging.Logger
}

// New builds an uploader from the archive configuration. Credentials come
// from the usual SDK chain; BENCHDECK_ARCHIVE_ACCESS_KEY and _SECRET_KEY
// (via options) take precedence when set. A custom endpoint switches the
// client to path-style addressing for MinIO style stores.
func New(ctx context.Context, cfg config.ArchiveConfig, logger logging.Logger, accessKey, secretKey string) (*Uploader, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient wires an uploader onto an existing client. Tests use this
// with a fake.
func NewWithClient(client objectPutter, cfg config.ArchiveConfig, logger logging.Logger) *Uploader {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "runs"
	}
	return &Uploader{
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
		logger: logger,
	}
}

// UploadRun stores all artifacts for one run concurrently. The first error
// is returned after every upload has been attempted or cancelled.
func (u *Uploader) UploadRun(ctx context.Context, runID string, artifacts []Artifact) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)

	for _, a := range artifacts {
		g.Go(func() error {
			key := path.Join(u.prefix, runID, a.Key)

			input := &s3.PutObjectInput{
				Bucket: aws.String(u.bucket),
				Key:    aws.String(key),
				Body:   bytes.NewReader(a.Body),
			}
			if a.ContentType != "" {
				input.ContentType = aws.String(a.ContentType)
			}

			if _, err := u.client.PutObject(ctx, input); err != nil {
				return fmt.Errorf("upload %s: %w", key, err)
			}

			u.logger.Debug("artifact uploaded",
				logging.RunID(runID),
				logging.String("key", key),
				logging.Count(len(a.Body)))
			return nil
		})
	}
	return g.Wait()
}
