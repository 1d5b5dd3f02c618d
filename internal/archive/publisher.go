// Package archive republishes stories and corrections to outward-facing
// destinations: object storage, a local mirror directory and an event bus.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/renameio/v2"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/domain"
)

var ErrInvalidKey = errors.New("invalid archive key")

// DirPublisher mirrors objects into a local directory.
type DirPublisher struct {
	root string
}

var _ domain.Publisher = (*DirPublisher)(nil)

func NewDirPublisher(root string) *DirPublisher {
	return &DirPublisher{root: root}
}

func (d *DirPublisher) Put(_ context.Context, key string, body []byte, _ string) error {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	path := filepath.Join(d.root, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return renameio.WriteFile(path, body, 0o644)
}

// putObjectAPI is the slice of the S3 client the publisher needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Bucket       string
	Prefix       string
	Region       string
	UsePathStyle bool
}

// S3Publisher upserts whole objects into a bucket.
type S3Publisher struct {
	client putObjectAPI
	bucket string
	prefix string
}

var _ domain.Publisher = (*S3Publisher)(nil)

// NewS3Publisher uses the default AWS credential chain.
func NewS3Publisher(ctx context.Context, cfg S3Config) (*S3Publisher, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newS3Publisher(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Publisher(client putObjectAPI, bucket, prefix string) *S3Publisher {
	return &S3Publisher{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (p *S3Publisher) key(key string) string {
	if p.prefix == "" {
		return key
	}
	return p.prefix + "/" + key
}

func (p *S3Publisher) Put(ctx context.Context, key string, body []byte, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key(key)),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := p.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", p.bucket, p.key(key), err)
	}
	return nil
}

// Multi fans a put out to every publisher. Every publisher is attempted;
// failures are logged and joined.
type Multi struct {
	publishers []domain.Publisher
	logger     *zap.Logger
}

var _ domain.Publisher = (*Multi)(nil)

func NewMulti(logger *zap.Logger, publishers ...domain.Publisher) *Multi {
	return &Multi{publishers: publishers, logger: logger}
}

func (m *Multi) Len() int { return len(m.publishers) }

func (m *Multi) Put(ctx context.Context, key string, body []byte, contentType string) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Put(ctx, key, body, contentType); err != nil {
			m.logger.Warn("archive put failed", zap.String("key", key), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
