package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hemolink/hemolink/internal/pkg/crypto"
)

// S3Config holds settings for the S3 backend.
type S3Config struct {
	// Endpoint overrides the S3 endpoint. Empty uses AWS.
	Endpoint string

	// Region is the bucket region.
	Region string

	// Bucket is the bucket holding document files.
	Bucket string

	// AccessKeyID and SecretAccessKey are static credentials.
	// Empty values fall back to the default credential chain.
	AccessKeyID     string
	SecretAccessKey string
}

// S3Backend stores document files in an S3-compatible object store.
// Objects are keyed by content hash under a sharded prefix.
type S3Backend struct {
	client *s3.Client
	bucket string
}

var _ Backend = (*S3Backend)(nil)

// NewS3Backend creates an S3 backend for the configured bucket.
func NewS3Backend(ctx context.Context, cfg S3Config) (*S3Backend, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Custom endpoints (MinIO etc.) need path-style addressing
			o.UsePathStyle = true
		}
	})

	return &S3Backend{client: client, bucket: cfg.Bucket}, nil
}

// objectKey returns the sharded object key for a content hash.
func (b *S3Backend) objectKey(contentHash string) string {
	if len(contentHash) < 4 {
		return "documents/" + contentHash
	}
	return "documents/" + contentHash[0:2] + "/" + contentHash[2:4] + "/" + contentHash
}

// Store uploads content under its SHA-256 hash. The hash is computed
// while buffering, so the content is read exactly once.
func (b *S3Backend) Store(ctx context.Context, reader io.Reader, size int64) (string, error) {
	hashReader := crypto.NewHashReader(reader)

	var buf bytes.Buffer
	if size > 0 {
		buf.Grow(int(size))
	}
	written, err := io.Copy(&buf, hashReader)
	if err != nil {
		return "", fmt.Errorf("buffering content: %w", err)
	}
	if size > 0 && written != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, read %d", size, written)
	}

	contentHash := hashReader.SHA256()
	key := b.objectKey(contentHash)

	// Already stored: dedup by content hash
	exists, err := b.Exists(ctx, contentHash)
	if err == nil && exists {
		return contentHash, nil
	}

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(written),
	})
	if err != nil {
		return "", fmt.Errorf("uploading content: %w", err)
	}
	return contentHash, nil
}

// Retrieve returns a stream of the content with the given hash.
func (b *S3Backend) Retrieve(ctx context.Context, contentHash string) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(contentHash)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("downloading content: %w", err)
	}
	return out.Body, nil
}

// Delete removes content by its hash.
func (b *S3Backend) Delete(ctx context.Context, contentHash string) error {
	exists, err := b.Exists(ctx, contentHash)
	if err != nil {
		return err
	}
	if !exists {
		return ErrFileNotFound
	}

	_, err = b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(contentHash)),
	})
	if err != nil {
		return fmt.Errorf("deleting content: %w", err)
	}
	return nil
}

// Exists checks whether content with the given hash exists.
func (b *S3Backend) Exists(ctx context.Context, contentHash string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(contentHash)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("checking content: %w", err)
	}
	return true, nil
}

// GetSize returns the size in bytes of stored content.
func (b *S3Backend) GetSize(ctx context.Context, contentHash string) (int64, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(contentHash)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return 0, ErrFileNotFound
		}
		return 0, fmt.Errorf("checking content: %w", err)
	}
	if out.ContentLength == nil {
		return 0, nil
	}
	return *out.ContentLength, nil
}

// GetPath returns the s3:// location of a content hash.
func (b *S3Backend) GetPath(contentHash string) string {
	return "s3://" + b.bucket + "/" + b.objectKey(contentHash)
}
