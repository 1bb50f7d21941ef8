package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Mirror is a remote copy of the artifact directory shared between deployments.
type Mirror interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// BucketMirrorConfig configures an S3 compatible bucket, e.g. Cloudflare R2.
type BucketMirrorConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Prefix          string
}

type bucketMirror struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewBucketMirror creates a Mirror backed by an S3 compatible bucket.
func NewBucketMirror(ctx context.Context, cfg BucketMirrorConfig) (Mirror, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
		return nil, errors.New("invalid mirror configuration: endpoint, credentials and bucket are required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for mirror: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &bucketMirror{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (m *bucketMirror) key(key string) string {
	return m.prefix + key
}

func (m *bucketMirror) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.key(key)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrMirrorMiss
		}
		return nil, fmt.Errorf("failed to get object from mirror (key: %s): %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read mirror object (key: %s): %w", key, err)
	}
	return data, nil
}

func (m *bucketMirror) Put(ctx context.Context, key string, data []byte) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(m.key(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object to mirror (key: %s): %w", key, err)
	}
	return nil
}
