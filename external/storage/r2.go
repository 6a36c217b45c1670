package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/foxseedlab/mensetsu/internal/storage"
)

type R2Config struct {
	AccountID string
	Bucket    string
	AccessKey string
	SecretKey string
}

// R2Storage stores objects in a Cloudflare R2 bucket through its S3 API.
type R2Storage struct {
	client *s3.Client
	bucket string
}

func NewR2Storage(ctx context.Context, cfg R2Config) (*R2Storage, error) {
	return newR2Storage(ctx, cfg, r2Endpoint(cfg.AccountID))
}

func newR2Storage(ctx context.Context, cfg R2Config, endpoint string) (*R2Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("load r2 config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return &R2Storage{client: client, bucket: cfg.Bucket}, nil
}

func (s *R2Storage) PutObject(ctx context.Context, input storage.PutObjectInput) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(input.Key),
		Body:          bytes.NewReader(input.Body),
		ContentType:   aws.String(input.ContentType),
		ContentLength: aws.Int64(int64(len(input.Body))),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", input.Key, err)
	}
	return nil
}

func (s *R2Storage) GetObject(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return buf.Bytes(), nil
}

func r2Endpoint(accountID string) string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
}

// DisabledStorage is used when R2 is not configured; uploads are skipped.
type DisabledStorage struct{}

func (DisabledStorage) PutObject(context.Context, storage.PutObjectInput) error {
	return storage.ErrNotConfigured
}

func (DisabledStorage) GetObject(context.Context, string) ([]byte, error) {
	return nil, storage.ErrNotConfigured
}
