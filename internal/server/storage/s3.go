package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/vistoria/internal/common"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config describes an S3-compatible bucket (AWS or MinIO).
type S3Config struct {
	Region   string
	User     string
	Password string
	Endpoint string
	Bucket   string
	// BaseURL overrides the public URL prefix. Defaults to Endpoint/Bucket.
	BaseURL string
}

// S3 stores photos as objects in a bucket.
type S3 struct {
	client  objectPutter
	bucket  string
	baseURL string
}

// NewS3 builds an S3 client with static credentials and path-style addressing.
func NewS3(ctx context.Context, c S3Config) (*S3, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.User, c.Password, "")))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = true
	})

	base := c.BaseURL
	if base == "" {
		base = joinURL(c.Endpoint, c.Bucket)
	}
	return &S3{client: client, bucket: c.Bucket, baseURL: base}, nil
}

func (s *S3) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (int64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
		Body:   r,
	}
	if size > 0 {
		in.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return 0, fmt.Errorf("%w: put object %s: %w", common.ErrStorageWrite, name, err)
	}
	return size, nil
}

func (s *S3) URL(name string) string {
	return joinURL(s.baseURL, name)
}
