package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archive stores rendered PDFs durably and returns the object key.
type Archive interface {
	Put(ctx context.Context, key string, body []byte) error
	Bucket() string
}

// S3Archive keeps an archive copy of every export in S3.
type S3Archive struct {
	client *s3.Client
	bucket string
}

// NewS3Archive creates an archive in the given bucket using the default AWS
// credential chain.
func NewS3Archive(ctx context.Context, bucket, region string) (*S3Archive, error) {
	if region == "" {
		region = "us-east-1"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Archive{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func (a *S3Archive) Put(ctx context.Context, key string, body []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return fmt.Errorf("archive pdf: %w", err)
	}
	return nil
}

func (a *S3Archive) Bucket() string { return a.bucket }
