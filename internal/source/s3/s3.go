// Package s3 loads the dataset from an object in an S3-compatible bucket
// (AWS S3 or MinIO).
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"wastedash/internal/core"
	"wastedash/internal/source"
)

// maxObject caps the size of a downloaded dataset object.
const maxObject = 64 << 20

// Config locates the dataset object. Credentials come from the default AWS
// chain (AWS_ACCESS_KEY_ID, shared config, instance role).
type Config struct {
	Region    string
	Bucket    string
	Key       string
	Endpoint  string // optional, e.g. a MinIO URL
	PathStyle bool
}

type getter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Object reads one CSV or XLSX object.
type Object struct {
	client getter
	bucket string
	key    string
}

// New creates an object loader from cfg.
func New(ctx context.Context, cfg Config) (*Object, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	if cfg.Key == "" {
		return nil, errors.New("s3 key required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Object{client: client, bucket: cfg.Bucket, key: cfg.Key}, nil
}

// Load downloads and decodes the object.
func (o *Object) Load(ctx context.Context) ([]core.RawRecord, error) {
	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &o.bucket, Key: &o.key})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", o.bucket, o.key, err)
	}
	defer out.Body.Close()
	return source.Decode(source.FormatOf(o.key), io.LimitReader(out.Body, maxObject))
}
