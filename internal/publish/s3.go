package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/deusflow/briefing/internal/render"
)

const (
	htmlContentType  = "text/html; charset=utf-8"
	pageCacheControl = "public, max-age=300"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads the page to an S3 (or S3-compatible) bucket.
type S3Publisher struct {
	client putObjectAPI
	bucket string
	key    string
}

// NewS3Publisher uses the default AWS configuration chain, with an optional
// region override.
func NewS3Publisher(ctx context.Context, bucket, key, region string) (*S3Publisher, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Publisher{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		key:    key,
	}, nil
}

func (p *S3Publisher) Name() string { return "s3" }

func (p *S3Publisher) Publish(ctx context.Context, art render.Artifact) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.bucket),
		Key:          aws.String(p.key),
		Body:         strings.NewReader(art.HTML),
		ContentType:  aws.String(htmlContentType),
		CacheControl: aws.String(pageCacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", p.bucket, p.key, err)
	}
	return nil
}
