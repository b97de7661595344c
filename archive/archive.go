// Package archive uploads exported flowchart documents to S3.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/meikuraledutech/flowchart"
	"github.com/meikuraledutech/flowchart/internal/config"
)

// PutObjectAPI is the part of the S3 client the archiver needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Archiver struct {
	client           PutObjectAPI
	bucket           string
	region           string
	cloudFrontDomain string
	prefix           string
	now              func() time.Time
}

// Result locates an uploaded document.
type Result struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// New builds an S3 client from cfg. Static credentials are used when set,
// otherwise the default AWS credential chain.
func New(ctx context.Context, cfg config.S3Config) (*Archiver, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	sdkConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive: load AWS config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(sdkConfig), cfg), nil
}

// NewWithClient uses an existing client.
func NewWithClient(client PutObjectAPI, cfg config.S3Config) *Archiver {
	return &Archiver{
		client:           client,
		bucket:           cfg.Bucket,
		region:           cfg.Region,
		cloudFrontDomain: cfg.CloudFrontDomain,
		prefix:           strings.Trim(cfg.Prefix, "/"),
		now:              time.Now,
	}
}

// Key is the object key of an export taken at t.
func (a *Archiver) Key(productID int64, format flowchart.ExportFormat, t time.Time) string {
	if format == "" {
		format = flowchart.FormatJSON
	}
	name := fmt.Sprintf("%s.%s", t.UTC().Format("20060102T150405Z"), format)
	return path.Join(a.prefix, fmt.Sprintf("product-%d", productID), name)
}

// URL returns the public address of key, through CloudFront when configured.
func (a *Archiver) URL(key string) string {
	if a.cloudFrontDomain != "" {
		return fmt.Sprintf("https://%s/%s", a.cloudFrontDomain, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", a.bucket, a.region, key)
}

// Archive exports chart in format and uploads it.
func (a *Archiver) Archive(ctx context.Context, chart *flowchart.Flowchart, format flowchart.ExportFormat) (Result, error) {
	var buf bytes.Buffer
	if err := chart.Export(&buf, format); err != nil {
		return Result{}, err
	}
	key := a.Key(chart.ProductID, format, a.now())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(format.ContentType()),
	})
	if err != nil {
		return Result{}, fmt.Errorf("archive: upload %s: %w", key, err)
	}
	return Result{Key: key, URL: a.URL(key)}, nil
}
