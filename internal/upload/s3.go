package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const imagesSegment = "images"

// S3Client is the subset of the S3 API used by S3Uploader.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores campaign images under
// "<prefix>/<campaign>/images/<rel>". It is safe for concurrent use.
type S3Uploader struct {
	client        S3Client
	bucket        string
	prefix        string
	baseURL       string
	uploadTimeout time.Duration
}

// Option configures an S3Uploader.
type Option func(*options)

type options struct {
	client        S3Client
	uploadTimeout time.Duration
}

// WithS3Client uses a pre-configured client instead of one built from the
// AWS default config chain.
func WithS3Client(c S3Client) Option {
	return func(o *options) { o.client = c }
}

// WithUploadTimeout bounds each PutObject call.
func WithUploadTimeout(d time.Duration) Option {
	return func(o *options) { o.uploadTimeout = d }
}

// NewS3Uploader returns an uploader for cfg.
func NewS3Uploader(ctx context.Context, cfg Config, opts ...Option) (*S3Uploader, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		loadOpts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.Region),
		}

		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadAWSConfig, err)
		}

		client = s3.NewFromConfig(awsCfg, func(so *s3.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}

			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return &S3Uploader{
		client:        client,
		bucket:        cfg.Bucket,
		prefix:        strings.Trim(cfg.Prefix, "/"),
		baseURL:       baseURL(cfg),
		uploadTimeout: o.uploadTimeout,
	}, nil
}

func baseURL(cfg Config) string {
	u := cfg.BaseURL

	if u == "" {
		if cfg.Endpoint != "" {
			u = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Bucket)
		} else {
			u = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	if !strings.HasSuffix(u, "/") {
		u += "/"
	}

	return u
}

// Key returns the object key of image rel (relative to the campaign's
// images folder).
func (u *S3Uploader) Key(campaign, rel string) string {
	return path.Join(u.prefix, campaign, imagesSegment, filepath.ToSlash(rel))
}

// URL returns the public URL of image rel of campaign.
func (u *S3Uploader) URL(campaign, rel string) string {
	return u.baseURL + u.Key(campaign, rel)
}

// Upload stores data as image rel of campaign and returns its public URL.
func (u *S3Uploader) Upload(ctx context.Context, campaign, rel string, data []byte) (string, error) {
	if u.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.uploadTimeout)
		defer cancel()
	}

	key := u.Key(campaign, rel)

	contentType := mime.TypeByExtension(strings.ToLower(path.Ext(key)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", classifyS3Error(err, key)
	}

	return u.URL(campaign, rel), nil
}

// classifyS3Error maps SDK errors onto the package errors. Every result
// matches ErrUpload.
func classifyS3Error(err error, key string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w: %s", ErrUpload, ErrTimeout, key)
	}

	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s: %w", ErrUpload, key, err)
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return fmt.Errorf("%w: %w", ErrUpload, ErrBucketNotFound)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied":
			return fmt.Errorf("%w: %w: %s", ErrUpload, ErrAccessDenied, key)
		case "NoSuchBucket":
			return fmt.Errorf("%w: %w", ErrUpload, ErrBucketNotFound)
		case "SlowDown", "ServiceUnavailable", "RequestTimeout":
			return fmt.Errorf("%w: %w: %s", ErrUpload, ErrUnavailable, key)
		default:
			return fmt.Errorf("%w: %s (code: %s): %w", ErrUpload, key, apiErr.ErrorCode(), err)
		}
	}

	return fmt.Errorf("%w: %s: %w", ErrUpload, key, err)
}
