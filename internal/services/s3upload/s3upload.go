// Package s3upload copies finished captures and their sidecar files to
// S3-compatible object storage.
package s3upload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"saitan/internal/config"
	"saitan/internal/fileutil"
	"saitan/internal/logging"
	"saitan/internal/services"
)

const action = "upload"

// sidecarSuffixes are uploaded next to the capture when present.
var sidecarSuffixes = []string{".ots", fileutil.ChecksumSuffix}

// ObjectAPI is the subset of the S3 client used for uploads.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Option configures the client.
type Option func(*Client)

// WithAPI replaces the S3 client (primarily for tests).
func WithAPI(api ObjectAPI) Option {
	return func(c *Client) {
		if api != nil {
			c.api = api
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client uploads capture artifacts into one bucket under a fixed prefix.
type Client struct {
	bucket string
	prefix string
	api    ObjectAPI
	logger *slog.Logger
}

// New builds an uploader. Unless WithAPI is supplied the AWS SDK config is
// loaded from cfg, falling back to the default credential chain.
func New(ctx context.Context, cfg config.Upload, opts ...Option) (*Client, error) {
	c := &Client{
		bucket: strings.TrimSpace(cfg.Bucket),
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "s3upload")
	if c.api != nil {
		return c, nil
	}

	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	c.api = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return c, nil
}

func buildAWSConfig(ctx context.Context, cfg config.Upload) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	// Failed actions are reported, never retried.
	optFns = append(optFns, awsconfig.WithRetryMaxAttempts(1))
	return awsconfig.LoadDefaultConfig(ctx, optFns...)
}

// Upload stores capturePath and any sidecars that exist beside it, returning
// the s3:// URI of the capture object.
func (c *Client) Upload(ctx context.Context, capturePath string) (string, error) {
	if c.bucket == "" {
		return "", services.Wrap(services.ErrUnavailable, action, "", "upload.bucket is not configured", nil)
	}
	if !fileutil.FileExists(capturePath) {
		return "", services.Wrap(services.ErrIO, action, "stat", fmt.Sprintf("%s does not exist", capturePath), nil)
	}

	logger := logging.WithContext(ctx, c.logger)
	captureKey, err := c.put(ctx, capturePath)
	if err != nil {
		return "", err
	}
	logger.Debug("capture uploaded", logging.String("key", captureKey))

	for _, suffix := range sidecarSuffixes {
		sidecar := capturePath + suffix
		if !fileutil.FileExists(sidecar) {
			continue
		}
		key, err := c.put(ctx, sidecar)
		if err != nil {
			return "", err
		}
		logger.Debug("sidecar uploaded", logging.String("key", key))
	}
	return fmt.Sprintf("s3://%s/%s", c.bucket, captureKey), nil
}

// Key returns the object key used for a local file.
func (c *Client) Key(localPath string) string {
	base := filepath.Base(localPath)
	if c.prefix == "" {
		return base
	}
	return path.Join(c.prefix, base)
}

func (c *Client) put(ctx context.Context, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", services.Wrap(services.ErrIO, action, "open", "", err)
	}
	defer file.Close()

	key := c.Key(localPath)
	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType(localPath)),
	})
	if err != nil {
		return "", services.Wrap(services.ErrNetwork, action, "put object", key, err)
	}
	return key, nil
}

func contentType(localPath string) string {
	switch {
	case strings.HasSuffix(localPath, ".warc.gz"):
		return "application/warc+gzip"
	case strings.HasSuffix(localPath, fileutil.ChecksumSuffix):
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
