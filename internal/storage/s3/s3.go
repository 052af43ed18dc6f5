// Package s3 implements a Sink that uploads attachment content to AWS S3.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// maxRetries is the maximum number of retry attempts for transient failures.
const maxRetries = 3

// baseRetryDelay is the initial delay for exponential backoff.
const baseRetryDelay = 1 * time.Second

// SinkConfig holds the configuration for creating a Sink.
type SinkConfig struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// Sink uploads attachment content to an S3 bucket.
type Sink struct {
	bucket string
	client PutObjectAPI
}

// PutObjectAPI is the interface for the S3 PutObject operation.
// Used for testing with mock implementations.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

// New creates a new Sink with the given configuration.
func New(ctx context.Context, cfg SinkConfig) (*Sink, error) {
	var opts []func(*awsconfig.LoadOptions) error

	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Sink{
		bucket: cfg.Bucket,
		client: awss3.NewFromConfig(awsCfg),
	}, nil
}

// NewWithClient creates a Sink with a custom client, used for testing.
func NewWithClient(bucket string, client PutObjectAPI) *Sink {
	return &Sink{
		bucket: bucket,
		client: client,
	}
}

// Put uploads data under key, retrying transient failures with exponential
// backoff. It returns the s3:// URI of the stored object.
func (s *Sink) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	input := &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			slog.Debug("retrying S3 API request",
				"attempt", attempt,
				"max_retries", maxRetries,
			)
			delay := backoffDelay(attempt)
			if err := sleepWithContext(ctx, delay); err != nil {
				return "", fmt.Errorf("context cancelled during retry wait: %w", err)
			}
			// The body reader was consumed by the previous attempt.
			input.Body = bytes.NewReader(data)
		}

		_, err := s.client.PutObject(ctx, input)
		if err == nil {
			return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
		}

		lastErr = err
		slog.Warn("S3 API error",
			"attempt", attempt,
			"error", err,
		)
	}

	return "", fmt.Errorf("S3 API request failed after %d retries: %w", maxRetries, lastErr)
}

// Name returns the sink name.
func (s *Sink) Name() string {
	return "s3"
}

// backoffDelay returns the exponential backoff delay for the given attempt number.
func backoffDelay(attempt int) time.Duration {
	delay := baseRetryDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// sleepWithContext waits for the specified duration or until the context is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
