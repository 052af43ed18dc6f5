package s3

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// mockS3Client implements PutObjectAPI for testing.
type mockS3Client struct {
	putFn     func(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	callCount int
	lastInput *awss3.PutObjectInput
}

func (m *mockS3Client) PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	m.callCount++
	m.lastInput = params
	if m.putFn != nil {
		return m.putFn(ctx, params, optFns...)
	}
	return &awss3.PutObjectOutput{}, nil
}

func TestName(t *testing.T) {
	t.Parallel()
	s := NewWithClient("attachments", &mockS3Client{})
	if got := s.Name(); got != "s3" {
		t.Errorf("Name(): got %q, want %q", got, "s3")
	}
}

func TestPut_Success(t *testing.T) {
	t.Parallel()

	mock := &mockS3Client{}
	s := NewWithClient("attachments", mock)

	uri, err := s.Put(context.Background(), "abc/report.pdf", "application/pdf", []byte("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uri != "s3://attachments/abc/report.pdf" {
		t.Errorf("uri: got %q, want %q", uri, "s3://attachments/abc/report.pdf")
	}

	if mock.callCount != 1 {
		t.Errorf("call count: got %d, want 1", mock.callCount)
	}
	input := mock.lastInput
	if got := aws.ToString(input.Bucket); got != "attachments" {
		t.Errorf("Bucket: got %q, want %q", got, "attachments")
	}
	if got := aws.ToString(input.Key); got != "abc/report.pdf" {
		t.Errorf("Key: got %q, want %q", got, "abc/report.pdf")
	}
	if got := aws.ToString(input.ContentType); got != "application/pdf" {
		t.Errorf("ContentType: got %q, want %q", got, "application/pdf")
	}
}

func TestPut_EmptyContentTypeOmitted(t *testing.T) {
	t.Parallel()

	mock := &mockS3Client{}
	s := NewWithClient("attachments", mock)

	if _, err := s.Put(context.Background(), "key", "", []byte("x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.lastInput.ContentType != nil {
		t.Errorf("ContentType: got %q, want nil", aws.ToString(mock.lastInput.ContentType))
	}
}

func TestPut_RetryOnError(t *testing.T) {
	t.Parallel()

	callCount := 0
	mock := &mockS3Client{
		putFn: func(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
			callCount++
			if callCount <= 2 {
				return nil, errors.New("transient error")
			}
			return &awss3.PutObjectOutput{}, nil
		},
	}
	s := NewWithClient("attachments", mock)

	uri, err := s.Put(context.Background(), "key", "text/plain", []byte("hello"))
	if err != nil {
		t.Fatalf("expected success after retry, got: %v", err)
	}
	if uri != "s3://attachments/key" {
		t.Errorf("uri: got %q, want %q", uri, "s3://attachments/key")
	}
	if callCount != 3 {
		t.Errorf("call count: got %d, want 3", callCount)
	}
}

func TestPut_AllRetriesExhausted(t *testing.T) {
	t.Parallel()

	mock := &mockS3Client{
		putFn: func(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
			return nil, errors.New("persistent error")
		},
	}
	s := NewWithClient("attachments", mock)

	_, err := s.Put(context.Background(), "key", "", []byte("x"))
	if err == nil {
		t.Fatal("expected error after all retries exhausted")
	}
	if !strings.Contains(err.Error(), "after 3 retries") {
		t.Errorf("error message: got %q, want to contain 'after 3 retries'", err.Error())
	}
	// 1 initial + 3 retries = 4 total
	if mock.callCount != 4 {
		t.Errorf("call count: got %d, want 4", mock.callCount)
	}
}

func TestPut_ContextCancelled(t *testing.T) {
	t.Parallel()

	mock := &mockS3Client{
		putFn: func(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
			return nil, errors.New("error")
		},
	}
	s := NewWithClient("attachments", mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	if _, err := s.Put(ctx, "key", "", []byte("x")); err == nil {
		t.Fatal("expected error when context cancelled")
	}
}

func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
	}
	for _, tt := range tests {
		if got := backoffDelay(tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(%d): got %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
