// Package storage puts product images into object storage and builds their public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrEmptyFilename = errors.New("image filename is empty")

// Object is an uploaded file as received from the client.
type Object struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Info describes where images end up.
type Info struct {
	Bucket        string `json:"bucket"`
	PublicBaseURL string `json:"public_base_url"`
}

type s3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ImageStore uploads images to an S3 compatible bucket.
type S3ImageStore struct {
	client        s3PutAPI
	bucket        string
	publicBaseURL string
	now           func() time.Time
}

// S3Options configures NewS3ImageStore.
type S3Options struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

func NewS3ImageStore(ctx context.Context, opts S3Options) (*S3ImageStore, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3ImageStore(client, opts.Bucket, opts.PublicBaseURL), nil
}

func newS3ImageStore(client s3PutAPI, bucket, publicBaseURL string) *S3ImageStore {
	return &S3ImageStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: publicBaseURL,
		now:           time.Now,
	}
}

// Upload stores the object under a fresh dated key and returns its public URL.
func (s *S3ImageStore) Upload(ctx context.Context, obj Object) (string, error) {
	key, err := objectKey(s.now(), obj.Filename)
	if err != nil {
		return "", err
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   obj.Body,
	}
	if obj.Size > 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}

	return objectURL(s.publicBaseURL, s.bucket, key), nil
}

func (s *S3ImageStore) Info() Info {
	return Info{Bucket: s.bucket, PublicBaseURL: s.publicBaseURL}
}

// URLImageStore builds image URLs without writing anything.
type URLImageStore struct {
	bucket        string
	publicBaseURL string
	now           func() time.Time
}

func NewURLImageStore(bucket, publicBaseURL string) *URLImageStore {
	return &URLImageStore{bucket: bucket, publicBaseURL: publicBaseURL, now: time.Now}
}

func (s *URLImageStore) Upload(_ context.Context, obj Object) (string, error) {
	key, err := objectKey(s.now(), obj.Filename)
	if err != nil {
		return "", err
	}
	return objectURL(s.publicBaseURL, s.bucket, key), nil
}

func (s *URLImageStore) Info() Info {
	return Info{Bucket: s.bucket, PublicBaseURL: s.publicBaseURL}
}

// objectKey returns products/YYYY/MM/DD/<uuid>/<filename>.
func objectKey(now time.Time, filename string) (string, error) {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "", ErrEmptyFilename
	}

	now = now.UTC()
	return fmt.Sprintf("products/%04d/%02d/%02d/%s/%s", now.Year(), now.Month(), now.Day(), uuid.NewString(), name), nil
}

func objectURL(base, bucket, key string) string {
	dir, name := path.Split(key)

	parts := []string{strings.TrimRight(base, "/")}
	if bucket != "" {
		parts = append(parts, url.PathEscape(bucket))
	}
	parts = append(parts, dir+url.PathEscape(name))

	return strings.Join(parts, "/")
}
