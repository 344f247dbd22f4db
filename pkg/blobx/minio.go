package blobx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig points at an S3-compatible endpoint (MinIO, R2, S3).
type MinioConfig struct {
	// Endpoint may carry a scheme; "https://" switches TLS on.
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string

	// CreateBucket makes the bucket when it does not exist yet instead of
	// failing.
	CreateBucket bool
}

// Minio stores objects in a single bucket.
type Minio struct {
	client *minio.Client
	bucket string
}

var _ Store = (*Minio)(nil)

// NewMinio builds the client and checks the bucket is reachable.
func NewMinio(ctx context.Context, cfg MinioConfig) (*Minio, error) {
	const op = "blobx.NewMinio"

	endpoint := cfg.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		if !cfg.CreateBucket {
			return nil, fmt.Errorf("%s: bucket %q does not exist", op, cfg.Bucket)
		}
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("%s: make bucket %q: %w", op, cfg.Bucket, err)
		}
	}

	return &Minio{client: client, bucket: cfg.Bucket}, nil
}

func (m *Minio) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("blobx: put %s: %w", key, err)
	}
	return nil
}

func (m *Minio) Get(ctx context.Context, key string) (*Object, error) {
	if !ValidKey(key) {
		return nil, ErrInvalidKey
	}

	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, m.mapErr("get", key, err)
	}

	// GetObject is lazy; Stat performs the request.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, m.mapErr("stat", key, err)
	}

	return &Object{
		Key:         key,
		ContentType: info.ContentType,
		Size:        info.Size,
		Body:        obj,
	}, nil
}

func (m *Minio) Delete(ctx context.Context, key string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return m.mapErr("delete", key, err)
	}
	return nil
}

// Ping checks the bucket is still reachable.
func (m *Minio) Ping(ctx context.Context) error {
	_, err := m.client.BucketExists(ctx, m.bucket)
	return err
}

func (m *Minio) mapErr(op, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return fmt.Errorf("blobx: %s %s: %w", op, key, err)
}
