package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

const objectScheme = "s3://"

// ObjectSource reads dataset files from S3-compatible object storage.
type ObjectSource struct {
	client *minio.Client
	logger *slog.Logger
}

// NewObjectSource constructs the source.
func NewObjectSource(endpoint, accessKey, secretKey, region string, logger *slog.Logger) (*ObjectSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := minio.New(sanitizeEndpoint(endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       strings.HasPrefix(strings.ToLower(strings.TrimSpace(endpoint)), "https"),
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object storage client: %w", err)
	}
	return &ObjectSource{client: client, logger: logger.With("component", "dataset.object")}, nil
}

// Load implements faq.DatasetSource. A key ending in "/" is resolved to
// <key><split>.jsonl.
func (s *ObjectSource) Load(ctx context.Context, name, split string) ([]faq.Record, error) {
	bucket, key, err := parseObjectURL(name)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(key, "/") || key == "" {
		key += split + ".jsonl"
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get dataset object: %w", err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read dataset object %s/%s: %w", bucket, key, err)
	}
	s.logger.Debug("dataset object fetched", "bucket", bucket, "key", key, "bytes", len(data))
	return decodeRecords(key, data)
}

func parseObjectURL(name string) (bucket, key string, err error) {
	u, err := url.Parse(name)
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid object dataset %q, want s3://bucket/key", name)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.Index(raw, "/"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

var _ faq.DatasetSource = (*ObjectSource)(nil)
