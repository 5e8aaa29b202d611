package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"imagestudio/internal/config"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type ossStorage struct {
	bucket *oss.Bucket
	prefix string
}

func NewOSSStorage(cfg config.Config) (Storage, error) {
	endpoint := strings.TrimSpace(cfg.ExportOSSEndpoint)
	if endpoint == "" {
		return nil, errors.New("export: missing OSS endpoint")
	}
	bucketName := strings.TrimSpace(cfg.ExportOSSBucket)
	if bucketName == "" {
		return nil, errors.New("export: missing OSS bucket")
	}
	accessKey := strings.TrimSpace(cfg.ExportOSSAccessKeyID)
	secretKey := strings.TrimSpace(cfg.ExportOSSAccessKeySecret)
	if accessKey == "" || secretKey == "" {
		return nil, errors.New("export: missing OSS credentials")
	}

	client, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("export: create OSS client: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("export: open OSS bucket: %w", err)
	}

	return &ossStorage{
		bucket: bucket,
		prefix: trimPrefix(cfg.ExportOSSPrefix),
	}, nil
}

func (s *ossStorage) Save(ctx context.Context, data []byte, opts SaveOptions) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty payload")
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	key := buildObjectPath(opts.Category, opts.BaseName, opts.Extension)
	if s.prefix != "" {
		key = joinPrefix(s.prefix, key)
	}

	if opts.SkipIfExists {
		exists, err := s.bucket.IsObjectExist(key)
		if err != nil {
			return "", fmt.Errorf("check object: %w", err)
		}
		if exists {
			return key, nil
		}
	}

	options := []oss.Option{oss.WithContext(ctx)}
	if ct := contentTypeFor(opts); ct != "" {
		options = append(options, oss.ContentType(ct))
	}
	if cd := contentDisposition(opts); cd != "" {
		options = append(options, oss.ContentDisposition(cd))
	}

	if err := s.bucket.PutObject(key, bytes.NewReader(data), options...); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return key, nil
}

var _ Storage = (*ossStorage)(nil)
