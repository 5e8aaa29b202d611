package storage

import (
	"errors"
	"fmt"
	"imagestudio/internal/config"
	"strings"
)

func NewR2Storage(cfg config.Config) (Storage, error) {
	bucket := strings.TrimSpace(cfg.ExportR2Bucket)
	if bucket == "" {
		return nil, errors.New("export: missing R2 bucket")
	}
	accessKey := strings.TrimSpace(cfg.ExportR2AccessKeyID)
	secretKey := strings.TrimSpace(cfg.ExportR2SecretAccessKey)
	if accessKey == "" || secretKey == "" {
		return nil, errors.New("export: missing R2 credentials")
	}

	endpoint := strings.TrimSpace(cfg.ExportR2Endpoint)
	accountID := strings.TrimSpace(cfg.ExportR2AccountID)
	if endpoint == "" {
		if accountID == "" {
			return nil, errors.New("export: missing R2 endpoint or account id")
		}
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
	}

	region := strings.TrimSpace(cfg.ExportR2Region)
	if region == "" {
		region = "auto"
	}

	client, err := newS3Client(s3ClientOptions{
		Region:          region,
		Endpoint:        endpoint,
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
		ForcePathStyle:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("export: create R2 client: %w", err)
	}

	return &remoteS3Storage{
		client: client,
		bucket: bucket,
		prefix: trimPrefix(cfg.ExportR2Prefix),
	}, nil
}
