package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"orgdir/internal/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type ossAvatarStore struct {
	bucket *oss.Bucket
	prefix string
}

// NewOSSAvatarStore connects to an aliyun OSS bucket.
func NewOSSAvatarStore(cfg config.Config) (AvatarStore, error) {
	endpoint := strings.TrimSpace(cfg.AvatarOSSEndpoint)
	if endpoint == "" {
		return nil, errors.New("storage: missing OSS endpoint")
	}
	bucketName := strings.TrimSpace(cfg.AvatarOSSBucket)
	if bucketName == "" {
		return nil, errors.New("storage: missing OSS bucket")
	}
	accessKey := strings.TrimSpace(cfg.AvatarOSSAccessKeyID)
	secretKey := strings.TrimSpace(cfg.AvatarOSSAccessKeySecret)
	if accessKey == "" || secretKey == "" {
		return nil, errors.New("storage: missing OSS credentials")
	}

	client, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("storage: create OSS client: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("storage: open OSS bucket: %w", err)
	}

	return &ossAvatarStore{
		bucket: bucket,
		prefix: strings.Trim(strings.TrimSpace(cfg.AvatarOSSPrefix), "/"),
	}, nil
}

func (s *ossAvatarStore) SaveAvatar(ctx context.Context, ownerID string, data []byte, ext string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty avatar payload")
	}

	key := avatarKey(ownerID, ext)
	if s.prefix != "" {
		key = joinPrefix(s.prefix, key)
	}

	options := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(imageContentType(ext)),
	}
	if err := s.bucket.PutObject(key, bytes.NewReader(data), options...); err != nil {
		return "", fmt.Errorf("put avatar: %w", err)
	}

	return key, nil
}

var _ AvatarStore = (*ossAvatarStore)(nil)
