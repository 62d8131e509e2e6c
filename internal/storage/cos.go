package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"orgdir/internal/config"

	"github.com/tencentyun/cos-go-sdk-v5"
)

type cosAvatarStore struct {
	client *cos.Client
	prefix string
}

// NewCOSAvatarStore connects to a tencent COS bucket.
func NewCOSAvatarStore(cfg config.Config) (AvatarStore, error) {
	baseURL := strings.TrimSpace(cfg.AvatarCOSBucketURL)
	if baseURL == "" {
		return nil, errors.New("storage: missing COS bucket URL")
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: parse COS bucket URL: %w", err)
	}

	secretID := strings.TrimSpace(cfg.AvatarCOSSecretID)
	secretKey := strings.TrimSpace(cfg.AvatarCOSSecretKey)
	if secretID == "" || secretKey == "" {
		return nil, errors.New("storage: missing COS credentials")
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: parsedURL}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  secretID,
			SecretKey: secretKey,
		},
	})

	return &cosAvatarStore{
		client: client,
		prefix: strings.Trim(strings.TrimSpace(cfg.AvatarCOSPrefix), "/"),
	}, nil
}

func (s *cosAvatarStore) SaveAvatar(ctx context.Context, ownerID string, data []byte, ext string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty avatar payload")
	}

	key := avatarKey(ownerID, ext)
	if s.prefix != "" {
		key = joinPrefix(s.prefix, key)
	}

	options := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType: imageContentType(ext),
		},
	}

	resp, err := s.client.Object.Put(ctx, key, bytes.NewReader(data), options)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return "", fmt.Errorf("put avatar: %w", err)
	}

	return key, nil
}

var _ AvatarStore = (*cosAvatarStore)(nil)
