package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"orgdir/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3AvatarStore struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3AvatarStore connects to an S3-compatible backend. A custom endpoint
// covers R2 and other compatible object stores.
func NewS3AvatarStore(cfg config.Config) (AvatarStore, error) {
	bucket := strings.TrimSpace(cfg.AvatarS3Bucket)
	if bucket == "" {
		return nil, errors.New("storage: missing S3 bucket")
	}
	region := strings.TrimSpace(cfg.AvatarS3Region)
	if region == "" {
		return nil, errors.New("storage: missing S3 region")
	}
	accessKey := strings.TrimSpace(cfg.AvatarS3AccessKeyID)
	secretKey := strings.TrimSpace(cfg.AvatarS3SecretAccessKey)
	if accessKey == "" || secretKey == "" {
		return nil, errors.New("storage: missing S3 credentials")
	}

	awsCfg := aws.Config{
		Region: region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, strings.TrimSpace(cfg.AvatarS3SessionToken)),
		),
	}

	endpoint := strings.TrimSpace(cfg.AvatarS3Endpoint)
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.AvatarS3ForcePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &s3AvatarStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(strings.TrimSpace(cfg.AvatarS3Prefix), "/"),
	}, nil
}

func (s *s3AvatarStore) SaveAvatar(ctx context.Context, ownerID string, data []byte, ext string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty avatar payload")
	}

	key := avatarKey(ownerID, ext)
	if s.prefix != "" {
		key = joinPrefix(s.prefix, key)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(imageContentType(ext)),
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put avatar: %w", err)
	}

	return key, nil
}

var _ AvatarStore = (*s3AvatarStore)(nil)
