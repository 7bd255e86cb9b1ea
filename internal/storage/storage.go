package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"surveyhub/internal/config"
	"surveyhub/internal/errors"
)

// UploadExpiry is how long a presigned avatar upload stays valid.
const UploadExpiry = 15 * time.Minute

var avatarExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// Upload is a presigned PUT the client performs directly against the bucket.
type Upload struct {
	Key       string            `json:"key"`
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// Presigner is the subset of s3.PresignClient in use.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// AvatarStorage hands out avatar upload URLs.
type AvatarStorage interface {
	PresignAvatarUpload(ctx context.Context, userID, contentType string) (*Upload, error)
}

// S3Storage presigns uploads against an S3 compatible bucket.
type S3Storage struct {
	presigner Presigner
	bucket    string
	now       func() time.Time
}

// NewS3Storage builds a presigning client from static credentials.
func NewS3Storage(ctx context.Context, cfg config.StorageConfig) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3StorageWithPresigner(s3.NewPresignClient(client), cfg.Bucket), nil
}

// NewS3StorageWithPresigner wires an existing presigner.
func NewS3StorageWithPresigner(p Presigner, bucket string) *S3Storage {
	return &S3Storage{presigner: p, bucket: bucket, now: time.Now}
}

// PresignAvatarUpload returns a PUT URL for a new avatar object of userID.
func (s *S3Storage) PresignAvatarUpload(ctx context.Context, userID, contentType string) (*Upload, error) {
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, errors.BadRequest(fmt.Sprintf("unsupported avatar content type %q", contentType))
	}

	key := fmt.Sprintf("avatars/%s/%s.%s", userID, uuid.NewString(), ext)
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(UploadExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign avatar upload: %w", err)
	}

	headers := make(map[string]string, len(req.SignedHeader))
	for name, values := range req.SignedHeader {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}
	return &Upload{
		Key:       key,
		URL:       req.URL,
		Method:    req.Method,
		Headers:   headers,
		ExpiresAt: s.now().Add(UploadExpiry),
	}, nil
}
