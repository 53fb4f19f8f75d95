package repositories

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/arnavk09/campusswap/internal/config"
)

// ImageStore uploads listing images to an S3-compatible bucket and
// addresses them by public URL.
type ImageStore struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// NewImageStore builds the S3 client from static credentials. A custom
// endpoint supports R2/MinIO style deployments.
func NewImageStore(cfg config.StorageConfig) *ImageStore {
	awsCfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Region:      cfg.Region,
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &ImageStore{
		client:        client,
		bucket:        cfg.BucketName,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}
}

// Upload stores one object and returns its public URL.
func (s *ImageStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return s.publicBaseURL + "/" + key, nil
}

// Delete removes one object by its public URL. Unknown URLs are ignored
// so listing deletion never fails on already-gone images.
func (s *ImageStore) Delete(ctx context.Context, publicURL string) error {
	key, ok := strings.CutPrefix(publicURL, s.publicBaseURL+"/")
	if !ok {
		return fmt.Errorf("url %q is not under the public base", publicURL)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}
