// Package storage wraps the S3-compatible object store holding appeal and
// chat attachments.  The provider is treated as a plain key/value blob
// store with list-by-prefix; everything uploaded here is publicly
// readable and served straight from the provider's URL space.
package storage

import (
	"context"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/iliyamo/renovation-appeals/internal/config"
)

// Store is a thin adapter over one bucket.  It is safe for concurrent use;
// the underlying SDK client maintains its own connection pool.
type Store struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

// New builds a Store from static credentials against a custom endpoint
// (Yandex Object Storage in production, MinIO in development).
func New(ctx context.Context, cfg config.Config) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})
	return &Store{
		client:     client,
		bucket:     cfg.S3Bucket,
		publicBase: strings.TrimSuffix(cfg.S3PublicBaseURL, "/"),
	}, nil
}

// URL returns the public link for a key: {publicBase}/{bucket}/{key}.
func (s *Store) URL(key string) string {
	return s.publicBase + "/" + s.bucket + "/" + key
}

// Put uploads a blob with a public-read ACL and returns its public URL.
// When contentType is empty it is guessed from the key's extension.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(key))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", err
	}
	return s.URL(key), nil
}

// Delete removes one blob.  Deleting a missing key is not an error on
// S3-compatible stores.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// ListByPrefix returns the keys under a prefix, skipping pure directory
// markers (keys ending in "/") that some upload tools leave behind.
func (s *Store) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			keys = append(keys, key)
		}
	}
	return keys, nil
}
