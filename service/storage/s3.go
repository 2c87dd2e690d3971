// Package storage is the blob storage collaborator: clients upload through
// one-time presigned URLs and every stored object is referenced elsewhere
// only by its opaque key.
package storage

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/danglnh07/concord/util"
	"github.com/google/uuid"
)

type BlobStore struct {
	s3Client *s3.S3
	bucket   string
	expiry   time.Duration
}

func NewBlobStore(config *util.Config) (*BlobStore, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWSRegion),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &BlobStore{
		s3Client: s3.New(sess),
		bucket:   config.S3Bucket,
		expiry:   config.UploadExpiry,
	}, nil
}

// GenerateUploadURL returns a fresh object key and a presigned PUT URL the
// client uploads to directly.
func (store *BlobStore) GenerateUploadURL() (key, url string, err error) {
	key = uuid.NewString()

	req, _ := store.s3Client.PutObjectRequest(&s3.PutObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(key),
	})
	url, err = req.Presign(store.expiry)
	if err != nil {
		return "", "", fmt.Errorf("failed to presign upload: %w", err)
	}
	return key, url, nil
}

// GetURL resolves a stored object key to a time-limited download URL.
// An empty key resolves to an empty URL so callers can pass optional keys
// straight through.
func (store *BlobStore) GetURL(key string) (string, error) {
	if key == "" {
		return "", nil
	}

	req, _ := store.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(store.expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return url, nil
}
