// forum-backend/utils/storage.go
package utils

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// LocalStorage persists attachments on local disk under UploadDir. Stored
// references are serving paths of the form /uploads/<name>.
type LocalStorage struct {
	UploadDir string
}

func (ls *LocalStorage) SaveFile(filename string, data []byte, contentType string) (string, error) {
	fullPath := filepath.Join(ls.UploadDir, filepath.FromSlash(filename))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", err
	}
	return "/uploads/" + filename, nil
}

func (ls *LocalStorage) DeleteFile(path string) error {
	// Path is like "/uploads/threads/7/name.ext"
	rel := strings.TrimPrefix(path, "/uploads/")
	fullPath := filepath.Join(ls.UploadDir, filepath.FromSlash(rel))
	err := os.Remove(fullPath)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// S3Storage persists attachments in S3-compatible object storage. Stored
// references are full public URLs.
type S3Storage struct {
	Client     *minio.Client
	BucketName string
	PublicURL  string
}

func NewS3Storage(endpoint, accessKey, secretKey, bucket, region, publicURL string, useSSL bool) (*S3Storage, error) {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	var creds *credentials.Credentials
	if accessKey == "" || secretKey == "" {
		// Fall back to IAM role credentials when keys are not provided.
		creds = credentials.NewIAM("")
	} else {
		creds = credentials.NewStaticV4(accessKey, secretKey, "")
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	exists, err := minioClient.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	if publicURL == "" {
		protocol := "http"
		if useSSL {
			protocol = "https"
		}
		publicURL = fmt.Sprintf("%s://%s.%s", protocol, bucket, endpoint)
	}
	publicURL = strings.TrimSuffix(publicURL, "/")

	return &S3Storage{
		Client:     minioClient,
		BucketName: bucket,
		PublicURL:  publicURL,
	}, nil
}

func (s3 *S3Storage) SaveFile(filename string, data []byte, contentType string) (string, error) {
	ctx := context.Background()
	reader := bytes.NewReader(data)
	_, err := s3.Client.PutObject(ctx, s3.BucketName, filename, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s", s3.PublicURL, filename), nil
}

func (s3 *S3Storage) DeleteFile(path string) error {
	// Path is the full URL; the object key is everything after the public
	// URL prefix.
	key := strings.TrimPrefix(path, s3.PublicURL+"/")
	ctx := context.Background()
	return s3.Client.RemoveObject(ctx, s3.BucketName, key, minio.RemoveObjectOptions{})
}
