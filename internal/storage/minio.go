package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archive keeps the original DANFE PDFs in MinIO so an entry can always be
// traced back to the document it was created from.
type Archive struct {
	client *minio.Client
	bucket string
}

func NewArchive() (*Archive, error) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "minio:9000"
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	if accessKey == "" {
		accessKey = "danfe-backend"
	}

	secretKey := os.Getenv("MINIO_SECRET_KEY")
	if secretKey == "" {
		return nil, fmt.Errorf("MINIO_SECRET_KEY not set")
	}

	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "danfes"
	}

	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	// Verify bucket exists
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	return &Archive{client: client, bucket: bucket}, nil
}

// Upload stores a document under {tenant}/YYYY/MM/{filename} and returns
// the full object path for storage in the database.
func (a *Archive) Upload(ctx context.Context, tenant string, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	now := time.Now()
	objectName := fmt.Sprintf("%s/%d/%02d/%s",
		tenant,
		now.Year(),
		now.Month(),
		filename,
	)

	_, err := a.client.PutObject(ctx, a.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}

	return fmt.Sprintf("%s/%s", a.bucket, objectName), nil
}

// PresignedURL generates a 24h presigned URL for viewing a stored document.
func (a *Archive) PresignedURL(ctx context.Context, objectPath string) (string, error) {
	url, err := a.client.PresignedGetObject(ctx, a.bucket, a.stripBucket(objectPath), 24*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}

// Delete removes a document from storage.
func (a *Archive) Delete(ctx context.Context, objectPath string) error {
	return a.client.RemoveObject(ctx, a.bucket, a.stripBucket(objectPath), minio.RemoveObjectOptions{})
}

func (a *Archive) stripBucket(objectPath string) string {
	return strings.TrimPrefix(objectPath, a.bucket+"/")
}

// FileExtension maps a content type to the extension used for object names.
func FileExtension(contentType string) string {
	switch contentType {
	case "application/pdf":
		return ".pdf"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ".bin"
	}
}
