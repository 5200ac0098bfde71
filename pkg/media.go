package pkg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

const mediaFolder = "job_media"

// MediaBlob is one uploaded file as received from the client.
type MediaBlob struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MinioMediaStore uploads job media to an S3-compatible bucket and returns
// public object URLs.
type MinioMediaStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinioMediaStore(client *minio.Client, bucket string, publicURL string) *MinioMediaStore {
	return &MinioMediaStore{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (s *MinioMediaStore) Upload(ctx context.Context, blob MediaBlob) (string, error) {
	if len(blob.Data) == 0 {
		return "", errors.New("media blob is empty")
	}

	contentType := blob.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(blob.Data)
	}

	key := ObjectKey(blob.Filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(blob.Data), int64(len(blob.Data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return s.ObjectURL(key), nil
}

func (s *MinioMediaStore) ObjectURL(key string) string {
	return s.publicURL + "/" + path.Join(s.bucket, key)
}

// ObjectKey builds a collision-free key under the media folder, keeping the
// original extension so content type can be inferred by clients.
func ObjectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join(mediaFolder, uuid.NewString()+ext)
}
