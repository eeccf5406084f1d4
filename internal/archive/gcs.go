package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSUploader writes clips to a Google Cloud Storage bucket. It assumes
// Application Default Credentials are configured.
type GCSUploader struct {
	bucketName string
}

// NewGCSUploader creates an uploader targeting the given bucket.
func NewGCSUploader(bucketName string) *GCSUploader {
	return &GCSUploader{bucketName: bucketName}
}

// Upload stores the clip bytes under objectName in the bucket.
func (u *GCSUploader) Upload(ctx context.Context, objectName string, data []byte, mimeType string) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("Upload: creating storage client: %w", err)
	}
	defer client.Close()

	obj := client.Bucket(u.bucketName).Object(objectName)

	w := obj.NewWriter(ctx)
	w.ContentType = mimeType
	defer func() {
		// Ensure the writer is closed even on early returns
		_ = w.Close()
	}()

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("Upload: copying clip to writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("Upload: finalizing upload: %w", err)
	}
	return nil
}

var _ Uploader = (*GCSUploader)(nil)
