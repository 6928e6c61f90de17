package gcsuploader

import (
	"context"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/gcs"
)

// Re-export interface from shared package
type StorageService = gcs.StorageService

var _ StorageService = (*GCSStorageService)(nil)

// GCSStorageService is the concrete implementation of StorageService
// that interacts with Google Cloud Storage.
type GCSStorageService struct {
	client     *storage.Client
	bucket     string
	makePublic bool
}

// NewGCSStorageService creates a service uploading to bucket. credentialsFile
// may be empty to use application default credentials.
func NewGCSStorageService(ctx context.Context, bucket, credentialsFile string, makePublic bool) (*GCSStorageService, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSStorageService{client: client, bucket: bucket, makePublic: makePublic}, nil
}

// Close closes the storage client.
func (s *GCSStorageService) Close() error {
	return s.client.Close()
}

// UploadWorkbook delegates to UploadObject with the workbook content type.
func (s *GCSStorageService) UploadWorkbook(ctx context.Context, objectName string, data []byte) (string, error) {
	return UploadObject(ctx, s.client, s.bucket, objectName, gcs.WorkbookContentType, data, s.makePublic)
}

// FetchFromGCS delegates to the existing FetchFromGCS function.
func (s *GCSStorageService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	return FetchFromGCS(ctx, s.client, gcsURI)
}

// ExtractFilenameFromGCSURI delegates to the existing ExtractFilenameFromGCSURI function.
func (s *GCSStorageService) ExtractFilenameFromGCSURI(uri string) string {
	return ExtractFilenameFromGCSURI(uri)
}
