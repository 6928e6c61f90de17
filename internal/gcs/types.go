package gcs

import (
	"context"
	"fmt"
	"time"
)

// WorkbookContentType is the MIME type of uploaded workbooks.
const WorkbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StorageService provides an interface for cloud storage operations.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// UploadWorkbook stores data under objectName in the configured bucket
	// and returns its public URL.
	UploadWorkbook(ctx context.Context, objectName string, data []byte) (string, error)

	// FetchFromGCS downloads file bytes from the given storage URI.
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)

	// ExtractFilenameFromGCSURI extracts the filename from a storage URI.
	ExtractFilenameFromGCSURI(uri string) string
}

// WorkbookObjectName names a consolidated workbook produced at t.
func WorkbookObjectName(t time.Time) string {
	return fmt.Sprintf("Consolidado_de_pago_%s.xlsx", t.Format("2006-01-02_15-04-05"))
}

// PublicURL returns the public download URL of an object.
func PublicURL(bucket, object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, object)
}
