package gcsuploader

import (
	"testing"
	"time"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/gcs"
)

func TestParseGCSURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"gs://reportes/pagos/semana.xlsx", "reportes", "pagos/semana.xlsx", false},
		{"gs://reportes/", "", "", true},
		{"gs://reportes", "", "", true},
		{"/tmp/semana.xlsx", "", "", true},
	}

	for _, tt := range tests {
		bucket, object, err := ParseGCSURI(tt.uri)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseGCSURI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			continue
		}
		if bucket != tt.wantBucket || object != tt.wantObject {
			t.Errorf("ParseGCSURI(%q) = %q, %q", tt.uri, bucket, object)
		}
	}
}

func TestExtractFilenameFromGCSURI(t *testing.T) {
	if got := ExtractFilenameFromGCSURI("gs://bucket/folder/file.xlsx"); got != "file.xlsx" {
		t.Errorf("got %q", got)
	}
	if got := ExtractFilenameFromGCSURI("gs://bucket"); got != "bucket" {
		t.Errorf("got %q", got)
	}
}

func TestWorkbookNaming(t *testing.T) {
	ts := time.Date(2025, 10, 20, 14, 5, 9, 0, time.UTC)
	name := gcs.WorkbookObjectName(ts)
	if name != "Consolidado_de_pago_2025-10-20_14-05-09.xlsx" {
		t.Errorf("WorkbookObjectName = %q", name)
	}
	if url := gcs.PublicURL("capex", name); url != "https://storage.googleapis.com/capex/"+name {
		t.Errorf("PublicURL = %q", url)
	}
}
