package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/lookup"
)

// MockValuesReader is a mock implementation of ValuesReader for testing.
type MockValuesReader struct {
	SheetTitlesFunc func(ctx context.Context, spreadsheetID string) ([]string, error)
	ValuesFunc      func(ctx context.Context, spreadsheetID, sheet string) ([][]interface{}, error)
}

func (m *MockValuesReader) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	return m.SheetTitlesFunc(ctx, spreadsheetID)
}

func (m *MockValuesReader) Values(ctx context.Context, spreadsheetID, sheet string) ([][]interface{}, error) {
	return m.ValuesFunc(ctx, spreadsheetID, sheet)
}

func TestAreaSourceLoad(t *testing.T) {
	var readSheet string
	reader := &MockValuesReader{
		SheetTitlesFunc: func(ctx context.Context, id string) ([]string, error) {
			return []string{"Hoja1", "Solicitantes"}, nil
		},
		ValuesFunc: func(ctx context.Context, id, sheet string) ([][]interface{}, error) {
			readSheet = sheet
			return [][]interface{}{
				{"Nombre Solicitante", "Correo", "Área"},
				{"Ana Perez", "ana@x", "MARKETING"},
				{"Luis Gomez"},
			}, nil
		},
	}

	pairs, err := NewAreaSource(reader, "sheet-id", "Solicitantes").Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if readSheet != "Solicitantes" {
		t.Errorf("read sheet %q", readSheet)
	}
	want := []lookup.AreaPair{{Requester: "Ana Perez", Area: "MARKETING"}, {Requester: "Luis Gomez"}}
	if len(pairs) != len(want) || pairs[0] != want[0] || pairs[1] != want[1] {
		t.Errorf("pairs = %+v", pairs)
	}
}

func TestAreaSourceFallsBackToFirstSheet(t *testing.T) {
	var readSheet string
	reader := &MockValuesReader{
		SheetTitlesFunc: func(ctx context.Context, id string) ([]string, error) {
			return []string{"Hoja1"}, nil
		},
		ValuesFunc: func(ctx context.Context, id, sheet string) ([][]interface{}, error) {
			readSheet = sheet
			return [][]interface{}{{"SOLICITANTE", "AREA"}}, nil
		},
	}

	if _, err := NewAreaSource(reader, "id", "Solicitantes").Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if readSheet != "Hoja1" {
		t.Errorf("read sheet %q, want Hoja1", readSheet)
	}
}

func TestAreaSourceErrors(t *testing.T) {
	reader := &MockValuesReader{
		SheetTitlesFunc: func(ctx context.Context, id string) ([]string, error) {
			return nil, errors.New("forbidden")
		},
	}
	if _, err := NewAreaSource(reader, "id", "Solicitantes").Load(context.Background()); err == nil {
		t.Error("expected error")
	}

	if _, err := ParseAreaRows([][]interface{}{{"Nombre", "Correo"}}); err == nil {
		t.Error("expected error for missing columns")
	}
}
