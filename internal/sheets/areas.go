// Package sheets reads the requester-to-area table from Google Sheets.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/lookup"
)

// ValuesReader is the part of the Sheets API the area source needs.
type ValuesReader interface {
	SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error)
	Values(ctx context.Context, spreadsheetID, sheet string) ([][]interface{}, error)
}

// AreaSource loads requester/area pairs from one worksheet.
type AreaSource struct {
	reader        ValuesReader
	spreadsheetID string
	sheetName     string
}

// NewAreaSource creates a source reading sheetName of spreadsheetID.
func NewAreaSource(reader ValuesReader, spreadsheetID, sheetName string) *AreaSource {
	return &AreaSource{reader: reader, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// Load reads the configured worksheet, or the first one when it does not
// exist, and returns its requester/area pairs.
func (s *AreaSource) Load(ctx context.Context) ([]lookup.AreaPair, error) {
	log := logger.FromContext(ctx)

	titles, err := s.reader.SheetTitles(ctx, s.spreadsheetID)
	if err != nil {
		return nil, fmt.Errorf("Load: listing sheets: %w", err)
	}
	if len(titles) == 0 {
		return nil, fmt.Errorf("Load: spreadsheet %s has no sheets", s.spreadsheetID)
	}

	sheet := titles[0]
	for _, t := range titles {
		if t == s.sheetName {
			sheet = t
			break
		}
	}
	if sheet != s.sheetName {
		log.Warn().
			Str("wanted", s.sheetName).
			Str("using", sheet).
			Msg("Area sheet not found, using first sheet")
	}

	values, err := s.reader.Values(ctx, s.spreadsheetID, sheet)
	if err != nil {
		return nil, fmt.Errorf("Load: reading %q: %w", sheet, err)
	}

	pairs, err := ParseAreaRows(values)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	log.Info().Str("sheet", sheet).Int("pairs", len(pairs)).Msg("Area sheet loaded")
	return pairs, nil
}

// ParseAreaRows locates the SOLICITANTE and ÁREA columns in the first row
// and returns the pairs below it.
func ParseAreaRows(values [][]interface{}) ([]lookup.AreaPair, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("empty sheet")
	}

	requesterCol, areaCol := -1, -1
	for i, h := range values[0] {
		name := strings.ToUpper(strings.TrimSpace(fmt.Sprint(h)))
		switch {
		case requesterCol < 0 && strings.Contains(name, "SOLICITANTE"):
			requesterCol = i
		case areaCol < 0 && (strings.Contains(name, "ÁREA") || strings.Contains(name, "AREA")):
			areaCol = i
		}
	}
	if requesterCol < 0 || areaCol < 0 {
		return nil, fmt.Errorf("header needs SOLICITANTE and ÁREA columns, got %v", values[0])
	}

	pairs := make([]lookup.AreaPair, 0, len(values)-1)
	for _, row := range values[1:] {
		pairs = append(pairs, lookup.AreaPair{
			Requester: cell(row, requesterCol),
			Area:      cell(row, areaCol),
		})
	}
	return pairs, nil
}

func cell(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

// APIReader implements ValuesReader with the Sheets API.
type APIReader struct {
	srv *gsheets.Service
}

// NewAPIReader creates a read-only Sheets client. credentialsFile may be
// empty to use application default credentials.
func NewAPIReader(ctx context.Context, credentialsFile string) (*APIReader, error) {
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsReadonlyScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	srv, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewAPIReader: creating service: %w", err)
	}
	return &APIReader{srv: srv}, nil
}

// SheetTitles implements ValuesReader.
func (r *APIReader) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	ss, err := r.srv.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

// Values implements ValuesReader.
func (r *APIReader) Values(ctx context.Context, spreadsheetID, sheet string) ([][]interface{}, error) {
	resp, err := r.srv.Spreadsheets.Values.Get(spreadsheetID, "'"+sheet+"'").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}
