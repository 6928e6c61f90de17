package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedCountry is returned for any country other than Venezuela.
var ErrUnsupportedCountry = errors.New("country not supported")

// ErrInvalidInput is returned when the payment report is missing or is not a
// spreadsheet.
var ErrInvalidInput = errors.New("invalid input file")

// NormalizeCountry lower-cases and trims the requested country. An empty
// value selects DefaultCountry.
func NormalizeCountry(raw string) (string, error) {
	country := strings.ToLower(strings.TrimSpace(raw))
	if country == "" {
		return DefaultCountry, nil
	}
	if country != CountryVenezuela {
		return country, fmt.Errorf("NormalizeCountry: %q: %w", raw, ErrUnsupportedCountry)
	}
	return country, nil
}

// ValidateFilename checks that name looks like an Excel workbook.
func ValidateFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("ValidateFilename: empty name: %w", ErrInvalidInput)
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, ok := range acceptedExtensions {
		if ext == ok {
			return nil
		}
	}
	return fmt.Errorf("ValidateFilename: %q: %w", name, ErrInvalidInput)
}

// Validate checks an Input before any step runs.
func (in Input) Validate() error {
	if len(in.Report) == 0 {
		return fmt.Errorf("Validate: empty payment report: %w", ErrInvalidInput)
	}
	if in.ReportName != "" {
		if err := ValidateFilename(in.ReportName); err != nil {
			return err
		}
	}
	if _, err := NormalizeCountry(in.Country); err != nil {
		return err
	}
	return nil
}
