package bigquery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
)

// Row is one record keyed by column name, before coercion.
type Row map[string]interface{}

// CoerceRow converts row to the types of schema. Columns absent from the
// schema are dropped; a value that cannot be converted becomes NULL, except
// INTEGER which falls back to 0.
func CoerceRow(schema bigquery.Schema, row Row) Row {
	out := make(Row, len(schema))
	for _, field := range schema {
		v, ok := row[field.Name]
		if !ok {
			continue
		}
		out[field.Name] = coerceValue(field.Type, v)
	}
	return out
}

func coerceValue(ft bigquery.FieldType, v interface{}) interface{} {
	if v == nil {
		if ft == bigquery.IntegerFieldType {
			return int64(0)
		}
		return nil
	}

	switch ft {
	case bigquery.StringFieldType:
		return toString(v)
	case bigquery.IntegerFieldType:
		f, ok := toFloat(v)
		if !ok {
			return int64(0)
		}
		return int64(f)
	case bigquery.FloatFieldType, bigquery.NumericFieldType, bigquery.BigNumericFieldType:
		f, ok := toFloat(v)
		if !ok {
			return nil
		}
		return f
	case bigquery.BooleanFieldType:
		return toBool(v)
	case bigquery.DateFieldType:
		d, ok := toDate(v)
		if !ok {
			return nil
		}
		return d.String()
	case bigquery.TimestampFieldType:
		t, ok := toTime(v)
		if !ok {
			return nil
		}
		return t.UTC().Format(time.RFC3339)
	case bigquery.DateTimeFieldType:
		t, ok := toTime(v)
		if !ok {
			return nil
		}
		return t.Format("2006-01-02 15:04:05")
	}
	return v
}

func toString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case civil.Date:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(x, ",", "")), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toBool(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "si", "sí", "yes", "x":
			return true
		}
		return false
	}
	f, ok := toFloat(v)
	return ok && f != 0
}

// toDate accepts dates, times and strings, including "MON-YY" month labels.
func toDate(v interface{}) (civil.Date, bool) {
	switch x := v.(type) {
	case civil.Date:
		return x, true
	case time.Time:
		return civil.DateOf(x), true
	case string:
		if d, err := fiscal.ParseMonthLabel(x); err == nil {
			return d, true
		}
		return fiscal.ParseDate(x)
	}
	return civil.Date{}, false
}

func toTime(v interface{}) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case civil.DateTime:
		return x.In(time.UTC), true
	case string:
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(x)); err == nil {
			return t, true
		}
		if t, err := time.Parse("2006-01-02 15:04:05", strings.TrimSpace(x)); err == nil {
			return t, true
		}
	}
	d, ok := toDate(v)
	if !ok {
		return time.Time{}, false
	}
	return d.In(time.UTC), true
}

// encodeNDJSON writes rows as newline-delimited JSON, the load job format.
func encodeNDJSON(rows []Row) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, r := range rows {
		if err := enc.Encode(r); err != nil {
			return nil, fmt.Errorf("encodeNDJSON: row %d: %w", i, err)
		}
	}
	return &buf, nil
}
