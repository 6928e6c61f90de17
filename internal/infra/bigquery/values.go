package bigquery

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"
)

// forEach reads every row of it as a column map.
func forEach(it *bigquery.RowIterator, fn func(map[string]bigquery.Value)) error {
	for {
		row := map[string]bigquery.Value{}
		err := it.Next(&row)
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("iterating: %w", err)
		}
		fn(row)
	}
}

func valueString(v bigquery.Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case civil.Date:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func valueFloat(v bigquery.Value) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case *big.Rat:
		f, _ := x.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	}
	return 0
}

func valueInt(v bigquery.Value) int {
	switch x := v.(type) {
	case int64:
		return int(x)
	case float64:
		return int(x)
	case string:
		n, _ := strconv.Atoi(x)
		return n
	}
	return 0
}

func valueDate(v bigquery.Value) string {
	switch x := v.(type) {
	case civil.Date:
		return x.String()
	case time.Time:
		return civil.DateOf(x).String()
	}
	return valueString(v)
}

func valueTime(v bigquery.Value) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x
	case civil.DateTime:
		return x.In(time.UTC)
	case civil.Date:
		return x.In(time.UTC)
	}
	return time.Time{}
}
