package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
)

// DefaultTimeout bounds each call to a rate service.
const DefaultTimeout = 10 * time.Second

// ErrNoRate is returned when a service has no rate for the requested date.
var ErrNoRate = errors.New("rate not published")

// Quote is a rate together with the date the service published it for.
type Quote struct {
	Rate float64
	Date civil.Date
}

// Source is a service that publishes one rate per date.
type Source interface {
	// Historical returns the rate published for day.
	Historical(ctx context.Context, day civil.Date) (Quote, error)

	// Current returns the latest published rate.
	Current(ctx context.Context) (Quote, error)
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNoRate
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calling %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}
	return nil
}

// BCVClient queries the BCV rate service for VES per USD.
type BCVClient struct {
	baseURL string
	client  *http.Client
}

// NewBCVClient creates a client for the service at baseURL, e.g.
// https://bcv-api.rafnixg.dev.
func NewBCVClient(baseURL string, client *http.Client) *BCVClient {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &BCVClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type bcvResponse struct {
	Dollar *float64 `json:"dollar"`
	Date   string   `json:"date"`
}

// Historical implements Source.
func (c *BCVClient) Historical(ctx context.Context, day civil.Date) (Quote, error) {
	var body bcvResponse
	if err := getJSON(ctx, c.client, c.baseURL+"/rates/"+day.String(), &body); err != nil {
		return Quote{}, fmt.Errorf("BCVClient.Historical: %w", err)
	}
	return body.quote(day)
}

// Current implements Source.
func (c *BCVClient) Current(ctx context.Context) (Quote, error) {
	var body bcvResponse
	if err := getJSON(ctx, c.client, c.baseURL+"/rates/", &body); err != nil {
		return Quote{}, fmt.Errorf("BCVClient.Current: %w", err)
	}
	return body.quote(civil.DateOf(time.Now()))
}

func (b bcvResponse) quote(fallback civil.Date) (Quote, error) {
	if b.Dollar == nil || *b.Dollar == 0 {
		return Quote{}, ErrNoRate
	}
	date := fallback
	if d, ok := fiscal.ParseDate(b.Date); ok {
		date = d
	}
	return Quote{Rate: *b.Dollar, Date: date}, nil
}

// TRMClient queries the Colombian TRM service for COP per USD.
type TRMClient struct {
	baseURL string
	client  *http.Client
	today   func() civil.Date
}

// NewTRMClient creates a client for the service at baseURL, e.g.
// https://trm-colombia.vercel.app.
func NewTRMClient(baseURL string, client *http.Client) *TRMClient {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &TRMClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		today:   func() civil.Date { return civil.DateOf(time.Now()) },
	}
}

type trmResponse struct {
	Data *struct {
		Value        *float64 `json:"value"`
		ValidityFrom string   `json:"validityFrom"`
	} `json:"data"`
}

// Historical implements Source.
func (c *TRMClient) Historical(ctx context.Context, day civil.Date) (Quote, error) {
	q := url.Values{}
	q.Set("date", day.String())

	var body trmResponse
	if err := getJSON(ctx, c.client, c.baseURL+"/?"+q.Encode(), &body); err != nil {
		return Quote{}, fmt.Errorf("TRMClient.Historical: %w", err)
	}
	if body.Data == nil || body.Data.Value == nil || *body.Data.Value == 0 {
		return Quote{}, ErrNoRate
	}

	date := day
	if d, ok := fiscal.ParseDate(body.Data.ValidityFrom); ok {
		date = d
	}
	return Quote{Rate: *body.Data.Value, Date: date}, nil
}

// Current implements Source. The TRM service has no "latest" endpoint, so
// this asks for today's rate.
func (c *TRMClient) Current(ctx context.Context) (Quote, error) {
	return c.Historical(ctx, c.today())
}

var (
	_ Source = (*BCVClient)(nil)
	_ Source = (*TRMClient)(nil)
)
