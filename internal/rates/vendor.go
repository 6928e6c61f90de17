package rates

import (
	"context"
	"fmt"
	"net/http"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
)

// VendorClient reads the vendor (FTD) rate table published as a single JSON
// document.
type VendorClient struct {
	endpoint string
	client   *http.Client
}

// NewVendorClient creates a client for endpoint.
func NewVendorClient(endpoint string, client *http.Client) *VendorClient {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &VendorClient{endpoint: endpoint, client: client}
}

// VendorQuote is one entry of the vendor rate document.
type VendorQuote struct {
	ValidFrom   string  `json:"fecha_vigencia"`
	BCV         float64 `json:"tasa_bcv"`
	Vendor      float64 `json:"tasa_farmatodo"`
	Referential float64 `json:"tasa_referencial"`
}

type vendorResponse struct {
	Data *[]VendorQuote `json:"datos"`
}

// Quotes fetches every entry of the document.
func (c *VendorClient) Quotes(ctx context.Context) ([]VendorQuote, error) {
	var body vendorResponse
	if err := getJSON(ctx, c.client, c.endpoint, &body); err != nil {
		return nil, fmt.Errorf("VendorClient.Quotes: %w", err)
	}
	if body.Data == nil {
		return nil, fmt.Errorf("VendorClient.Quotes: response has no datos field")
	}
	return *body.Data, nil
}

// LoadRates implements TableSource with the vendor rate of each date.
func (c *VendorClient) LoadRates(ctx context.Context) (map[string]float64, error) {
	quotes, err := c.Quotes(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(quotes))
	for _, q := range quotes {
		key := fiscal.NormalizeDate(q.ValidFrom)
		if key == "" {
			continue
		}
		out[key] = q.Vendor
	}
	return out, nil
}

var _ TableSource = (*VendorClient)(nil)
