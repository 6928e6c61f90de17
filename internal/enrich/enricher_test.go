package enrich

import (
	"context"
	"math"
	"testing"

	"cloud.google.com/go/civil"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/identity"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/lookup"
)

// MockRates implements RateLookup for testing.
type MockRates struct {
	RateForFunc func(ctx context.Context, date string) float64
}

func (m *MockRates) RateFor(ctx context.Context, date string) float64 {
	return m.RateForFunc(ctx, date)
}

func fixedRates(rates map[string]float64) *MockRates {
	return &MockRates{RateForFunc: func(ctx context.Context, date string) float64 { return rates[date] }}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func newTestEnricher(primary float64) *Enricher {
	return New(Options{
		LocalCurrency: domain.CurrencyVES,
		PrimaryRate:   primary,
		Calendar:      fiscal.NewCalendar(civil.Date{Year: 2025, Month: 10, Day: 20}),
		Areas:         lookup.NewAreaLookup([]lookup.AreaPair{{Requester: "ANA RIVAS", Area: "Mantenimiento"}}),
		BCV:           fixedRates(map[string]float64{"2025-10-16": 200}),
		Vendor:        fixedRates(map[string]float64{"2025-10-16": 250}),
	})
}

func TestEnrich_LocalCurrencyOpex(t *testing.T) {
	e := newTestEnricher(100)
	got := e.Enrich(context.Background(), domain.PaymentRecord{
		InvoiceNumber: "F-1", Supplier: "ACME", Amount: 1000, Currency: domain.CurrencyVES, Priority: 10,
	})

	if !approx(got.USDAmount, 10) {
		t.Errorf("USDAmount = %v, want 10", got.USDAmount)
	}
	if got.Category != domain.CategoryOPEX || !approx(got.OpexPayable, 10) || got.CapexPayable != 0 {
		t.Errorf("got category %s capex %v opex %v", got.Category, got.CapexPayable, got.OpexPayable)
	}
	if got.CapexType != domain.CapexNotApplicable {
		t.Errorf("CapexType = %s", got.CapexType)
	}
	if got.ID != identity.PaymentID("F-1", "ACME") {
		t.Errorf("ID = %s", got.ID)
	}
	if got.Week != 3 || got.MonthName != "OCTUBRE" || got.FiscalYear != "2025-2026" {
		t.Errorf("calendar = %d %s %s", got.Week, got.MonthName, got.FiscalYear)
	}
	if got.Invoice.Store != domain.NoAbsoluteReport || got.Area != domain.AreaServicios {
		t.Errorf("lookups = %+v %s", got.Invoice, got.Area)
	}
}

func TestEnrich_ZeroPrimaryRate(t *testing.T) {
	got := newTestEnricher(0).Enrich(context.Background(), domain.PaymentRecord{Amount: 1000, Currency: domain.CurrencyVES})
	if got.USDAmount != 0 {
		t.Errorf("USDAmount = %v, want 0", got.USDAmount)
	}
}

func TestEnrich_ForeignCurrencyKeepsAmount(t *testing.T) {
	got := newTestEnricher(100).Enrich(context.Background(), domain.PaymentRecord{Amount: 500, Currency: domain.CurrencyUSD})
	if got.USDAmount != 500 {
		t.Errorf("USDAmount = %v, want 500", got.USDAmount)
	}
}

func TestSplitAmounts_Matrix(t *testing.T) {
	tests := []struct {
		name                string
		ext, ord, admin     float64
		wantCategory        domain.Category
		wantType            domain.CapexType
		wantCapex, wantOpex float64
	}{
		{"nothing", 0, 0, 0, domain.CategoryOPEX, domain.CapexNotApplicable, 0, 100},
		{"admin only", 0, 0, 50, domain.CategoryOPEX, domain.CapexNotApplicable, 0, 100},
		{"ord only", 0, 80, 0, domain.CategoryCAPEX, domain.CapexOrdinary, 100, 0},
		{"ext only", 40, 0, 0, domain.CategoryCAPEX, domain.CapexExtraordinary, 100, 0},
		{"mixed capex", 30, 10, 0, domain.CategoryCAPEX, domain.CapexMixed, 100, 0},
		{"capex and admin", 0, 75, 25, domain.CategoryMixed, domain.CapexOrdinary, 75, 25},
		{"zero denominator", 10, -10, 0, domain.CategoryOPEX, domain.CapexMixed, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SplitAmounts(100, tt.ext, tt.ord, tt.admin)
			if s.Category != tt.wantCategory || s.CapexType != tt.wantType {
				t.Errorf("got %s/%s, want %s/%s", s.Category, s.CapexType, tt.wantCategory, tt.wantType)
			}
			if !approx(s.Capex, tt.wantCapex) || !approx(s.Opex, tt.wantOpex) {
				t.Errorf("capex/opex = %v/%v, want %v/%v", s.Capex, s.Opex, tt.wantCapex, tt.wantOpex)
			}
			if tt.name != "zero denominator" && !approx(s.Validation, 0) {
				t.Errorf("Validation = %v, want 0", s.Validation)
			}
			if s.CapexType == domain.CapexMixed && !approx(s.Ordinary+s.Extra, s.Capex) {
				t.Errorf("ord+ext = %v, capex = %v", s.Ordinary+s.Extra, s.Capex)
			}
		})
	}
}

func TestSplitAmounts_ResidualIsZero(t *testing.T) {
	for _, usd := range []float64{0.01, 17.35, 1234567.891} {
		s := SplitAmounts(usd, 12.5, 7.25, 3.3)
		if !approx(usd, s.Capex+s.Opex) {
			t.Errorf("usd %v != capex %v + opex %v", usd, s.Capex, s.Opex)
		}
	}
}

func TestAdjustCapexByPriority(t *testing.T) {
	tests := []struct {
		priority    int
		wantOrd     float64
		wantExt     float64
		wantChanged bool
	}{
		{60, 500, 0, true},
		{79, 0, 500, true},
		{91, 500, 0, true},
		{80, 0, 0, false},
	}

	for _, tt := range tests {
		r := domain.PaymentRecord{Amount: 500, Priority: tt.priority}
		changed := AdjustCapexByPriority(&r)
		if changed != tt.wantChanged || r.CapexOrd != tt.wantOrd || r.CapexExt != tt.wantExt {
			t.Errorf("priority %d: changed=%v ord=%v ext=%v", tt.priority, changed, r.CapexOrd, r.CapexExt)
		}
	}

	r := domain.PaymentRecord{Amount: 500, Priority: 60, CapexExt: 20}
	if AdjustCapexByPriority(&r) {
		t.Error("rows with CAPEX amounts must not be adjusted")
	}
}

func TestPriorityCodes(t *testing.T) {
	tests := []struct {
		priority                 int
		currency, method, weekday string
	}{
		{60, "USD", "USD", Friday},
		{69, "USD", "USD", Friday},
		{71, "EUR", "EUR", Friday},
		{78, "VES", "VES", Thursday},
		{80, "VES", "VES", Thursday},
		{91, "VES", "USD", Friday},
		{12, "NA", "USD", Friday},
	}

	for _, tt := range tests {
		if got := PaymentCurrency(tt.priority); got != tt.currency {
			t.Errorf("PaymentCurrency(%d) = %s, want %s", tt.priority, got, tt.currency)
		}
		if got := PaymentMethod(tt.priority); got != tt.method {
			t.Errorf("PaymentMethod(%d) = %s, want %s", tt.priority, got, tt.method)
		}
		if got := PaymentWeekday(tt.priority); got != tt.weekday {
			t.Errorf("PaymentWeekday(%d) = %s, want %s", tt.priority, got, tt.weekday)
		}
	}
}

func TestEnrich_BolivarConversion(t *testing.T) {
	e := newTestEnricher(100)
	got := e.Enrich(context.Background(), domain.PaymentRecord{
		Amount: 50, Currency: domain.CurrencyUSD, Priority: 78, PaymentDate: "2025-10-16", Requester: "ana rivas",
	})

	if got.CapexType != domain.CapexOrdinary || !approx(got.CapexPayable, 50) {
		t.Fatalf("priority adjustment not applied: %+v", got)
	}
	if got.ReferenceRate != 200 || got.VendorRate != 250 {
		t.Errorf("rates = %v/%v", got.ReferenceRate, got.VendorRate)
	}
	if !approx(got.ConversionVES, 10000) || !approx(got.ConversionVendor, 40) || !approx(got.RealConverted, 40) {
		t.Errorf("conversions = %v %v %v", got.ConversionVES, got.ConversionVendor, got.RealConverted)
	}
	if got.RealMonthConverted != got.RealConverted {
		t.Error("real month should copy real converted")
	}
	if got.Area != "Mantenimiento" || got.PaymentWeekday != Thursday {
		t.Errorf("area/weekday = %s/%s", got.Area, got.PaymentWeekday)
	}
}

func TestEnrich_NoPaymentDate(t *testing.T) {
	got := newTestEnricher(100).Enrich(context.Background(), domain.PaymentRecord{Amount: 50, Currency: domain.CurrencyUSD, Priority: 60})
	if got.ReferenceRate != 0 || got.VendorRate != 0 {
		t.Errorf("rates should be 0 without a payment date")
	}
	if !approx(got.RealConverted, got.CapexPayable) {
		t.Errorf("non-bolivar real converted should equal capex")
	}
}

func TestEnrich_AutopagoProject(t *testing.T) {
	invoices := lookup.BuildInvoiceLookup(context.Background(), lookupTable(), civil.Date{Year: 2025, Month: 10, Day: 20})
	e := New(Options{PrimaryRate: 100, Invoices: invoices})

	got := e.Enrich(context.Background(), domain.PaymentRecord{InvoiceNumber: "F-9", Requester: "ANA RIVAS"})
	if got.Area != domain.AreaAutopago {
		t.Errorf("Area = %s, want %s", got.Area, domain.AreaAutopago)
	}
}

func TestEnrichAll_RecoversFromPanic(t *testing.T) {
	e := New(Options{
		PrimaryRate: 100,
		BCV: &MockRates{RateForFunc: func(ctx context.Context, date string) float64 {
			panic("rate store exploded")
		}},
	})

	got := e.EnrichAll(context.Background(), []domain.PaymentRecord{
		{InvoiceNumber: "F-1", Supplier: "A", PaymentDate: "2025-10-16"},
		{InvoiceNumber: "F-2", Supplier: "B"},
	})
	if len(got) != 2 {
		t.Fatalf("got %d rows", len(got))
	}
	if got[0].Area != domain.AreaNotFound || got[0].ID != identity.PaymentID("F-1", "A") {
		t.Errorf("failed row should keep defaults: %+v", got[0])
	}
	if got[1].Area != domain.AreaServicios {
		t.Errorf("healthy row Area = %s", got[1].Area)
	}
}
