package pipeline

// Countries accepted by the consolidation entry points.
const (
	// CountryVenezuela is the only country with a consolidation pipeline.
	CountryVenezuela = "venezuela"

	// CountryColombia is recognised but not processed yet.
	CountryColombia = "colombia"

	// DefaultCountry is used when the request names none.
	DefaultCountry = CountryVenezuela
)

// Input file extensions accepted for the payment and absolute reports.
var acceptedExtensions = []string{".xlsx", ".xls"}
