package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// Params are the knobs one scan runs with. They are stamped into the Run
// record so a result can be reproduced later.
type Params struct {
	Engine       string          `json:"engine"`
	Language     string          `json:"language"`
	DPI          int             `json:"dpi"`
	ThresholdPct int             `json:"threshold_pct"`
	PSM          int             `json:"psm"`
	FilterMin    decimal.Decimal `json:"filter_min"`
	FilterMax    decimal.Decimal `json:"filter_max"`
	Bins         int             `json:"bins"`
}

// DefaultParams returns the parameters the tool was tuned with: 300 dpi
// rendering, a 55 % binarization threshold, Tesseract page segmentation
// mode 6 over Portuguese text, and a plausible debt range of 1.000,00 to
// 25.000.000,00.
func DefaultParams() Params {
	return Params{
		Engine:       "tesseract",
		Language:     "por",
		DPI:          300,
		ThresholdPct: 55,
		PSM:          6,
		FilterMin:    decimal.NewFromInt(1000),
		FilterMax:    decimal.NewFromInt(25000000),
		Bins:         50,
	}
}

// Stats summarizes what one run extracted
type Stats struct {
	TokenCount int             `json:"token_count"` // lines written to the amounts file
	ValueCount int             `json:"value_count"` // values inside the plausible range
	Min        decimal.Decimal `json:"min"`
	Max        decimal.Decimal `json:"max"`
	Mean       decimal.Decimal `json:"mean"`
	Total      decimal.Decimal `json:"total"`
}

// Run represents one recorded scan of a debtor report
type Run struct {
	ID            string        `json:"id"`
	Source        string        `json:"source"`
	SourceHash    string        `json:"source_hash"` // SHA-256 over the input, used to skip rescans
	PageCount     int           `json:"page_count"`
	PagesScanned  int           `json:"pages_scanned"` // pages past the cover that went through OCR
	Params        Params        `json:"params"`
	Stats         Stats         `json:"stats"`
	AmountsFile   string        `json:"amounts_file"`
	HistogramFile string        `json:"histogram_file,omitempty"` // empty when nothing survived filtering
	CreatedAt     time.Time     `json:"created_at"`
	Duration      time.Duration `json:"duration"`
}
