package prompt

import (
	"fmt"
	"strings"
)

// Dialect name constants.
const (
	GoogleSheets = "google-sheets"
	Excel        = "excel"
	LibreOffice  = "libreoffice"
)

// Dialect represents a validated spreadsheet application the formula targets.
// Zero value is valid and means Google Sheets.
// Use ParseDialect to create from user input, or the pre-parsed values.
type Dialect struct {
	name string
}

// Pre-parsed dialects for use in code.
var (
	GoogleSheetsDialect = Dialect{name: GoogleSheets}
	ExcelDialect        = Dialect{name: Excel}
	LibreOfficeDialect  = Dialect{name: LibreOffice}
)

// dialectOrder defines the canonical order for Dialects().
var dialectOrder = []string{GoogleSheets, Excel, LibreOffice}

// productNames maps dialects to the product name used inside prompts.
var productNames = map[string]string{
	GoogleSheets: "Google Sheets",
	Excel:        "Microsoft Excel",
	LibreOffice:  "LibreOffice Calc",
}

// ParseDialect validates a dialect name. Matching is case-insensitive.
// Empty string returns the zero Dialect (Google Sheets).
func ParseDialect(s string) (Dialect, error) {
	if s == "" {
		return Dialect{}, nil
	}
	name := strings.ToLower(strings.TrimSpace(s))
	if _, ok := productNames[name]; !ok {
		return Dialect{}, fmt.Errorf("unknown dialect %q (use %s): %w",
			s, strings.Join(dialectOrder, ", "), ErrUnknownDialect)
	}
	return Dialect{name: name}, nil
}

// Dialects returns the supported dialect names in canonical order.
func Dialects() []string {
	result := make([]string, len(dialectOrder))
	copy(result, dialectOrder)
	return result
}

// String returns the dialect name, defaulting to google-sheets.
func (d Dialect) String() string {
	return d.OrDefault().name
}

// IsZero returns true if no dialect was specified.
func (d Dialect) IsZero() bool {
	return d.name == ""
}

// OrDefault returns the dialect, or Google Sheets if zero.
func (d Dialect) OrDefault() Dialect {
	if d.IsZero() {
		return GoogleSheetsDialect
	}
	return d
}

// Product returns the human-readable product name, e.g. "Google Sheets".
func (d Dialect) Product() string {
	return productNames[d.OrDefault().name]
}
