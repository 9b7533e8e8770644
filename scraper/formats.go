// scraper/formats.go
package scraper

import "fmt"

// Canonical field names used by the normalizer. Each source format maps its
// own columns or keys onto these.
const (
	FieldName        = "name"
	FieldDistrict    = "district"
	FieldAddress     = "address"
	FieldLicenceNo   = "licence_no"
	FieldLicenceType = "licence_type"
	FieldValidTil    = "valid_til"
)

// RawEntry is one upstream record before normalization. Keyed sources
// (XML, JSON, header CSV) fill Fields with uppercased keys; positional
// sources (headerless CSV, HTML tables) fill Cells.
type RawEntry struct {
	Cells  []string
	Fields map[string]string
}

// SourceFormat declares how one upstream payload shape maps onto the
// canonical fields. Columns lists candidate cell indexes per field, tried in
// order; Keys lists candidate field keys likewise. New upstream shapes are
// absorbed by adding a variant here rather than by new parsing code.
type SourceFormat struct {
	Name string

	// Paged sources are fetched page by page; the rest arrive as one payload.
	Paged bool

	Columns map[string][]int
	Keys    map[string][]string

	// CombinedLicenceExpiry marks shapes where one cell holds the licence
	// number with the expiry date in trailing parentheses.
	CombinedLicenceExpiry bool

	// RequireLicence rejects entries that end up with no licence number.
	RequireLicence bool
}

// FormatXML covers the bulk open-data XML export. Key aliases track renames
// observed across publications.
var FormatXML = SourceFormat{
	Name: "xml",
	Keys: map[string][]string{
		FieldName:        {"NAME", "SHOP_SIGN"},
		FieldDistrict:    {"DISTRICT"},
		FieldAddress:     {"ADDRESS", "ADR"},
		FieldLicenceNo:   {"LICENCE_NO", "LICENSE_NO"},
		FieldLicenceType: {"TYPE", "LICENCE_TYPE"},
		FieldValidTil:    {"EXPIRY", "VALID_TIL", "EXPIRY_DATE"},
	},
	RequireLicence: true,
}

// FormatCSV covers the bulk CSV export. Header rows are matched by the same
// key aliases as XML; headerless files fall back to position, with a one-off
// column shift tolerated per field.
var FormatCSV = SourceFormat{
	Name: "csv",
	Keys: FormatXML.Keys,
	Columns: map[string][]int{
		FieldDistrict:    {0, 1},
		FieldName:        {1, 2},
		FieldAddress:     {2, 3},
		FieldLicenceNo:   {3, 4},
		FieldLicenceType: {4, 5},
		FieldValidTil:    {5, 6},
	},
	RequireLicence: true,
}

// FormatJSON covers the paged JSON data endpoint.
var FormatJSON = SourceFormat{
	Name:  "json",
	Paged: true,
	Keys: map[string][]string{
		FieldName:        {"NAME", "SHOPSIGN", "SHOP_SIGN"},
		FieldDistrict:    {"DISTRICT", "DIST"},
		FieldAddress:     {"ADDRESS", "ADR"},
		FieldLicenceNo:   {"LICENCENO", "LICENCE_NO", "LICNO"},
		FieldLicenceType: {"TYPE", "LICENCETYPE"},
		FieldValidTil:    {"EXPIRYDATE", "EXPIRY", "VALIDTIL"},
	},
	RequireLicence: true,
}

// FormatHTMLTable covers the paginated listing page, where the licence
// number and expiry share one cell.
var FormatHTMLTable = SourceFormat{
	Name:  "html",
	Paged: true,
	Columns: map[string][]int{
		FieldDistrict:  {0},
		FieldName:      {1},
		FieldAddress:   {2},
		FieldLicenceNo: {3},
	},
	CombinedLicenceExpiry: true,
	RequireLicence:        true,
}

// FormatByName resolves a configured format selector. "auto" starts from the
// XML export; the fetcher falls back to CSV when XML yields nothing.
func FormatByName(name string) (SourceFormat, error) {
	switch name {
	case "auto", "", "xml":
		return FormatXML, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "html":
		return FormatHTMLTable, nil
	}
	return SourceFormat{}, fmt.Errorf("unknown source format %q", name)
}
