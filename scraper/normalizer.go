// scraper/normalizer.go
package scraper

import (
	"errors"
	"strings"
	"time"

	"github.com/kaitak/fehdwatch/models"
	"github.com/kaitak/fehdwatch/utils"
)

// ErrRecordRejected marks an entry that cannot become a canonical record.
// Rejections are counted per crawl run, never fatal to it.
var ErrRecordRejected = errors.New("record rejected")

// validTilLayouts are tried in order. Upstream publishes day-first dates;
// the ISO layout catches already-normalized values, and the US layout is a
// last resort for the odd inconsistent row.
var validTilLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2006-01-02",
	"01/02/2006",
}

// fieldValue pulls the raw value for a canonical field out of an entry,
// trying each declared key and column candidate in order.
func fieldValue(entry RawEntry, format SourceFormat, field string) string {
	if entry.Fields != nil {
		for _, key := range format.Keys[field] {
			if v, ok := entry.Fields[key]; ok && strings.TrimSpace(v) != "" {
				return v
			}
		}
	}
	for _, idx := range format.Columns[field] {
		if idx < len(entry.Cells) && strings.TrimSpace(entry.Cells[idx]) != "" {
			return entry.Cells[idx]
		}
	}
	return ""
}

// SplitLicenceExpiry splits a combined "licence (expiry)" cell at the first
// opening parenthesis. The second value is the parenthesized expiry text
// without the parentheses, "" when the cell carries none.
func SplitLicenceExpiry(raw string) (string, string) {
	if i := strings.Index(raw, "("); i >= 0 {
		expiry := strings.TrimSpace(raw[i+1:])
		expiry = strings.TrimSpace(strings.TrimSuffix(expiry, ")"))
		return strings.TrimSpace(raw[:i]), expiry
	}
	return strings.TrimSpace(raw), ""
}

// ParseValidTil parses a raw expiry value into an ISO date string. Returns
// nil for blank or unparseable input; a bad date never rejects the record.
func ParseValidTil(raw string) *string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "()")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range validTilLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			iso := t.Format("2006-01-02")
			return &iso
		}
	}
	return nil
}

// stripAllWhitespace removes every whitespace rune. Licence numbers are
// compared exactly, so internal spaces from sloppy markup must go.
func stripAllWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// Normalize converts one raw entry into a canonical restaurant record per
// the given format. Entries without a usable name, or without a licence
// number where the format requires one, return ErrRecordRejected.
func Normalize(entry RawEntry, format SourceFormat) (*models.Restaurant, error) {
	name := utils.CollapseWhitespace(fieldValue(entry, format, FieldName))
	if name == "" {
		return nil, ErrRecordRejected
	}

	licenceRaw := fieldValue(entry, format, FieldLicenceNo)
	validTilRaw := fieldValue(entry, format, FieldValidTil)
	if format.CombinedLicenceExpiry {
		licenceRaw, validTilRaw = SplitLicenceExpiry(licenceRaw)
	}
	licenceNo := stripAllWhitespace(licenceRaw)
	if licenceNo == "" && format.RequireLicence {
		return nil, ErrRecordRejected
	}

	licenceType := utils.CollapseWhitespace(fieldValue(entry, format, FieldLicenceType))
	if licenceType == "" {
		licenceType = models.DefaultLicenceType
	}

	r := &models.Restaurant{
		Name:        name,
		LicenceNo:   licenceNo,
		LicenceType: licenceType,
		ValidTil:    ParseValidTil(validTilRaw),
	}
	if d := utils.NormalizeDistrict(fieldValue(entry, format, FieldDistrict)); d != "" {
		r.District = &d
	}
	if a := utils.CollapseWhitespace(fieldValue(entry, format, FieldAddress)); a != "" {
		r.Address = &a
	}
	return r, nil
}
