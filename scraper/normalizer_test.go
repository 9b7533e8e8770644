// scraper/normalizer_test.go
package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaitak/fehdwatch/models"
)

func TestNormalizeXMLEntry(t *testing.T) {
	entry := RawEntry{Fields: map[string]string{
		"NAME":       "  Golden   Dragon  ",
		"DISTRICT":   "Central",
		"ADDRESS":    "1 Queen's Road   Central",
		"LICENCE_NO": "2231 800123",
		"TYPE":       "",
		"EXPIRY":     "27-09-2025",
	}}

	r, err := Normalize(entry, FormatXML)
	require.NoError(t, err)

	assert.Equal(t, "Golden Dragon", r.Name)
	assert.Equal(t, "2231800123", r.LicenceNo)
	assert.Equal(t, models.DefaultLicenceType, r.LicenceType)
	require.NotNil(t, r.District)
	assert.Equal(t, "Central", *r.District)
	require.NotNil(t, r.Address)
	assert.Equal(t, "1 Queen's Road Central", *r.Address)
	require.NotNil(t, r.ValidTil)
	assert.Equal(t, "2025-09-27", *r.ValidTil)
	assert.False(t, r.NewFlag)
	assert.True(t, r.FirstSeen.IsZero())
}

func TestNormalizeKeyAliases(t *testing.T) {
	entry := RawEntry{Fields: map[string]string{
		"SHOP_SIGN":  "Lucky House",
		"LICENSE_NO": "9988776655",
		"VALID_TIL":  "2025-09-27",
	}}

	r, err := Normalize(entry, FormatXML)
	require.NoError(t, err)

	assert.Equal(t, "Lucky House", r.Name)
	assert.Equal(t, "9988776655", r.LicenceNo)
	require.NotNil(t, r.ValidTil)
	assert.Equal(t, "2025-09-27", *r.ValidTil)
	assert.Nil(t, r.District)
	assert.Nil(t, r.Address)
}

func TestNormalizeRejectsMissingName(t *testing.T) {
	entry := RawEntry{Fields: map[string]string{
		"NAME":       "   ",
		"LICENCE_NO": "1234567890",
	}}

	_, err := Normalize(entry, FormatXML)
	assert.ErrorIs(t, err, ErrRecordRejected)
}

func TestNormalizeRejectsMissingLicence(t *testing.T) {
	entry := RawEntry{Fields: map[string]string{
		"NAME": "No Licence Noodles",
	}}

	_, err := Normalize(entry, FormatXML)
	assert.ErrorIs(t, err, ErrRecordRejected)
}

func TestNormalizeBadDateDoesNotReject(t *testing.T) {
	entry := RawEntry{Fields: map[string]string{
		"NAME":       "Odd Dates Diner",
		"LICENCE_NO": "5544332211",
		"EXPIRY":     "not-a-date",
	}}

	r, err := Normalize(entry, FormatXML)
	require.NoError(t, err)
	assert.Nil(t, r.ValidTil)
}

func TestNormalizePositionalCSVEntry(t *testing.T) {
	entry := RawEntry{Cells: []string{
		"Wan Chai", "Happy Garden", "88 Lockhart Road", "3344556677", "Light Refreshment Restaurant Licence", "01/10/2025",
	}}

	r, err := Normalize(entry, FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "Happy Garden", r.Name)
	assert.Equal(t, "3344556677", r.LicenceNo)
	assert.Equal(t, "Light Refreshment Restaurant Licence", r.LicenceType)
	require.NotNil(t, r.ValidTil)
	assert.Equal(t, "2025-10-01", *r.ValidTil)
}

func TestNormalizeCombinedLicenceExpiry(t *testing.T) {
	entry := RawEntry{Cells: []string{
		"TST", "Harbour View Cafe", "30 Canton Road", "7766554433 (31-12-2025)",
	}}

	r, err := Normalize(entry, FormatHTMLTable)
	require.NoError(t, err)

	assert.Equal(t, "7766554433", r.LicenceNo)
	require.NotNil(t, r.ValidTil)
	assert.Equal(t, "2025-12-31", *r.ValidTil)
	require.NotNil(t, r.District)
	assert.Equal(t, "Tsim Sha Tsui", *r.District)
}

func TestSplitLicenceExpiry(t *testing.T) {
	licence, expiry := SplitLicenceExpiry("1234567890 (27-09-2025)")
	assert.Equal(t, "1234567890", licence)
	assert.Equal(t, "27-09-2025", expiry)

	licence, expiry = SplitLicenceExpiry("1234567890 ( 27-09-2025 )")
	assert.Equal(t, "1234567890", licence)
	assert.Equal(t, "27-09-2025", expiry)

	// Unterminated parenthesis still yields the inner text.
	licence, expiry = SplitLicenceExpiry("1234567890 (27-09-2025")
	assert.Equal(t, "1234567890", licence)
	assert.Equal(t, "27-09-2025", expiry)

	licence, expiry = SplitLicenceExpiry("1234567890")
	assert.Equal(t, "1234567890", licence)
	assert.Equal(t, "", expiry)
}

func TestParseValidTil(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"27-09-2025", "2025-09-27"},
		{"27/09/2025", "2025-09-27"},
		{"2025-09-27", "2025-09-27"},
		{"(27-09-2025)", "2025-09-27"},
		{"12/31/2025", "2025-12-31"},
	}
	for _, tc := range cases {
		got := ParseValidTil(tc.in)
		require.NotNil(t, got, "input %q", tc.in)
		assert.Equal(t, tc.want, *got, "input %q", tc.in)
	}

	assert.Nil(t, ParseValidTil(""))
	assert.Nil(t, ParseValidTil("  "))
	assert.Nil(t, ParseValidTil("99-99-9999"))
	assert.Nil(t, ParseValidTil("expired"))
}

func TestFormatByName(t *testing.T) {
	f, err := FormatByName("auto")
	require.NoError(t, err)
	assert.Equal(t, "xml", f.Name)

	f, err = FormatByName("html")
	require.NoError(t, err)
	assert.True(t, f.Paged)
	assert.True(t, f.CombinedLicenceExpiry)

	_, err = FormatByName("yaml")
	assert.Error(t, err)
}
