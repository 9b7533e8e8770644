// scraper/parser.go
package scraper

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jszwec/csvutil"
)

// ParseXMLEntries extracts raw entries from the open-data XML export. Each
// child element of a restaurant node becomes a field keyed by its uppercased
// tag name, so tag renames are handled by the format's key aliases rather
// than here. A payload with no restaurant nodes returns zero entries; the
// fetcher treats that as a signal to fall back to CSV.
func ParseXMLEntries(body []byte) ([]RawEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML payload: %w", err)
	}

	var entries []RawEntry
	doc.Find("restaurant").Each(func(_ int, sel *goquery.Selection) {
		fields := make(map[string]string)
		sel.Children().Each(func(_ int, child *goquery.Selection) {
			tag := strings.ToUpper(goquery.NodeName(child))
			fields[tag] = strings.TrimSpace(child.Text())
		})
		if len(fields) > 0 {
			entries = append(entries, RawEntry{Fields: fields})
		}
	})
	return entries, nil
}

// csvRestaurantRow mirrors the header names of the CSV export.
type csvRestaurantRow struct {
	District  string `csv:"DISTRICT"`
	Name      string `csv:"NAME"`
	Address   string `csv:"ADDRESS"`
	LicenceNo string `csv:"LICENCE_NO"`
	Type      string `csv:"TYPE"`
	Expiry    string `csv:"EXPIRY"`
}

// ParseCSVEntries extracts raw entries from the CSV export. Files with the
// published header decode by column name; headerless files fall back to
// positional cells.
func ParseCSVEntries(body []byte) ([]RawEntry, error) {
	if entries, err := parseCSVByHeader(body); err == nil && len(entries) > 0 {
		return entries, nil
	}
	return parseCSVPositional(body)
}

func parseCSVByHeader(body []byte) ([]RawEntry, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(bytes.NewReader(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if !looksLikeHeader(dec.Header()) {
		return nil, fmt.Errorf("CSV payload has no recognizable header row")
	}

	var entries []RawEntry
	for {
		var row csvRestaurantRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to decode CSV row: %w", err)
		}
		entries = append(entries, RawEntry{Fields: map[string]string{
			"DISTRICT":   row.District,
			"NAME":       row.Name,
			"ADDRESS":    row.Address,
			"LICENCE_NO": row.LicenceNo,
			"TYPE":       row.Type,
			"EXPIRY":     row.Expiry,
		}})
	}
	return entries, nil
}

func parseCSVPositional(body []byte) ([]RawEntry, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1

	var entries []RawEntry
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if first {
			first = false
			// Skip a header row if one is present.
			if looksLikeHeader(record) {
				continue
			}
		}
		if len(record) < 5 {
			continue
		}
		entries = append(entries, RawEntry{Cells: record})
	}
	return entries, nil
}

func looksLikeHeader(record []string) bool {
	for _, cell := range record {
		upper := strings.ToUpper(strings.TrimSpace(cell))
		if upper == "NAME" || upper == "DISTRICT" || upper == "LICENCE_NO" {
			return true
		}
	}
	return false
}

// ParseJSONEntries extracts raw entries from the paged JSON endpoint. The
// payload is either a bare array of objects or an envelope with a "data"
// array. Scalar values are stringified; keys are uppercased for alias
// matching.
func ParseJSONEntries(body []byte) ([]RawEntry, error) {
	var objects []map[string]interface{}
	if err := json.Unmarshal(body, &objects); err != nil {
		var envelope struct {
			Data []map[string]interface{} `json:"data"`
		}
		if err2 := json.Unmarshal(body, &envelope); err2 != nil {
			return nil, fmt.Errorf("failed to parse JSON payload: %w", err)
		}
		objects = envelope.Data
	}

	var entries []RawEntry
	for _, obj := range objects {
		fields := make(map[string]string, len(obj))
		for k, v := range obj {
			fields[strings.ToUpper(k)] = stringifyJSONValue(v)
		}
		if len(fields) > 0 {
			entries = append(entries, RawEntry{Fields: fields})
		}
	}
	return entries, nil
}

func stringifyJSONValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// ParseHTMLTableEntries extracts raw entries from the paginated listing
// page. Each data row's cells become positional values; header rows (th
// cells only) are skipped.
func ParseHTMLTableEntries(body []byte) ([]RawEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML payload: %w", err)
	}

	var entries []RawEntry
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		entry := RawEntry{Cells: make([]string, 0, cells.Length())}
		cells.Each(func(_ int, cell *goquery.Selection) {
			entry.Cells = append(entry.Cells, strings.TrimSpace(cell.Text()))
		})
		entries = append(entries, entry)
	})
	return entries, nil
}
