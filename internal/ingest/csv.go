package ingest

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// MinFeedbackLength is the shortest trimmed feedback text, in characters,
// that survives filtering.
const MinFeedbackLength = 6

// Feedback is one customer feedback row from a spreadsheet export.
type Feedback struct {
	Row  int    `json:"row"` // 1-based position among data rows
	Date string `json:"date"`
	Text string `json:"text"`
}

// ParseCSV reads a whole spreadsheet export and returns the usable feedback
// rows in input order. The first record is the header. Records with fewer
// than two fields, or whose second field is shorter than MinFeedbackLength
// after trimming, are dropped.
func ParseCSV(r io.Reader) ([]Feedback, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ingest: read csv: %w", err)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")

	records := splitRecords(text)
	if len(records) <= 1 {
		return nil, nil
	}

	var out []Feedback
	for i, rec := range records[1:] {
		if len(rec) < 2 {
			continue
		}
		body := strings.TrimSpace(rec[1])
		if utf8.RuneCountInString(body) < MinFeedbackLength {
			continue
		}
		out = append(out, Feedback{
			Row:  i + 1,
			Date: strings.TrimSpace(rec[0]),
			Text: body,
		})
	}
	return out, nil
}

// splitRecords splits CSV text into records of fields. Quoted fields may
// contain commas and newlines; a quote inside a quoted field is written
// either doubled ("") or backslash-escaped (\"). Blank lines produce no
// record.
func splitRecords(text string) [][]string {
	var (
		records  [][]string
		record   []string
		field    strings.Builder
		inQuotes bool
		quoted   bool // current field started with a quote
	)

	endField := func() {
		record = append(record, field.String())
		field.Reset()
		quoted = false
	}
	endRecord := func() {
		endField()
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			record = nil
			return
		}
		records = append(records, record)
		record = nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inQuotes {
			switch {
			case c == '\\' && escapesQuote(text, i):
				field.WriteByte('"')
				i++
			case c == '"' && i+1 < len(text) && text[i+1] == '"':
				field.WriteByte('"')
				i++
			case c == '"':
				inQuotes = false
			default:
				field.WriteByte(c)
			}
			continue
		}

		switch c {
		case '"':
			if field.Len() == 0 && !quoted {
				inQuotes = true
				quoted = true
			} else {
				field.WriteByte(c)
			}
		case ',':
			endField()
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				continue
			}
			endRecord()
		case '\n':
			endRecord()
		default:
			field.WriteByte(c)
		}
	}

	if field.Len() > 0 || len(record) > 0 || quoted {
		endRecord()
	}
	return records
}

// escapesQuote reports whether the backslash at i escapes the quote after
// it. Sheets exports never escape backslashes, so a quote that ends the field
// or starts a doubled "" pair leaves the backslash literal.
func escapesQuote(text string, i int) bool {
	if i+1 >= len(text) || text[i+1] != '"' {
		return false
	}
	j := i + 2
	if endsField(text, j) {
		return false
	}
	return text[j] != '"' || endsField(text, j+1)
}

// endsField reports whether position j is a field or record terminator.
func endsField(text string, j int) bool {
	return j >= len(text) || text[j] == ',' || text[j] == '\n' || text[j] == '\r'
}
