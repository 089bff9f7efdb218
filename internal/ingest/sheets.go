// Package ingest turns a shared spreadsheet link into feedback records.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/logx"
)

const (
	// DefaultExportBaseURL is the public Google Sheets host.
	DefaultExportBaseURL = "https://docs.google.com"
	// maxExportBytes caps how much of an export is read.
	maxExportBytes = 16 << 20
	// shareHint tells users how to make a sheet readable.
	shareHint = "share the sheet as \"Anyone with the link can view\" and try again"
)

var (
	sheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)
	gidPattern     = regexp.MustCompile(`[#?&]gid=(\d+)`)
)

// SheetRef identifies one tab of a Google spreadsheet.
type SheetRef struct {
	ID  string
	GID string // empty selects the first tab
}

// ParseSheetURL extracts the spreadsheet ID and optional tab gid from a
// sharing link.
func ParseSheetURL(raw string) (SheetRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SheetRef{}, apperr.New(apperr.InvalidInput, "sheet URL is required")
	}
	m := sheetIDPattern.FindStringSubmatch(raw)
	if m == nil {
		return SheetRef{}, apperr.New(apperr.InvalidInput, "not a Google Sheets URL: %s", raw).
			WithHint("paste a link of the form https://docs.google.com/spreadsheets/d/<id>/edit")
	}
	ref := SheetRef{ID: m[1]}
	if g := gidPattern.FindStringSubmatch(raw); g != nil {
		ref.GID = g[1]
	}
	return ref, nil
}

// ExportURL returns the CSV export address of the sheet under base.
func (r SheetRef) ExportURL(base string) string {
	if base == "" {
		base = DefaultExportBaseURL
	}
	q := url.Values{}
	q.Set("format", "csv")
	if r.GID != "" {
		q.Set("gid", r.GID)
	}
	return fmt.Sprintf("%s/spreadsheets/d/%s/export?%s", strings.TrimRight(base, "/"), r.ID, q.Encode())
}

// FetcherOpts configures a Fetcher.
type FetcherOpts struct {
	BaseURL string        // export host, defaults to DefaultExportBaseURL
	Timeout time.Duration // per request, defaults to 30s
	Client  *http.Client  // overrides Timeout when set
}

// Fetcher downloads and parses spreadsheet exports. Each call makes a single
// request; there is no retry.
type Fetcher struct {
	baseURL string
	client  *http.Client
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts FetcherOpts) *Fetcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	base := opts.BaseURL
	if base == "" {
		base = DefaultExportBaseURL
	}
	return &Fetcher{baseURL: base, client: client}
}

// Fetch resolves sheetURL, downloads its CSV export and returns the parsed
// feedback rows. It fails with InvalidInput for unrecognised links,
// AccessDenied when the sheet is private, and EmptyResult when no row
// survives filtering.
func (f *Fetcher) Fetch(ctx context.Context, sheetURL string) ([]Feedback, error) {
	ref, err := ParseSheetURL(sheetURL)
	if err != nil {
		return nil, err
	}
	exportURL := ref.ExportURL(f.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ingest: build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Upstream, "could not reach the spreadsheet host")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxExportBytes))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Upstream, "could not read the spreadsheet export")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound:
		return nil, apperr.New(apperr.AccessDenied, "spreadsheet %s is not accessible (HTTP %d)", ref.ID, resp.StatusCode).
			WithHint(shareHint)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, apperr.New(apperr.Upstream, "spreadsheet export failed (HTTP %d)", resp.StatusCode)
	}

	if isMarkup(resp.Header.Get("Content-Type"), body) {
		msg := fmt.Sprintf("spreadsheet %s returned a web page instead of CSV data", ref.ID)
		if title := pageTitle(body); title != "" {
			msg += fmt.Sprintf(" (%q)", title)
		}
		return nil, apperr.New(apperr.AccessDenied, "%s", msg).WithHint(shareHint)
	}

	rows, err := ParseCSV(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.New(apperr.EmptyResult, "no usable feedback rows in spreadsheet %s", ref.ID).
			WithHint(fmt.Sprintf("the second column needs feedback text of at least %d characters", MinFeedbackLength))
	}

	logx.Debug().Str("sheet", ref.ID).Str("gid", ref.GID).Int("rows", len(rows)).Msg("spreadsheet export parsed")
	return rows, nil
}

// isMarkup reports whether a response is an HTML page, such as a sign-in
// screen served for private sheets.
func isMarkup(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	head := body
	if len(head) > 1024 {
		head = head[:1024]
	}
	lower := strings.ToLower(strings.TrimSpace(string(head)))
	return strings.HasPrefix(lower, "<") &&
		(strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype"))
}

// pageTitle extracts the <title> of an HTML page, or "".
func pageTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
