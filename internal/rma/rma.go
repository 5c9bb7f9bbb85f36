// Package rma builds query URLs for the atlas RMA web service and decodes
// its JSON response envelope.
package rma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Envelope is the outer JSON object every RMA response is wrapped in.
type Envelope struct {
	Success   bool            `json:"success"`
	ID        int             `json:"id"`
	StartRow  int             `json:"start_row"`
	NumRows   int             `json:"num_rows"`
	TotalRows int             `json:"total_rows"`
	Msg       json.RawMessage `json:"msg"`
}

// Query describes a single RMA model query.
type Query struct {
	Model    string
	Criteria string
	Include  []string
	NumRows  int
}

// URL renders the query against the given API base URL.
func (q Query) URL(base string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	b.WriteString("/api/v2/data/query.json?criteria=model::")
	b.WriteString(q.Model)
	if q.Criteria != "" {
		b.WriteString(",rma::criteria,")
		b.WriteString(url.QueryEscape(q.Criteria))
	}
	if len(q.Include) > 0 {
		b.WriteString(",rma::include,")
		b.WriteString(url.QueryEscape(strings.Join(q.Include, ",")))
	}
	if q.NumRows > 0 {
		fmt.Fprintf(&b, ",rma::options%s", url.QueryEscape(fmt.Sprintf("[num_rows$eq%d]", q.NumRows)))
	}
	return b.String()
}

// Get performs an HTTP GET, unwraps the RMA envelope, and unmarshals the
// msg payload into out.
func Get(ctx context.Context, hc *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", rawURL, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}
	if !env.Success {
		return fmt.Errorf("GET %s: query was not successful", rawURL)
	}
	if err := json.Unmarshal(env.Msg, out); err != nil {
		return fmt.Errorf("decoding msg payload from %s: %w", rawURL, err)
	}
	return nil
}
