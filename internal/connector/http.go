package connector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/angelcm/marketing-pulse/internal/models"
	"github.com/angelcm/marketing-pulse/internal/utils"
)

// HTTPClient is the seam tests use to fake transport behavior.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns a plain client with the given overall timeout.
func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &http.Client{Timeout: timeout}
}

// HTTPConnector pulls a JSON array of row objects from a configured endpoint.
// It covers any platform bridge that exposes its export as rows-over-HTTP.
type HTTPConnector struct {
	id      string
	typ     models.SourceType
	url     string
	client  HTTPClient
	backoff utils.Backoff
}

func NewHTTP(id string, typ models.SourceType, url string, client HTTPClient) *HTTPConnector {
	return &HTTPConnector{
		id:      id,
		typ:     typ,
		url:     url,
		client:  client,
		backoff: utils.NewBackoff(100*time.Millisecond, 2),
	}
}

func (c *HTTPConnector) ID() string              { return c.id }
func (c *HTTPConnector) Type() models.SourceType { return c.typ }
func (c *HTTPConnector) IsConnected() bool       { return c.url != "" }

// Fetch GETs url?days=N with exponential backoff and decodes the row array.
// Numbers decode as json.Number so integer counts survive intact.
func (c *HTTPConnector) Fetch(ctx context.Context, days int) (*models.RawTable, error) {
	if c.url == "" {
		return nil, errors.New("connector not configured")
	}

	var rows []map[string]any
	err := c.backoff.Do(func(int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return c.getJSON(ctx, days, &rows)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", c.id, err)
	}
	return tableFromRows(rows), nil
}

func (c *HTTPConnector) getJSON(ctx context.Context, days int, dst *[]map[string]any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	q := req.URL.Query()
	q.Set("days", strconv.Itoa(days))
	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("non-2xx: %d body=%s", resp.StatusCode, string(b))
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dst)
}

// tableFromRows derives the column list from the union of row keys, sorted
// for determinism.
func tableFromRows(rows []map[string]any) *models.RawTable {
	seen := make(map[string]bool)
	for _, r := range rows {
		for k := range r {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return &models.RawTable{Columns: cols, Rows: rows}
}
