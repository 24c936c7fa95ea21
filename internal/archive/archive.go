// Package archive looks up real exoplanet systems in the NASA Exoplanet
// Archive over its TAP sync endpoint. Lookups are cached; failures stay
// local to this package and never touch simulation results.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultBaseURL is the archive's TAP synchronous query endpoint.
	DefaultBaseURL = "https://exoplanetarchive.ipac.caltech.edu/TAP/sync"

	userAgent    = "exomoon/0.1"
	cacheEntries = 256
)

// ErrNoMatch is returned when no planet row matches the requested name.
var ErrNoMatch = errors.New("archive: no matching planet")

var queryColumns = strings.Join([]string{
	"pl_name",
	"hostname",
	"st_teff",
	"st_rad",
	"st_mass",
	"pl_bmasse",
	"pl_rade",
	"pl_orbsmax",
	"pl_orbeccen",
}, ",")

// Record is one planet row from the composite-parameters table. Archive
// columns are frequently null, hence the pointers.
type Record struct {
	PlanetName string   `json:"pl_name"`
	HostName   string   `json:"hostname"`
	Ts         *float64 `json:"st_teff"`    // K
	RsSolar    *float64 `json:"st_rad"`     // solar radii
	MsSolar    *float64 `json:"st_mass"`    // solar masses
	MpEarth    *float64 `json:"pl_bmasse"`  // Earth masses
	RpEarth    *float64 `json:"pl_rade"`    // Earth radii
	ApAU       *float64 `json:"pl_orbsmax"` // AU
	Ep         *float64 `json:"pl_orbeccen"`
}

// Client queries the archive with a bounded timeout and an LRU cache of
// successful lookups.
type Client struct {
	base string
	http *http.Client
	hits *lru.Cache[string, *Record]
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different TAP endpoint (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.base = u }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(opts ...Option) *Client {
	cache, _ := lru.New[string, *Record](cacheEntries)
	c := &Client{
		base: DefaultBaseURL,
		http: &http.Client{Timeout: 20 * time.Second},
		hits: cache,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) query(ctx context.Context, sql string) ([]json.RawMessage, error) {
	form := url.Values{}
	form.Set("query", sql)
	form.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive: query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("archive: TAP error %d: %s", resp.StatusCode,
			strings.TrimSpace(string(body)))
	}

	var rows []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("archive: decode: %w", err)
	}
	return rows, nil
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Fetch returns the composite-parameters row for a planet name. It tries
// an exact match, a case-folded match, then a first LIKE match, in that
// order; ErrNoMatch if all three come back empty.
func (c *Client) Fetch(ctx context.Context, name string) (*Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("archive: empty planet name")
	}
	key := strings.ToLower(name)
	if rec, ok := c.hits.Get(key); ok {
		return rec, nil
	}

	lit := escapeSQL(name)
	queries := []string{
		fmt.Sprintf("SELECT %s FROM pscomppars WHERE pl_name='%s'", queryColumns, lit),
		fmt.Sprintf("SELECT %s FROM pscomppars WHERE UPPER(pl_name)=UPPER('%s')", queryColumns, lit),
		fmt.Sprintf("SELECT TOP 1 %s FROM pscomppars WHERE UPPER(pl_name) LIKE UPPER('%%%s%%') ORDER BY pl_name", queryColumns, lit),
	}

	var lastErr error
	for _, sql := range queries {
		rows, err := c.query(ctx, sql)
		if err != nil {
			lastErr = err
			continue
		}
		if len(rows) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(rows[0], &rec); err != nil {
			return nil, fmt.Errorf("archive: decode row: %w", err)
		}
		c.hits.Add(key, &rec)
		return &rec, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %q", ErrNoMatch, name)
}

// Search returns up to limit planet names resembling the query, ranked by
// Rank.
func (c *Client) Search(ctx context.Context, name string, limit int) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" || limit <= 0 {
		return nil, nil
	}
	sql := fmt.Sprintf(
		"SELECT DISTINCT TOP 50 pl_name FROM pscomppars WHERE UPPER(pl_name) LIKE UPPER('%%%s%%') ORDER BY pl_name",
		escapeSQL(name))
	rows, err := c.query(ctx, sql)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, raw := range rows {
		var row struct {
			PlanetName string `json:"pl_name"`
		}
		if err := json.Unmarshal(raw, &row); err == nil && row.PlanetName != "" {
			names = append(names, row.PlanetName)
		}
	}
	return Rank(name, names, limit), nil
}

// EstimateDensityCGS estimates planet bulk density (g/cm^3) from mass and
// radius in Earth units, anchored to Earth's 5.514 g/cm^3. Returns false
// when either input is missing or non-physical.
func EstimateDensityCGS(mpEarth, rpEarth *float64) (float64, bool) {
	if mpEarth == nil || rpEarth == nil || *rpEarth <= 0 {
		return 0, false
	}
	return 5.514 * (*mpEarth / (*rpEarth * *rpEarth * *rpEarth)), true
}
