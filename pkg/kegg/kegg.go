// Package kegg fetches compound records from the public KEGG REST API,
// rate-limited to be polite to the shared server.
package kegg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const baseURL = "http://rest.kegg.jp"

// Client fetches KEGG compound data through a token-bucket limiter so a
// batch job never hammers the shared REST endpoint.
type Client struct {
	HTTP    *http.Client
	limiter *rate.Limiter
	baseURL string
}

// NewClient returns a Client allowing at most one request every
// interval, with a single-request burst.
func NewClient(interval time.Duration) *Client {
	return &Client{
		HTTP:    http.DefaultClient,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		baseURL: baseURL,
	}
}

// Compound is one record extracted from a KEGG `get` entry.
type Compound struct {
	ID              string
	Name            string
	ChemicalFormula string
	ExactMass       string
}

// CompoundIDsByMassRange lists every KEGG compound id whose exact mass
// falls in [minMass, maxMass), querying in chunkSize-wide slices to stay
// under KEGG's per-query result cap.
func (c *Client) CompoundIDsByMassRange(ctx context.Context, minMass, maxMass, chunkSize float64) ([]string, error) {
	seen := map[string]bool{}
	var ids []string

	for current := minMass; current < maxMass; current += chunkSize {
		upper := current + chunkSize
		if upper > maxMass {
			upper = maxMass
		}

		url := fmt.Sprintf("%s/find/compound/%g-%g/exact_mass", c.baseURL, current, upper)
		body, err := c.get(ctx, url)
		if err != nil {
			return nil, err
		}

		for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
			if line == "" {
				continue
			}
			fields := strings.SplitN(line, "\t", 2)
			id := strings.TrimPrefix(fields[0], "cpd:")
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	return ids, nil
}

// GetBatch fetches the flat-text KEGG entries for a batch of compound
// ids in one request and parses out formula, name, and exact mass.
func (c *Client) GetBatch(ctx context.Context, compoundIDs []string) ([]Compound, error) {
	if len(compoundIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(compoundIDs))
	for i, id := range compoundIDs {
		ids[i] = "cpd:" + id
	}
	url := c.baseURL + "/get/" + strings.Join(ids, "+")

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	return parseEntries(body), nil
}

func (c *Client) get(ctx context.Context, url string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("kegg: rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("kegg: building request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("kegg: requesting %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("kegg: %q returned status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("kegg: reading response: %w", err)
	}
	return string(data), nil
}

// parseEntries splits a KEGG flat-text response on ENTRY lines and pulls
// the NAME, FORMULA, and EXACT_MASS fields out of each record.
func parseEntries(body string) []Compound {
	var compounds []Compound
	var current *Compound

	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "ENTRY"):
			if current != nil {
				compounds = append(compounds, *current)
			}
			current = &Compound{ID: firstField(line, 1)}
		case strings.HasPrefix(line, "NAME") && current != nil:
			current.Name = strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(line, "NAME")), ";")
		case strings.HasPrefix(line, "FORMULA") && current != nil:
			current.ChemicalFormula = strings.TrimSpace(strings.TrimPrefix(line, "FORMULA"))
		case strings.HasPrefix(line, "EXACT_MASS") && current != nil:
			current.ExactMass = strings.TrimSpace(strings.TrimPrefix(line, "EXACT_MASS"))
		}
	}
	if current != nil {
		compounds = append(compounds, *current)
	}
	return compounds
}

func firstField(line string, index int) string {
	fields := strings.Fields(line)
	if index >= len(fields) {
		return ""
	}
	return fields[index]
}
