// Package fx fetches exchange rates from the central-bank text feed.
package fx

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"workshop/internal/domain/codebooks/currency"
	"workshop/pkg/logger"
)

const defaultTimeout = 10 * time.Second

// Client pulls the daily rate feed. The feed is a pipe-delimited text
// resource: a date header, a column header, then one line per currency
// as country|name|amount|iso|rate with comma decimals.
type Client struct {
	url    string
	client *http.Client
}

// NewClient creates a feed client. Certificate verification is on unless
// the install explicitly opts out.
func NewClient(url string, timeout time.Duration, insecureSkipTLS bool) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport
	if insecureSkipTLS {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Client{
		url: url,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

var _ currency.RateSource = (*Client)(nil)

// Rates implements currency.RateSource. The returned map is keyed by ISO
// code; each value is the base-currency cost of one unit (rate / amount).
func (c *Client) Rates(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rate feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate feed returned %s", resp.Status)
	}

	rates, err := ParseFeed(resp.Body)
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "rate feed fetched", "currencies", len(rates))
	return rates, nil
}

// ParseFeed reads the pipe-delimited feed body. Header and malformed
// lines are skipped; a feed with no parsable currency line is an error.
func ParseFeed(r io.Reader) (map[string]decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) != 5 {
			continue
		}

		iso := strings.TrimSpace(fields[3])
		amount, err := parseCommaDecimal(fields[2])
		if err != nil {
			// the column header lands here
			continue
		}
		rate, err := parseCommaDecimal(fields[4])
		if err != nil {
			continue
		}
		if iso == "" || !amount.IsPositive() {
			continue
		}

		rates[iso] = rate.DivRound(amount, 6)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rate feed: %w", err)
	}

	if len(rates) == 0 {
		return nil, fmt.Errorf("rate feed contained no currency lines")
	}
	return rates, nil
}

func parseCommaDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
}
