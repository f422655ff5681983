package fx_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/infrastructure/fx"
)

const sampleFeed = `28.08.2026 #166
country|currency|amount|code|rate
USA|dollar|1|USD|23,456
EMU|euro|1|EUR|25,120
Japan|yen|100|JPY|15,740

Hungary|forint|100|HUF|6,310
`

func TestParseFeed(t *testing.T) {
	rates, err := fx.ParseFeed(strings.NewReader(sampleFeed))
	require.NoError(t, err)
	require.Len(t, rates, 4)

	assert.Equal(t, "23.456", rates["USD"].String())
	assert.Equal(t, "25.12", rates["EUR"].String())

	// quoted per 100 units, the effective rate divides the amount out
	assert.Equal(t, "0.1574", rates["JPY"].String())
	assert.Equal(t, "0.0631", rates["HUF"].String())
}

func TestParseFeed_SkipsMalformedLines(t *testing.T) {
	feed := "28.08.2026 #166\n" +
		"garbage without pipes\n" +
		"too|few|fields\n" +
		"X|broken amount|abc|XXX|1,0\n" +
		"EMU|euro|1|EUR|25,0\n"

	rates, err := fx.ParseFeed(strings.NewReader(feed))
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, "25", rates["EUR"].String())
}

func TestParseFeed_EmptyFeedFails(t *testing.T) {
	_, err := fx.ParseFeed(strings.NewReader("28.08.2026 #166\ncountry|currency|amount|code|rate\n"))
	require.Error(t, err)
}

func TestClient_Rates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	client := fx.NewClient(srv.URL, 0, false)
	rates, err := client.Rates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "23.456", rates["USD"].String())
}

func TestClient_RatesPropagatesHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := fx.NewClient(srv.URL, 0, false)
	_, err := client.Rates(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
