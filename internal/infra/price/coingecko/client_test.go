package coingecko

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	transporthttp "github.com/Jestopher-BTC/LNhelperBot/internal/pkg/transport/http"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHTTPClient() *retryablehttp.Client {
	return transporthttp.NewClient(
		transporthttp.WithTimeout(time.Second),
		transporthttp.WithRetryMax(0),
	)
}

func TestClient_BTCUSD(t *testing.T) {
	t.Run("returns the quoted price", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/simple/price", r.URL.Path)
			assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
			assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))

			w.Write([]byte(`{"bitcoin":{"usd":97234.12}}`))
		}))
		defer server.Close()

		c := NewClient(testHTTPClient(), server.URL)

		price, err := c.BTCUSD(t.Context())
		require.NoError(t, err)
		assert.InDelta(t, 97234.12, price, 0.001)
	})

	t.Run("rejects a missing quote", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := NewClient(testHTTPClient(), server.URL)

		_, err := c.BTCUSD(t.Context())
		assert.ErrorIs(t, err, ErrPriceUnavailable)
	})

	t.Run("maps a non-OK status to ErrUnexpectedStatus", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		c := NewClient(testHTTPClient(), server.URL)

		_, err := c.BTCUSD(t.Context())
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})
}
