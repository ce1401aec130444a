package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuxchn/qloo/internal/domain/entities"
	"github.com/joshuxchn/qloo/internal/infrastructure/config"
	"github.com/joshuxchn/qloo/internal/infrastructure/logger"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(config.APIConfig{
		BaseURL:     srv.URL,
		Timeout:     5 * time.Second,
		RateLimit:   1000,
		RateBurst:   1000,
		SearchLimit: 5,
	}, logger.NewNop())
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestLoginSuccess(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "shopper@example.com", req["email"])
		assert.Equal(t, "secret", req["password"])

		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"success": true,
			"user": map[string]string{
				"id":                 "user-1",
				"username":           "shopper",
				"email":              "shopper@example.com",
				"preferred_location": "01400943",
			},
		})
	}))

	user, err := client.Login(context.Background(), "shopper@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "shopper", user.Username)
	assert.Equal(t, "01400943", user.PreferredLocation)
}

func TestSearchRequestShape(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/search", r.URL.Path)

		var req struct {
			Query string `json:"query"`
			Limit int    `json:"limit"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "milk", req.Query)
		assert.Equal(t, 1, req.Limit)

		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"success": true,
			"products": []map[string]interface{}{
				{
					"name":             "Whole Milk",
					"price":            3.49,
					"promo_price":      2.99,
					"brand":            "Kroger",
					"upc":              "0001111041600",
					"inventory":        "HIGH",
					"fulfillment_type": "PICKUP",
					"location_id":      "01400943",
				},
			},
			"count": 1,
		})
	}))

	products, err := client.SearchProducts(context.Background(), "milk", 1)
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, "Whole Milk", p.Name)
	require.NotNil(t, p.Price)
	assert.InDelta(t, 3.49, *p.Price, 0.001)
	require.NotNil(t, p.PromoPrice)
	assert.InDelta(t, 2.99, *p.PromoPrice, 0.001)
	assert.Equal(t, entities.InventoryHigh, p.Inventory)
	assert.True(t, p.Inventory.InStock())
}

func TestSearchNullPrice(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"success": true,
			"products": []map[string]interface{}{
				{"name": "Mystery Item", "price": nil, "brand": "", "upc": "123", "inventory": "LOW"},
			},
			"count": 1,
		})
	}))

	products, err := client.SearchProducts(context.Background(), "mystery", 1)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Nil(t, products[0].Price)
	assert.Equal(t, "N/A", entities.FormatPrice(products[0].Price))
}

func TestAddItemPathAndBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lists/list-42/items", r.URL.Path)

		var req struct {
			ItemName string `json:"item_name"`
			Quantity int    `json:"quantity"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "milk", req.ItemName)
		assert.Equal(t, 1, req.Quantity)

		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"success": true,
			"item": map[string]interface{}{
				"name":     "Whole Milk",
				"price":    3.49,
				"brand":    "Kroger",
				"upc":      "0001111041600",
				"quantity": 1,
			},
		})
	}))

	item, err := client.AddItem(context.Background(), "list-42", "milk", 1)
	require.NoError(t, err)
	assert.Equal(t, "Whole Milk", item.Name)
	assert.Equal(t, 1, item.Quantity)
}

func TestUserListsPath(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/lists/user/user-1", r.URL.Path)

		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"success": true,
			"lists": []map[string]interface{}{
				{
					"id":         "list-1",
					"timestamp":  "2024-06-01T10:00:00",
					"items":      []interface{}{},
					"total_cost": 0,
					"item_count": 0,
				},
			},
			"count": 1,
		})
	}))

	lists, err := client.UserLists(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "list-1", lists[0].ID)
}

func TestBackendErrorPassedThroughVerbatim(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]interface{}{
			"error": "Product not found",
		})
	}))

	_, err := client.SearchProducts(context.Background(), "milk", 1)
	require.Error(t, err)
	assert.Equal(t, "Product not found", err.Error())
}

func TestSuccessFalseWithErrorMessage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"success": false,
			"error":   "List creation failed: database unavailable",
		})
	}))

	_, err := client.CreateList(context.Background(), "user-1")
	require.Error(t, err)
	assert.Equal(t, "List creation failed: database unavailable", err.Error())
}

func TestSynthesizedHTTPStatusMessage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>gateway exploded</html>"))
	}))

	_, err := client.UserLists(context.Background(), "user-1")
	require.Error(t, err)
	assert.Equal(t, "HTTP 500: Internal Server Error", err.Error())
}

func TestMalformedJSONFailsClosed(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{not json"))
	}))

	_, err := client.Login(context.Background(), "a@b.c", "pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrNetwork)
}

func TestMissingRequiredPayloadFailsClosed(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// success claimed but no user attached
		writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": true})
	}))

	_, err := client.Login(context.Background(), "a@b.c", "pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrNetwork)
}

func TestTransportFailureMapsToNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := New(config.APIConfig{
		BaseURL:     url,
		Timeout:     time.Second,
		RateLimit:   1000,
		RateBurst:   1000,
		SearchLimit: 5,
	}, logger.NewNop())

	_, err := client.Health(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrNetwork)
}

func TestHealthWithoutSuccessFlag(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)

		// The health endpoint is the one response without an envelope.
		writeJSON(t, w, http.StatusOK, map[string]string{
			"status":     "healthy",
			"database":   "connected",
			"kroger_api": "connected",
		})
	}))

	health, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "connected", health.Database)
	assert.Equal(t, "connected", health.KrogerAPI)
}

func TestHealthNon2xx(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, "HTTP 503: Service Unavailable", err.Error())
}

func TestMetricsRecordFailures(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]interface{}{"error": "Product not found"})
	}))

	_, err := client.SearchProducts(context.Background(), "milk", 1)
	require.Error(t, err)

	families, err := client.Metrics().Registry().Gather()
	require.NoError(t, err)

	found := false
	for _, fam := range families {
		if fam.GetName() == "qloo_backend_request_failures_total" {
			found = true
			require.Len(t, fam.GetMetric(), 1)
			assert.Equal(t, float64(1), fam.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found, "failure counter should be registered and populated")
}
