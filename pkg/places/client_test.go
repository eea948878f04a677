package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchBusinesses(t *testing.T) {
	var gotKey string
	var gotReq map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Goog-Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Write([]byte(`{"places": [{
			"id": "place-1",
			"displayName": {"text": "Padaria São João"},
			"formattedAddress": "Rua das Flores, 100 - João Pessoa - PB",
			"nationalPhoneNumber": "(83) 99911-2233",
			"websiteUri": "https://padaria.br",
			"rating": 4.7,
			"userRatingCount": 120
		}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	businesses, err := c.SearchBusinesses(context.Background(), "padarias em João Pessoa")
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "padarias em João Pessoa", gotReq["textQuery"])
	assert.Equal(t, "pt-BR", gotReq["languageCode"])
	assert.Equal(t, "BR", gotReq["regionCode"])

	require.Len(t, businesses, 1)
	b := businesses[0]
	assert.Equal(t, "place-1", b.PlaceID)
	assert.Equal(t, "Padaria São João", b.Name)
	assert.Equal(t, "(83) 99911-2233", b.Phone)
	assert.Equal(t, "https://padaria.br", b.Website)
	assert.InDelta(t, 4.7, b.Rating, 1e-9)
	assert.Equal(t, 120, b.RatingCount)
}

func TestSearchBusinessesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.SearchBusinesses(context.Background(), "padarias")
	assert.ErrorContains(t, err, "403")
}
