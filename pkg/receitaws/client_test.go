package receitaws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{
	"status": "OK",
	"nome": "PADARIA SAO JOAO LTDA",
	"fantasia": "PADARIA DO JOAO",
	"telefone": "(83) 99911-2233",
	"email": "contato@padaria.br",
	"capital_social": "100000.00",
	"qsa": [
		{"nome": "MARIA DA SILVA", "qual": "49-Sócio-Administrador"},
		{"nome": "JOSE DA SILVA", "qual": "22-Sócio"}
	]
}`

func newTestClient(srv *httptest.Server) Client {
	return NewClient(
		WithBaseURL(srv.URL),
		WithInterval(time.Millisecond),
	)
}

func TestLookup(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(okBody))
	}))
	defer srv.Close()

	details, err := newTestClient(srv).Lookup(context.Background(), "11222333000181")
	require.NoError(t, err)
	require.NotNil(t, details)

	assert.Equal(t, "/cnpj/11222333000181", gotPath)
	assert.Equal(t, "PADARIA SAO JOAO LTDA", details.Name)
	assert.Equal(t, "PADARIA DO JOAO", details.TradeName)
	assert.Equal(t, "(83) 99911-2233", details.Phone)
	assert.Equal(t, "contato@padaria.br", details.Email)
	require.Len(t, details.Officers, 2)
	assert.Equal(t, "MARIA DA SILVA", details.Officers[0].Name)
	assert.Equal(t, "49-Sócio-Administrador", details.Officers[0].Role)
}

func TestLookupNotFoundStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ERROR", "message": "CNPJ inválido"}`))
	}))
	defer srv.Close()

	details, err := newTestClient(srv).Lookup(context.Background(), "11222333000190")
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestLookupRetriesThrottleOnce(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(okBody))
	}))
	defer srv.Close()

	details, err := newTestClient(srv).Lookup(context.Background(), "11222333000181")
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, 2, calls)
}

func TestLookupGivesUpAfterSecondThrottle(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	details, err := newTestClient(srv).Lookup(context.Background(), "11222333000181")
	require.NoError(t, err)
	assert.Nil(t, details)
	assert.Equal(t, 2, calls)
}

func TestLookupServerErrorIsNoDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	details, err := newTestClient(srv).Lookup(context.Background(), "11222333000181")
	require.NoError(t, err)
	assert.Nil(t, details)
}
