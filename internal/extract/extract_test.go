package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFindTaxID(t *testing.T) {
	// Labeled and punctuated.
	assert.Equal(t, "11222333000181", FindTaxID("Razão social. CNPJ: 11.222.333/0001-81. Rua X."))
	// Labeled without punctuation.
	assert.Equal(t, "11222333000181", FindTaxID("cnpj 11222333000181"))
	// Bare id with no label still found.
	assert.Equal(t, "06990590000123", FindTaxID("Empresa 06.990.590/0001-23 desde 1998"))

	// Invalid check pair is discarded, even when labeled.
	assert.Empty(t, FindTaxID("CNPJ: 11.222.333/0001-90"))
	// Labeled-but-invalid followed by bare-but-valid: the valid one wins.
	assert.Equal(t, "06990590000123",
		FindTaxID("CNPJ: 11.222.333/0001-90 ... 06.990.590/0001-23"))

	assert.Empty(t, FindTaxID("nenhum identificador aqui"))
	assert.Empty(t, FindTaxID(""))
}

func TestFromWebsite(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`<footer>CNPJ: 11.222.333/0001-81</footer>`))
	}))
	defer srv.Close()

	e := New(WithUserAgent("test-agent/1.0"))
	got := e.FromWebsite(context.Background(), srv.URL)
	assert.Equal(t, "11222333000181", got)
	assert.Equal(t, "test-agent/1.0", gotUA)
}

func TestFromWebsiteSoftFailures(t *testing.T) {
	e := New(WithTimeout(time.Second))

	// Unreachable host.
	assert.Empty(t, e.FromWebsite(context.Background(), "http://127.0.0.1:1"))
	// Empty input.
	assert.Empty(t, e.FromWebsite(context.Background(), ""))

	// Non-200 page.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()
	assert.Empty(t, e.FromWebsite(context.Background(), srv.URL))
}

func TestFromSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`resultado ... 06.990.590/0001-23 ...`))
	}))
	defer srv.Close()

	e := New(WithSearchBaseURL(srv.URL))
	got := e.FromSearch(context.Background(), "Padaria São João", "João Pessoa")
	assert.Equal(t, "06990590000123", got)
	assert.Equal(t, "Padaria São João João Pessoa CNPJ", gotQuery)
}
