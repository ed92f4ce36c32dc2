package backends

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeepLTranslateBatchParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "FR", r.Form.Get("target_lang"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"translations": []map[string]string{
				{"text": "Bonjour"},
				{"text": "Monde"},
			},
		})
	}))
	defer srv.Close()

	d := NewDeepL("key", true)
	d.baseURL = srv.URL

	result, err := d.TranslateBatch(context.Background(), []string{"Hello", "World"}, "en", "fr", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Bonjour", "Monde"}, result.Lines)
}

func TestGoogleTranslateBatchParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "fr", r.Form.Get("target"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"translations": []map[string]string{
					{"translatedText": "Salut"},
				},
			},
		})
	}))
	defer srv.Close()

	g := NewGoogleTranslate("key")
	g.baseURL = srv.URL

	result, err := g.TranslateBatch(context.Background(), []string{"Hi"}, "en", "fr", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Salut"}, result.Lines)
}

func TestLibreTranslateBatchIssuesOneRequestPerLine(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req libreTranslateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(libreTranslateResponse{TranslatedText: "tr:" + req.Q})
	}))
	defer srv.Close()

	l := NewLibreTranslate(srv.URL, "")
	result, err := l.TranslateBatch(context.Background(), []string{"a", "b"}, "en", "fr", nil)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Equal(t, []string{"tr:a", "tr:b"}, result.Lines)
}

func TestSplitLinesPadsAndTruncatesToExpectedCount(t *testing.T) {
	out := splitLines("1. one\n2. two\n", 3)
	require.Equal(t, []string{"one", "two", ""}, out)

	out = splitLines("1. one\n2. two\n3. three\n4. four\n", 2)
	require.Equal(t, []string{"one", "two"}, out)
}
