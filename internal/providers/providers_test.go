package providers

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sublarr/sublarr/internal/providerregistry"
)

func buildTestZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtractSubtitlePrefersASSOverSRT(t *testing.T) {
	data := buildTestZip(t, map[string]string{
		"movie.srt": "1\n00:00:01,000 --> 00:00:02,000\nHello\n",
		"movie.ass": "[Script Info]\n",
	})

	extracted, format, err := ExtractSubtitle(data, ".zip")
	require.NoError(t, err)
	require.Equal(t, "ass", format)
	require.Contains(t, string(extracted), "Script Info")
}

func TestExtractSubtitleFallsBackToSRT(t *testing.T) {
	data := buildTestZip(t, map[string]string{
		"movie.srt": "1\n00:00:01,000 --> 00:00:02,000\nHello\n",
	})

	_, format, err := ExtractSubtitle(data, ".zip")
	require.NoError(t, err)
	require.Equal(t, "srt", format)
}

func TestExtractSubtitleErrorsWhenNoneFound(t *testing.T) {
	data := buildTestZip(t, map[string]string{"readme.txt": "no subs here"})
	_, _, err := ExtractSubtitle(data, ".zip")
	require.Error(t, err)
}

func TestEmbeddedProviderIsASentinel(t *testing.T) {
	e := NewEmbedded()
	candidates, err := e.Search(context.Background(), providerregistry.VideoQuery{})
	require.NoError(t, err)
	require.Nil(t, candidates)

	data, err := e.Download(context.Background(), providerregistry.Candidate{})
	require.NoError(t, err)
	require.Empty(t, data)
}
