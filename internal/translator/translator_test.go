package translator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sublarr/sublarr/internal/circuitbreaker"
	"github.com/sublarr/sublarr/internal/store"
	"github.com/sublarr/sublarr/internal/translationmanager"
	"github.com/sublarr/sublarr/pkg/subsutil"
)

type upperBackend struct{}

func (upperBackend) Name() string          { return "upper" }
func (upperBackend) DisplayName() string   { return "Upper" }
func (upperBackend) SupportsGlossary() bool { return false }
func (upperBackend) SupportsBatch() bool    { return true }
func (upperBackend) MaxBatchSize() int      { return 100 }
func (upperBackend) HealthCheck(ctx context.Context) error { return nil }
func (upperBackend) TranslateBatch(ctx context.Context, lines []string, sourceLang, targetLang string, glossary []translationmanager.GlossaryEntry) (translationmanager.TranslationResult, error) {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = "TR:" + l
	}
	return translationmanager.TranslationResult{Lines: out}, nil
}

type noProber struct{}

func (noProber) Streams(ctx context.Context, videoPath string) ([]subsutil.StreamInfo, error) {
	return nil, nil
}

func newTestTranslator(t *testing.T) *Translator {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	breakers := circuitbreaker.NewRegistry(circuitbreaker.DefaultConfig())
	tm := translationmanager.New(breakers, s.BackendStats, nil, zerolog.Nop())
	tm.Register(upperBackend{})

	return New(noProber{}, nil, nil, tm, nil, nil, zerolog.Nop())
}

const sampleSRT = `1
00:00:01,000 --> 00:00:02,000
Hello there

2
00:00:03,000 --> 00:00:04,000
General Kenobi
`

func TestTranslateSRTWritesTranslatedFile(t *testing.T) {
	tr := newTestTranslator(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "source.srt")
	require.NoError(t, os.WriteFile(src, []byte(sampleSRT), 0o644))

	content, err := os.ReadFile(src)
	require.NoError(t, err)

	out := filepath.Join(dir, "show.fr.srt")
	_, err = tr.translateSRT(context.Background(), content, "en", "fr", []string{"upper"}, nil, out)
	require.NoError(t, err)
	require.FileExists(t, out)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(written), "TR:Hello there")
}

func TestCaseAShortCircuitsWhenTargetASSExists(t *testing.T) {
	tr := newTestTranslator(t)
	dir := t.TempDir()
	video := filepath.Join(dir, "show.mkv")
	require.NoError(t, os.WriteFile(video, []byte("fake"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "show.fr.ass"), []byte("[Script Info]"), 0o644))

	result := tr.Translate(context.Background(), Request{
		VideoPath:      video,
		TargetLanguage: "fr",
		SourceLanguage: "en",
	})
	require.Equal(t, CaseA, result.Case)
	require.True(t, result.Success)
	require.True(t, result.Skipped)
}

func TestTranslateFailsCleanlyWithNoSourceAndNoWhisper(t *testing.T) {
	tr := newTestTranslator(t)
	dir := t.TempDir()
	video := filepath.Join(dir, "show.mkv")
	require.NoError(t, os.WriteFile(video, []byte("fake"), 0o644))

	result := tr.Translate(context.Background(), Request{
		VideoPath:      video,
		TargetLanguage: "fr",
		SourceLanguage: "en",
		BackendChain:   []string{"upper"},
	})
	require.Equal(t, CaseFailed, result.Case)
	require.False(t, result.Success)
	require.NotEmpty(t, result.Error)
}

func TestQualityWarningsFlagIdenticalLines(t *testing.T) {
	warnings := CheckQuality([]string{"hello", "world", "foo"}, []string{"hello", "world", "bar"})
	require.NotEmpty(t, warnings)
}

func TestValidateOutputRejectsLineCountMismatch(t *testing.T) {
	ok, errs := ValidateOutput([]string{"a", "b"}, []string{"a"})
	require.False(t, ok)
	require.NotEmpty(t, errs)
}

func TestOutputPathUsesForcedConvention(t *testing.T) {
	require.Equal(t, "/media/show.fr.ass", outputPath("/media/show.mkv", "fr", "ass", false))
	require.Equal(t, "/media/show.fr.forced.srt", outputPath("/media/show.mkv", "fr", "srt", true))
}
