package backends

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/sublarr/sublarr/internal/translationmanager"
)

// Google drives Gemini via google.golang.org/genai — the generative
// "google" backend family (spec §4.5 backend families table).
type Google struct {
	client *genai.Client
	model  string
}

func NewGoogle(ctx context.Context, apiKey, model string) (*Google, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &Google{client: client, model: model}, nil
}

func (g *Google) Name() string          { return "google" }
func (g *Google) DisplayName() string   { return "Google" }
func (g *Google) SupportsGlossary() bool { return true }
func (g *Google) SupportsBatch() bool    { return true }
func (g *Google) MaxBatchSize() int      { return 50 }

func (g *Google) buildPrompt(lines []string, sourceLang, targetLang string, glossary []translationmanager.GlossaryEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Translate the following %d lines from %s to %s. Preserve line breaks exactly — return exactly %d lines, one translation per input line, nothing else.\n\n", len(lines), sourceLang, targetLang, len(lines))
	if len(glossary) > 0 {
		sb.WriteString("Glossary (use these exact translations when the term appears):\n")
		for _, e := range glossary {
			fmt.Fprintf(&sb, "%s -> %s\n", e.SourceTerm, e.TargetTerm)
		}
		sb.WriteString("\n")
	}
	for i, l := range lines {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, l)
	}
	return sb.String()
}

func (g *Google) TranslateBatch(ctx context.Context, lines []string, sourceLang, targetLang string, glossary []translationmanager.GlossaryEntry) (translationmanager.TranslationResult, error) {
	start := time.Now()
	prompt := g.buildPrompt(lines, sourceLang, targetLang, glossary)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return translationmanager.TranslationResult{}, fmt.Errorf("google generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return translationmanager.TranslationResult{}, fmt.Errorf("google returned no content")
	}

	var chars int64
	for _, l := range lines {
		chars += int64(len(l))
	}

	return translationmanager.TranslationResult{
		Lines:      splitLines(text, len(lines)),
		ElapsedMs:  time.Since(start).Milliseconds(),
		Characters: chars,
	}, nil
}

func (g *Google) HealthCheck(ctx context.Context) error {
	_, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text("ping"), nil)
	return err
}

func (g *Google) EvaluateQuality(ctx context.Context, source, translated string) (int, error) {
	prompt := fmt.Sprintf("Rate this translation from 0 to 100, respond with only the number.\nSource: %s\nTranslation: %s", source, translated)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return 0, err
	}
	var score int
	if _, err := fmt.Sscanf(strings.TrimSpace(resp.Text()), "%d", &score); err != nil {
		return 0, err
	}
	return score, nil
}
