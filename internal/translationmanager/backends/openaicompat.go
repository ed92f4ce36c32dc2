// Package backends holds concrete Backend implementations for
// translationmanager.Manager: local_llm and openai_compatible (generative,
// via openai-go/v3), google (generative, via google.golang.org/genai),
// google_translate (Cloud Translation REST, stdlib net/http),
// and deepl/libretranslate (rule-based REST, stdlib net/http — no SDK for
// either appears anywhere in the example pack).
package backends

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/sublarr/sublarr/internal/translationmanager"
)

// OpenAICompatible drives any chat-completions endpoint compatible with
// the OpenAI API — the hosted OpenAI API when BaseURL is empty, or a local
// inference server (llama.cpp, Ollama, vLLM) when BaseURL points at it.
// The same type backs both the "local_llm" and "openai_compatible" backend
// names; only the registered Name differs.
type OpenAICompatible struct {
	name    string
	display string
	client  openai.Client
	model   string
	promptTemplate string
	maxBatch int
}

const defaultTranslatePrompt = `Translate the following %d lines from %s to %s. ` +
	`Preserve line breaks exactly — return exactly %d lines, one translation per input line, nothing else.`

func NewOpenAICompatible(name, displayName, apiKey, baseURL, model, promptTemplate string) *OpenAICompatible {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAICompatible{
		name:    name,
		display: displayName,
		client:  openai.NewClient(opts...),
		model:   model,
		promptTemplate: promptTemplate,
		maxBatch: 50,
	}
}

func (b *OpenAICompatible) Name() string        { return b.name }
func (b *OpenAICompatible) DisplayName() string { return b.display }
func (b *OpenAICompatible) SupportsGlossary() bool { return true }
func (b *OpenAICompatible) SupportsBatch() bool    { return true }
func (b *OpenAICompatible) MaxBatchSize() int      { return b.maxBatch }

func (b *OpenAICompatible) TranslateBatch(ctx context.Context, lines []string, sourceLang, targetLang string, glossary []translationmanager.GlossaryEntry) (translationmanager.TranslationResult, error) {
	start := time.Now()
	prompt := b.buildPrompt(lines, sourceLang, targetLang, glossary)

	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: b.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return translationmanager.TranslationResult{}, fmt.Errorf("%s completion: %w", b.name, err)
	}
	if len(resp.Choices) == 0 {
		return translationmanager.TranslationResult{}, fmt.Errorf("%s returned no choices", b.name)
	}

	translated := splitLines(resp.Choices[0].Message.Content, len(lines))
	var chars int64
	for _, l := range lines {
		chars += int64(len(l))
	}

	return translationmanager.TranslationResult{
		Lines:      translated,
		ElapsedMs:  time.Since(start).Milliseconds(),
		Characters: chars,
	}, nil
}

func (b *OpenAICompatible) buildPrompt(lines []string, sourceLang, targetLang string, glossary []translationmanager.GlossaryEntry) string {
	var sb strings.Builder
	if b.promptTemplate != "" {
		sb.WriteString(b.promptTemplate)
	} else {
		sb.WriteString(fmt.Sprintf(defaultTranslatePrompt, len(lines), sourceLang, targetLang, len(lines)))
	}
	sb.WriteString("\n\n")
	if len(glossary) > 0 {
		sb.WriteString("Glossary (use these exact translations when the term appears):\n")
		for _, g := range glossary {
			fmt.Fprintf(&sb, "%s -> %s\n", g.SourceTerm, g.TargetTerm)
		}
		sb.WriteString("\n")
	}
	for i, l := range lines {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, l)
	}
	return sb.String()
}

func splitLines(content string, expected int) []string {
	raw := strings.Split(strings.TrimSpace(content), "\n")
	out := make([]string, 0, expected)
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if idx := strings.IndexAny(line, "."); idx > 0 && idx <= 3 {
			if _, err := fmt.Sscanf(line[:idx], "%d", new(int)); err == nil {
				line = strings.TrimSpace(line[idx+1:])
			}
		}
		out = append(out, line)
	}
	for len(out) < expected {
		out = append(out, "")
	}
	if len(out) > expected {
		out = out[:expected]
	}
	return out
}

func (b *OpenAICompatible) HealthCheck(ctx context.Context) error {
	_, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: b.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("ping"),
		},
	})
	return err
}

// EvaluateQuality implements translationmanager.QualityCapable (spec §4.5).
func (b *OpenAICompatible) EvaluateQuality(ctx context.Context, source, translated string) (int, error) {
	prompt := fmt.Sprintf("Rate this translation from 0 to 100, respond with only the number.\nSource: %s\nTranslation: %s", source, translated)
	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: b.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return 0, err
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("%s returned no choices", b.name)
	}
	var score int
	if _, err := fmt.Sscanf(strings.TrimSpace(resp.Choices[0].Message.Content), "%d", &score); err != nil {
		return 0, err
	}
	return score, nil
}
