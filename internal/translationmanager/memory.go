package translationmanager

import (
	"github.com/sublarr/sublarr/internal/store"
)

// Memory is a thin, optional wrapper over store.TranslationMemoryRepo —
// the manager consults it before any backend call and populates it after
// every successful one (spec §4.5 "Translation-memory cache").
type Memory struct {
	repo *store.TranslationMemoryRepo
}

func NewMemory(repo *store.TranslationMemoryRepo) *Memory {
	return &Memory{repo: repo}
}

func (m *Memory) Lookup(sourceLang, targetLang, text string) (string, bool) {
	if m == nil || m.repo == nil {
		return "", false
	}
	translated, ok, err := m.repo.GetExact(sourceLang, targetLang, text)
	if err != nil {
		return "", false
	}
	return translated, ok
}

func (m *Memory) Store(sourceLang, targetLang, text, translated string) {
	if m == nil || m.repo == nil {
		return
	}
	_ = m.repo.Save(sourceLang, targetLang, text, translated)
}
