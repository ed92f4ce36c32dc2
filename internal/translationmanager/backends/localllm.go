package backends

// NewLocalLLM builds the "local_llm" backend: a self-hosted inference
// server (llama.cpp, Ollama, vLLM, ...) speaking the OpenAI chat-completions
// wire format at baseURL. apiKey is typically empty or a placeholder — most
// local servers don't check it, but the client requires a non-nil option.
func NewLocalLLM(baseURL, model, promptTemplate string) *OpenAICompatible {
	apiKey := "local"
	return NewOpenAICompatible("local_llm", "Local LLM", apiKey, baseURL, model, promptTemplate)
}
