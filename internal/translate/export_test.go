package translate

// Test-only exports. This file is compiled only during `go test`.

// WithChatCompleter exposes withChatCompleter for black-box tests.
var WithChatCompleter = withChatCompleter

// ChatCompleter exposes chatCompleter for mocks.
type ChatCompleter = chatCompleter

// ContentGenerator exposes contentGenerator for mocks.
type ContentGenerator = contentGenerator

// NewVertexClientWithFactory builds a VertexClient without a genai client.
func NewVertexClientWithFactory(model string, factory func(system string, temperature float32) ContentGenerator, opts ...VertexOption) *VertexClient {
	return newVertexClient(model, factory, opts...)
}

// TranslatePrompt exposes translatePrompt.
var TranslatePrompt = translatePrompt
