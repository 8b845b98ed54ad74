package model

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// ContentGenerator exports contentGenerator for mocks.
type ContentGenerator = contentGenerator

// ChatCompleter exports chatCompleter for mocks.
type ChatCompleter = chatCompleter

var (
	NewGeminiWithGenerator = newGeminiWithGenerator
	NewOpenAIWithCompleter = newOpenAIWithCompleter

	ClassifyGeminiError = classifyGeminiError
	ClassifyOpenAIError = classifyOpenAIError
	GeminiText          = geminiText
)
