package translate

import (
	"fmt"

	"github.com/alnah/go-translate/internal/lang"
)

// Default generation settings.
const (
	DefaultModel       = "gpt-3.5-turbo"
	DefaultTemperature = 0.3
)

// translatePrompt is the system instruction for chunk translation.
func translatePrompt(target lang.Language) string {
	return fmt.Sprintf("You are a professional translator. Translate the user's text into %s. "+
		"Preserve paragraphs and line breaks. Output ONLY the translated text.", target.DisplayName())
}

// summaryPrompt is the single user message for summaries.
func summaryPrompt(text string, target lang.Language) string {
	return fmt.Sprintf("Provide a concise 3-4 sentence summary in %s of the following text:\n\n%s",
		target.DisplayName(), text)
}
