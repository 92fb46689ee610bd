// Package prompts centralizes the instruction text sent to the translation
// provider so prompt wording can be reviewed and tuned in one place.
package prompts

import "fmt"

// TranslatorSystem builds the system prompt fixing the translator persona.
// The prompt instructs the model to keep the JSON structure intact and
// translate values only, preserving HTML tags and formatting.
func TranslatorSystem(sourceLanguage, targetLanguageName string) string {
	return fmt.Sprintf("You are a professional translator. Translate the given JSON content from %s to %s. "+
		"Maintain the exact JSON structure and only translate the text values. "+
		"Preserve any HTML tags, special formatting, and maintain the professional tone. "+
		"Return only valid JSON with the same keys but translated values.",
		sourceLanguage, targetLanguageName)
}
