// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

// CleanCodeBlock removes markdown code fence wrappers from generated code.
// Models often wrap code in ```python ... ``` blocks even when instructed
// to return raw code.
func CleanCodeBlock(text string) string {
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")

	// Skip a language identifier on the opening fence line
	if idx := strings.Index(text, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(text[:idx])
		if firstLine == "" || (len(firstLine) < 20 && !strings.Contains(firstLine, " ")) {
			text = text[idx+1:]
		}
	}

	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}

	return strings.TrimSpace(text)
}
