package report

import "strings"

// EstimateTokens approximates the token count of text at 1.33 tokens per
// whitespace-separated word. Non-empty text counts at least one token.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return max(int(float64(words)*1.33), 1)
}
