package utils

import "unicode"

// CountTokens estimates how many tokens a model tokenizer produces for text. Letters
// run about four to a token; digits, punctuation and table rules tokenize closer to
// three characters per token, and statistics blocks are mostly the latter.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	var letters, dense int
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
		case unicode.IsLetter(r):
			letters++
		default:
			dense++
		}
	}
	if n := letters/4 + dense/3; n > 0 {
		return n
	}
	return 1
}
