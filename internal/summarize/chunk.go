package summarize

import "strings"

const (
	// maxChunkTokens is the per-request budget for transcript text. Token
	// count is approximated at four characters per token, which is close
	// enough for English captions.
	maxChunkTokens   = 2000
	charsPerToken    = 4
	maxChunkChars    = maxChunkTokens * charsPerToken
	sentenceLookback = 500
)

// ChunkText splits text into pieces of at most maxChunkChars, breaking at a
// sentence boundary when one falls near the limit so a sentence is never cut
// mid-thought. Text at or under the limit comes back as a single chunk.
func ChunkText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxChunkChars {
		return []string{text}
	}

	var chunks []string
	for len(text) > maxChunkChars {
		cut := sentenceCut(text[:maxChunkChars])
		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// sentenceCut finds a cut point at the last sentence terminator within the
// window, falling back to the last space and finally the raw limit.
func sentenceCut(window string) int {
	for _, term := range []string{". ", "! ", "? "} {
		if i := strings.LastIndex(window, term); i >= len(window)-sentenceLookback && i > 0 {
			return i + len(term)
		}
	}
	if i := strings.LastIndexByte(window, ' '); i > 0 {
		return i + 1
	}
	return len(window)
}
