package persona

import (
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Input with fewer letters than this, or fewer distinct letters than
// minDistinctLetters, has no discernible devotional signal.
const (
	minSignalLetters   = 4
	minDistinctLetters = 3
)

// hasSignal reports whether content carries enough letters to classify.
// Punctuation, digits, emoji and repeated single characters do not count.
func hasSignal(content string) bool {
	letters := 0
	distinct := make(map[rune]bool)
	for _, r := range content {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		distinct[unicode.ToLower(r)] = true
	}
	return letters >= minSignalLetters && len(distinct) >= minDistinctLetters
}

// containsHanja reports whether s holds any Han ideograph.
func containsHanja(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// charCount counts user-visible characters, not bytes.
func charCount(s string) int {
	return utf8.RuneCountInString(s)
}

// extractJSONObject strips code fences and surrounding prose from a model
// response and decodes the first JSON object into v.
func extractJSONObject(raw string, v any) error {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	err := json.Unmarshal([]byte(text), v)
	if err == nil {
		return nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return json.Unmarshal([]byte(text[start:end+1]), v)
	}
	return err
}

// scrubBannedPhrases drops every sentence that contains a banned phrase.
func scrubBannedPhrases(reply string, banned []string) string {
	if len(banned) == 0 {
		return reply
	}

	var kept []string
	for _, sentence := range splitSentences(reply) {
		if containsAny(sentence, banned) {
			continue
		}
		kept = append(kept, sentence)
	}
	return strings.TrimSpace(strings.Join(kept, ""))
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// splitSentences splits after sentence-ending punctuation and newlines,
// keeping the delimiters and the following whitespace with each sentence so
// the pieces join back losslessly.
func splitSentences(s string) []string {
	var (
		out   []string
		start int
	)
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?', '\n', '。':
		default:
			continue
		}
		j := i + 1
		for j < len(runes) && (runes[j] == '.' || runes[j] == '!' || runes[j] == '?' || unicode.IsSpace(runes[j])) {
			j++
		}
		out = append(out, string(runes[start:j]))
		start = j
		i = j - 1
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}
