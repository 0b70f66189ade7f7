package download

import (
	"os"
	"strings"
	"unicode"
)

// Normalize lowercases s, strips everything but letters, digits, and
// whitespace, and collapses runs of whitespace to single spaces.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// SongExists scans dir for an audio file already matching artist and
// title, returning the matching filename. Matching is deliberately loose:
// a file counts when it contains both normalized terms, or either term
// alone when the term is long enough to be distinctive.
func SongExists(dir, artist, title string) (string, bool) {
	normalizedArtist := Normalize(artist)
	normalizedTitle := Normalize(title)
	if normalizedArtist == "" && normalizedTitle == "" {
		return "", false
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".mp3") && !strings.HasSuffix(name, ".m4a") {
			continue
		}

		normalized := Normalize(name)
		both := normalizedArtist != "" && normalizedTitle != "" &&
			strings.Contains(normalized, normalizedArtist) &&
			strings.Contains(normalized, normalizedTitle)
		artistAlone := len(normalizedArtist) > 3 && strings.Contains(normalized, normalizedArtist)
		titleAlone := len(normalizedTitle) > 3 && strings.Contains(normalized, normalizedTitle)

		if both || artistAlone || titleAlone {
			return name, true
		}
	}

	return "", false
}

// Similarity scores word overlap between two strings in [0, 1].
func Similarity(a, b string) float64 {
	na := Normalize(a)
	nb := Normalize(b)
	if na == "" || nb == "" {
		return 0
	}

	wordsA := strings.Fields(na)
	wordsB := strings.Fields(nb)

	inB := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		inB[w] = true
	}

	matches := 0
	for _, w := range wordsA {
		if inB[w] {
			matches++
		}
	}

	total := max(len(wordsA), len(wordsB))
	return float64(matches) / float64(total)
}
