package engine

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"doc-compare-app/internal/modules/comparison/domain"
)

// 条項見出し（Clause 1 / Section 2 / Article 3 ...）
var headerPattern = regexp.MustCompile(`(?i)^(Clause|Section|Article)\s+\d+`)

// SegmentSentences 正規化済みテキストを文単位に分割する
func SegmentSentences(text string) []domain.Unit {
	return segmentSentences(text, DefaultMinSentenceLength)
}

// SegmentLines 正規化済みテキストを行単位に分割する（空行も1単位として残す）
func SegmentLines(text string) []domain.Unit {
	if text == "" {
		return []domain.Unit{}
	}

	lines := strings.Split(text, "\n")
	units := make([]domain.Unit, 0, len(lines))
	for i, line := range lines {
		units = append(units, domain.Unit{Text: line, Index: i})
	}
	return units
}

func segmentSentences(text string, minLength int) []domain.Unit {
	units := []domain.Unit{}
	if strings.TrimSpace(text) == "" {
		return units
	}

	add := func(sentence string) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			return
		}
		// 見出しは短くても残す
		if utf8.RuneCountInString(sentence) < minLength && !headerPattern.MatchString(sentence) {
			return
		}
		units = append(units, domain.Unit{Text: sentence, Index: len(units)})
	}

	for _, paragraph := range blankLinePattern.Split(text, -1) {
		var buf []string
		flush := func() {
			if len(buf) == 0 {
				return
			}
			for _, sentence := range splitSentences(strings.Join(buf, " ")) {
				add(sentence)
			}
			buf = buf[:0]
		}

		for _, line := range strings.Split(paragraph, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if headerPattern.MatchString(line) {
				flush()
				buf = append(buf, line)
				flush()
				continue
			}
			buf = append(buf, line)
		}
		flush()
	}

	return units
}

// splitSentences 「. ! ?」+ 空白 + 大文字 の位置で分割する
func splitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string

	start := 0
	for i := 0; i < len(runes); i++ {
		if !isSentenceEnd(runes[i]) {
			continue
		}

		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == i+1 || j >= len(runes) || !unicode.IsUpper(runes[j]) {
			continue
		}

		sentences = append(sentences, string(runes[start:i+1]))
		start = j
		i = j - 1
	}

	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
