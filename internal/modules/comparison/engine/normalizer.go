package engine

import (
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// 空行（空白のみの行を含む）で段落を区切る
	blankLinePattern = regexp.MustCompile(`\n\s*\n`)

	excessBlankLines = regexp.MustCompile(`\n{3,}`)
	excessSpaces     = regexp.MustCompile(`[ \t]{3,}`)

	whitespaceReplacer = strings.NewReplacer(
		"\r\n", "\n",
		"\r", "\n",
		"\t", " ",
		"\u00a0", " ",
	)
)

// Normalize 生テキストを比較用の正規形に整形する
//
// 改行コードを \n に統一し、タブとNBSPを空白に置き換え、
// 段落内の行は \n、段落間は空行1つで連結する。
// Normalize(Normalize(x)) == Normalize(x) が常に成り立つ。
func Normalize(raw string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Text normalization failed, using simple pass", "error", r)
			out = fallbackNormalize(raw)
		}
	}()

	text := whitespaceReplacer.Replace(norm.NFC.String(raw))

	paragraphs := blankLinePattern.Split(text, -1)
	kept := make([]string, 0, len(paragraphs))
	for _, paragraph := range paragraphs {
		var lines []string
		for _, line := range strings.Split(paragraph, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
		if len(lines) > 0 {
			kept = append(kept, strings.Join(lines, "\n"))
		}
	}

	return strings.Join(kept, "\n\n")
}

// fallbackNormalize 整形に失敗した場合の簡易処理
func fallbackNormalize(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = excessBlankLines.ReplaceAllString(text, "\n\n")
	text = excessSpaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
