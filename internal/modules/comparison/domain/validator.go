package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// AllowedExtensions アップロード可能な拡張子
var AllowedExtensions = map[string]bool{
	".txt":  true,
	".text": true,
	".md":   true,
	".pdf":  true,
	".docx": true,
	".doc":  true,
}

// ValidateDocumentText 比較対象テキストを検証
func ValidateDocumentText(text string, maxBytes int) error {
	if maxBytes > 0 && len(text) > maxBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrTextTooLarge, len(text), maxBytes)
	}

	if !utf8.ValidString(text) {
		return ErrInvalidEncoding
	}

	return nil
}

// ValidateUpload アップロードされた文書ファイルを検証
func ValidateUpload(data []byte, filename string, maxBytes int) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyInput, filename)
	}

	if maxBytes > 0 && len(data) > maxBytes {
		return fmt.Errorf("%w: %s", ErrTextTooLarge, filename)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !AllowedExtensions[ext] {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	return nil
}
