package renderer

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// HTML converts a markdown report into an HTML fragment, tables included.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	gm := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := gm.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("cannot convert report to HTML: %w", err)
	}
	return buf.String(), nil
}

// HTMLPage wraps an HTML fragment into a standalone page.
func HTMLPage(title, fragment string) string {
	return fmt.Sprintf("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n%s</body>\n</html>\n", title, fragment)
}
