package extract

import (
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"filescript/internal/domain"
)

// markdownOutline walks the goldmark AST and maps headings to outline
// entries. Markdown carries no page numbers, so Page stays 0.
func markdownOutline(path string, maxItems int) ([]domain.OutlineEntry, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	md := goldmark.New()
	reader := text.NewReader(source)
	doc := md.Parser().Parse(reader)

	var entries []domain.OutlineEntry
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		heading, ok := node.(*ast.Heading)
		if !ok {
			continue
		}
		title := string(heading.Text(source))
		if title == "" {
			continue
		}
		level := heading.Level
		if level < 1 {
			level = 1
		}
		entries = append(entries, domain.OutlineEntry{Level: level, Title: title})
		if len(entries) >= maxItems {
			break
		}
	}
	return entries, nil
}
