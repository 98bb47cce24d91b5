package extract

import (
	"os"
	"strings"
)

// textPages reads a file as UTF-8 (invalid bytes replaced) and splits it into
// fixed-size line blocks, one page per block.
func (s *Service) textPages(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.ToValidUTF8(string(data), "�")
	if text == "" {
		return []string{""}, nil
	}
	lines := splitTextLines(text)
	if len(lines) == 0 {
		return []string{text}, nil
	}
	var pages []string
	for start := 0; start < len(lines); start += s.textChunkLines {
		end := start + s.textChunkLines
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, strings.TrimSpace(strings.Join(lines[start:end], "\n")))
	}
	return pages, nil
}

// splitTextLines behaves like splitting on line endings with a trailing
// newline producing no empty final element.
func splitTextLines(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	normalized = strings.TrimSuffix(normalized, "\n")
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, "\n")
}
