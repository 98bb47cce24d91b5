package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"filescript/internal/domain"
)

var headingStyleRe = regexp.MustCompile(`(?i)^heading\s*(\d+)$`)

// docxArchivePages reads word/document.xml straight out of the DOCX archive
// and joins all text runs into a single page.
func docxArchivePages(path string) ([]string, error) {
	paragraphs, err := docxParagraphs(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, para := range paragraphs {
		if para.text != "" {
			lines = append(lines, para.text)
		}
	}
	if len(lines) == 0 {
		return []string{""}, nil
	}
	return []string{strings.Join(lines, "\n")}, nil
}

// docxOutline maps Heading-styled paragraphs to outline entries.
func docxOutline(path string, maxItems int) ([]domain.OutlineEntry, error) {
	paragraphs, err := docxParagraphs(path)
	if err != nil {
		return nil, err
	}
	var entries []domain.OutlineEntry
	for _, para := range paragraphs {
		match := headingStyleRe.FindStringSubmatch(para.style)
		if match == nil || para.text == "" {
			continue
		}
		level := 0
		fmt.Sscanf(match[1], "%d", &level)
		if level < 1 {
			level = 1
		}
		entries = append(entries, domain.OutlineEntry{Level: level, Title: para.text})
		if len(entries) >= maxItems {
			break
		}
	}
	return entries, nil
}

type docxParagraph struct {
	style string
	text  string
}

func docxParagraphs(path string) ([]docxParagraph, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer archive.Close()

	reader, err := openArchiveEntry(&archive.Reader, "word/document.xml")
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	decoder := xml.NewDecoder(reader)
	var paragraphs []docxParagraph
	var current strings.Builder
	currentStyle := ""
	inParagraph := false
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				inParagraph = true
				currentStyle = ""
				current.Reset()
			case "pStyle":
				for _, attr := range el.Attr {
					if attr.Name.Local == "val" {
						currentStyle = attr.Value
					}
				}
			case "t":
				inText = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "p":
				if inParagraph {
					paragraphs = append(paragraphs, docxParagraph{
						style: currentStyle,
						text:  strings.TrimSpace(current.String()),
					})
				}
				inParagraph = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inParagraph && inText {
				current.Write(el)
			}
		}
	}
	return paragraphs, nil
}

func openArchiveEntry(archive *zip.Reader, name string) (io.ReadCloser, error) {
	for _, file := range archive.File {
		if file.Name == name {
			return file.Open()
		}
	}
	return nil, fmt.Errorf("archive entry %s not found", name)
}
