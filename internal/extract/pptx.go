package extract

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"filescript/internal/domain"
)

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// pptxArchivePages reads every slide's XML out of the PPTX archive, one page
// per slide in slide-number order.
func pptxArchivePages(path string) ([]string, error) {
	slides, err := pptxSlides(path)
	if err != nil {
		return nil, err
	}
	if len(slides) == 0 {
		return []string{""}, nil
	}
	pages := make([]string, len(slides))
	for i, lines := range slides {
		pages[i] = strings.Join(lines, "\n")
	}
	return pages, nil
}

// pptxOutline uses the first text line of each slide as its title.
func pptxOutline(path string, maxItems int) ([]domain.OutlineEntry, error) {
	slides, err := pptxSlides(path)
	if err != nil {
		return nil, err
	}
	var entries []domain.OutlineEntry
	for i, lines := range slides {
		title := ""
		if len(lines) > 0 {
			title = lines[0]
		}
		if title == "" {
			title = "Slide " + strconv.Itoa(i+1)
		}
		entries = append(entries, domain.OutlineEntry{Level: 1, Title: title, Page: i + 1})
		if len(entries) >= maxItems {
			break
		}
	}
	return entries, nil
}

// pptxSlides returns the text lines of each slide, ordered by slide number.
func pptxSlides(path string) ([][]string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer archive.Close()

	type slideEntry struct {
		number int
		name   string
	}
	var names []slideEntry
	for _, file := range archive.File {
		match := slideNameRe.FindStringSubmatch(file.Name)
		if match == nil {
			continue
		}
		number, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		names = append(names, slideEntry{number: number, name: file.Name})
	}
	sort.Slice(names, func(i, j int) bool { return names[i].number < names[j].number })

	slides := make([][]string, 0, len(names))
	for _, entry := range names {
		reader, err := openArchiveEntry(&archive.Reader, entry.name)
		if err != nil {
			return nil, err
		}
		lines, err := slideTextLines(reader)
		reader.Close()
		if err != nil {
			return nil, err
		}
		slides = append(slides, lines)
	}
	return slides, nil
}

func slideTextLines(reader io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(reader)
	var lines []string
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			if el.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				text := strings.TrimSpace(string(el))
				if text != "" {
					lines = append(lines, text)
				}
			}
		}
	}
}
