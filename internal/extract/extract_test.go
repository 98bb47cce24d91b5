package extract_test

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"filescript/internal/extract"
)

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	out, err := os.Create(path)
	require.NoError(t, err)
	writer := zip.NewWriter(out)
	for name, content := range entries {
		entry, err := writer.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	require.NoError(t, out.Close())
}

func TestTextPagesChunksByLineCount(t *testing.T) {
	dir := t.TempDir()
	var lines []string
	for i := 1; i <= 170; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	path := filepath.Join(dir, "long.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	pages, err := extract.New(80).Pages(path)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	require.True(t, strings.HasPrefix(pages[0], "line 1\n"))
	require.True(t, strings.HasPrefix(pages[1], "line 81\n"))
	require.True(t, strings.HasPrefix(pages[2], "line 161\n"))
}

func TestTextPagesShortFileIsOnePage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\nworld\n"), 0o644))

	pages, err := extract.New(extract.DefaultTextChunkLines).Pages(path)
	require.NoError(t, err)
	require.Equal(t, []string{"hello\nworld"}, pages)
}

func TestEmptyFileYieldsOneEmptyPage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	pages, err := extract.New(extract.DefaultTextChunkLines).Pages(path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
}

const docxDocumentXML = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Introduction</w:t></w:r></w:p>
    <w:p><w:r><w:t>Opening </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
    <w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t>Background</w:t></w:r></w:p>
    <w:p><w:r><w:t>More text.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestDocxPagesAndOutline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.docx")
	writeZip(t, path, map[string]string{"word/document.xml": docxDocumentXML})

	svc := extract.New(extract.DefaultTextChunkLines)
	pages, err := svc.Pages(path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Contains(t, pages[0], "Introduction")
	require.Contains(t, pages[0], "Opening paragraph.")

	entries, err := svc.Outline(path, 50)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Introduction", entries[0].Title)
	require.Equal(t, 1, entries[0].Level)
	require.Equal(t, "Background", entries[1].Title)
	require.Equal(t, 2, entries[1].Level)
}

const slideXMLTemplate = `<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree>
    <p:sp><p:txBody><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>
    <p:sp><p:txBody><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>
  </p:spTree></p:cSld>
</p:sld>`

func TestPptxPagesAreSlidesInOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.pptx")
	writeZip(t, path, map[string]string{
		"ppt/slides/slide2.xml":  fmt.Sprintf(slideXMLTemplate, "Second", "slide body"),
		"ppt/slides/slide1.xml":  fmt.Sprintf(slideXMLTemplate, "First", "slide body"),
		"ppt/slides/slide10.xml": fmt.Sprintf(slideXMLTemplate, "Tenth", "slide body"),
	})

	svc := extract.New(extract.DefaultTextChunkLines)
	pages, err := svc.Pages(path)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	require.True(t, strings.HasPrefix(pages[0], "First"))
	require.True(t, strings.HasPrefix(pages[1], "Second"))
	require.True(t, strings.HasPrefix(pages[2], "Tenth"))

	entries, err := svc.Outline(path, 50)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "First", entries[0].Title)
	require.Equal(t, 1, entries[0].Page)
	require.Equal(t, "Tenth", entries[2].Title)
	require.Equal(t, 3, entries[2].Page)
}

func TestCorruptArchiveFallsBackToText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.docx")
	require.NoError(t, os.WriteFile(path, []byte("just plain text"), 0o644))

	pages, err := extract.New(extract.DefaultTextChunkLines).Pages(path)
	require.NoError(t, err)
	require.Equal(t, []string{"just plain text"}, pages)
}

func TestMarkdownOutline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "readme.md")
	content := "# Title\n\nIntro text.\n\n## Usage\n\nDetails.\n\n### Flags\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	entries, err := extract.New(extract.DefaultTextChunkLines).Outline(path, 50)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "Title", entries[0].Title)
	require.Equal(t, 1, entries[0].Level)
	require.Equal(t, "Usage", entries[1].Title)
	require.Equal(t, 2, entries[1].Level)
	require.Equal(t, "Flags", entries[2].Title)
}

func TestTOCFromTextParsesDottedLines(t *testing.T) {
	page := strings.Join([]string{
		"Contents",
		"1 Introduction .................... 3",
		"1.1 Scope ......................... 4",
		"2 Design .......................... 9",
	}, "\n")
	entries := extract.TOCFromText([]string{page}, 50)
	require.Len(t, entries, 3)
	require.Equal(t, "1 Introduction", entries[0].Title)
	require.Equal(t, 1, entries[0].Level)
	require.Equal(t, 3, entries[0].Page)
	require.Equal(t, "1.1 Scope", entries[1].Title)
	require.Equal(t, 2, entries[1].Level)
	require.Equal(t, 4, entries[1].Page)
}

func TestTOCFromTextRespectsMaxItems(t *testing.T) {
	var lines []string
	for i := 1; i <= 20; i++ {
		lines = append(lines, fmt.Sprintf("%d Chapter number %d .......... %d", i, i, i*3))
	}
	entries := extract.TOCFromText([]string{strings.Join(lines, "\n")}, 5)
	require.Len(t, entries, 5)
}

func TestNormalizeCleansControlCharacters(t *testing.T) {
	in := "a\x00b\r\nc d"
	out := extract.Normalize(in)
	require.Equal(t, "ab\nc d", out)
}
