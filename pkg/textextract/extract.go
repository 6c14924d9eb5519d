package textextract

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

type ExtractedText struct {
	Content string
	Pages   int
}

// PDF returns the embedded text of every page, in page order. Pages that
// yield no text contribute nothing; every other page is followed by "\n".
// Page text is taken as the pdf library produces it, which starts each text
// object (BT) with a newline.
func PDF(data io.ReaderAt, size int64) (result *ExtractedText, err error) {
	// ledongthuc/pdf panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("parse PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}

	return &ExtractedText{
		Content: JoinPages(pages),
		Pages:   numPages,
	}, nil
}

// JoinPages concatenates the non-empty page texts, each followed by a newline.
func JoinPages(pages []string) string {
	var buf strings.Builder
	for _, text := range pages {
		if text == "" {
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return buf.String()
}
