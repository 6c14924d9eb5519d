package textextract

import (
	"bytes"
	"fmt"
	"testing"
)

// buildPDF writes a minimal PDF with one page per entry of pages. An empty
// entry becomes a page without a content stream.
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()

	const (
		catalogID = 1
		pagesID   = 2
		fontID    = 3
		firstID   = 4
	)

	objects := map[int]string{
		catalogID: fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesID),
		fontID:    "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var kids bytes.Buffer
	next := firstID
	for _, text := range pages {
		pageID := next
		next++
		fmt.Fprintf(&kids, "%d 0 R ", pageID)

		page := fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >>", pagesID, fontID)
		if text != "" {
			contentID := next
			next++
			stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
			objects[contentID] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream)
			page += fmt.Sprintf(" /Contents %d 0 R", contentID)
		}
		objects[pageID] = page + " >>"
	}
	objects[pagesID] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, next)
	for id := 1; id < next; id++ {
		offsets[id] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, objects[id])
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", next)
	buf.WriteString("0000000000 65535 f \n")
	for id := 1; id < next; id++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[id])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", next, catalogID, xref)
	return buf.Bytes()
}
