package chunker

import (
	"github.com/ledongthuc/pdf"
)

// pdfPages extracts the plain text of every page of a PDF, one string per
// page. Pages that fail text extraction abort the whole file.
func pdfPages(path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Reason: "reading pdf", Err: err}
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, &ExtractionError{Path: path, Reason: "extracting pdf page text", Err: err}
		}
		pages = append(pages, text)
	}
	return pages, nil
}
