package chunker

import (
	"log"
	"regexp"
	"strings"
)

var (
	headerRe    = regexp.MustCompile(`^#{1,6}\s`)
	paragraphRe = regexp.MustCompile(`\n\s*\n`)
)

// ChunkPages turns extracted page texts into chunks. Each page is cleaned
// independently; oversize pages are re-split, very short pages are dropped
// as presumed noise (page numbers, running headers).
func (p *Processor) ChunkPages(pages []string) []string {
	var chunks []string
	for i, page := range pages {
		cleaned := CleanText(page)
		switch {
		case cleaned == "":
			continue
		case len(cleaned) > p.cfg.MaxChunkSize:
			chunks = append(chunks, p.splitLarge(cleaned)...)
		case len(cleaned) >= p.cfg.MinChunkSize:
			chunks = append(chunks, cleaned)
		default:
			log.Printf("[chunker] page %d dropped: %d chars below minimum %d", i+1, len(cleaned), p.cfg.MinChunkSize)
		}
	}
	return p.ValidateChunks(chunks)
}

// ChunkParagraphGroups accumulates paragraphs (DOCX style) into chunks,
// flushing whenever the next paragraph would push the buffer past the
// maximum chunk size.
func (p *Processor) ChunkParagraphGroups(paragraphs []string) []string {
	var chunks []string
	var buf []string
	size := 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		text := strings.Join(buf, " ")
		if len(text) >= p.cfg.MinChunkSize {
			chunks = append(chunks, text)
		}
	}

	for _, para := range paragraphs {
		cleaned := CleanText(para)
		if size+len(cleaned) > p.cfg.MaxChunkSize && len(buf) > 0 {
			flush()
			buf = buf[:0]
			size = 0
			if cleaned != "" {
				buf = append(buf, cleaned)
				size = len(cleaned)
			}
		} else if cleaned != "" {
			buf = append(buf, cleaned)
			size += len(cleaned)
		}
	}
	flush()

	return p.ValidateChunks(chunks)
}

// ChunkMarkdown splits markdown into header-delimited sections. A header
// line always starts a new chunk; non-header overflow past the semantic
// chunk size also flushes. Lines are accumulated raw and cleaned at flush
// so header detection sees the original line structure.
func (p *Processor) ChunkMarkdown(text string) []string {
	var chunks []string
	var buf []string
	size := 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		cleaned := CleanText(strings.Join(buf, "\n"))
		if len(cleaned) >= p.cfg.MinChunkSize {
			chunks = append(chunks, cleaned)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		switch {
		case headerRe.MatchString(strings.TrimSpace(line)):
			flush()
			buf = []string{line}
			size = len(line)
		case size+len(line) > p.cfg.SemanticChunkSize && len(buf) > 0:
			flush()
			buf = []string{line}
			size = len(line)
		default:
			buf = append(buf, line)
			size += len(line)
		}
	}
	flush()

	return p.ValidateChunks(chunks)
}

// ChunkParagraphs splits plain text on blank lines and accumulates
// paragraphs up to the semantic chunk size. On overflow the next buffer is
// seeded with the last paragraph of the flushed one, carrying one
// paragraph of context across the boundary.
func (p *Processor) ChunkParagraphs(text string) []string {
	paragraphs := paragraphRe.Split(text, -1)

	var chunks []string
	var buf []string
	size := 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		joined := strings.Join(buf, " ")
		if len(joined) >= p.cfg.MinChunkSize {
			chunks = append(chunks, joined)
		}
	}

	for _, para := range paragraphs {
		cleaned := CleanText(para)
		if size+len(cleaned) > p.cfg.SemanticChunkSize && len(buf) > 0 {
			flush()
			if len(buf) > 1 {
				last := buf[len(buf)-1]
				buf = []string{last, cleaned}
				size = len(last) + len(cleaned)
			} else {
				buf = []string{cleaned}
				size = len(cleaned)
			}
		} else if cleaned != "" {
			buf = append(buf, cleaned)
			size += len(cleaned)
		}
	}
	flush()

	return p.ValidateChunks(chunks)
}

// ChunkFixed slides a window of size characters over the text with overlap
// characters of retreat between windows. Windows short of end-of-text
// prefer to end at the last sentence terminator or newline when that break
// point lies past the window midpoint. Each window is cleaned on emission.
func (p *Processor) ChunkFixed(text string, size, overlap int) []string {
	if len(text) <= size {
		if cleaned := CleanText(text); cleaned != "" {
			return []string{cleaned}
		}
		return nil
	}

	var chunks []string
	start := 0
	for start < len(text) {
		// end may run past the text; the slice below clamps, while the
		// advance computation keeps the unclamped value so the final
		// window does not retreat by the overlap.
		end := start + size
		windowEnd := end
		if windowEnd > len(text) {
			windowEnd = len(text)
		}
		window := text[start:windowEnd]

		if end < len(text) {
			breakPoint := strings.LastIndex(window, ".")
			if nl := strings.LastIndex(window, "\n"); nl > breakPoint {
				breakPoint = nl
			}
			if breakPoint > size/2 {
				window = window[:breakPoint+1]
				end = start + breakPoint + 1
			}
		}

		if cleaned := CleanText(window); cleaned != "" {
			chunks = append(chunks, cleaned)
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// splitLarge re-splits an oversize chunk with the semantic window sizing.
func (p *Processor) splitLarge(text string) []string {
	return p.ChunkFixed(text, p.cfg.SemanticChunkSize, p.cfg.SemanticOverlap)
}

// ValidateChunks is the single enforcement point for the chunk size
// invariant: chunks under the minimum are dropped, chunks over the maximum
// are re-split with semantic sizing and the resulting pieces re-filtered
// against the minimum.
func (p *Processor) ValidateChunks(chunks []string) []string {
	var validated []string
	for _, chunk := range chunks {
		switch {
		case len(chunk) < p.cfg.MinChunkSize:
			continue
		case len(chunk) > p.cfg.MaxChunkSize:
			for _, piece := range p.splitLarge(chunk) {
				if len(piece) >= p.cfg.MinChunkSize {
					validated = append(validated, piece)
				}
			}
		default:
			validated = append(validated, chunk)
		}
	}
	return validated
}
