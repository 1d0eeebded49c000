package chunker

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ziadkadry99/knowbase/internal/config"
)

// DefaultLedgerFilename is the reserved filename of the manual-knowledge
// ledger. Files with this name bypass file-type strategy selection.
const DefaultLedgerFilename = "manual_information.txt"

// FileType identifies the chunking strategy family for a source file.
type FileType string

const (
	FileTypePDF      FileType = "pdf"
	FileTypeDOCX     FileType = "docx"
	FileTypeMarkdown FileType = "markdown"
	FileTypeText     FileType = "text"
	FileTypeOther    FileType = "other"
)

// DetectFileType maps a file path to its chunking strategy family by
// extension.
func DetectFileType(path string) FileType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FileTypePDF
	case ".docx":
		return FileTypeDOCX
	case ".md":
		return FileTypeMarkdown
	case ".txt":
		return FileTypeText
	default:
		return FileTypeOther
	}
}

// Result is the output of processing one source file.
type Result struct {
	FilePath string
	Filename string
	FileType FileType
	FullText string
	Chunks   []string
}

// Processor turns source files into retrieval chunks using a strategy
// selected by file type.
type Processor struct {
	cfg config.ChunkingConfig

	// LedgerFilename overrides the reserved manual-ledger filename.
	LedgerFilename string
}

// NewProcessor creates a Processor with the given sizing parameters.
func NewProcessor(cfg config.ChunkingConfig) *Processor {
	return &Processor{cfg: cfg, LedgerFilename: DefaultLedgerFilename}
}

type strategyFunc func(p *Processor, path string) ([]string, string, error)

// strategies is the closed table mapping file types to chunking
// strategies. Each entry returns the chunks and the cleaned full text.
var strategies = map[FileType]strategyFunc{
	FileTypePDF:      (*Processor).processPDF,
	FileTypeDOCX:     (*Processor).processDOCX,
	FileTypeMarkdown: (*Processor).processMarkdown,
	FileTypeText:     (*Processor).processText,
	FileTypeOther:    (*Processor).processFallback,
}

// Process extracts, cleans and chunks one source file. The manual ledger
// is detected by filename and parsed entry by entry regardless of its
// extension; everything else dispatches on file type.
func (p *Processor) Process(path string) (*Result, error) {
	filename := filepath.Base(path)

	if filename == p.LedgerFilename {
		raw, err := readTextFile(path)
		if err != nil {
			return nil, err
		}
		return &Result{
			FilePath: path,
			Filename: filename,
			FileType: FileTypeText,
			FullText: CleanText(raw),
			Chunks:   ParseLedger(raw),
		}, nil
	}

	ft := DetectFileType(path)
	chunks, fullText, err := strategies[ft](p, path)
	if err != nil {
		return nil, err
	}

	return &Result{
		FilePath: path,
		Filename: filename,
		FileType: ft,
		FullText: fullText,
		Chunks:   chunks,
	}, nil
}

func (p *Processor) processPDF(path string) ([]string, string, error) {
	pages, err := pdfPages(path)
	if err != nil {
		return nil, "", err
	}
	chunks := p.ChunkPages(pages)
	return chunks, CleanText(strings.Join(pages, "\n")), nil
}

func (p *Processor) processDOCX(path string) ([]string, string, error) {
	paragraphs, err := docxParagraphs(path)
	if err != nil {
		return nil, "", err
	}
	chunks := p.ChunkParagraphGroups(paragraphs)
	return chunks, CleanText(strings.Join(paragraphs, "\n")), nil
}

func (p *Processor) processMarkdown(path string) ([]string, string, error) {
	raw, err := readTextFile(path)
	if err != nil {
		return nil, "", err
	}
	return p.ChunkMarkdown(raw), CleanText(raw), nil
}

func (p *Processor) processText(path string) ([]string, string, error) {
	raw, err := readTextFile(path)
	if err != nil {
		return nil, "", err
	}
	return p.ChunkParagraphs(raw), CleanText(raw), nil
}

// processFallback handles unknown extensions: files that decode as UTF-8
// text get fixed-window chunking, anything else is rejected.
func (p *Processor) processFallback(path string) ([]string, string, error) {
	raw, err := readTextFile(path)
	if err != nil {
		return nil, "", err
	}
	if !utf8.ValidString(raw) {
		return nil, "", &ExtractionError{
			Path:   path,
			Reason: "unsupported file type " + strings.ToLower(filepath.Ext(path)),
		}
	}
	chunks := p.ValidateChunks(p.ChunkFixed(raw, p.cfg.FixedChunkSize, p.cfg.FixedOverlap))
	return chunks, CleanText(raw), nil
}

func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Reason: "reading file", Err: err}
	}
	return string(data), nil
}
