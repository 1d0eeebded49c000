package chunker

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ziadkadry99/knowbase/internal/config"
)

func testParams() config.ChunkingConfig {
	return config.ChunkingConfig{
		MinChunkSize:      10,
		MaxChunkSize:      500,
		SemanticChunkSize: 100,
		SemanticOverlap:   10,
		FixedChunkSize:    100,
		FixedOverlap:      10,
	}
}

// para builds a clean paragraph of repeated words.
func para(word string, n int) string {
	return strings.TrimSpace(strings.Repeat(word+" ", n))
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "a  b\t\tc\n\nd", "a b c d"},
		{"keeps punctuation", "Hello, world! (Really?)", "Hello, world! (Really?)"},
		{"drops special characters", "price: 5€ & 3 @home", "price: 5 3 home"},
		{"trims", "  padded  ", "padded"},
		{"idempotent", "already clean text.", "already clean text."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		path string
		want FileType
	}{
		{"report.pdf", FileTypePDF},
		{"notes.DOCX", FileTypeDOCX},
		{"readme.md", FileTypeMarkdown},
		{"facts.txt", FileTypeText},
		{"data.csv", FileTypeOther},
		{"noext", FileTypeOther},
	}
	for _, tt := range tests {
		if got := DetectFileType(tt.path); got != tt.want {
			t.Errorf("DetectFileType(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestChunkParagraphs_SeedsNewBufferOnOverflow(t *testing.T) {
	p := NewProcessor(testParams())
	p1 := para("alpha", 10)
	p2 := para("beta", 12)
	p3 := para("gamma", 9)

	chunks := p.ChunkParagraphs(p1 + "\n\n" + p2 + "\n\n" + p3)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3: %q", len(chunks), chunks)
	}
	if chunks[0] != p1 {
		t.Errorf("chunks[0] = %q, want %q", chunks[0], p1)
	}
	if !strings.HasPrefix(chunks[1], p2) {
		t.Errorf("chunks[1] = %q, want prefix %q", chunks[1], p2)
	}
}

func TestChunkParagraphs_OverlapKeepsLastParagraph(t *testing.T) {
	p := NewProcessor(testParams())
	p1 := para("alpha", 5)
	p2 := para("beta", 6)
	p3 := para("gamma", 10)

	chunks := p.ChunkParagraphs(p1 + "\n\n" + p2 + "\n\n" + p3)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %q", len(chunks), chunks)
	}
	if chunks[0] != p1+" "+p2 {
		t.Errorf("chunks[0] = %q, want %q", chunks[0], p1+" "+p2)
	}
	// The overlap paragraph is repeated verbatim at the start of the next chunk.
	if !strings.HasPrefix(chunks[1], p2+" ") {
		t.Errorf("chunks[1] = %q, want prefix %q", chunks[1], p2+" ")
	}
}

func TestChunkMarkdown_HeaderStartsNewChunk(t *testing.T) {
	cfg := testParams()
	cfg.SemanticChunkSize = 500
	p := NewProcessor(cfg)

	text := "# Introduction\nThe opening section has some words.\n\n## Details\nThe second section carries more content."
	chunks := p.ChunkMarkdown(text)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %q", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[0], "Introduction") {
		t.Errorf("chunks[0] = %q, want Introduction prefix", chunks[0])
	}
	if !strings.HasPrefix(chunks[1], "Details") {
		t.Errorf("chunks[1] = %q, want Details prefix", chunks[1])
	}
}

func TestChunkMarkdown_NonHeaderOverflowFlushes(t *testing.T) {
	cfg := testParams()
	cfg.SemanticChunkSize = 60
	p := NewProcessor(cfg)

	line1 := para("one", 10)
	line2 := para("two", 10)
	chunks := p.ChunkMarkdown(line1 + "\n" + line2)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %q", len(chunks), chunks)
	}
	if chunks[0] != line1 || chunks[1] != line2 {
		t.Errorf("chunks = %q, want [%q %q]", chunks, line1, line2)
	}
}

func TestChunkFixed_ShortTextSingleChunk(t *testing.T) {
	p := NewProcessor(testParams())
	chunks := p.ChunkFixed("a short piece of text", 100, 10)
	if len(chunks) != 1 || chunks[0] != "a short piece of text" {
		t.Errorf("chunks = %q, want single verbatim chunk", chunks)
	}
}

func TestChunkFixed_WindowBounds(t *testing.T) {
	p := NewProcessor(testParams())
	text := strings.Repeat("abcdefghij", 30)

	chunks := p.ChunkFixed(text, 100, 10)
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunks[%d] has %d chars, exceeds window size", i, len(c))
		}
	}
}

func TestChunkFixed_PrefersSentenceBoundary(t *testing.T) {
	p := NewProcessor(testParams())
	text := strings.Repeat("x", 80) + "." + strings.Repeat("y", 120)

	chunks := p.ChunkFixed(text, 100, 0)
	if len(chunks) == 0 {
		t.Fatal("no chunks")
	}
	if !strings.HasSuffix(chunks[0], ".") {
		t.Errorf("chunks[0] = %q, want sentence-terminated", chunks[0])
	}
	if len(chunks[0]) != 81 {
		t.Errorf("chunks[0] has %d chars, want 81 (cut at the period)", len(chunks[0]))
	}
}

func TestChunkFixed_IdempotentWithoutOverlap(t *testing.T) {
	p := NewProcessor(testParams())
	text := strings.Repeat("abcdefghij", 25)

	first := p.ChunkFixed(text, 100, 0)
	second := p.ChunkFixed(strings.Join(first, ""), 100, 0)
	if len(first) != len(second) {
		t.Fatalf("re-chunking changed chunk count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestValidateChunks(t *testing.T) {
	cfg := config.ChunkingConfig{
		MinChunkSize:      10,
		MaxChunkSize:      50,
		SemanticChunkSize: 30,
		SemanticOverlap:   0,
	}
	p := NewProcessor(cfg)

	oversize := strings.Repeat("abcde", 12)  // 60 chars, splits into 30+30
	remainder := strings.Repeat("vwxyz", 13) // 65 chars, splits into 30+30+5
	chunks := p.ValidateChunks([]string{"tiny", oversize, para("ok", 5), remainder})

	for i, c := range chunks {
		if len(c) < cfg.MinChunkSize {
			t.Errorf("chunks[%d] = %q below minimum after validation", i, c)
		}
		if len(c) > cfg.MaxChunkSize {
			t.Errorf("chunks[%d] has %d chars, exceeds maximum", i, len(c))
		}
	}
	// tiny dropped, both oversize chunks split, remainder's 5-char tail dropped.
	if len(chunks) != 5 {
		t.Errorf("got %d chunks, want 5: %q", len(chunks), chunks)
	}
}

func TestChunkPages(t *testing.T) {
	cfg := config.ChunkingConfig{
		MinChunkSize:      10,
		MaxChunkSize:      50,
		SemanticChunkSize: 30,
		SemanticOverlap:   0,
	}
	p := NewProcessor(cfg)

	pages := []string{
		strings.Repeat("abcde", 12), // oversize, re-split
		para("normal", 5),           // within bounds
		"p3",                        // dropped as noise
	}
	chunks := p.ChunkPages(pages)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3: %q", len(chunks), chunks)
	}
	for i, c := range chunks {
		if len(c) < cfg.MinChunkSize || len(c) > cfg.MaxChunkSize {
			t.Errorf("chunks[%d] size %d outside [%d,%d]", i, len(c), cfg.MinChunkSize, cfg.MaxChunkSize)
		}
	}
}

func TestChunkParagraphGroups(t *testing.T) {
	cfg := testParams()
	cfg.MaxChunkSize = 60
	p := NewProcessor(cfg)

	paragraphs := []string{para("alpha", 5), para("beta", 5), para("gamma", 5)}
	chunks := p.ChunkParagraphGroups(paragraphs)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %q", len(chunks), chunks)
	}
	if chunks[0] != paragraphs[0]+" "+paragraphs[1] {
		t.Errorf("chunks[0] = %q", chunks[0])
	}
}

func TestParseLedger(t *testing.T) {
	text := "[2024-01-01 10:00:00]\nFact one.\n\n[2024-01-02 11:00:00]\nFact two\nspanning lines.\n\nmalformed entry without timestamp"
	chunks := ParseLedger(text)
	want := []string{"Fact one.", "Fact two\nspanning lines.", "malformed entry without timestamp"}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d: %q", len(chunks), len(want), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunks[%d] = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestProcess_LedgerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultLedgerFilename)
	statement := "The project budget is $500 & change"
	content := "[2024-03-01 09:15:00]\n" + statement + "\n\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewProcessor(testParams())
	result, err := p.Process(path)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(result.Chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(result.Chunks))
	}
	// Ledger entries bypass cleaning so the statement survives verbatim.
	if result.Chunks[0] != statement {
		t.Errorf("chunk = %q, want %q", result.Chunks[0], statement)
	}
}

func TestProcess_TextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	text := para("alpha", 10) + "\n\n" + para("beta", 10)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewProcessor(testParams())
	result, err := p.Process(path)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.FileType != FileTypeText {
		t.Errorf("FileType = %q, want text", result.FileType)
	}
	if len(result.Chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	for i, c := range result.Chunks {
		if len(c) < testParams().MinChunkSize {
			t.Errorf("chunks[%d] below minimum size", i)
		}
	}
	if result.FullText == "" {
		t.Error("FullText is empty")
	}
}

func TestProcess_UnsupportedBinary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x41, 0x80}, 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewProcessor(testParams())
	_, err := p.Process(path)
	if err == nil {
		t.Fatal("expected error for binary file")
	}
	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("error %v is not an ExtractionError", err)
	}
	if !strings.Contains(extErr.Reason, ".bin") {
		t.Errorf("error reason %q does not name the extension", extErr.Reason)
	}
}

func TestParseDocumentXML(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second</w:t></w:r><w:r><w:t> paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`
	paragraphs, err := parseDocumentXML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parseDocumentXML() error = %v", err)
	}
	if len(paragraphs) != 2 {
		t.Fatalf("got %d paragraphs, want 2: %q", len(paragraphs), paragraphs)
	}
	if paragraphs[0] != "First paragraph." {
		t.Errorf("paragraphs[0] = %q", paragraphs[0])
	}
	if paragraphs[1] != "Second paragraph." {
		t.Errorf("paragraphs[1] = %q", paragraphs[1])
	}
}
