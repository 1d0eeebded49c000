package chunker

import "strings"

// ParseLedger splits the manual-knowledge ledger into one chunk per entry.
// Entries are separated by blank lines; the first line of a well-formed
// entry is a bracketed timestamp, which is stripped. Entries that do not
// start with a bracketed line are kept verbatim rather than rejected.
// Entry content is never cleaned so recorded statements round-trip exactly.
func ParseLedger(text string) []string {
	var chunks []string
	for _, entry := range strings.Split(text, "\n\n") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		lines := strings.Split(entry, "\n")
		if len(lines) >= 2 && strings.HasPrefix(lines[0], "[") && strings.HasSuffix(lines[0], "]") {
			content := strings.TrimSpace(strings.Join(lines[1:], "\n"))
			if content != "" {
				chunks = append(chunks, content)
			}
		} else {
			chunks = append(chunks, entry)
		}
	}
	return chunks
}
