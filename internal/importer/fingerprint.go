package importer

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Fingerprint identifies a card by its content, so re-importing the same
// deck never duplicates cards and an already-scheduled card keeps its
// review state. Lowercasing, trimming and line-ending normalization make
// the fingerprint stable across cosmetic edits.
func Fingerprint(question, answer string) string {
	normalized := normalize(question) + "\n" + normalize(answer)
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", sum)
}

func normalize(part string) string {
	p := strings.ToLower(part)
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "\r\n", "\n")
	return p
}
