package parser

import (
	"bytes"
	"path/filepath"
	"strings"
)

// FileExt is the extension of lex documents.
const FileExt = ".lex"

// IsBinary checks first 512 bytes for null bytes.
func IsBinary(content []byte) bool {
	const maxCheckSize = 512
	size := min(len(content), maxCheckSize)
	return bytes.IndexByte(content[:size], 0) != -1
}

// StripBOM removes UTF-8 BOM (0xEF, 0xBB, 0xBF) if present.
func StripBOM(content []byte) []byte {
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:]
	}
	return content
}

// DetectFileType maps file extension to type string.
// Returns: "lex", "txt", or "unknown".
func DetectFileType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case FileExt:
		return "lex"
	case ".txt":
		return "txt"
	default:
		return "unknown"
	}
}

// CountLines counts physical lines; a trailing newline does not start a new
// line.
func CountLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte("\n"))
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
