package parser_test

import (
	"reflect"
	"testing"

	"github.com/g5becks/lex/internal/parser"
)

func TestIsBinary(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{
			name:    "null byte in content",
			content: []byte("hello\x00world"),
			want:    true,
		},
		{
			name:    "valid text",
			content: []byte("hello world"),
			want:    false,
		},
		{
			name:    "empty content",
			content: []byte{},
			want:    false,
		},
		{
			name:    "null byte at start",
			content: []byte("\x00hello"),
			want:    true,
		},
		{
			name: "null byte beyond 512 bytes",
			content: func() []byte {
				b := make([]byte, 513)
				for i := range b {
					b[i] = 'a' // Fill with non-null bytes
				}
				b[512] = 0 // Null byte at position 512 (beyond first 512 bytes checked)
				return b
			}(),
			want: false,
		},
		{
			name:    "null byte within 512 bytes",
			content: append(make([]byte, 256), 0),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parser.IsBinary(tt.content); got != tt.want {
				t.Errorf("IsBinary() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStripBOM(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    []byte
	}{
		{
			name:    "with BOM",
			content: []byte{0xEF, 0xBB, 0xBF, 'h', 'e', 'l', 'l', 'o'},
			want:    []byte("hello"),
		},
		{
			name:    "without BOM",
			content: []byte("hello"),
			want:    []byte("hello"),
		},
		{
			name:    "empty content",
			content: []byte{},
			want:    []byte{},
		},
		{
			name:    "partial BOM",
			content: []byte{0xEF, 0xBB},
			want:    []byte{0xEF, 0xBB},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parser.StripBOM(tt.content)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("StripBOM() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "lex file",
			path: "guide.lex",
			want: "lex",
		},
		{
			name: "text file",
			path: "notes.txt",
			want: "txt",
		},
		{
			name: "unknown file",
			path: "README.md",
			want: "unknown",
		},
		{
			name: "uppercase extension",
			path: "GUIDE.LEX",
			want: "lex",
		},
		{
			name: "path with directory",
			path: "docs/guide/intro.lex",
			want: "lex",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parser.DetectFileType(tt.path); got != tt.want {
				t.Errorf("DetectFileType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{name: "empty", content: "", want: 0},
		{name: "single line without newline", content: "a", want: 1},
		{name: "single line with newline", content: "a\n", want: 1},
		{name: "blank lines count", content: "a\n\nb\n", want: 3},
		{name: "no trailing newline", content: "a\nb", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parser.CountLines([]byte(tt.content)); got != tt.want {
				t.Errorf("CountLines() = %v, want %v", got, tt.want)
			}
		})
	}
}
