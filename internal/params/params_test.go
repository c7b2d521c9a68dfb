package params_test

import (
	"reflect"
	"testing"

	"github.com/g5becks/lex/internal/params"
	"github.com/g5becks/lex/internal/token"
)

func TestScanAndMap(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want map[string]string
	}{
		{"single", "lang=go", map[string]string{"lang": "go"}},
		{"spaced", " lang = go , level=2 ", map[string]string{"lang": "go", "level": "2"}},
		{"quoted", `title="a, b", x=1`, map[string]string{"title": "a, b", "x": "1"}},
		{"escaped quote", `q="say \"hi\""`, map[string]string{"q": `say "hi"`}},
		{"empty quoted", `e=""`, map[string]string{"e": ""}},
		{"blank", "   ", map[string]string{}},
		{"later wins", "a=1,a=2", map[string]string{"a": "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := params.Scan(tt.src, token.Position{})
			if err != nil {
				t.Fatalf("Scan(%q) error = %v", tt.src, err)
			}
			got := params.Map(params.Params(items))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Map() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing key", "=v"},
		{"missing equals", "key"},
		{"missing value", "key="},
		{"trailing comma", "a=1,"},
		{"missing comma", "a=1 b=2"},
		{"unterminated quote", `a="open`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := params.Scan(tt.src, token.Position{}); err == nil {
				t.Fatalf("Scan(%q) error = nil, want error", tt.src)
			}
		})
	}
}

func TestScanPositions(t *testing.T) {
	start := token.Position{Line: 3, Column: 10, Offset: 100}
	items, err := params.Scan(" k=v", start)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	toks := params.Params(items)
	if len(toks) != 2 {
		t.Fatalf("Params() returned %d tokens, want 2", len(toks))
	}
	if toks[0].Kind != token.Whitespace || toks[0].Text != " " {
		t.Fatalf("toks[0] = %v, want Whitespace(\" \")", toks[0])
	}

	p := toks[1]
	if p.Kind != token.Parameter {
		t.Fatalf("toks[1].Kind = %v, want Parameter", p.Kind)
	}
	if p.Span.Start.Column != 11 || p.Span.End.Column != 14 {
		t.Fatalf("parameter span = %v, want columns 11-14", p.Span)
	}
	if p.Span.Start.Offset != 101 {
		t.Fatalf("parameter offset = %d, want 101", p.Span.Start.Offset)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		param token.Param
		want  string
	}{
		{token.Param{Key: "k", Value: "v"}, "k=v"},
		{token.Param{Key: "k", Value: "v", Quoted: true}, `k="v"`},
		{token.Param{Key: "k", Value: "a b"}, `k="a b"`},
		{token.Param{Key: "k", Value: ""}, `k=""`},
		{token.Param{Key: "k", Value: `x"y\z`}, `k="x\"y\\z"`},
		{token.Param{Key: "k", Value: "a::b"}, `k="a::b"`},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := params.Format(tt.param); got != tt.want {
				t.Fatalf("Format(%+v) = %q, want %q", tt.param, got, tt.want)
			}
		})
	}
}

func TestFormatScanRoundTrip(t *testing.T) {
	values := []string{"plain", "with space", `quote"d`, `back\slash`, "comma,value", ""}
	for _, v := range values {
		src := params.Format(token.Param{Key: "k", Value: v})
		items, err := params.Scan(src, token.Position{})
		if err != nil {
			t.Fatalf("Scan(%q) error = %v", src, err)
		}
		got := params.Map(params.Params(items))["k"]
		if got != v {
			t.Fatalf("Scan(Format(%q)) = %q, want %q", v, got, v)
		}
	}
}
