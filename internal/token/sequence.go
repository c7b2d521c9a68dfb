package token

import (
	"strconv"
	"strings"
)

type SeqStyle int

const (
	SeqUnordered SeqStyle = iota
	SeqNumeric
	SeqAlpha
	SeqRoman
)

func (s SeqStyle) String() string {
	switch s {
	case SeqUnordered:
		return "unordered"
	case SeqNumeric:
		return "numeric"
	case SeqAlpha:
		return "alpha"
	case SeqRoman:
		return "roman"
	default:
		return "unknown"
	}
}

func (s SeqStyle) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SeqForm is the parsed meaning of a sequence marker. Value is 0 for
// unordered markers; Upper records the letter case of alpha and roman markers;
// Close is the terminating punctuation ('.' or ')'), 0 for unordered markers.
type SeqForm struct {
	Style SeqStyle `json:"style"`
	Value int      `json:"value,omitempty"`
	Upper bool     `json:"upper,omitempty"`
	Close byte     `json:"close,omitempty"`
}

// ParseSeqMarker interprets marker text such as "-", "12.", "b)" or "iv.".
// It reports false when text is not a sequence marker.
func ParseSeqMarker(text string) (SeqForm, bool) {
	switch text {
	case "-", "+", "*":
		return SeqForm{Style: SeqUnordered}, true
	}
	if len(text) < 2 {
		return SeqForm{}, false
	}

	closer := text[len(text)-1]
	if closer != '.' && closer != ')' {
		return SeqForm{}, false
	}
	body := text[:len(text)-1]

	if isDigits(body) {
		n, err := strconv.Atoi(body)
		if err != nil {
			return SeqForm{}, false
		}
		return SeqForm{Style: SeqNumeric, Value: n, Close: closer}, true
	}

	lower := strings.ToLower(body)
	upper := body != lower
	if upper && strings.ToUpper(body) != body {
		return SeqForm{}, false
	}

	if len(body) == 1 && body[0] >= 'a' && body[0] <= 'z' || len(body) == 1 && body[0] >= 'A' && body[0] <= 'Z' {
		if v, ok := romanValue(lower); ok && (lower == "i" || lower == "v" || lower == "x") {
			return SeqForm{Style: SeqRoman, Value: v, Upper: upper, Close: closer}, true
		}
		return SeqForm{Style: SeqAlpha, Value: int(lower[0]-'a') + 1, Upper: upper, Close: closer}, true
	}

	if v, ok := romanValue(lower); ok {
		return SeqForm{Style: SeqRoman, Value: v, Upper: upper, Close: closer}, true
	}
	return SeqForm{}, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

var romanDigits = map[byte]int{
	'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100, 'd': 500, 'm': 1000,
}

// romanValue parses lower-case roman numerals. Subtractive notation is
// accepted loosely; "iiii" is 4.
func romanValue(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	total := 0
	for i := 0; i < len(s); i++ {
		v, ok := romanDigits[s[i]]
		if !ok {
			return 0, false
		}
		if i+1 < len(s) && romanDigits[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	if total <= 0 {
		return 0, false
	}
	return total, true
}
