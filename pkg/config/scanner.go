package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Splits on whitespace, a bracketed list stays one token even with spaces inside
func tokenize(s string) []string {
	var (
		out   []string
		cur   strings.Builder
		depth int
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '[':
			depth++
		case r == ']':
			depth--
		case unicode.IsSpace(r) && depth <= 0:
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return out
}

// scanner walks a flag string like "-heur FF -rand_open -epsilon 0.1"
type scanner struct {
	what   string
	tokens []string
	pos    int
	seen   map[string]bool
}

func newScanner(what, s string) *scanner {
	return &scanner{what: what, tokens: tokenize(s), seen: make(map[string]bool)}
}

func (s *scanner) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, s.what, fmt.Sprintf(format, args...))
}

// Next flag, ok is false at the end of the string
func (s *scanner) flag() (string, bool, error) {
	if s.pos >= len(s.tokens) {
		return "", false, nil
	}
	tok := s.tokens[s.pos]
	s.pos++
	if !strings.HasPrefix(tok, "-") || len(tok) == 1 {
		return "", false, s.errorf("argument %q called improperly", tok)
	}
	return tok, true, nil
}

// Fails if 'flag' was already given
func (s *scanner) once(flag string) error {
	if s.seen[flag] {
		return s.errorf("cannot enter %s multiple times", flag)
	}
	s.seen[flag] = true
	return nil
}

func (s *scanner) set(flag string) bool {
	return s.seen[flag]
}

func (s *scanner) value(flag string) (string, error) {
	if s.pos >= len(s.tokens) {
		return "", s.errorf("%s has been entered without any value", flag)
	}
	v := s.tokens[s.pos]
	s.pos++
	return v, nil
}

func (s *scanner) intValue(flag string) (int, error) {
	v, err := s.value(flag)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, s.errorf("%s expects an integer, got %q", flag, v)
	}
	return n, nil
}

func (s *scanner) floatValue(flag string) (float64, error) {
	v, err := s.value(flag)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, s.errorf("%s expects a number, got %q", flag, v)
	}
	return f, nil
}

func (s *scanner) boolValue(flag string) (bool, error) {
	v, err := s.value(flag)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, s.errorf("%s expects true or false, got %q", flag, v)
	}
	return b, nil
}

// Value of a limit flag, -1 (no limit) or at least 1
func (s *scanner) limitValue(flag string) (float64, error) {
	f, err := s.floatValue(flag)
	if err != nil {
		return 0, err
	}
	if f != -1 && f < 1 {
		return 0, s.errorf("%s value must be in {-1} U [1, infty)", flag)
	}
	return f, nil
}

// Parses "[w1,w2,...]", every weight is -1 or non-negative
func (s *scanner) weightList(flag string) ([]int, error) {
	v, err := s.value(flag)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(v, "[") || !strings.HasSuffix(v, "]") {
		return nil, s.errorf("bad list formatting %q", v)
	}
	var weights []int
	for _, tok := range strings.Split(v[1:len(v)-1], ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		w, err := strconv.Atoi(tok)
		if err != nil || (w != -1 && w < 0) {
			return nil, s.errorf("invalid list element %q", tok)
		}
		weights = append(weights, w)
	}
	if len(weights) == 0 {
		return nil, s.errorf("empty weight list")
	}
	return weights, nil
}

// Case-insensitive choice among 'names'
func (s *scanner) enumValue(flag string, names ...string) (int, error) {
	v, err := s.value(flag)
	if err != nil {
		return 0, err
	}
	for i, n := range names {
		if strings.EqualFold(v, n) {
			return i, nil
		}
	}
	return 0, s.errorf("invalid %s value %q, expected one of %s", flag, v, strings.Join(names, "|"))
}
