package tabula

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type placeholderStyle int

const (
	placeholderQuestion placeholderStyle = iota
	placeholderDollar
)

type placeholderToken struct {
	// name is empty for a positional '?' placeholder
	name  string
	start int
	end   int
}

// scanPlaceholders finds the ':name' and '?' placeholders in a statement
//
// quoted strings, quoted identifiers, comments and '::' casts are skipped
func scanPlaceholders(text string) ([]placeholderToken, error) {
	var out []placeholderToken
	i := 0
	for i < len(text) {
		r, w := utf8.DecodeRuneInString(text[i:])
		switch r {
		case '\'', '"', '`':
			j, err := skipQuoted(text, i+w, r)
			if err != nil {
				return nil, err
			}
			i = j
			continue
		case '-':
			if strings.HasPrefix(text[i:], "--") {
				i = skipLineComment(text, i+2)
				continue
			}
		case '/':
			if strings.HasPrefix(text[i:], "/*") {
				j, err := skipBlockComment(text, i+2)
				if err != nil {
					return nil, err
				}
				i = j
				continue
			}
		case '?':
			out = append(out, placeholderToken{start: i, end: i + w})
		case ':':
			if strings.HasPrefix(text[i:], "::") {
				i += 2
				continue
			}
			if name, end := parseIdent(text, i+1); name != "" {
				out = append(out, placeholderToken{name: name, start: i, end: end})
				i = end
				continue
			}
		}
		i += w
	}
	return out, nil
}

// rebind rewrites every placeholder into the driver placeholder style and collects the args in placeholder order
func rebind(text string, params Params, style placeholderStyle) (string, []any, error) {
	toks, err := scanPlaceholders(text)
	if err != nil {
		return "", nil, err
	}
	var b strings.Builder
	b.Grow(len(text) + len(toks)*2)
	args := make([]any, 0, len(toks))
	last, position := 0, 0
	for n, t := range toks {
		b.WriteString(text[last:t.start])
		var v Value
		var ok bool
		if t.name == "" {
			position++
			v, ok = params.At(position)
		} else {
			v, ok = params.Get(t.name)
		}
		if !ok {
			return "", nil, fmt.Errorf("%w: %s", ErrMissingParam, text[t.start:t.end])
		}
		switch style {
		case placeholderDollar:
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n + 1))
		default:
			b.WriteByte('?')
		}
		args = append(args, v.Any())
		last = t.end
	}
	b.WriteString(text[last:])
	return b.String(), args, nil
}

// prefixPlaceholders renames every ':name' placeholder to ':<prefix>name'
//
// it is an error for the statement to contain positional placeholders
func prefixPlaceholders(text string, prefix string) (string, error) {
	toks, err := scanPlaceholders(text)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(text) + len(toks)*len(prefix))
	last := 0
	for _, t := range toks {
		if t.name == "" {
			return "", fmt.Errorf("%w: '?' placeholder cannot be prefixed", ErrPositionalKey)
		}
		b.WriteString(text[last:t.start])
		b.WriteString(":" + prefix + t.name)
		last = t.end
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

var errUnterminated = errors.New("unterminated quoted string or comment")

func skipQuoted(s string, i int, quote rune) (int, error) {
	for i < len(s) {
		r, w := utf8.DecodeRuneInString(s[i:])
		i += w
		if r == quote {
			if i < len(s) && rune(s[i]) == quote {
				i++
				continue
			}
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %c", errUnterminated, quote)
}

func skipLineComment(s string, i int) int {
	for i < len(s) {
		if s[i] == '\n' {
			return i + 1
		}
		i++
	}
	return i
}

func skipBlockComment(s string, i int) (int, error) {
	for i < len(s)-1 {
		if s[i] == '*' && s[i+1] == '/' {
			return i + 2, nil
		}
		i++
	}
	return 0, fmt.Errorf("%w: /*", errUnterminated)
}

func parseIdent(s string, i int) (string, int) {
	start := i
	for i < len(s) {
		r, w := utf8.DecodeRuneInString(s[i:])
		if !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			break
		}
		i += w
	}
	if i == start {
		return "", i
	}
	return s[start:i], i
}
