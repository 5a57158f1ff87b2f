package unit

import (
	"context"
	"strings"
	"unicode"
)

// Rule is a local, purely computational rewrite unit.
type Rule struct {
	id   string
	name string
	fn   func(string) string
}

// NewRule creates a rule unit from a rewrite function.
func NewRule(id, name string, fn func(string) string) Rule {
	return Rule{id: id, name: name, fn: fn}
}

// ID returns the rule's stable identifier.
func (r Rule) ID() string { return r.id }

// Name returns the rule's display name.
func (r Rule) Name() string { return r.name }

// Transform applies the rewrite function. Local rules never fail.
func (r Rule) Transform(_ context.Context, input string) (string, error) {
	return r.fn(input), nil
}

// Uppercase converts the text to upper case.
func Uppercase() Rule {
	return NewRule("uppercase", "Uppercase", strings.ToUpper)
}

// Lowercase converts the text to lower case.
func Lowercase() Rule {
	return NewRule("lowercase", "Lowercase", strings.ToLower)
}

// TitleCase capitalizes the first letter of each word.
func TitleCase() Rule {
	return NewRule("title-case", "Title Case", func(s string) string {
		var b strings.Builder
		b.Grow(len(s))
		atWordStart := true
		for _, r := range s {
			if unicode.IsSpace(r) {
				atWordStart = true
				b.WriteRune(r)
				continue
			}
			if atWordStart {
				b.WriteRune(unicode.ToUpper(r))
				atWordStart = false
			} else {
				b.WriteRune(unicode.ToLower(r))
			}
		}
		return b.String()
	})
}

// SentenceCase capitalizes the first letter of each sentence.
func SentenceCase() Rule {
	return NewRule("sentence-case", "Sentence Case", func(s string) string {
		var b strings.Builder
		b.Grow(len(s))
		atSentenceStart := true
		for _, r := range s {
			switch {
			case r == '.' || r == '!' || r == '?':
				atSentenceStart = true
				b.WriteRune(r)
			case unicode.IsSpace(r):
				b.WriteRune(r)
			case atSentenceStart:
				b.WriteRune(unicode.ToUpper(r))
				atSentenceStart = false
			default:
				b.WriteRune(unicode.ToLower(r))
			}
		}
		return b.String()
	})
}

// TrimWhitespace removes leading and trailing whitespace from each line and
// from the text as a whole.
func TrimWhitespace() Rule {
	return NewRule("trim-whitespace", "Trim Whitespace", func(s string) string {
		lines := strings.Split(s, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimSpace(line)
		}
		return strings.TrimSpace(strings.Join(lines, "\n"))
	})
}

// Reverse reverses the text rune by rune.
func Reverse() Rule {
	return NewRule("reverse", "Reverse", func(s string) string {
		runes := []rune(s)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes)
	})
}

// RemoveLineBreaks joins all lines into a single line.
func RemoveLineBreaks() Rule {
	return NewRule("remove-line-breaks", "Remove Line Breaks", func(s string) string {
		fields := strings.FieldsFunc(s, func(r rune) bool {
			return r == '\n' || r == '\r'
		})
		for i, f := range fields {
			fields[i] = strings.TrimSpace(f)
		}
		return strings.Join(fields, " ")
	})
}

// BuiltinRules returns the local rewrite rules shipped with the
// application, in display order.
func BuiltinRules() []Rule {
	return []Rule{
		Uppercase(),
		Lowercase(),
		TitleCase(),
		SentenceCase(),
		TrimWhitespace(),
		Reverse(),
		RemoveLineBreaks(),
	}
}
