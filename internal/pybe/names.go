package pybe

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// keywords are the Python 3 reserved words.
var keywords = map[string]bool{
	"False":    true,
	"None":     true,
	"True":     true,
	"and":      true,
	"as":       true,
	"assert":   true,
	"async":    true,
	"await":    true,
	"break":    true,
	"class":    true,
	"continue": true,
	"def":      true,
	"del":      true,
	"elif":     true,
	"else":     true,
	"except":   true,
	"finally":  true,
	"for":      true,
	"from":     true,
	"global":   true,
	"if":       true,
	"import":   true,
	"in":       true,
	"is":       true,
	"lambda":   true,
	"nonlocal": true,
	"not":      true,
	"or":       true,
	"pass":     true,
	"raise":    true,
	"return":   true,
	"try":      true,
	"while":    true,
	"with":     true,
	"yield":    true,
}

// reserved are names the generated code itself relies on. Shadowing any of
// them at module level would break the output.
var reserved = map[string]bool{
	"Enum":             true,
	"isinstance":       true,
	"len":              true,
	"list_nth_default": true,
	"object":           true,
}

// Ident maps an IR name to a Python identifier. Dotted names are mapped
// segment by segment and keep their dots. The mapping is a pure function, so
// a name renders the same at its declaration and at every reference.
//
//   - NFKC normalisation, as Python itself applies to identifiers
//   - any rune that is not a letter, digit or underscore becomes "_"
//   - a leading digit gets a "_" prefix
//   - keywords and reserved names get a "_" suffix
func Ident(name string) string {
	if !strings.Contains(name, ".") {
		return identSegment(name)
	}
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = identSegment(part)
	}
	return strings.Join(parts, ".")
}

func identSegment(name string) string {
	name = norm.NFKC.String(name)
	if name == "" {
		return "_"
	}

	var sb strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
			sb.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}

	out := sb.String()
	if keywords[out] || reserved[out] {
		return out + "_"
	}
	return out
}

// fieldName is the attribute holding the i-th positional value of a branch.
func fieldName(i int) string {
	return "f" + strconv.Itoa(i)
}
