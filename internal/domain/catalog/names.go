package catalog

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify turns a label into an identifier: accents are folded, ASCII
// letters and digits are lowercased, runs of whitespace, '-' and '_' become a
// single '-', and everything else is dropped.
func Slugify(label string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), label)
	if err != nil {
		folded = label
	}

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// DisplayName renders a list id for humans: "citrus-fruits" -> "Citrus Fruits".
func DisplayName(id string) string {
	caser := cases.Title(language.Und)
	segments := strings.FieldsFunc(id, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, s := range segments {
		segments[i] = caser.String(s)
	}
	return strings.Join(segments, " ")
}

// uniqueID returns base, or base-2, base-3, ... whichever is not yet in seen,
// and records it.
func uniqueID(seen map[string]struct{}, base string) string {
	if _, taken := seen[base]; !taken {
		seen[base] = struct{}{}
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if _, taken := seen[candidate]; !taken {
			seen[candidate] = struct{}{}
			return candidate
		}
	}
}
