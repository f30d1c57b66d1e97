package risk

import (
	"strings"
	"unicode"

	"k8s.io/klog/v2"
)

var cyrillic = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "i", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// Slug returns the directory-safe English name for a record. When no English
// name is present, the local name is transliterated instead; the second
// return value flags that substitution for downstream quality review.
func (r Record) Slug() (string, bool) {
	if r.EnglishName != "" {
		return normalize(r.EnglishName), false
	}

	s := normalize(Transliterate(r.Name))
	klog.Warningf("no english name for %q, using transliteration %q", r.Name, s)
	return s, true
}

// Transliterate romanizes Cyrillic text; other runes pass through unchanged.
func Transliterate(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if t, ok := cyrillic[r]; ok {
			b.WriteString(t)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// normalize lowercases a name and strips it down to the characters allowed in
// a risk directory: letters, digits and underscores.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			b.WriteRune('_')
		}
	}
	return b.String()
}
