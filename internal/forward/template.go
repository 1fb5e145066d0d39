package forward

import "strings"

// Render substitutes {{name}} placeholders from values into template in a
// single left-to-right pass. Substituted text is never rescanned, so
// placeholder-like sequences inside field values (e.g. a "{{subject}}"
// typed into an email body) cannot be expanded again. Unknown placeholders
// are left verbatim.
func Render(template string, values map[string]string) string {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		if template[i] == '{' && strings.HasPrefix(template[i:], "{{") {
			if end := strings.Index(template[i+2:], "}}"); end >= 0 {
				name := template[i+2 : i+2+end]
				if value, ok := values[name]; ok {
					b.WriteString(value)
					i += end + 4
					continue
				}
			}
		}
		b.WriteByte(template[i])
		i++
	}

	return b.String()
}

// truncate limits s to at most n runes without splitting a multi-byte
// character.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
