// Package placeholder implements the {key} substitution language used by
// reservation email templates. Substitution is a single left-to-right pass:
// substituted values are emitted as opaque text and never re-scanned, so a
// participant-supplied name containing braces cannot inject further
// placeholders.
package placeholder

import "strings"

// Render replaces every occurrence of each {key} token in template with the
// corresponding value. Tokens without a matching key are left verbatim.
func Render(template string, values map[string]string) string {
	if template == "" || len(values) == 0 {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		open := strings.IndexByte(template[i:], '{')
		if open < 0 {
			b.WriteString(template[i:])
			break
		}
		open += i

		b.WriteString(template[i:open])

		close := strings.IndexByte(template[open:], '}')
		if close < 0 {
			b.WriteString(template[open:])
			break
		}
		close += open

		key := template[open+1 : close]
		if value, ok := values[key]; ok {
			b.WriteString(value)
			i = close + 1
			continue
		}

		// Unknown token: emit the brace alone and keep scanning, so a
		// literal "{" directly before a real token still resolves.
		b.WriteByte('{')
		i = open + 1
	}

	return b.String()
}
