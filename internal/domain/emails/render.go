package emails

import "regexp"

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Render replaces {fieldName} placeholders with values from data.
// Placeholders without a value are left untouched.
func Render(text string, data map[string]string) string {
	if len(data) == 0 {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		if v, ok := data[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}
