package sinklog

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Render expands template for one log line. '%' introduces a one-character
// flag: d (date), t (time), s (severity name), m (message). Any other
// character after '%' is written as is and the '%' dropped, so "%%" renders
// a single '%'. A trailing lone '%' renders nothing.
func Render(template, message string, severity Severity, now time.Time) string {
	var b strings.Builder
	b.Grow(len(template) + len(message))

	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+1 == len(template) {
			break
		}
		switch template[i+1] {
		case 'd':
			b.WriteString(now.Format(dateLayout))
		case 't':
			b.WriteString(now.Format(timeLayout))
		case 's':
			b.WriteString(severity.String())
		case 'm':
			b.WriteString(message)
		default:
			_, size := utf8.DecodeRuneInString(template[i+1:])
			b.WriteString(template[i+1 : i+1+size])
			i += size
			continue
		}
		i++
	}
	return b.String()
}
