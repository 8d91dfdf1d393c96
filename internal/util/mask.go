package util

import "strings"

// MaskSecret oculta tokens y secretos para logs/CLI: conserva 4 caracteres
// al inicio y 2 al final. Valores cortos se ocultan completos.
func MaskSecret(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "***"
	}
	return s[:4] + "…" + s[len(s)-2:]
}
