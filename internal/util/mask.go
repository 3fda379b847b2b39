package util

import "strings"

// MaskSecret deja ver solo los extremos de un secreto ("ab…yz"). Para `config check` y logs.
func MaskSecret(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "***"
	default:
		return s[:2] + "…" + s[len(s)-2:]
	}
}

// MaskToken resume un token crudo para diagnóstico (últimos 4 caracteres).
// Lo usa la salida de `validate`; nunca mostrar el token completo.
func MaskToken(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 12 {
		return "***"
	}
	return "…" + s[len(s)-4:]
}
