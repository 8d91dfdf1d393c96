package validation

import "regexp"

// Nombres de permiso aceptados en requiredScopes: minúsculas, dígitos y ":_.-" en el medio,
// 1..64 caracteres, empezando y terminando en alfanumérico. Cubre los de Meta
// (pages_show_list), X (tweet.write) y TikTok (user.info.basic).
var scopeNameRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9:_\.-]{0,62}[a-z0-9])?$`)

// ValidScopeName reporta si name es un nombre de permiso bien formado.
func ValidScopeName(name string) bool {
	return scopeNameRe.MatchString(name)
}

// InvalidScopes devuelve, en orden, los elementos de la lista separada por comas que no
// son nombres válidos.
func InvalidScopes(required string) []string {
	var bad []string
	for _, s := range ParseRequired(required) {
		if !ValidScopeName(s) {
			bad = append(bad, s)
		}
	}
	return bad
}
