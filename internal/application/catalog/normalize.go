package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// normalizeCategory colapsa espacios y aplica mayúscula inicial por palabra ("lácteos  frescos" → "Lácteos Frescos").
// Un Caser guarda estado, por eso se crea uno por llamada.
func normalizeCategory(s string) string {
	return cases.Title(language.Spanish).String(strings.Join(strings.Fields(s), " "))
}

// fold normaliza texto para búsquedas sin distinguir mayúsculas.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
