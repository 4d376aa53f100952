package entity

import (
	"net/mail"
	"strings"

	"golang.org/x/text/cases"
)

var emailFolder = cases.Fold()

// NormalizeEmail devuelve la clave de identidad de un usuario: sin espacios y con
// plegado de mayúsculas Unicode, para que "Ana@Corp.com" y "ana@corp.com" coincidan.
func NormalizeEmail(email string) string {
	return emailFolder.String(strings.TrimSpace(email))
}

// ValidEmail informa si email es una dirección simple (sin nombre ni <>).
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
