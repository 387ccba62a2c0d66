// Package models defines the records persisted in the person directory.
package models

import (
	"strings"
	"time"
)

// Role ids seeded by the initial migration.
const (
	RoleAdmin   = 1
	RoleTeacher = 2
	RoleStudent = 3
)

// Person is an academy member (student, teacher or administrator) and the
// subject of authentication. Email is unique and compared case-insensitively.
type Person struct {
	ID             int64      `json:"personaId"`
	Cedula         int64      `json:"numCedula"`
	BirthDate      *time.Time `json:"fechaNacimiento,omitempty"`
	FirstName      string     `json:"primerNombre"`
	MiddleName     string     `json:"segundoNombre,omitempty"`
	FirstSurname   string     `json:"primerApellido"`
	SecondSurname  string     `json:"segundoApellido,omitempty"`
	Email          string     `json:"correo"`
	Address        string     `json:"direccion,omitempty"`
	Phone1         string     `json:"telefono1,omitempty"`
	Phone2         string     `json:"telefono2,omitempty"`
	RegisteredAt   time.Time  `json:"fechaRegistro"`
	RoleID         int        `json:"idRol"`
	RoleName       string     `json:"nombreRol,omitempty"`
	Position       string     `json:"puesto,omitempty"`
	GuardianCedula *int64     `json:"cedulaResponsable,omitempty"`

	// PasswordHash is empty until a credential is assigned and is never
	// serialized.
	PasswordHash string `json:"-"`

	// CredentialVersion grows on every password change; reset tokens embed it
	// so a token stops working once it has been used.
	CredentialVersion int64 `json:"-"`
}

// FullName joins the non-empty name parts.
func (p *Person) FullName() string {
	parts := make([]string, 0, 4)
	for _, s := range []string{p.FirstName, p.MiddleName, p.FirstSurname, p.SecondSurname} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Public returns a copy without credential material.
func (p *Person) Public() *Person {
	if p == nil {
		return nil
	}
	c := *p
	c.PasswordHash = ""
	c.CredentialVersion = 0
	return &c
}

// ProfileUpdate carries the self-service editable fields. Email identifies
// the owner and is not changed by an update.
type ProfileUpdate struct {
	Email         string     `json:"correo"`
	BirthDate     *time.Time `json:"fechaNacimiento,omitempty"`
	FirstName     string     `json:"primerNombre"`
	MiddleName    string     `json:"segundoNombre,omitempty"`
	FirstSurname  string     `json:"primerApellido"`
	SecondSurname string     `json:"segundoApellido,omitempty"`
	Address       string     `json:"direccion,omitempty"`
	Phone1        string     `json:"telefono1,omitempty"`
	Phone2        string     `json:"telefono2,omitempty"`
}

// NormalizeEmail trims and lower-cases an address for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
