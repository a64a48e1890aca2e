package models

import (
	"encoding/json"
	"strings"
)

// Role is the account kind returned by the clinic backend.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDentist Role = "dentist"
	RolePatient Role = "patient"
)

var roleAliases = map[string]Role{
	"admin":         RoleAdmin,
	"administrador": RoleAdmin,
	"dentist":       RoleDentist,
	"odontologo":    RoleDentist,
	"odontólogo":    RoleDentist,
	"patient":       RolePatient,
	"paciente":      RolePatient,
}

// ParseRole normalises the role spellings the backend is known to send.
func ParseRole(s string) (Role, bool) {
	r, ok := roleAliases[strings.ToLower(strings.TrimSpace(s))]
	return r, ok
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDentist, RolePatient:
		return true
	}
	return false
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if parsed, ok := ParseRole(s); ok {
		*r = parsed
		return nil
	}
	// Unknown roles are kept verbatim; they simply have no permissions.
	*r = Role(s)
	return nil
}

type User struct {
	ID         string `json:"id"`
	GivenName  string `json:"nombre"`
	FamilyName string `json:"apellido"`
	Email      string `json:"correo"`
	Role       Role   `json:"rol"`
	Phone      string `json:"telefono,omitempty"`
	Specialty  string `json:"especialidad,omitempty"`
	Address    string `json:"direccion,omitempty"`
	BirthDate  string `json:"fechaNacimiento,omitempty"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.GivenName + " " + u.FamilyName)
}

// AuthResponse is the body of a successful login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// RegisterRequest creates a patient account; it never logs the caller in.
type RegisterRequest struct {
	GivenName  string `json:"nombre"`
	FamilyName string `json:"apellido"`
	Email      string `json:"correo"`
	Password   string `json:"password"`
	Phone      string `json:"telefono,omitempty"`
	BirthDate  string `json:"fechaNacimiento,omitempty"`
	Address    string `json:"direccion,omitempty"`
}

// UserRequest is used by administrators to create staff or patient accounts.
type UserRequest struct {
	GivenName  string `json:"nombre"`
	FamilyName string `json:"apellido"`
	Email      string `json:"correo"`
	Password   string `json:"password"`
	Role       Role   `json:"rol"`
	Phone      string `json:"telefono,omitempty"`
	Specialty  string `json:"especialidad,omitempty"`
}
