package models

import "strings"

type Patient struct {
	ID         string `json:"id"`
	GivenName  string `json:"nombre"`
	FamilyName string `json:"apellido"`
	Email      string `json:"correo"`
	Phone      string `json:"telefono"`
	BirthDate  string `json:"fechaNacimiento"`
	Address    string `json:"direccion"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

func (p Patient) FullName() string {
	return strings.TrimSpace(p.GivenName + " " + p.FamilyName)
}

type PatientRequest struct {
	GivenName  string `json:"nombre"`
	FamilyName string `json:"apellido"`
	Email      string `json:"correo"`
	Phone      string `json:"telefono"`
	BirthDate  string `json:"fechaNacimiento,omitempty"`
	Address    string `json:"direccion,omitempty"`
}
