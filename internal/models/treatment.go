package models

type Treatment struct {
	ID          string     `json:"id"`
	Name        string     `json:"nombre"`
	Description string     `json:"descripcion,omitempty"`
	Cost        float64    `json:"costo"`
	Status      string     `json:"estado"`
	Date        string     `json:"fecha"`
	Patient     *PersonRef `json:"paciente,omitempty"`
	Dentist     *PersonRef `json:"odontologo,omitempty"`
}

type TreatmentRequest struct {
	PatientID   string  `json:"pacienteId"`
	DentistID   string  `json:"odontologoId,omitempty"`
	Name        string  `json:"nombre"`
	Description string  `json:"descripcion,omitempty"`
	Cost        float64 `json:"costo"`
	Date        string  `json:"fecha"`
}
