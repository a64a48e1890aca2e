package models

const (
	PaymentPaid      = "pagado"
	PaymentPending   = "pendiente"
	PaymentCancelled = "cancelado"
)

type Payment struct {
	ID      string     `json:"id"`
	Amount  float64    `json:"monto"`
	Method  string     `json:"metodo"`
	Concept string     `json:"concepto"`
	Status  string     `json:"estado"`
	Date    string     `json:"fecha"`
	Patient *PersonRef `json:"paciente,omitempty"`
}

type PaymentRequest struct {
	PatientID string  `json:"pacienteId"`
	Amount    float64 `json:"monto"`
	Method    string  `json:"metodo"`
	Concept   string  `json:"concepto"`
	Date      string  `json:"fecha"`
}
