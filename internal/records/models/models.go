package models

import "time"

// Statuses are stored in Spanish because downstream review tooling and the
// original data set use these literals. Submissions leave this service as
// "pendiente"; later states belong to the out-of-band review tooling.
const (
	UserStatusVerified  = "verificado"
	StreamStatusPending = "pendiente"
)

// IdentityRecord is a registered, externally verified user.
//
// Invariants:
//   - NationalID is canonical ("V-12345678" / "E-12345678") and unique
//   - Records are created only after successful external verification
//   - Records are never updated or deleted by this service
type IdentityRecord struct {
	FirstName  string    `json:"nombre"`
	LastName   string    `json:"apellido"`
	NationalID string    `json:"cedula"`
	Phone      string    `json:"telefono"`
	Status     string    `json:"estado"`
	CreatedAt  time.Time `json:"created_at"`
}

// StreamSubmission is a live-stream sharing request, reviewed out of band.
type StreamSubmission struct {
	ID              string    `json:"id"`
	Link            string    `json:"enlace"`
	City            string    `json:"ciudad"`
	OwnerNationalID string    `json:"cedula_usuario,omitempty"`
	Status          string    `json:"estado"`
	CreatedAt       time.Time `json:"created_at"`
}
