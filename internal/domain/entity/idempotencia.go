package entity

import "time"

// IdempotencyRecord registra el resultado de una operación mutante ya
// aplicada, indexado por la clave provista por el caller. Un replay con la
// misma clave devuelve Result sin reaplicar efectos.
type IdempotencyRecord struct {
	Key       string
	Operation string
	Result    []byte // JSON con los IDs del resultado original
	CreatedAt time.Time
}
