package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrTxAborted: el almacenamiento no pudo confirmar la transacción.
	// Es seguro reintentar con la misma clave de idempotencia.
	ErrTxAborted = errors.New("transacción abortada")
)
