package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")

	// ErrFormula: expresión mal formada, operando desconocido o división por cero.
	ErrFormula = errors.New("error de fórmula")
	// ErrVolumeOutOfRange: el volumen calculado supera la capacidad de almacenamiento.
	ErrVolumeOutOfRange = errors.New("volumen fuera de rango")
	// ErrInsufficientStock: la cantidad solicitada supera la disponible del lote.
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrInvalidState: transición no permitida desde el estado actual. No hay mutación.
	ErrInvalidState = errors.New("transición de estado no permitida")
	// ErrConflict: reintentos agotados por contención concurrente.
	ErrConflict = errors.New("conflicto con el estado actual")
)
