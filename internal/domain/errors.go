package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Errores de dominio. Los tipos de detalle de abajo envuelven a estos sentinels,
// así que errors.Is sigue funcionando en handlers y tests.
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrInvalidStateTransition = errors.New("transición de estado no permitida")
	ErrLotNotFound            = errors.New("lote no encontrado")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrTransactionConflict    = errors.New("conflicto de concurrencia en la transacción")
)

// ValidationError detalla los campos inválidos de una entrada.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError crea un ValidationError con un único campo.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Add agrega un campo inválido.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

// HasErrors indica si hay al menos un campo inválido.
func (e *ValidationError) HasErrors() bool { return e != nil && len(e.Fields) > 0 }

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s (%s)", ErrInvalidInput.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// StateTransitionError transición rechazada por la máquina de estados.
type StateTransitionError struct {
	From string
	To   string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidStateTransition.Error(), e.From, e.To)
}

func (e *StateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// LotError no existe libro o lote para el producto y la fecha de producción.
type LotError struct {
	ProductID      string
	ProductionDate time.Time
}

func (e *LotError) Error() string {
	return fmt.Sprintf("%s: producto %s, fecha %s", ErrLotNotFound.Error(), e.ProductID, e.ProductionDate.Format(time.DateOnly))
}

func (e *LotError) Unwrap() error { return ErrLotNotFound }

// StockError disponible del lote menor que lo solicitado.
type StockError struct {
	ProductID      string
	ProductionDate time.Time
	Requested      decimal.Decimal
	Available      decimal.Decimal
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%s: producto %s, lote %s, solicitado %s, disponible %s",
		ErrInsufficientStock.Error(), e.ProductID, e.ProductionDate.Format(time.DateOnly),
		e.Requested.String(), e.Available.String())
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }
