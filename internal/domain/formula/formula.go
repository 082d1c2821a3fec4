// Package formula evalúa las fórmulas de volumen de las plantillas de producto:
// números, variables, + - * / y paréntesis, con aritmética decimal exacta.
package formula

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain"
)

// DivisionScale decimales conservados en cada división.
const DivisionScale = 16

// ErrorKind clasifica los fallos de evaluación.
type ErrorKind string

const (
	KindEmpty          ErrorKind = "empty"
	KindSyntax         ErrorKind = "syntax"
	KindUnknownOperand ErrorKind = "unknown_operand"
	KindDivisionByZero ErrorKind = "division_by_zero"
	KindInternal       ErrorKind = "internal"
)

// Error describe un fallo de fórmula. errors.Is(err, domain.ErrFormula) es true.
type Error struct {
	Kind    ErrorKind
	Pos     int    // offset en bytes dentro de la fórmula
	Operand string // sólo KindUnknownOperand
	Msg     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (posición %d)", domain.ErrFormula.Error(), e.Msg, e.Pos)
}

func (e *Error) Unwrap() error { return domain.ErrFormula }

// Result es el resultado de Evaluate. Err es nil si la evaluación tuvo éxito.
type Result struct {
	Value decimal.Decimal
	Err   error
}

// Success indica si la evaluación produjo un valor.
func (r Result) Success() bool { return r.Err == nil }

// Evaluate calcula formula sustituyendo cada identificador por vars[nombre]. Un identificador
// ausente de vars es un error, nunca cero. No aplica límites de rango.
func Evaluate(formula string, vars map[string]decimal.Decimal) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: &Error{Kind: KindInternal, Msg: fmt.Sprint(r)}}
		}
	}()

	root, _, err := parse(formula)
	if err != nil {
		return Result{Err: err}
	}
	v, err := root.eval(vars)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Value: v}
}

// Variables devuelve los identificadores que usa la fórmula, en orden de aparición.
func Variables(formula string) ([]string, error) {
	_, idents, err := parse(formula)
	if err != nil {
		return nil, err
	}
	return idents, nil
}
