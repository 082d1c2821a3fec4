package dto

import "github.com/shopspring/decimal"

// EvaluateFormulaRequest body para POST /api/formulas/evaluate. Los valores llegan tal cual
// los escribió el usuario ("2,5", 3, "oak").
type EvaluateFormulaRequest struct {
	Formula    string           `json:"formula"`
	Attributes map[string]any   `json:"attributes"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
}

// EvaluateFormulaResponse resultado de la evaluación: Result si Success, Error si no.
type EvaluateFormulaResponse struct {
	Success   bool             `json:"success"`
	Result    *decimal.Decimal `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorKind string           `json:"error_kind,omitempty"`
	Variables []string         `json:"variables,omitempty"`
}
