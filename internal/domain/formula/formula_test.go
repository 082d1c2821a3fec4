package formula_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/formula"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestEvaluate_VolumenDeTabla(t *testing.T) {
	vars := map[string]decimal.Decimal{"length": dec("2"), "width": dec("1"), "quantity": dec("5")}

	res := formula.Evaluate("length * width * quantity / 1000", vars)

	require.True(t, res.Success(), "error: %v", res.Err)
	assert.Equal(t, "0.01", res.Value.String())
}

func TestEvaluate_PrecedenciaYParentesis(t *testing.T) {
	vars := map[string]decimal.Decimal{"a": dec("2"), "b": dec("3"), "c": dec("4")}
	cases := []struct {
		expr string
		want string
	}{
		{"a + b * c", "14"},
		{"(a + b) * c", "20"},
		{"a - b - c", "-5"},
		{"c / a / a", "1"},
		{"-a * b", "-6"},
		{"-(a + b)", "-5"},
		{"+a", "2"},
		{"a*b*c/1000", "0.024"},
		{"  .5 * c ", "2"},
		{"2.25*4", "9"},
		{"1 / 3", "0.3333333333333333"},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			res := formula.Evaluate(tc.expr, vars)
			require.True(t, res.Success(), "error: %v", res.Err)
			assert.Equal(t, tc.want, res.Value.String())
		})
	}
}

func TestEvaluate_Errores(t *testing.T) {
	vars := map[string]decimal.Decimal{"a": dec("2")}
	cases := []struct {
		expr string
		kind formula.ErrorKind
	}{
		{"", formula.KindEmpty},
		{"   ", formula.KindEmpty},
		{"a +", formula.KindSyntax},
		{"(a", formula.KindSyntax},
		{"a)", formula.KindSyntax},
		{"a $ 2", formula.KindSyntax},
		{"1..2", formula.KindSyntax},
		{"a a", formula.KindSyntax},
		{"a * b", formula.KindUnknownOperand},
		{"a / 0", formula.KindDivisionByZero},
		{"a / (a - a)", formula.KindDivisionByZero},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			res := formula.Evaluate(tc.expr, vars)
			require.False(t, res.Success())
			assert.True(t, errors.Is(res.Err, domain.ErrFormula))

			var fe *formula.Error
			require.True(t, errors.As(res.Err, &fe))
			assert.Equal(t, tc.kind, fe.Kind)
		})
	}
}

func TestEvaluate_OperandoDesconocidoNoEsCero(t *testing.T) {
	res := formula.Evaluate("length * width", map[string]decimal.Decimal{"length": dec("2")})

	var fe *formula.Error
	require.True(t, errors.As(res.Err, &fe))
	assert.Equal(t, "width", fe.Operand)
	assert.True(t, res.Value.IsZero())
}

func TestEvaluate_Determinista(t *testing.T) {
	vars := map[string]decimal.Decimal{"l": dec("2.7"), "w": dec("0.15"), "h": dec("0.05"), "quantity": dec("13")}
	first := formula.Evaluate("l*w*h*quantity", vars)
	require.True(t, first.Success())
	for i := 0; i < 50; i++ {
		again := formula.Evaluate("l*w*h*quantity", vars)
		require.True(t, again.Success())
		assert.True(t, first.Value.Equal(again.Value))
	}
}

func TestVariables(t *testing.T) {
	vars, err := formula.Variables("length * width * quantity / length")
	require.NoError(t, err)
	assert.Equal(t, []string{"length", "width", "quantity"}, vars)

	_, err = formula.Variables("length *")
	assert.ErrorIs(t, err, domain.ErrFormula)
}
