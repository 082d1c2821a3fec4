package attribute_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-lotes/internal/domain/attribute"
)

func TestNormalize_SeparadorComaYTipos(t *testing.T) {
	m := attribute.Normalize(map[string]any{
		"length":  "2,5",
		"width":   " 3 ",
		"count":   float64(4),
		"species": "  roble ",
		"empty":   "",
		"nil":     nil,
		"mixed":   "1,234.5",
	})

	d, ok := m["length"].Number()
	require.True(t, ok, "2,5 debe ser numérico")
	assert.True(t, d.Equal(decimal.RequireFromString("2.5")))

	d, ok = m["width"].Number()
	require.True(t, ok)
	assert.Equal(t, "3", d.String())

	assert.True(t, m["count"].IsNumber())
	assert.Equal(t, attribute.KindText, m["species"].Kind())
	assert.Equal(t, "roble", m["species"].String())
	assert.Equal(t, attribute.KindText, m["mixed"].Kind(), "separador de miles no es numérico")

	_, present := m["empty"]
	assert.False(t, present, "vacíos se descartan")
	_, present = m["nil"]
	assert.False(t, present)
}

func TestNormalizeString_FormaNFC(t *testing.T) {
	// "é" descompuesta (e + acento combinante) debe quedar compuesta.
	v, ok := attribute.NormalizeString("cafe\u0301")
	require.True(t, ok)
	assert.Equal(t, "caf\u00e9", v.String())
}

func TestValue_JSON(t *testing.T) {
	in := attribute.Map{
		"length":  attribute.NumberValue(decimal.RequireFromString("2.50")),
		"species": attribute.TextValue("oak"),
	}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"length":2.5,"species":"oak"}`, string(b))

	var out attribute.Map
	require.NoError(t, json.Unmarshal([]byte(`{"length":2.5,"species":"oak","width":"3","x":null}`), &out))
	assert.True(t, out["length"].IsNumber())
	assert.Equal(t, attribute.KindText, out["width"].Kind(), "la cadena sigue siendo texto hasta normalizar")
	assert.False(t, out["x"].IsValid())

	norm := attribute.NormalizeMap(out)
	assert.True(t, norm["width"].IsNumber())
	_, present := norm["x"]
	assert.False(t, present)
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12", "12", true},
		{"-3", "-3", true},
		{"0,75", "0.75", true},
		{",5", "0.5", true},
		{"2.", "", false},
		{"abc", "", false},
		{"1e3", "", false},
	}
	for _, tc := range cases {
		d, ok := attribute.ParseNumber(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, d.String(), tc.in)
		}
	}
}
