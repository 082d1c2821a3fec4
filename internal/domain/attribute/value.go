// Package attribute modela los valores de atributos de un lote: un número o un texto,
// nunca un número guardado como cadena.
package attribute

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Kind distingue el tipo de un Value.
type Kind uint8

const (
	KindInvalid Kind = iota // valor vacío (ausente)
	KindNumber
	KindText
)

// Value es una unión etiquetada {Number, Text}.
type Value struct {
	kind Kind
	num  decimal.Decimal
	text string
}

// NumberValue crea un valor numérico.
func NumberValue(d decimal.Decimal) Value {
	return Value{kind: KindNumber, num: d}
}

// TextValue crea un valor de texto. No normaliza; ver Normalize.
func TextValue(s string) Value {
	return Value{kind: KindText, text: s}
}

// Kind devuelve el tipo del valor.
func (v Value) Kind() Kind { return v.kind }

// IsValid indica si el valor tiene contenido.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// IsNumber indica si el valor es numérico.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// Number devuelve el decimal y true si el valor es numérico.
func (v Value) Number() (decimal.Decimal, bool) {
	if v.kind != KindNumber {
		return decimal.Zero, false
	}
	return v.num, true
}

// String devuelve la forma de presentación: números sin ceros sobrantes ("2", "2.5").
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return v.num.String()
	case KindText:
		return v.text
	default:
		return ""
	}
}

// Equal compara tipo y contenido (los números por valor: 2 == 2.0).
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindNumber {
		return v.num.Equal(o.num)
	}
	return v.text == o.text
}

// MarshalJSON codifica números como número JSON y textos como cadena.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return []byte(v.num.String()), nil
	case KindText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON acepta número, cadena o null. Las cadenas numéricas siguen siendo texto
// hasta pasar por Normalize.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*v = Value{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = TextValue(s)
	default:
		d, err := decimal.NewFromString(string(b))
		if err != nil {
			return fmt.Errorf("valor de atributo no soportado: %s", b)
		}
		*v = NumberValue(d)
	}
	return nil
}

// Map es el conjunto de valores de un lote, indexado por variable.
type Map map[string]Value

// Clone devuelve una copia superficial.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Keys devuelve las variables ordenadas.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Raw convierte el mapa a valores Go planos (decimal.Decimal o string).
func (m Map) Raw() map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if d, ok := v.Number(); ok {
			out[k] = d
			continue
		}
		out[k] = v.String()
	}
	return out
}
