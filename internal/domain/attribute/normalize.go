package attribute

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// numericRe acepta "12", "-3", "2.5", "2,5", ",5". No acepta separadores de miles.
var numericRe = regexp.MustCompile(`^[+-]?(\d+([.,]\d+)?|[.,]\d+)$`)

// ParseNumber interpreta una cadena numérica con punto o coma decimal.
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if !numericRe.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// NormalizeString convierte una entrada de texto en Value: número si es numérica, texto
// (recortado y en forma NFC) si no. Devuelve false si queda vacía.
func NormalizeString(s string) (Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}, false
	}
	if d, ok := ParseNumber(s); ok {
		return NumberValue(d), true
	}
	return TextValue(norm.NFC.String(s)), true
}

// Normalize es el único punto donde se interpretan separadores decimales. Descarta
// valores vacíos o nulos.
func Normalize(raw map[string]any) Map {
	out := make(Map, len(raw))
	for k, in := range raw {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		if v, ok := normalizeAny(in); ok {
			out[key] = v
		}
	}
	return out
}

// NormalizeMap vuelve a normalizar un Map ya tipado (textos numéricos pasan a número).
func NormalizeMap(m Map) Map {
	out := make(Map, len(m))
	for k, v := range m {
		if n, ok := normalizeAny(v); ok {
			out[k] = n
		}
	}
	return out
}

func normalizeAny(in any) (Value, bool) {
	switch x := in.(type) {
	case nil:
		return Value{}, false
	case Value:
		if x.kind == KindText {
			return NormalizeString(x.text)
		}
		return x, x.IsValid()
	case string:
		return NormalizeString(x)
	case decimal.Decimal:
		return NumberValue(x), true
	case json.Number:
		return NormalizeString(x.String())
	case float64:
		return NumberValue(decimal.NewFromFloat(x)), true
	case float32:
		return NumberValue(decimal.NewFromFloat32(x)), true
	case int:
		return NumberValue(decimal.NewFromInt(int64(x))), true
	case int32:
		return NumberValue(decimal.NewFromInt32(x)), true
	case int64:
		return NumberValue(decimal.NewFromInt(x)), true
	default:
		return NormalizeString(fmt.Sprint(x))
	}
}
