package inventory

import (
	"strings"

	"github.com/jhoicas/inventario-lotes/internal/domain/attribute"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// GenerateName arma el nombre visible del lote:
//
//	"<plantilla>: <f1> x <f2>, <d1>, <d2>"
//
// f* son los atributos de fórmula y d* los descriptivos, en el orden de la plantilla.
// Sin valores de fórmula el separador de los descriptivos es ": ". Los atributos de tipo
// text nunca forman parte del nombre.
func GenerateName(tpl *entity.ProductTemplate, values attribute.Map) string {
	var formulaParts, descParts []string
	for _, a := range tpl.Attributes {
		if a.Type == entity.AttributeTypeText {
			continue
		}
		v, ok := values[a.Variable]
		if !ok {
			continue
		}
		s := strings.TrimSpace(v.String())
		if s == "" {
			continue
		}
		if a.IsInFormula {
			formulaParts = append(formulaParts, s)
		} else {
			descParts = append(descParts, s)
		}
	}

	var b strings.Builder
	b.WriteString(tpl.Name)
	if len(formulaParts) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(formulaParts, " x "))
	}
	if len(descParts) > 0 {
		if len(formulaParts) > 0 {
			b.WriteString(", ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(strings.Join(descParts, ", "))
	}
	return b.String()
}
