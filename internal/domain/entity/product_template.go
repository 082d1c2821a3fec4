package entity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/attribute"
	"github.com/jhoicas/inventario-lotes/internal/domain/formula"
)

// Tipos de atributo de plantilla.
const (
	AttributeTypeNumber = "number"
	AttributeTypeText   = "text"
	AttributeTypeSelect = "select"
)

// QuantityVariable nombre reservado que las fórmulas usan para la cantidad del lote.
const QuantityVariable = "quantity"

var variableRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SelectOption opción de un atributo select: índice almacenado por formularios antiguos y etiqueta.
type SelectOption struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// TemplateAttribute atributo declarado por una plantilla (largo, ancho, especie...).
type TemplateAttribute struct {
	ID          string
	TemplateID  string
	Variable    string // clave única dentro de la plantilla, usada en fórmulas
	DisplayName string
	FullName    string
	Type        string
	IsRequired  bool
	IsInFormula bool // se une con " x " en el nombre; los demás van como sufijo descriptivo
	Options     []SelectOption
	SortOrder   int
}

// Label resuelve un índice de opción a su etiqueta.
func (a TemplateAttribute) Label(index int) (string, bool) {
	for _, o := range a.Options {
		if o.Index == index {
			return o.Label, true
		}
	}
	return "", false
}

func (a TemplateAttribute) hasLabel(label string) bool {
	for _, o := range a.Options {
		if o.Label == label {
			return true
		}
	}
	return false
}

// ProductTemplate tipo de producto: unidad, fórmula de volumen y atributos ordenados.
// El catálogo lo administra un sistema externo; el núcleo sólo lo lee.
type ProductTemplate struct {
	ID         string
	Name       string
	Unit       string
	Formula    string // vacío = sin cálculo de volumen
	Attributes []TemplateAttribute
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Attribute busca un atributo por variable.
func (t *ProductTemplate) Attribute(variable string) (TemplateAttribute, bool) {
	for _, a := range t.Attributes {
		if a.Variable == variable {
			return a, true
		}
	}
	return TemplateAttribute{}, false
}

// HasFormula indica si la plantilla calcula volumen.
func (t *ProductTemplate) HasFormula() bool {
	return strings.TrimSpace(t.Formula) != ""
}

// Validate comprueba la coherencia de la plantilla: variables únicas, opciones sólo en select
// y fórmula que sólo referencia atributos numéricos o quantity.
func (t *ProductTemplate) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: la plantilla requiere nombre", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(t.Attributes))
	numeric := map[string]bool{QuantityVariable: true}
	for _, a := range t.Attributes {
		if !variableRe.MatchString(a.Variable) {
			return fmt.Errorf("%w: variable inválida %q", domain.ErrInvalidInput, a.Variable)
		}
		if a.Variable == QuantityVariable {
			return fmt.Errorf("%w: %q es una variable reservada", domain.ErrInvalidInput, a.Variable)
		}
		if seen[a.Variable] {
			return fmt.Errorf("%w: variable duplicada %q", domain.ErrInvalidInput, a.Variable)
		}
		seen[a.Variable] = true
		switch a.Type {
		case AttributeTypeSelect:
			if len(a.Options) == 0 {
				return fmt.Errorf("%w: el atributo select %q requiere opciones", domain.ErrInvalidInput, a.Variable)
			}
		case AttributeTypeNumber, AttributeTypeText:
			if len(a.Options) > 0 {
				return fmt.Errorf("%w: sólo los atributos select admiten opciones (%q)", domain.ErrInvalidInput, a.Variable)
			}
		default:
			return fmt.Errorf("%w: tipo de atributo desconocido %q", domain.ErrInvalidInput, a.Type)
		}
		if a.Type == AttributeTypeNumber {
			numeric[a.Variable] = true
		}
	}
	if !t.HasFormula() {
		return nil
	}
	vars, err := formula.Variables(t.Formula)
	if err != nil {
		return err
	}
	for _, v := range vars {
		if !numeric[v] {
			return fmt.Errorf("%w: la fórmula usa %q, que no es un atributo numérico", domain.ErrInvalidInput, v)
		}
	}
	return nil
}

// ResolveSelectIndexes convierte índices de opción guardados en atributos select a su etiqueta.
// Los valores que no corresponden a ninguna opción se dejan tal cual.
func (t *ProductTemplate) ResolveSelectIndexes(m attribute.Map) attribute.Map {
	out := m.Clone()
	for _, a := range t.Attributes {
		if a.Type != AttributeTypeSelect {
			continue
		}
		v, ok := out[a.Variable]
		if !ok {
			continue
		}
		d, isNum := v.Number()
		if !isNum || !d.IsInteger() {
			continue
		}
		if label, found := a.Label(int(d.IntPart())); found {
			out[a.Variable] = attribute.TextValue(label)
		}
	}
	return out
}

// ValidateAttributes valida valores contra el esquema. Con requireAll exige los obligatorios.
func (t *ProductTemplate) ValidateAttributes(m attribute.Map, requireAll bool) error {
	for k, v := range m {
		a, ok := t.Attribute(k)
		if !ok {
			return fmt.Errorf("%w: atributo desconocido %q", domain.ErrInvalidInput, k)
		}
		switch a.Type {
		case AttributeTypeNumber:
			if !v.IsNumber() {
				return fmt.Errorf("%w: %q debe ser numérico", domain.ErrInvalidInput, k)
			}
		case AttributeTypeSelect:
			if !a.hasLabel(v.String()) {
				return fmt.Errorf("%w: %q no admite el valor %s", domain.ErrInvalidInput, k, strconv.Quote(v.String()))
			}
		}
	}
	if !requireAll {
		return nil
	}
	for _, a := range t.Attributes {
		if !a.IsRequired {
			continue
		}
		if v, ok := m[a.Variable]; !ok || !v.IsValid() {
			return fmt.Errorf("%w: falta el atributo obligatorio %q", domain.ErrInvalidInput, a.Variable)
		}
	}
	return nil
}
