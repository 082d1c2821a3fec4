// Package catalog lee el catálogo de plantillas de producto exportado por el sistema externo.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// Charsets admitidos para el archivo de catálogo.
const (
	CharsetUTF8        = "utf-8"
	CharsetWindows1251 = "windows-1251"
	CharsetISO88591    = "iso-8859-1"
)

type file struct {
	Templates []templateJSON `json:"templates"`
}

type templateJSON struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Unit       string          `json:"unit"`
	Formula    string          `json:"formula"`
	Attributes []attributeJSON `json:"attributes"`
}

type attributeJSON struct {
	Variable    string                `json:"variable"`
	DisplayName string                `json:"display_name"`
	FullName    string                `json:"full_name"`
	Type        string                `json:"type"`
	IsRequired  bool                  `json:"is_required"`
	IsInFormula bool                  `json:"is_in_formula"`
	Options     []entity.SelectOption `json:"options"`
}

// Decoder envuelve r para decodificar el charset indicado a UTF-8.
func Decoder(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", CharsetUTF8, "utf8":
		return r, nil
	case CharsetWindows1251, "cp1251":
		return transform.NewReader(r, charmap.Windows1251.NewDecoder()), nil
	case CharsetISO88591, "iso8859-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("charset no soportado: %q", charset)
	}
}

// Read decodifica y valida el catálogo. El orden de los atributos en el archivo es su sort_order.
func Read(r io.Reader, charset string) ([]*entity.ProductTemplate, error) {
	in, err := Decoder(r, charset)
	if err != nil {
		return nil, err
	}
	var f file
	dec := json.NewDecoder(in)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decodificar catálogo: %w", err)
	}

	out := make([]*entity.ProductTemplate, 0, len(f.Templates))
	seen := make(map[string]bool, len(f.Templates))
	for _, t := range f.Templates {
		id := strings.TrimSpace(t.ID)
		if id == "" {
			return nil, fmt.Errorf("plantilla %q sin id", t.Name)
		}
		if seen[id] {
			return nil, fmt.Errorf("plantilla duplicada %q", id)
		}
		seen[id] = true

		tpl := &entity.ProductTemplate{
			ID:      id,
			Name:    strings.TrimSpace(t.Name),
			Unit:    strings.TrimSpace(t.Unit),
			Formula: strings.TrimSpace(t.Formula),
		}
		for i, a := range t.Attributes {
			tpl.Attributes = append(tpl.Attributes, entity.TemplateAttribute{
				ID:          id + ":" + a.Variable,
				TemplateID:  id,
				Variable:    a.Variable,
				DisplayName: a.DisplayName,
				FullName:    a.FullName,
				Type:        a.Type,
				IsRequired:  a.IsRequired,
				IsInFormula: a.IsInFormula,
				Options:     a.Options,
				SortOrder:   i,
			})
		}
		if err := tpl.Validate(); err != nil {
			return nil, fmt.Errorf("plantilla %q: %w", id, err)
		}
		out = append(out, tpl)
	}
	return out, nil
}

// Load abre path y lo lee con Read.
func Load(path, charset string) ([]*entity.ProductTemplate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("abrir catálogo: %w", err)
	}
	defer f.Close()
	return Read(f, charset)
}
