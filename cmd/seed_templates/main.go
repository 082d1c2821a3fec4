// seed_templates genera un script SQL para poblar product_templates y template_attributes
// a partir del catálogo JSON exportado por el sistema externo.
//
// Uso: go run ./cmd/seed_templates [-charset windows-1251] [-out ruta.sql] [catalog.json]
// Por defecto busca catalog.json en el directorio actual y escribe
// internal/infrastructure/postgres/seeds/templates.sql.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/catalog"
)

func main() {
	charset := flag.String("charset", catalog.CharsetUTF8, "codificación del catálogo (utf-8, windows-1251, iso-8859-1)")
	outFlag := flag.String("out", "", "archivo SQL de salida")
	flag.Parse()

	catalogPath := "catalog.json"
	if flag.NArg() > 0 {
		catalogPath = flag.Arg(0)
	}
	tpls, err := catalog.Load(catalogPath, *charset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}

	outPath := *outFlag
	if outPath == "" {
		outPath = filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "seeds", "templates.sql")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Crear directorio: %v\n", err)
		os.Exit(1)
	}
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	attrs, err := writeSeed(out, tpls)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d plantillas, %d atributos\n", outPath, len(tpls), attrs)
}

// writeSeed escribe el SQL idempotente de las plantillas y devuelve cuántos atributos escribió.
func writeSeed(w io.Writer, tpls []*entity.ProductTemplate) (int, error) {
	var b strings.Builder
	b.WriteString("-- Plantillas de producto\n")
	b.WriteString("-- Generado por cmd/seed_templates\n\n")
	b.WriteString("BEGIN;\n\n")

	attrs := 0
	for _, t := range tpls {
		fmt.Fprintf(&b, "-- %s\n", t.Name)
		fmt.Fprintf(&b, "INSERT INTO product_templates (id, name, unit, formula) VALUES ('%s', '%s', '%s', '%s')\n",
			escapeSQL(t.ID), escapeSQL(t.Name), escapeSQL(t.Unit), escapeSQL(t.Formula))
		b.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, unit = EXCLUDED.unit, formula = EXCLUDED.formula, updated_at = now();\n")
		fmt.Fprintf(&b, "DELETE FROM template_attributes WHERE template_id = '%s';\n", escapeSQL(t.ID))
		if len(t.Attributes) == 0 {
			b.WriteString("\n")
			continue
		}

		b.WriteString("INSERT INTO template_attributes (id, template_id, variable, display_name, full_name, type, is_required, is_in_formula, options, sort_order) VALUES\n")
		for i, a := range t.Attributes {
			options := a.Options
			if options == nil {
				options = []entity.SelectOption{}
			}
			raw, err := json.Marshal(options)
			if err != nil {
				return 0, fmt.Errorf("opciones de %s.%s: %w", t.ID, a.Variable, err)
			}
			sep := ","
			if i == len(t.Attributes)-1 {
				sep = ";"
			}
			fmt.Fprintf(&b, "  ('%s', '%s', '%s', '%s', '%s', '%s', %t, %t, '%s'::jsonb, %d)%s\n",
				escapeSQL(a.ID), escapeSQL(t.ID), escapeSQL(a.Variable), escapeSQL(a.DisplayName), escapeSQL(a.FullName),
				a.Type, a.IsRequired, a.IsInFormula, escapeSQL(string(raw)), a.SortOrder, sep)
			attrs++
		}
		b.WriteString("\n")
	}
	b.WriteString("COMMIT;\n")

	_, err := io.WriteString(w, b.String())
	return attrs, err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
