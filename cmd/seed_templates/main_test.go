package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-lotes/internal/infrastructure/catalog"
)

func TestWriteSeed(t *testing.T) {
	tpls, err := catalog.Read(strings.NewReader(`{"templates": [
		{"id": "tpl-board", "name": "O'Brien board", "unit": "m3", "formula": "length * quantity",
		 "attributes": [
			{"variable": "length", "type": "number", "is_required": true, "is_in_formula": true},
			{"variable": "species", "type": "select", "options": [{"index": 0, "label": "pine"}]}
		 ]},
		{"id": "tpl-misc", "name": "Misc"}
	]}`), "")
	require.NoError(t, err)

	var b strings.Builder
	attrs, err := writeSeed(&b, tpls)
	require.NoError(t, err)
	assert.Equal(t, 2, attrs)

	sql := b.String()
	assert.True(t, strings.HasPrefix(sql, "-- Plantillas de producto"))
	assert.Contains(t, sql, "'O''Brien board'", "las comillas se escapan")
	assert.Contains(t, sql, "('tpl-board:length', 'tpl-board', 'length', '', '', 'number', true, true, '[]'::jsonb, 0),")
	assert.Contains(t, sql, `'[{"index":0,"label":"pine"}]'::jsonb, 1);`)
	assert.Contains(t, sql, "DELETE FROM template_attributes WHERE template_id = 'tpl-misc';")
	assert.True(t, strings.HasSuffix(sql, "COMMIT;\n"))
}
