package entity

import (
	"fmt"
	"strings"

	"github.com/jhoicas/inventario-lotes/internal/domain"
)

const lotKeySep = "|"

// LotKey identifica los lotes elegibles para una venta: plantilla, bodega, productor y nombre.
type LotKey struct {
	TemplateID  string
	WarehouseID string
	ProducerID  *string
	Name        string
}

// String forma "plantilla|bodega|productor|nombre"; productor vacío si no hay.
func (k LotKey) String() string {
	producer := ""
	if k.ProducerID != nil {
		producer = *k.ProducerID
	}
	return strings.Join([]string{k.TemplateID, k.WarehouseID, producer, k.Name}, lotKeySep)
}

// ParseLotKey interpreta la clave compuesta. El nombre puede contener '|'.
func ParseLotKey(s string) (LotKey, error) {
	parts := strings.SplitN(s, lotKeySep, 4)
	if len(parts) != 4 {
		return LotKey{}, fmt.Errorf("%w: clave de lote mal formada %q", domain.ErrInvalidInput, s)
	}
	k := LotKey{
		TemplateID:  strings.TrimSpace(parts[0]),
		WarehouseID: strings.TrimSpace(parts[1]),
		Name:        strings.TrimSpace(parts[3]),
	}
	if p := strings.TrimSpace(parts[2]); p != "" {
		k.ProducerID = &p
	}
	if k.TemplateID == "" || k.WarehouseID == "" || k.Name == "" {
		return LotKey{}, fmt.Errorf("%w: clave de lote incompleta %q", domain.ErrInvalidInput, s)
	}
	return k, nil
}

// Matches indica si el lote pertenece a la clave.
func (k LotKey) Matches(l *InventoryLot) bool {
	if l.TemplateID != k.TemplateID || l.WarehouseID != k.WarehouseID || l.Name != k.Name {
		return false
	}
	if (k.ProducerID == nil) != (l.ProducerID == nil) {
		return false
	}
	return k.ProducerID == nil || *k.ProducerID == *l.ProducerID
}
