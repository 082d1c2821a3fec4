package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// Flujo de recepción:
//
//	ordered -> in_transit -> for_receipt -> in_stock
//	in_transit -> in_stock
//	cualquier estado no terminal -> cancelled
//
// Las correcciones cambian CorrectionStatus, no Status.

func stateErr(lot *entity.InventoryLot, op string) error {
	return fmt.Errorf("%w: %s no permitido para el lote %s (estado %s, corrección %s)",
		domain.ErrInvalidState, op, lot.ID, lot.Status, lot.CorrectionStatus)
}

func requireActive(lot *entity.InventoryLot, op string) error {
	if !lot.IsActive {
		return fmt.Errorf("%w: %s sobre un lote inactivo (%s)", domain.ErrInvalidState, op, lot.ID)
	}
	return nil
}

func isPendingReceipt(lot *entity.InventoryLot) bool {
	return lot.Status == entity.LotStatusInTransit || lot.Status == entity.LotStatusForReceipt
}

// Ship marca el lote pedido como en tránsito.
func Ship(lot *entity.InventoryLot, now time.Time) error {
	if err := requireActive(lot, "despachar"); err != nil {
		return err
	}
	if lot.Status != entity.LotStatusOrdered {
		return stateErr(lot, "despachar")
	}
	lot.Status = entity.LotStatusInTransit
	if lot.ShippingDate == nil {
		lot.ShippingDate = &now
	}
	return nil
}

// MarkArrived marca el lote en tránsito como llegado, pendiente de recibir.
func MarkArrived(lot *entity.InventoryLot) error {
	if err := requireActive(lot, "marcar llegada"); err != nil {
		return err
	}
	if lot.Status != entity.LotStatusInTransit {
		return stateErr(lot, "marcar llegada")
	}
	lot.Status = entity.LotStatusForReceipt
	return nil
}

// Receive ingresa el lote a bodega sin corrección.
func Receive(lot *entity.InventoryLot, now time.Time) error {
	if err := requireActive(lot, "recibir"); err != nil {
		return err
	}
	if !isPendingReceipt(lot) {
		return stateErr(lot, "recibir")
	}
	lot.Status = entity.LotStatusInStock
	lot.ActualArrivalDate = &now
	return nil
}

// AddCorrection registra una corrección. Desde in_transit/for_receipt además recibe el lote;
// desde in_stock sólo anota, siempre que no haya otra corrección sin confirmar.
func AddCorrection(lot *entity.InventoryLot, note string, now time.Time) error {
	note = strings.TrimSpace(note)
	if note == "" {
		return fmt.Errorf("%w: la corrección requiere una nota", domain.ErrInvalidInput)
	}
	if err := requireActive(lot, "corregir"); err != nil {
		return err
	}
	switch {
	case isPendingReceipt(lot):
		receiveWithCorrection(lot, note, now)
	case lot.Status == entity.LotStatusInStock && lot.CorrectionStatus != entity.CorrectionStatusCorrection:
		annotateCorrection(lot, note, now)
	default:
		return stateErr(lot, "corregir")
	}
	return nil
}

func receiveWithCorrection(lot *entity.InventoryLot, note string, now time.Time) {
	lot.Status = entity.LotStatusInStock
	annotateCorrection(lot, note, now)
}

func annotateCorrection(lot *entity.InventoryLot, note string, now time.Time) {
	lot.Correction = note
	lot.CorrectionStatus = entity.CorrectionStatusCorrection
	if lot.ActualArrivalDate == nil {
		lot.ActualArrivalDate = &now
	}
}

// ConfirmCorrection confirma la corrección pendiente: correction -> revised.
func ConfirmCorrection(lot *entity.InventoryLot, now time.Time) error {
	if err := requireActive(lot, "confirmar corrección"); err != nil {
		return err
	}
	if lot.Status != entity.LotStatusInStock || lot.CorrectionStatus != entity.CorrectionStatusCorrection {
		return stateErr(lot, "confirmar corrección")
	}
	lot.CorrectionStatus = entity.CorrectionStatusRevised
	lot.RevisedAt = &now
	return nil
}

// Cancel cancela un lote que aún no terminó la recepción.
func Cancel(lot *entity.InventoryLot) error {
	if lot.IsTerminal() {
		return stateErr(lot, "cancelar")
	}
	lot.Status = entity.LotStatusCancelled
	return nil
}

// Deactivate baja lógica: el lote deja de ser elegible para ventas y recepción.
func Deactivate(lot *entity.InventoryLot) {
	lot.IsActive = false
}
