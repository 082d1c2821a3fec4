package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

func lotKey(id string) string  { return "lot:" + id }
func saleKey(id string) string { return "sale:" + id }

// lotRepo con tx == nil confirma cada escritura al momento.
type lotRepo struct {
	s  *Store
	tx *tx
}

func (r *lotRepo) read(id string) *entity.InventoryLot {
	if r.tx != nil {
		if l, ok := r.tx.lots[id]; ok {
			return l.Clone()
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.lots[id].Clone()
}

func (r *lotRepo) Create(_ context.Context, lot *entity.InventoryLot) error {
	if r.tx != nil {
		if r.read(lot.ID) != nil {
			return domain.ErrDuplicate
		}
		r.tx.lots[lot.ID] = lot.Clone()
		r.tx.newLots[lot.ID] = true
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.lots[lot.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.lots[lot.ID] = lot.Clone()
	return nil
}

func (r *lotRepo) Update(_ context.Context, lot *entity.InventoryLot) error {
	if r.read(lot.ID) == nil {
		return domain.ErrNotFound
	}
	if r.tx != nil {
		r.tx.lots[lot.ID] = lot.Clone()
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.lots[lot.ID] = lot.Clone()
	return nil
}

func (r *lotRepo) GetByID(_ context.Context, id string) (*entity.InventoryLot, error) {
	return r.read(id), nil
}

func (r *lotRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryLot, error) {
	if r.tx == nil {
		return r.read(id), nil
	}
	if _, err := r.tx.lock(ctx, lotKey(id)); err != nil {
		return nil, err
	}
	return r.read(id), nil
}

func (r *lotRepo) FindAvailableForUpdate(ctx context.Context, key entity.LotKey, qty decimal.Decimal) (*entity.InventoryLot, error) {
	eligible := func(l *entity.InventoryLot) bool {
		return l != nil && key.Matches(l) && l.Status == entity.LotStatusInStock && l.IsActive &&
			l.AvailableQuantity().GreaterThanOrEqual(qty)
	}
	for _, candidate := range r.s.sortedLots() {
		if !eligible(candidate) {
			continue
		}
		if r.tx == nil {
			return candidate.Clone(), nil
		}
		acquired, err := r.tx.lock(ctx, lotKey(candidate.ID))
		if err != nil {
			return nil, err
		}
		// Releer bajo bloqueo: otra transacción pudo vender mientras esperábamos.
		if l := r.read(candidate.ID); eligible(l) {
			return l, nil
		}
		if acquired {
			r.tx.unlock(lotKey(candidate.ID))
		}
	}
	return nil, nil
}

type saleRepo struct {
	s  *Store
	tx *tx
}

func (r *saleRepo) read(id string) *entity.Sale {
	if r.tx != nil {
		if r.tx.deletedSales[id] {
			return nil
		}
		if sale, ok := r.tx.sales[id]; ok {
			return sale.Clone()
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.sales[id].Clone()
}

func (r *saleRepo) numberTaken(number, id string) bool {
	if r.tx != nil {
		for sid, sale := range r.tx.sales {
			if sid != id && sale.Number == number && !r.tx.deletedSales[sid] {
				return true
			}
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	other, ok := r.s.saleNumbers[number]
	return ok && other != id
}

func (r *saleRepo) Create(_ context.Context, sale *entity.Sale) error {
	if r.numberTaken(sale.Number, sale.ID) || r.read(sale.ID) != nil {
		return domain.ErrDuplicate
	}
	if r.tx != nil {
		r.tx.sales[sale.ID] = sale.Clone()
		r.tx.newSales[sale.ID] = true
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sales[sale.ID] = sale.Clone()
	r.s.saleNumbers[sale.Number] = sale.ID
	return nil
}

func (r *saleRepo) Update(_ context.Context, sale *entity.Sale) error {
	if r.read(sale.ID) == nil {
		return domain.ErrNotFound
	}
	if r.tx != nil {
		r.tx.sales[sale.ID] = sale.Clone()
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sales[sale.ID] = sale.Clone()
	return nil
}

func (r *saleRepo) Delete(_ context.Context, id string) error {
	if r.read(id) == nil {
		return domain.ErrNotFound
	}
	if r.tx != nil {
		r.tx.deletedSales[id] = true
		delete(r.tx.sales, id)
		delete(r.tx.newSales, id)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if prev, ok := r.s.sales[id]; ok {
		delete(r.s.saleNumbers, prev.Number)
	}
	delete(r.s.sales, id)
	return nil
}

func (r *saleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	return r.read(id), nil
}

func (r *saleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	if r.tx != nil {
		if _, err := r.tx.lock(ctx, saleKey(id)); err != nil {
			return nil, err
		}
	}
	return r.read(id), nil
}

type movementRepo struct {
	s  *Store
	tx *tx
}

func (r *movementRepo) Create(_ context.Context, m *entity.LotMovement) error {
	cp := *m
	if r.tx != nil {
		r.tx.movements = append(r.tx.movements, &cp)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.movements = append(r.s.movements, &cp)
	return nil
}

// ListByLot más recientes primero.
func (r *movementRepo) ListByLot(_ context.Context, lotID string, limit, offset int) ([]*entity.LotMovement, error) {
	r.s.mu.RLock()
	var list []*entity.LotMovement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		if m := r.s.movements[i]; m.LotID == lotID {
			cp := *m
			list = append(list, &cp)
		}
	}
	r.s.mu.RUnlock()

	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if offset >= len(list) {
		return []*entity.LotMovement{}, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}
