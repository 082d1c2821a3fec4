// Package memory implementa los repositorios y el TxRunner sobre mapas en memoria, con
// bloqueo por fila y escrituras diferidas hasta el commit. Sirve para desarrollo y tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store estado compartido. mu protege los mapas; los bloqueos de fila viven aparte para que
// una transacción pueda esperar una fila sin retener mu.
type Store struct {
	mu          sync.RWMutex
	templates   map[string]*entity.ProductTemplate
	lots        map[string]*entity.InventoryLot
	sales       map[string]*entity.Sale
	saleNumbers map[string]string // número -> id
	movements   []*entity.LotMovement

	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		templates:   make(map[string]*entity.ProductTemplate),
		lots:        make(map[string]*entity.InventoryLot),
		sales:       make(map[string]*entity.Sale),
		saleNumbers: make(map[string]string),
		locks:       make(map[string]chan struct{}),
	}
}

// SeedTemplates carga plantillas (el catálogo es externo; aquí se precarga).
func (s *Store) SeedTemplates(tpls ...*entity.ProductTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tpls {
		if err := t.Validate(); err != nil {
			return err
		}
		cp := *t
		cp.Attributes = append([]entity.TemplateAttribute(nil), t.Attributes...)
		s.templates[t.ID] = &cp
	}
	return nil
}

// Templates repositorio de plantillas.
func (s *Store) Templates() repository.TemplateRepository { return templateRepo{s: s} }

// Lots repositorio de lotes fuera de transacción (cada escritura confirma de inmediato).
func (s *Store) Lots() repository.LotRepository { return &lotRepo{s: s} }

// Sales repositorio de ventas fuera de transacción.
func (s *Store) Sales() repository.SaleRepository { return &saleRepo{s: s} }

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() repository.LotMovementRepository { return &movementRepo{s: s} }

// Run ejecuta fn en una transacción: las escrituras se aplican sólo si fn no devuelve error,
// y los bloqueos de fila se liberan al terminar.
func (s *Store) Run(ctx context.Context, fn func(
	lotRepo repository.LotRepository,
	saleRepo repository.SaleRepository,
	movRepo repository.LotMovementRepository,
) error) error {
	t := newTx(s)
	defer t.release()
	if err := fn(&lotRepo{s: s, tx: t}, &saleRepo{s: s, tx: t}, &movementRepo{s: s, tx: t}); err != nil {
		return err
	}
	return t.commit()
}

func (s *Store) rowLock(key string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[key] = l
	}
	return l
}

type templateRepo struct{ s *Store }

func (r templateRepo) GetByID(_ context.Context, id string) (*entity.ProductTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.templates[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	cp.Attributes = append([]entity.TemplateAttribute(nil), t.Attributes...)
	return &cp, nil
}

// tx escrituras pendientes y filas bloqueadas de una transacción.
type tx struct {
	s            *Store
	held         map[string]chan struct{}
	lots         map[string]*entity.InventoryLot
	newLots      map[string]bool
	sales        map[string]*entity.Sale
	newSales     map[string]bool
	deletedSales map[string]bool
	movements    []*entity.LotMovement
}

func newTx(s *Store) *tx {
	return &tx{
		s:            s,
		held:         make(map[string]chan struct{}),
		lots:         make(map[string]*entity.InventoryLot),
		newLots:      make(map[string]bool),
		sales:        make(map[string]*entity.Sale),
		newSales:     make(map[string]bool),
		deletedSales: make(map[string]bool),
	}
}

// lock espera la fila key hasta obtenerla o hasta que ctx termine. Reentrante dentro de la tx.
func (t *tx) lock(ctx context.Context, key string) (acquired bool, err error) {
	if _, ok := t.held[key]; ok {
		return false, nil
	}
	l := t.s.rowLock(key)
	select {
	case l <- struct{}{}:
		t.held[key] = l
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (t *tx) unlock(key string) {
	if l, ok := t.held[key]; ok {
		delete(t.held, key)
		<-l
	}
}

func (t *tx) release() {
	for key := range t.held {
		t.unlock(key)
	}
}

func (t *tx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for id := range t.newSales {
		if t.deletedSales[id] {
			continue
		}
		number := t.sales[id].Number
		if other, ok := t.s.saleNumbers[number]; ok && other != id {
			return domain.ErrDuplicate
		}
	}
	for id := range t.newLots {
		if _, ok := t.s.lots[id]; ok {
			return domain.ErrDuplicate
		}
	}

	for id, l := range t.lots {
		t.s.lots[id] = l
	}
	for id, sale := range t.sales {
		if prev, ok := t.s.sales[id]; ok && prev.Number != sale.Number {
			delete(t.s.saleNumbers, prev.Number)
		}
		t.s.sales[id] = sale
		t.s.saleNumbers[sale.Number] = id
	}
	for id := range t.deletedSales {
		if prev, ok := t.s.sales[id]; ok {
			delete(t.s.saleNumbers, prev.Number)
			delete(t.s.sales, id)
		}
	}
	t.s.movements = append(t.s.movements, t.movements...)
	return nil
}

// sortedLots lotes confirmados, en orden de creación.
func (s *Store) sortedLots() []*entity.InventoryLot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.InventoryLot, 0, len(s.lots))
	for _, l := range s.lots {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
