package application

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kitchenops/inventory-ledger/internal/domain"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/tenant"
)

// memStore holds every collection the ledger touches. fakeTx snapshots it before fn runs
// and restores the snapshot when fn fails, so tests observe rollback the way MongoDB
// transactions behave.
type memStore struct {
	lots       map[string]*domain.InventoryLot
	deliveries map[string]*domain.Delivery
	batches    map[string]*domain.RecipeBatch
	recalls    map[string]*domain.Recall
	events     []domain.DomainEvent

	lineWrites int

	incrementErr error
	saveBatchErr error
	recordErr    error
}

func newMemStore() *memStore {
	return &memStore{
		lots:       make(map[string]*domain.InventoryLot),
		deliveries: make(map[string]*domain.Delivery),
		batches:    make(map[string]*domain.RecipeBatch),
		recalls:    make(map[string]*domain.Recall),
	}
}

func copyLot(l *domain.InventoryLot) *domain.InventoryLot {
	c := *l
	return &c
}

func copyDelivery(d *domain.Delivery) *domain.Delivery {
	c := *d
	c.Lines = append([]domain.DeliveryLine(nil), d.Lines...)
	return &c
}

func copyBatch(b *domain.RecipeBatch) *domain.RecipeBatch {
	c := *b
	c.Ingredients = append([]domain.ConsumptionItem(nil), b.Ingredients...)
	return &c
}

func copyRecall(r *domain.Recall) *domain.Recall {
	c := *r
	return &c
}

func (s *memStore) snapshot() *memStore {
	snap := newMemStore()
	for k, v := range s.lots {
		snap.lots[k] = copyLot(v)
	}
	for k, v := range s.deliveries {
		snap.deliveries[k] = copyDelivery(v)
	}
	for k, v := range s.batches {
		snap.batches[k] = copyBatch(v)
	}
	for k, v := range s.recalls {
		snap.recalls[k] = copyRecall(v)
	}
	snap.events = append([]domain.DomainEvent(nil), s.events...)
	snap.lineWrites = s.lineWrites
	return snap
}

func (s *memStore) restore(snap *memStore) {
	s.lots = snap.lots
	s.deliveries = snap.deliveries
	s.batches = snap.batches
	s.recalls = snap.recalls
	s.events = snap.events
	s.lineWrites = snap.lineWrites
}

func visible(ctx context.Context, tenantID string) bool {
	return tenantID == tenant.GetTenantID(ctx)
}

type fakeTx struct {
	store     *memStore
	commits   int
	rollbacks int
}

func (f *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := f.store.snapshot()
	if err := fn(ctx); err != nil {
		f.store.restore(snap)
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

type fakeLotRepo struct{ store *memStore }

func (r *fakeLotRepo) Save(ctx context.Context, lot *domain.InventoryLot) error {
	r.store.lots[lot.ID] = copyLot(lot)
	return nil
}

func (r *fakeLotRepo) FindByID(ctx context.Context, id string) (*domain.InventoryLot, error) {
	lot, ok := r.store.lots[id]
	if !ok || !visible(ctx, lot.TenantID) {
		return nil, nil
	}
	return copyLot(lot), nil
}

func (r *fakeLotRepo) FindByIDs(ctx context.Context, ids []string) ([]*domain.InventoryLot, error) {
	out := make([]*domain.InventoryLot, 0, len(ids))
	for _, id := range ids {
		if lot, ok := r.store.lots[id]; ok && visible(ctx, lot.TenantID) {
			out = append(out, copyLot(lot))
		}
	}
	return out, nil
}

func (r *fakeLotRepo) FindLatestByLotNumber(ctx context.Context, lotNumber string) (*domain.InventoryLot, error) {
	var latest *domain.InventoryLot
	for _, lot := range r.store.lots {
		if lot.LotNumber != lotNumber || !visible(ctx, lot.TenantID) {
			continue
		}
		if latest == nil || lot.CreatedAt.After(latest.CreatedAt) ||
			(lot.CreatedAt.Equal(latest.CreatedAt) && lot.ID > latest.ID) {
			latest = lot
		}
	}
	if latest == nil {
		return nil, nil
	}
	return copyLot(latest), nil
}

func (r *fakeLotRepo) FindAll(ctx context.Context, filter domain.LotFilter) ([]*domain.InventoryLot, error) {
	out := make([]*domain.InventoryLot, 0)
	for _, lot := range r.store.lots {
		if !visible(ctx, lot.TenantID) {
			continue
		}
		if filter.LotNumber != "" && lot.LotNumber != filter.LotNumber {
			continue
		}
		if filter.ProductName != "" && lot.ProductName != filter.ProductName {
			continue
		}
		if filter.Status != "" && lot.Status != filter.Status {
			continue
		}
		if filter.ReceptionID != "" && lot.ReceptionID != filter.ReceptionID {
			continue
		}
		out = append(out, copyLot(lot))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeLotRepo) Delete(ctx context.Context, id string) error {
	delete(r.store.lots, id)
	return nil
}

func (r *fakeLotRepo) IncrementRemaining(ctx context.Context, id string, delta float64) (*domain.InventoryLot, error) {
	if r.store.incrementErr != nil {
		return nil, r.store.incrementErr
	}
	lot, ok := r.store.lots[id]
	if !ok || !visible(ctx, lot.TenantID) {
		return nil, nil
	}
	lot.QtyRemaining += delta
	return copyLot(lot), nil
}

func (r *fakeLotRepo) SetRemaining(ctx context.Context, id string, qty float64) error {
	if lot, ok := r.store.lots[id]; ok {
		lot.QtyRemaining = qty
	}
	return nil
}

func (r *fakeLotRepo) SetStatus(ctx context.Context, id string, status domain.LotStatus) error {
	if lot, ok := r.store.lots[id]; ok {
		lot.Status = status
	}
	return nil
}

type fakeDeliveryRepo struct{ store *memStore }

func (r *fakeDeliveryRepo) Save(ctx context.Context, d *domain.Delivery) error {
	r.store.deliveries[d.ID] = copyDelivery(d)
	return nil
}

func (r *fakeDeliveryRepo) FindByID(ctx context.Context, id string) (*domain.Delivery, error) {
	d, ok := r.store.deliveries[id]
	if !ok || !visible(ctx, d.TenantID) {
		return nil, nil
	}
	return copyDelivery(d), nil
}

func (r *fakeDeliveryRepo) FindAll(ctx context.Context, opts domain.ListOptions) ([]*domain.Delivery, error) {
	out := make([]*domain.Delivery, 0)
	for _, d := range r.store.deliveries {
		if visible(ctx, d.TenantID) {
			out = append(out, copyDelivery(d))
		}
	}
	return out, nil
}

// SetLineRemaining matches lines the way the Mongo filter does: by id, or by content for
// lines stored without one.
func (r *fakeDeliveryRepo) SetLineRemaining(ctx context.Context, deliveryID string, index int, line domain.DeliveryLine, qty float64) (bool, error) {
	d, ok := r.store.deliveries[deliveryID]
	if !ok || !visible(ctx, d.TenantID) || index >= len(d.Lines) {
		return false, nil
	}
	stored := d.Lines[index]
	if line.ID != "" && stored.ID != line.ID {
		return false, nil
	}
	if line.ID == "" && (stored.ID != "" || stored.LotNumber != line.LotNumber ||
		stored.ProductName != line.ProductName || stored.Unit != line.Unit) {
		return false, nil
	}
	d.Lines[index].QtyRemaining = qty
	r.store.lineWrites++
	return true, nil
}

type fakeBatchRepo struct{ store *memStore }

func (r *fakeBatchRepo) Save(ctx context.Context, b *domain.RecipeBatch) error {
	if r.store.saveBatchErr != nil {
		return r.store.saveBatchErr
	}
	r.store.batches[b.ID] = copyBatch(b)
	return nil
}

func (r *fakeBatchRepo) Update(ctx context.Context, b *domain.RecipeBatch) error {
	return r.Save(ctx, b)
}

func (r *fakeBatchRepo) FindByID(ctx context.Context, id string) (*domain.RecipeBatch, error) {
	b, ok := r.store.batches[id]
	if !ok || !visible(ctx, b.TenantID) {
		return nil, nil
	}
	return copyBatch(b), nil
}

func (r *fakeBatchRepo) FindAll(ctx context.Context, opts domain.ListOptions) ([]*domain.RecipeBatch, error) {
	out := make([]*domain.RecipeBatch, 0)
	for _, b := range r.store.batches {
		if visible(ctx, b.TenantID) {
			out = append(out, copyBatch(b))
		}
	}
	return out, nil
}

func (r *fakeBatchRepo) Delete(ctx context.Context, id string) error {
	delete(r.store.batches, id)
	return nil
}

type fakeRecallRepo struct{ store *memStore }

func (r *fakeRecallRepo) Save(ctx context.Context, rc *domain.Recall) error {
	r.store.recalls[rc.ID] = copyRecall(rc)
	return nil
}

func (r *fakeRecallRepo) Update(ctx context.Context, rc *domain.Recall) error {
	return r.Save(ctx, rc)
}

func (r *fakeRecallRepo) FindByID(ctx context.Context, id string) (*domain.Recall, error) {
	rc, ok := r.store.recalls[id]
	if !ok || !visible(ctx, rc.TenantID) {
		return nil, nil
	}
	return copyRecall(rc), nil
}

func (r *fakeRecallRepo) FindAll(ctx context.Context, opts domain.ListOptions) ([]*domain.Recall, error) {
	out := make([]*domain.Recall, 0)
	for _, rc := range r.store.recalls {
		if visible(ctx, rc.TenantID) {
			out = append(out, copyRecall(rc))
		}
	}
	return out, nil
}

func (r *fakeRecallRepo) Delete(ctx context.Context, id string) error {
	delete(r.store.recalls, id)
	return nil
}

type fakeRecorder struct{ store *memStore }

func (r *fakeRecorder) Record(ctx context.Context, events ...domain.DomainEvent) error {
	if r.store.recordErr != nil {
		return r.store.recordErr
	}
	r.store.events = append(r.store.events, events...)
	return nil
}

const (
	testTenant     = "tenant-1"
	testRestaurant = "resto-1"
)

type harness struct {
	store      *memStore
	tx         *fakeTx
	lotRepo    *fakeLotRepo
	engine     *AdjustmentEngine
	batches    *RecipeBatchService
	recalls    *RecallService
	lots       *LotService
	deliveries *DeliveryService
	ctx        context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := logging.NewNop()
	store := newMemStore()
	tx := &fakeTx{store: store}
	lotRepo := &fakeLotRepo{store: store}
	deliveryRepo := &fakeDeliveryRepo{store: store}
	recorder := &fakeRecorder{store: store}

	syncer := NewDeliveryLineSynchronizer(deliveryRepo, nil, logger)
	engine := NewAdjustmentEngine(lotRepo, syncer, recorder, nil, logger)

	return &harness{
		store:      store,
		tx:         tx,
		lotRepo:    lotRepo,
		engine:     engine,
		batches:    NewRecipeBatchService(tx, &fakeBatchRepo{store: store}, engine, logger),
		recalls:    NewRecallService(tx, &fakeRecallRepo{store: store}, engine, logger),
		lots:       NewLotService(tx, lotRepo, recorder, logger),
		deliveries: NewDeliveryService(tx, deliveryRepo, lotRepo, recorder, logger),
		ctx:        tenantContext(testTenant),
	}
}

func tenantContext(tenantID string) context.Context {
	return tenant.ToContext(context.Background(), &tenant.Context{
		TenantID:     tenantID,
		RestaurantID: testRestaurant,
		ActorID:      "chef-1",
	})
}

// seedLot stores a lot directly, bypassing the services.
func (h *harness) seedLot(t *testing.T, lotNumber string, unit domain.Unit, received, remaining float64) *domain.InventoryLot {
	t.Helper()
	lot, err := domain.NewInventoryLot(testTenant, testRestaurant, domain.NewLotParams{
		ProductName: "product-" + lotNumber,
		LotNumber:   lotNumber,
		Unit:        unit,
		QtyReceived: received,
	})
	require.NoError(t, err)
	lot.QtyRemaining = remaining
	lot.Status = domain.DeriveStatus(lot.Status, remaining)
	h.store.lots[lot.ID] = copyLot(lot)
	return lot
}

func (h *harness) lot(t *testing.T, id string) *domain.InventoryLot {
	t.Helper()
	lot, ok := h.store.lots[id]
	require.True(t, ok, "lot %s not stored", id)
	return lot
}

func (h *harness) eventsOfType(eventType string) []domain.DomainEvent {
	out := make([]domain.DomainEvent, 0)
	for _, e := range h.store.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

func backdate(lot *domain.InventoryLot, d time.Duration) {
	lot.CreatedAt = lot.CreatedAt.Add(-d)
}
