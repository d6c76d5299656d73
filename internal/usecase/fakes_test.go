package usecase

import (
	"context"
	"sort"
	"sync"

	"LeitnerBot/internal/domain"
	"LeitnerBot/internal/ports"
)

// memLedger is an in-memory BoxLedger with the same semantics as the Postgres
// adapter: idempotent adds, bounded promote, sentinel 0 on missing items.
type memLedger struct {
	mu    sync.Mutex
	seq   int64
	items []*domain.Item

	addErr     error
	listErr    error
	statsErr   error
	moveErr    error
	deleteErr  error
	targetsErr error
}

var _ ports.BoxLedger = (*memLedger)(nil)

func newMemLedger() *memLedger {
	return &memLedger{}
}

func (m *memLedger) Add(ctx context.Context, owner, location, itemID int64) error {
	if m.addErr != nil {
		return m.addErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.find(owner, itemID) != nil {
		return nil
	}

	m.seq++
	m.items = append(m.items, &domain.Item{
		Owner:    owner,
		ID:       itemID,
		Location: location,
		Box:      domain.MinBox,
		Seq:      m.seq,
	})
	return nil
}

func (m *memLedger) Stats(ctx context.Context, owner int64) (domain.BoxStats, error) {
	if m.statsErr != nil {
		return domain.BoxStats{}, m.statsErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stats := domain.BoxStats{PerBox: make(map[int]int, domain.MaxBox)}
	for box := domain.MinBox; box <= domain.MaxBox; box++ {
		stats.PerBox[box] = 0
	}
	for _, it := range m.items {
		if it.Owner == owner {
			stats.PerBox[it.Box]++
			stats.Total++
		}
	}
	return stats, nil
}

func (m *memLedger) Promote(ctx context.Context, owner, itemID int64) (int, error) {
	if m.moveErr != nil {
		return 0, m.moveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	it := m.find(owner, itemID)
	if it == nil {
		return 0, nil
	}
	if it.Box < domain.MaxBox {
		it.Box++
	}
	return it.Box, nil
}

func (m *memLedger) Reset(ctx context.Context, owner, itemID int64) (int, error) {
	if m.moveErr != nil {
		return 0, m.moveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	it := m.find(owner, itemID)
	if it == nil {
		return 0, nil
	}
	it.Box = domain.MinBox
	return it.Box, nil
}

func (m *memLedger) Delete(ctx context.Context, owner, itemID int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, it := range m.items {
		if it.Owner == owner && it.ID == itemID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memLedger) ListByBox(ctx context.Context, owner int64, box int) ([]domain.Item, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Item
	for _, it := range m.items {
		if it.Owner == owner && it.Box == box {
			out = append(out, *it)
		}
	}
	sortBySeq(out)
	return out, nil
}

func (m *memLedger) ListAll(ctx context.Context, owner int64) ([]domain.Item, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Item
	for _, it := range m.items {
		if it.Owner == owner {
			out = append(out, *it)
		}
	}
	sortBySeq(out)
	return out, nil
}

func (m *memLedger) ReviewTargets(ctx context.Context) ([]domain.ReviewTarget, error) {
	if m.targetsErr != nil {
		return nil, m.targetsErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	latest := make(map[int64]*domain.Item)
	var order []int64
	for _, it := range m.items {
		prev, seen := latest[it.Owner]
		if !seen {
			order = append(order, it.Owner)
		}
		if !seen || it.Seq > prev.Seq {
			latest[it.Owner] = it
		}
	}

	var targets []domain.ReviewTarget
	for _, owner := range order {
		targets = append(targets, domain.ReviewTarget{
			Owner:    owner,
			Location: latest[owner].Location,
		})
	}
	return targets, nil
}

func (m *memLedger) find(owner, itemID int64) *domain.Item {
	for _, it := range m.items {
		if it.Owner == owner && it.ID == itemID {
			return it
		}
	}
	return nil
}

func sortBySeq(items []domain.Item) {
	sort.Slice(items, func(i, j int) bool { return items[i].Seq < items[j].Seq })
}

// memSettings is an in-memory SettingsStore that records default-write
// initializations.
type memSettings struct {
	mu     sync.Mutex
	values map[[2]interface{}]string
	inits  int

	getErr error
	setErr error
}

var _ ports.SettingsStore = (*memSettings)(nil)

func newMemSettings() *memSettings {
	return &memSettings{values: make(map[[2]interface{}]string)}
}

func (m *memSettings) GetOrInit(ctx context.Context, owner int64, key, def string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := [2]interface{}{owner, key}
	if v, ok := m.values[k]; ok {
		return v, nil
	}
	m.values[k] = def
	m.inits++
	return def, nil
}

func (m *memSettings) Set(ctx context.Context, owner int64, key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[[2]interface{}{owner, key}] = value
	return nil
}

// sentDelivery records outbound calls and can fail selected items.
type sentDelivery struct {
	mu       sync.Mutex
	copies   []sentMessage
	forwards []sentMessage

	failItems map[int64]error // item id -> error returned by SendCopy/Forward
}

type sentMessage struct {
	Dest     int64
	Item     domain.Item
	Controls []ports.Control
}

var _ ports.DeliveryChannel = (*sentDelivery)(nil)

func newSentDelivery() *sentDelivery {
	return &sentDelivery{failItems: make(map[int64]error)}
}

func (d *sentDelivery) SendCopy(ctx context.Context, dest int64, source domain.Item, controls []ports.Control) error {
	if err := d.failItems[source.ID]; err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.copies = append(d.copies, sentMessage{Dest: dest, Item: source, Controls: controls})
	return nil
}

func (d *sentDelivery) Forward(ctx context.Context, dest int64, source domain.Item) error {
	if err := d.failItems[source.ID]; err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.forwards = append(d.forwards, sentMessage{Dest: dest, Item: source})
	return nil
}

func (d *sentDelivery) EditPresentation(ctx context.Context, ref ports.MessageRef, text string, controls []ports.Control) error {
	return nil
}

func (d *sentDelivery) RemovePresentation(ctx context.Context, ref ports.MessageRef) error {
	return nil
}

// seed populates the ledger and forces specific boxes.
func seed(l *memLedger, owner, location int64, boxesByID map[int64]int) {
	ids := make([]int64, 0, len(boxesByID))
	for id := range boxesByID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		_ = l.Add(context.Background(), owner, location, id)
		l.mu.Lock()
		l.find(owner, id).Box = boxesByID[id]
		l.mu.Unlock()
	}
}
