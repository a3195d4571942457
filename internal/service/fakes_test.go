package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/experience-booking/internal/model"
	"github.com/iliyamo/experience-booking/internal/queue"
	"github.com/iliyamo/experience-booking/internal/repository"
)

// memStore mimics the MySQL stores, including the all-or-nothing commit.
type memStore struct {
	mu          sync.Mutex
	experiences map[string]*model.Experience
	promos      map[string]*model.Promo
	bookings    map[string]*model.Booking
	commitErr   error
	listCalls   int
}

func newMemStore() *memStore {
	return &memStore{
		experiences: map[string]*model.Experience{},
		promos:      map[string]*model.Promo{},
		bookings:    map[string]*model.Booking{},
	}
}

func (m *memStore) addExperience(e *model.Experience) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.experiences[e.ID] = e
}

func (m *memStore) addPromo(p *model.Promo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promos[p.Code] = p
}

func (m *memStore) available(id, timeLabel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.experiences[id].FindSlot(timeLabel); s != nil {
		return s.Available
	}
	return -1
}

func (m *memStore) bookingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

func clone(e *model.Experience) *model.Experience {
	c := *e
	c.Dates = append([]string(nil), e.Dates...)
	c.Slots = append([]model.Slot(nil), e.Slots...)
	return &c
}

func (m *memStore) List(_ context.Context, search string) ([]*model.Experience, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	needle := strings.ToLower(search)
	out := make([]*model.Experience, 0)
	for _, e := range m.experiences {
		hay := strings.ToLower(e.Name + "\n" + e.Description + "\n" + e.Location)
		if needle == "" || strings.Contains(hay, needle) {
			out = append(out, clone(e))
		}
	}
	return out, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*model.Experience, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.experiences[id]
	if !ok {
		return nil, repository.ErrExperienceNotFound
	}
	return clone(e), nil
}

func (m *memStore) Create(_ context.Context, e *model.Experience) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = "exp-" + e.Name
	}
	e.CreatedAt = time.Now()
	m.experiences[e.ID] = clone(e)
	return nil
}

func (m *memStore) GetActiveByCode(_ context.Context, code string) (*model.Promo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.promos[strings.ToUpper(code)]
	if !ok || !p.Active {
		return nil, repository.ErrPromoNotFound
	}
	c := *p
	return &c, nil
}

func (m *memStore) GetByReference(_ context.Context, ref string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[strings.ToUpper(ref)]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	c := *b
	return &c, nil
}

func (m *memStore) Commit(_ context.Context, b *model.Booking, opts repository.CommitOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return m.commitErr
	}
	e, ok := m.experiences[b.ExperienceID]
	if !ok {
		return repository.ErrSlotUnavailable
	}
	slot := e.FindSlot(b.Time)
	if slot == nil || slot.Available < b.Quantity {
		return repository.ErrSlotUnavailable
	}
	var promo *model.Promo
	if opts.RedeemPromo && b.PromoCode != nil {
		promo = m.promos[*b.PromoCode]
		if promo == nil || !promo.Active || promo.Exhausted() {
			return repository.ErrPromoExhausted
		}
	}
	if _, dup := m.bookings[b.ReferenceID]; dup {
		return repository.ErrDuplicateReference
	}

	slot.Available -= b.Quantity
	if promo != nil {
		promo.CurrentUses++
	}
	b.ID = "booking-" + b.ReferenceID
	b.CreatedAt = time.Now()
	c := *b
	m.bookings[b.ReferenceID] = &c
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.BookingCreatedEvent
	err    error
}

func (p *fakePublisher) PublishBookingCreated(_ context.Context, ev queue.BookingCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

type fakeCache struct {
	mu    sync.Mutex
	calls int
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil
}

// sequence returns a ReferenceFunc yielding refs in order.
func sequence(refs ...string) ReferenceFunc {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(refs) {
			return "", errors.New("sequence exhausted")
		}
		r := refs[i]
		i++
		return r, nil
	}
}

func skydiving() *model.Experience {
	return &model.Experience{
		ID:       "sky",
		Name:     "Skydiving Adventure",
		Location: "Dubai, UAE",
		Price:    499,
		Dates:    []string{"2025-11-10", "2025-11-17"},
		Slots: []model.Slot{
			{Time: "09:00 AM", Available: 5},
			{Time: "11:00 AM", Available: 3},
		},
	}
}

func savePromos(m *memStore) {
	m.addPromo(&model.Promo{Code: "SAVE10", DiscountType: model.DiscountPercentage, DiscountValue: 10, MaxUses: 100, Active: true})
	m.addPromo(&model.Promo{Code: "FLAT50", DiscountType: model.DiscountFlat, DiscountValue: 50, MaxUses: 100, Active: true})
	m.addPromo(&model.Promo{Code: "USEDUP", DiscountType: model.DiscountFlat, DiscountValue: 20, MaxUses: 2, CurrentUses: 2, Active: true})
	m.addPromo(&model.Promo{Code: "OFF", DiscountType: model.DiscountFlat, DiscountValue: 20, MaxUses: 2, Active: false})
}
