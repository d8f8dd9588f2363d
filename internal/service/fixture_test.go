package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/model"
	"github.com/iliyamo/hotel-management/internal/queue"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeOutbox struct {
	mu     sync.Mutex
	events []queue.LedgerEntryEvent
	err    error
}

func (o *fakeOutbox) PublishLedgerEntry(_ context.Context, ev queue.LedgerEntryEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.events = append(o.events, ev)
	return nil
}

func (o *fakeOutbox) published() []queue.LedgerEntryEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]queue.LedgerEntryEvent(nil), o.events...)
}

type fixture struct {
	ctx    context.Context
	store  *memStore
	outbox *fakeOutbox
	ledger *LedgerRecorder
	hotel  *model.Hotel
	owner  auth.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:    context.Background(),
		store:  newMemStore(),
		outbox: &fakeOutbox{},
	}
	f.ledger = NewLedgerRecorder(f.store, f.outbox)
	f.hotel = &model.Hotel{
		Name:            "Hotel Atlas",
		Email:           "owner@atlas.test",
		Active:          true,
		SubscriptionEnd: time.Now().AddDate(1, 0, 0),
	}
	if err := f.store.Hotels().Create(f.ctx, f.hotel); err != nil {
		t.Fatal(err)
	}
	f.owner = auth.Principal{AccountType: auth.AccountHotel, AccountID: f.hotel.ID, HotelID: f.hotel.ID}
	return f
}

// employee stores a user with roles and returns its principal.
func (f *fixture) employee(t *testing.T, roles ...string) auth.Principal {
	t.Helper()
	u := &model.User{HotelID: f.hotel.ID, Username: "emp", FirstName: "Sam", LastName: "Doe", Active: true, Roles: roles}
	if err := f.store.Users().Create(f.ctx, u); err != nil {
		t.Fatal(err)
	}
	return auth.Principal{
		AccountType: auth.AccountUser,
		AccountID:   u.ID,
		HotelID:     f.hotel.ID,
		Roles:       roles,
		Permissions: auth.PermissionsFor(roles),
	}
}

func (f *fixture) product(t *testing.T, name, stock, price string) *model.Product {
	t.Helper()
	p := &model.Product{
		HotelID:        f.hotel.ID,
		Name:           name,
		Code:           name,
		Unit:           "unit",
		Stock:          d(stock),
		AlertThreshold: d("2"),
		UnitPrice:      d(price),
		Category:       model.CategoryDrink,
		Available:      d(stock).IsPositive(),
	}
	if err := f.store.Products().Create(f.ctx, p); err != nil {
		t.Fatal(err)
	}
	return p
}

func (f *fixture) stockOf(t *testing.T, id uint64) decimal.Decimal {
	t.Helper()
	p, err := f.store.Products().GetByID(f.ctx, f.hotel.ID, id)
	if err != nil {
		t.Fatal(err)
	}
	return p.Stock
}

func (f *fixture) room(t *testing.T, number, price string, capacity int) *model.Room {
	t.Helper()
	r := &model.Room{
		HotelID:       f.hotel.ID,
		Number:        number,
		Type:          model.RoomDouble,
		PricePerNight: d(price),
		Capacity:      capacity,
		Status:        model.RoomAvailable,
	}
	if err := f.store.Rooms().Create(f.ctx, r); err != nil {
		t.Fatal(err)
	}
	return r
}

func (f *fixture) client(t *testing.T, first, last string) *model.Client {
	t.Helper()
	c := &model.Client{HotelID: f.hotel.ID, FirstName: first, LastName: last, Phone: "+212600000000"}
	if err := f.store.Clients().Create(f.ctx, c); err != nil {
		t.Fatal(err)
	}
	return c
}

func (f *fixture) ledgerEntries(t *testing.T) []model.Transaction {
	t.Helper()
	out, err := f.store.Transactions().List(f.ctx, f.hotel.ID, TransactionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func wantKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("err = %v, want kind %v", err, kind)
	}
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}
