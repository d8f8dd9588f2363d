package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/model"
)

// memStore is an in-memory Store. Transactions are serialised and roll back
// to a snapshot when fn fails, which is enough to observe atomicity.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	d    *memData

	// failLedger makes every transaction insert fail.
	failLedger bool
}

type memToken struct {
	accountType string
	accountID   uint64
	exp         time.Time
	revoked     bool
}

type memData struct {
	seq          uint64
	hotels       map[uint64]model.Hotel
	users        map[uint64]model.User
	tokens       map[string]memToken
	products     map[uint64]model.Product
	movements    []model.StockMovement
	orders       map[uint64]model.Order
	clients      map[uint64]model.Client
	rooms        map[uint64]model.Room
	reservations map[uint64]model.Reservation
	transactions map[uint64]model.Transaction
	invoices     map[uint64]model.Invoice
	sequences    map[string]int64
}

func newMemStore() *memStore {
	return &memStore{d: &memData{
		hotels:       map[uint64]model.Hotel{},
		users:        map[uint64]model.User{},
		tokens:       map[string]memToken{},
		products:     map[uint64]model.Product{},
		orders:       map[uint64]model.Order{},
		clients:      map[uint64]model.Client{},
		rooms:        map[uint64]model.Room{},
		reservations: map[uint64]model.Reservation{},
		transactions: map[uint64]model.Transaction{},
		invoices:     map[uint64]model.Invoice{},
		sequences:    map[string]int64{},
	}}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// clone copies the maps; stored values are replaced, never mutated, so a
// shallow copy of each value is a valid snapshot.
func (d *memData) clone() *memData {
	return &memData{
		seq:          d.seq,
		hotels:       copyMap(d.hotels),
		users:        copyMap(d.users),
		tokens:       copyMap(d.tokens),
		products:     copyMap(d.products),
		movements:    append([]model.StockMovement(nil), d.movements...),
		orders:       copyMap(d.orders),
		clients:      copyMap(d.clients),
		rooms:        copyMap(d.rooms),
		reservations: copyMap(d.reservations),
		transactions: copyMap(d.transactions),
		invoices:     copyMap(d.invoices),
		sequences:    copyMap(d.sequences),
	}
}

func (s *memStore) nextID() uint64 {
	s.d.seq++
	return s.d.seq
}

func (s *memStore) Tx(ctx context.Context, fn func(Repos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	snap := s.d.clone()
	s.mu.Unlock()
	if err := fn(s); err != nil {
		s.mu.Lock()
		s.d = snap
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) Hotels() HotelRepository             { return memHotels{s} }
func (s *memStore) Users() UserRepository               { return memUsers{s} }
func (s *memStore) Tokens() TokenRepository             { return memTokens{s} }
func (s *memStore) Products() ProductRepository         { return memProducts{s} }
func (s *memStore) Movements() MovementRepository       { return memMovements{s} }
func (s *memStore) Orders() OrderRepository             { return memOrders{s} }
func (s *memStore) Clients() ClientRepository           { return memClients{s} }
func (s *memStore) Rooms() RoomRepository               { return memRooms{s} }
func (s *memStore) Reservations() ReservationRepository { return memReservations{s} }
func (s *memStore) Transactions() TransactionRepository { return memTransactions{s} }
func (s *memStore) Invoices() InvoiceRepository         { return memInvoices{s} }
func (s *memStore) Sequences() SequenceRepository       { return memSequences{s} }

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// ---- hotels ----

type memHotels struct{ s *memStore }

func (r memHotels) Create(_ context.Context, h *model.Hotel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h.ID = r.s.nextID()
	r.s.d.hotels[h.ID] = *h
	return nil
}

func (r memHotels) GetByID(_ context.Context, id uint64) (*model.Hotel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h, ok := r.s.d.hotels[id]
	if !ok {
		return nil, apperr.NotFound("hotel", id)
	}
	return &h, nil
}

func (r memHotels) GetByEmail(_ context.Context, email string) (*model.Hotel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, h := range r.s.d.hotels {
		if h.Email == email {
			return &h, nil
		}
	}
	return nil, apperr.NotFound("hotel", email)
}

func (r memHotels) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, h := range r.s.d.hotels {
		if h.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r memHotels) ExistsByName(_ context.Context, name string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, h := range r.s.d.hotels {
		if strings.EqualFold(h.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r memHotels) Update(_ context.Context, h *model.Hotel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.d.hotels[h.ID] = *h
	return nil
}

// ---- users ----

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u.ID = r.s.nextID()
	r.s.d.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(_ context.Context, hotelID, id uint64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.d.users[id]
	if !ok || (hotelID != 0 && u.HotelID != hotelID) {
		return nil, apperr.NotFound("user", id)
	}
	u.Roles = append([]string(nil), u.Roles...)
	return &u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.d.users {
		if u.Email == email {
			u.Roles = append([]string(nil), u.Roles...)
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user", email)
}

func (r memUsers) exists(match func(model.User) bool, excludeID uint64) bool {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.d.users {
		if u.ID != excludeID && match(u) {
			return true
		}
	}
	return false
}

func (r memUsers) ExistsByEmail(_ context.Context, email string, excludeID uint64) (bool, error) {
	return r.exists(func(u model.User) bool { return u.Email == email }, excludeID), nil
}

func (r memUsers) ExistsByUsername(_ context.Context, username string, excludeID uint64) (bool, error) {
	return r.exists(func(u model.User) bool { return strings.EqualFold(u.Username, username) }, excludeID), nil
}

func (r memUsers) ListByHotel(_ context.Context, hotelID uint64) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.User
	for _, u := range r.s.d.users {
		if u.HotelID == hotelID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memUsers) Update(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.d.users[u.ID]
	if !ok {
		return apperr.NotFound("user", u.ID)
	}
	cp := *u
	cp.Roles = old.Roles
	r.s.d.users[u.ID] = cp
	return nil
}

func (r memUsers) SetRoles(_ context.Context, userID uint64, roles []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.d.users[userID]
	if !ok {
		return apperr.NotFound("user", userID)
	}
	u.Roles = append([]string(nil), roles...)
	r.s.d.users[userID] = u
	return nil
}

// ---- refresh tokens ----

type memTokens struct{ s *memStore }

func (r memTokens) StoreRefresh(_ context.Context, accountType string, accountID uint64, hash string, exp time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.d.tokens[hash] = memToken{accountType: accountType, accountID: accountID, exp: exp}
	return nil
}

func (r memTokens) ValidateRefresh(_ context.Context, hash string) (string, uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.d.tokens[hash]
	if !ok || t.revoked || time.Now().After(t.exp) {
		return "", 0, apperr.NotFound("refresh token", "")
	}
	return t.accountType, t.accountID, nil
}

func (r memTokens) RevokeByHash(_ context.Context, hash string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.d.tokens[hash]
	if !ok || t.revoked || time.Now().After(t.exp) {
		return false, nil
	}
	t.revoked = true
	r.s.d.tokens[hash] = t
	return true, nil
}

func (r memTokens) RevokeAllFor(_ context.Context, accountType string, accountID uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for h, t := range r.s.d.tokens {
		if t.accountType == accountType && t.accountID == accountID {
			t.revoked = true
			r.s.d.tokens[h] = t
		}
	}
	return nil
}

// ---- products ----

type memProducts struct{ s *memStore }

func (r memProducts) Create(_ context.Context, p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = r.s.nextID()
	r.s.d.products[p.ID] = *p
	return nil
}

func (r memProducts) GetByID(_ context.Context, hotelID, id uint64) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.d.products[id]
	if !ok || p.HotelID != hotelID {
		return nil, apperr.NotFound("product", id)
	}
	return &p, nil
}

func (r memProducts) GetForUpdate(ctx context.Context, hotelID, id uint64) (*model.Product, error) {
	return r.GetByID(ctx, hotelID, id)
}

func (r memProducts) ExistsByCode(_ context.Context, hotelID uint64, code string, excludeID uint64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.d.products {
		if p.HotelID == hotelID && p.ID != excludeID && strings.EqualFold(p.Code, code) {
			return true, nil
		}
	}
	return false, nil
}

func (r memProducts) List(_ context.Context, hotelID uint64, f ProductFilter) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Product
	for _, p := range r.s.d.products {
		switch {
		case p.HotelID != hotelID,
			f.Category != "" && p.Category != f.Category,
			f.AvailableOnly && !p.Available,
			f.LowStockOnly && !p.LowStock(),
			f.Search != "" && !contains(p.Name, f.Search) && !contains(p.Code, f.Search):
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memProducts) Update(_ context.Context, p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.d.products[p.ID]; !ok {
		return apperr.NotFound("product", p.ID)
	}
	r.s.d.products[p.ID] = *p
	return nil
}

func (r memProducts) Delete(_ context.Context, hotelID, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.d.products[id]; !ok || p.HotelID != hotelID {
		return apperr.NotFound("product", id)
	}
	delete(r.s.d.products, id)
	return nil
}

// ---- movements ----

type memMovements struct{ s *memStore }

func (r memMovements) Append(_ context.Context, m *model.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = r.s.nextID()
	r.s.d.movements = append(r.s.d.movements, *m)
	return nil
}

func (r memMovements) List(_ context.Context, hotelID, productID uint64, limit int) ([]model.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.StockMovement
	for i := len(r.s.d.movements) - 1; i >= 0; i-- {
		m := r.s.d.movements[i]
		if m.HotelID != hotelID || (productID != 0 && m.ProductID != productID) {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ---- orders ----

type memOrders struct{ s *memStore }

func cloneOrder(o model.Order) *model.Order {
	o.Lines = append([]model.OrderLine(nil), o.Lines...)
	return &o
}

func (r memOrders) Create(_ context.Context, o *model.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o.ID = r.s.nextID()
	for i := range o.Lines {
		o.Lines[i].ID = r.s.nextID()
		o.Lines[i].OrderID = o.ID
	}
	r.s.d.orders[o.ID] = *cloneOrder(*o)
	return nil
}

func (r memOrders) GetByID(_ context.Context, hotelID, id uint64) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.d.orders[id]
	if !ok || o.HotelID != hotelID {
		return nil, apperr.NotFound("order", id)
	}
	return cloneOrder(o), nil
}

func (r memOrders) GetForUpdate(ctx context.Context, hotelID, id uint64) (*model.Order, error) {
	return r.GetByID(ctx, hotelID, id)
}

func (r memOrders) List(_ context.Context, hotelID uint64, status model.OrderStatus) ([]model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Order
	for _, o := range r.s.d.orders {
		if o.HotelID == hotelID && (status == "" || o.Status == status) {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memOrders) UpdateState(_ context.Context, o *model.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.d.orders[o.ID]
	if !ok {
		return apperr.NotFound("order", o.ID)
	}
	cur.Status = o.Status
	cur.Paid = o.Paid
	cur.ServedAt = o.ServedAt
	cur.UpdatedAt = o.UpdatedAt
	r.s.d.orders[o.ID] = cur
	return nil
}

// ---- clients ----

type memClients struct{ s *memStore }

func (r memClients) Create(_ context.Context, c *model.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = r.s.nextID()
	r.s.d.clients[c.ID] = *c
	return nil
}

func (r memClients) GetByID(_ context.Context, hotelID, id uint64) (*model.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.d.clients[id]
	if !ok || c.HotelID != hotelID {
		return nil, apperr.NotFound("client", id)
	}
	return &c, nil
}

func (r memClients) ExistsByEmail(_ context.Context, hotelID uint64, email string, excludeID uint64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.d.clients {
		if c.HotelID == hotelID && c.ID != excludeID && c.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r memClients) List(_ context.Context, hotelID uint64, search string) ([]model.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Client
	for _, c := range r.s.d.clients {
		if c.HotelID != hotelID {
			continue
		}
		if search != "" && !contains(c.FullName(), search) && !contains(c.Email, search) && !contains(c.Phone, search) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memClients) Update(_ context.Context, c *model.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.d.clients[c.ID] = *c
	return nil
}

func (r memClients) Delete(_ context.Context, hotelID, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.d.clients[id]; !ok || c.HotelID != hotelID {
		return apperr.NotFound("client", id)
	}
	delete(r.s.d.clients, id)
	return nil
}

// ---- rooms ----

type memRooms struct{ s *memStore }

func (r memRooms) Create(_ context.Context, room *model.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room.ID = r.s.nextID()
	r.s.d.rooms[room.ID] = *room
	return nil
}

func (r memRooms) GetByID(_ context.Context, hotelID, id uint64) (*model.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.d.rooms[id]
	if !ok || room.HotelID != hotelID {
		return nil, apperr.NotFound("room", id)
	}
	return &room, nil
}

func (r memRooms) GetForUpdate(ctx context.Context, hotelID, id uint64) (*model.Room, error) {
	return r.GetByID(ctx, hotelID, id)
}

func (r memRooms) ExistsByNumber(_ context.Context, hotelID uint64, number string, excludeID uint64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, room := range r.s.d.rooms {
		if room.HotelID == hotelID && room.ID != excludeID && room.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (r memRooms) List(_ context.Context, hotelID uint64, f RoomFilter) ([]model.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Room
	for _, room := range r.s.d.rooms {
		switch {
		case room.HotelID != hotelID,
			f.Status != "" && room.Status != f.Status,
			f.Type != "" && room.Type != f.Type,
			f.MinCapacity > 0 && room.Capacity < f.MinCapacity:
			continue
		}
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r memRooms) Update(_ context.Context, room *model.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.d.rooms[room.ID] = *room
	return nil
}

func (r memRooms) Delete(_ context.Context, hotelID, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if room, ok := r.s.d.rooms[id]; !ok || room.HotelID != hotelID {
		return apperr.NotFound("room", id)
	}
	delete(r.s.d.rooms, id)
	return nil
}

// ---- reservations ----

type memReservations struct{ s *memStore }

func (r memReservations) Create(_ context.Context, res *model.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res.ID = r.s.nextID()
	r.s.d.reservations[res.ID] = *res
	return nil
}

func (r memReservations) GetByID(_ context.Context, hotelID, id uint64) (*model.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.d.reservations[id]
	if !ok || res.HotelID != hotelID {
		return nil, apperr.NotFound("reservation", id)
	}
	return &res, nil
}

func (r memReservations) GetForUpdate(ctx context.Context, hotelID, id uint64) (*model.Reservation, error) {
	return r.GetByID(ctx, hotelID, id)
}

func (r memReservations) Update(_ context.Context, res *model.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.d.reservations[res.ID] = *res
	return nil
}

func sameDay(a, b time.Time) bool { return dateOnly(a).Equal(dateOnly(b)) }

func (r memReservations) List(_ context.Context, hotelID uint64, f ReservationFilter) ([]model.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Reservation
	for _, res := range r.s.d.reservations {
		switch {
		case res.HotelID != hotelID,
			f.Status != "" && res.Status != f.Status,
			f.RoomID != 0 && res.RoomID != f.RoomID,
			f.ClientID != 0 && res.ClientID != f.ClientID,
			f.ArrivalOn != nil && !sameDay(res.Arrival, *f.ArrivalOn),
			f.DepartureOn != nil && !sameDay(res.Departure, *f.DepartureOn),
			f.ArrivalFrom != nil && res.Arrival.Before(dateOnly(*f.ArrivalFrom)),
			f.Search != "" && !contains(res.Number, f.Search) && !contains(res.ExternalRef, f.Search):
			continue
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Arrival.Before(out[j].Arrival) })
	return out, nil
}

func (r memReservations) HasOverlap(_ context.Context, roomID uint64, arrival, departure time.Time, excludeID uint64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, res := range r.s.d.reservations {
		if res.RoomID == roomID && res.ID != excludeID && res.Status.Blocking() && res.Overlaps(arrival, departure) {
			return true, nil
		}
	}
	return false, nil
}

func (r memReservations) BusyRoomIDs(_ context.Context, hotelID uint64, arrival, departure time.Time) ([]uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[uint64]bool{}
	var out []uint64
	for _, res := range r.s.d.reservations {
		if res.HotelID == hotelID && res.Status.Blocking() && res.Overlaps(arrival, departure) && !seen[res.RoomID] {
			seen[res.RoomID] = true
			out = append(out, res.RoomID)
		}
	}
	return out, nil
}

func (r memReservations) CountActiveByRoom(_ context.Context, roomID uint64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, res := range r.s.d.reservations {
		if res.RoomID == roomID && res.Status.Blocking() {
			n++
		}
	}
	return n, nil
}

func (r memReservations) CountByClient(_ context.Context, clientID uint64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, res := range r.s.d.reservations {
		if res.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

// ---- transactions ----

type memTransactions struct{ s *memStore }

var errLedgerDown = errors.New("ledger table unavailable")

func (r memTransactions) Create(_ context.Context, t *model.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failLedger {
		return errLedgerDown
	}
	for _, other := range r.s.d.transactions {
		if other.HotelID == t.HotelID && other.Reference == t.Reference {
			return apperr.New(apperr.ErrConflict, "duplicate reference %s", t.Reference)
		}
	}
	t.ID = r.s.nextID()
	r.s.d.transactions[t.ID] = *t
	return nil
}

func (r memTransactions) GetByID(_ context.Context, hotelID, id uint64) (*model.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.d.transactions[id]
	if !ok || t.HotelID != hotelID {
		return nil, apperr.NotFound("transaction", id)
	}
	return &t, nil
}

func (r memTransactions) Update(_ context.Context, t *model.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.d.transactions[t.ID] = *t
	return nil
}

func (r memTransactions) Delete(_ context.Context, hotelID, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.d.transactions[id]; !ok || t.HotelID != hotelID {
		return apperr.NotFound("transaction", id)
	}
	delete(r.s.d.transactions, id)
	return nil
}

func (r memTransactions) match(hotelID uint64, f TransactionFilter) []model.Transaction {
	var out []model.Transaction
	for _, t := range r.s.d.transactions {
		switch {
		case t.HotelID != hotelID,
			f.Type != "" && t.Type != f.Type,
			f.Status != "" && t.Status != f.Status,
			f.Category != "" && t.Category != f.Category,
			f.From != nil && t.Date.Before(*f.From),
			f.To != nil && !t.Date.Before(*f.To),
			f.Search != "" && !contains(t.Reference, f.Search) && !contains(t.Description, f.Search) &&
				!contains(t.Category, f.Search) && !contains(t.Notes, f.Search):
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (r memTransactions) List(_ context.Context, hotelID uint64, f TransactionFilter) ([]model.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.match(hotelID, f), nil
}

func (r memTransactions) Sum(_ context.Context, hotelID uint64, f TransactionFilter) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := decimal.Zero
	for _, t := range r.match(hotelID, f) {
		total = total.Add(t.Amount)
	}
	return total, nil
}

func (r memTransactions) Count(_ context.Context, hotelID uint64, f TransactionFilter) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.match(hotelID, f)), nil
}

func (r memTransactions) SumByCategory(_ context.Context, hotelID uint64, f TransactionFilter) ([]model.CategoryTotal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sums := map[string]decimal.Decimal{}
	for _, t := range r.match(hotelID, f) {
		sums[t.Category] = sums[t.Category].Add(t.Amount)
	}
	var out []model.CategoryTotal
	for c, v := range sums {
		out = append(out, model.CategoryTotal{Category: c, Total: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// ---- invoices ----

type memInvoices struct{ s *memStore }

func cloneInvoice(inv model.Invoice) *model.Invoice {
	inv.Lines = append([]model.InvoiceLine(nil), inv.Lines...)
	return &inv
}

func (r memInvoices) Create(_ context.Context, inv *model.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv.ID = r.s.nextID()
	for i := range inv.Lines {
		inv.Lines[i].ID = r.s.nextID()
		inv.Lines[i].InvoiceID = inv.ID
	}
	r.s.d.invoices[inv.ID] = *cloneInvoice(*inv)
	return nil
}

func (r memInvoices) GetByID(_ context.Context, hotelID, id uint64) (*model.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.d.invoices[id]
	if !ok || inv.HotelID != hotelID {
		return nil, apperr.NotFound("invoice", id)
	}
	return cloneInvoice(inv), nil
}

func (r memInvoices) GetForUpdate(ctx context.Context, hotelID, id uint64) (*model.Invoice, error) {
	return r.GetByID(ctx, hotelID, id)
}

func (r memInvoices) List(_ context.Context, hotelID uint64, status model.InvoiceStatus) ([]model.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Invoice
	for _, inv := range r.s.d.invoices {
		if inv.HotelID == hotelID && (status == "" || inv.Status == status) {
			out = append(out, *cloneInvoice(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memInvoices) UpdateState(_ context.Context, inv *model.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.d.invoices[inv.ID]
	if !ok {
		return apperr.NotFound("invoice", inv.ID)
	}
	cur.Status = inv.Status
	cur.Paid = inv.Paid
	cur.Notes = inv.Notes
	cur.UpdatedAt = inv.UpdatedAt
	r.s.d.invoices[inv.ID] = cur
	return nil
}

// ---- sequences ----

type memSequences struct{ s *memStore }

func (r memSequences) Next(_ context.Context, hotelID uint64, name string, year int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := fmt.Sprintf("%d/%s/%d", hotelID, name, year)
	r.s.d.sequences[key]++
	return r.s.d.sequences[key], nil
}
