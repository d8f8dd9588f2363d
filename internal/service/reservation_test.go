package service

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/model"
)

func book(t *testing.T, f *fixture, svc *ReservationService, roomID, clientID uint64, arrival, departure string) *model.Reservation {
	t.Helper()
	res, err := svc.CreateReservation(f.ctx, f.owner, CreateReservationInput{
		RoomID:    roomID,
		ClientID:  clientID,
		Arrival:   day(arrival),
		Departure: day(departure),
	})
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestCreateReservationComputesStay(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "101", "450.00", 2)
	c := f.client(t, "Youssef", "Alaoui")
	svc := NewReservationService(f.store, f.ledger)

	res, err := svc.CreateReservation(f.ctx, f.owner, CreateReservationInput{
		RoomID:         room.ID,
		ClientID:       c.ID,
		Arrival:        day("2030-06-01"),
		Departure:      day("2030-06-05"),
		Adults:         2,
		InitialPayment: d("500"),
		PaymentMode:    model.PaymentCard,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Nights != 4 || !res.Total.Equal(d("1800")) || !res.Remaining().Equal(d("1300")) {
		t.Fatalf("res = %+v", res)
	}
	if res.Status != model.ReservationConfirmed || res.PaymentStatus != model.PaymentPartial {
		t.Fatalf("status = %s / %s", res.Status, res.PaymentStatus)
	}
	if !strings.HasPrefix(res.Number, "RES") {
		t.Fatalf("number = %q", res.Number)
	}
	stored, _ := f.store.Rooms().GetByID(f.ctx, f.hotel.ID, room.ID)
	if stored.Status != model.RoomReserved {
		t.Fatalf("room status = %s", stored.Status)
	}

	entries := f.ledgerEntries(t)
	if len(entries) != 1 || !entries[0].Amount.Equal(d("500")) || entries[0].Category != model.CategoryAccommodation ||
		!strings.Contains(entries[0].Description, "Youssef Alaoui") || entries[0].PaymentMode != model.PaymentCard {
		t.Fatalf("ledger = %+v", entries)
	}
}

func TestCreateReservationArrivingTodayOccupiesRoom(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "102", "300", 2)
	c := f.client(t, "Lina", "Haddad")
	today := dateOnly(now())

	_, err := NewReservationService(f.store, f.ledger).CreateReservation(f.ctx, f.owner, CreateReservationInput{
		RoomID:    room.ID,
		ClientID:  c.ID,
		Arrival:   today,
		Departure: today.AddDate(0, 0, 2),
	})
	if err != nil {
		t.Fatal(err)
	}
	stored, _ := f.store.Rooms().GetByID(f.ctx, f.hotel.ID, room.ID)
	if stored.Status != model.RoomOccupied {
		t.Fatalf("room status = %s", stored.Status)
	}
	if n := len(f.ledgerEntries(t)); n != 0 {
		t.Fatalf("ledger entries without payment: %d", n)
	}
}

func TestCreateReservationRejectsOverlap(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "101", "100", 2)
	c := f.client(t, "Karim", "Idrissi")
	svc := NewReservationService(f.store, f.ledger)
	book(t, f, svc, room.ID, c.ID, "2024-06-01", "2024-06-05")

	tests := []struct {
		arrival, departure string
		kind               error
	}{
		{"2024-06-04", "2024-06-08", apperr.ErrRoomUnavailable},
		{"2024-05-28", "2024-06-01", apperr.ErrRoomUnavailable}, // touches arrival day
		{"2024-06-05", "2024-06-07", apperr.ErrRoomUnavailable}, // inclusive on departure
		{"2024-06-02", "2024-06-03", apperr.ErrRoomUnavailable},
		{"2024-06-10", "2024-06-10", apperr.ErrInvalidDateRange},
		{"2024-06-12", "2024-06-10", apperr.ErrInvalidDateRange},
	}
	for _, tt := range tests {
		t.Run(tt.arrival+"_"+tt.departure, func(t *testing.T) {
			_, err := svc.CreateReservation(f.ctx, f.owner, CreateReservationInput{
				RoomID: room.ID, ClientID: c.ID, Arrival: day(tt.arrival), Departure: day(tt.departure),
			})
			wantKind(t, err, tt.kind)
		})
	}

	if _, err := svc.CreateReservation(f.ctx, f.owner, CreateReservationInput{
		RoomID: room.ID, ClientID: c.ID, Arrival: day("2024-06-06"), Departure: day("2024-06-09"),
	}); err != nil {
		t.Fatalf("adjacent stay rejected: %v", err)
	}
}

func TestCancelledReservationFreesRoom(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "201", "100", 2)
	c := f.client(t, "Nadia", "Tazi")
	svc := NewReservationService(f.store, f.ledger)
	first := book(t, f, svc, room.ID, c.ID, "2030-01-10", "2030-01-12")

	cancelled, err := svc.Cancel(f.ctx, f.owner, first.ID, "flight cancelled")
	if err != nil {
		t.Fatal(err)
	}
	if cancelled.Status != model.ReservationCancelled || !strings.Contains(cancelled.Notes, "flight cancelled") {
		t.Fatalf("res = %+v", cancelled)
	}
	stored, _ := f.store.Rooms().GetByID(f.ctx, f.hotel.ID, room.ID)
	if stored.Status != model.RoomAvailable {
		t.Fatalf("room status = %s", stored.Status)
	}
	book(t, f, svc, room.ID, c.ID, "2030-01-10", "2030-01-12")

	_, err = svc.Cancel(f.ctx, f.owner, first.ID, "")
	wantKind(t, err, apperr.ErrInvalidState)
}

func TestReservationLifecycle(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "301", "200", 3)
	c := f.client(t, "Omar", "Fassi")
	desk := f.employee(t, auth.RoleReception)
	svc := NewReservationService(f.store, f.ledger)

	res, err := svc.CreateReservation(f.ctx, desk, CreateReservationInput{
		RoomID: room.ID, ClientID: c.ID, Arrival: day("2030-03-01"), Departure: day("2030-03-03"), Pending: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != model.ReservationPending || res.CreatedBy == nil || *res.CreatedBy != desk.AccountID {
		t.Fatalf("res = %+v", res)
	}

	steps := []struct {
		name   string
		run    func() (*model.Reservation, error)
		status model.ReservationStatus
		room   model.RoomStatus
	}{
		{"confirm", func() (*model.Reservation, error) { return svc.Confirm(f.ctx, desk, res.ID) }, model.ReservationConfirmed, model.RoomReserved},
		{"check in", func() (*model.Reservation, error) { return svc.CheckIn(f.ctx, desk, res.ID) }, model.ReservationInProgress, model.RoomOccupied},
		{"check out", func() (*model.Reservation, error) { return svc.CheckOut(f.ctx, desk, res.ID) }, model.ReservationCompleted, model.RoomCleaning},
	}
	for _, st := range steps {
		got, err := st.run()
		if err != nil {
			t.Fatalf("%s: %v", st.name, err)
		}
		r, _ := f.store.Rooms().GetByID(f.ctx, f.hotel.ID, room.ID)
		if got.Status != st.status || r.Status != st.room {
			t.Fatalf("%s: reservation %s room %s", st.name, got.Status, r.Status)
		}
	}

	// a completed stay can still be settled
	paid, err := svc.AddPayment(f.ctx, desk, res.ID, d("400"), model.PaymentCash)
	if err != nil {
		t.Fatal(err)
	}
	if paid.PaymentStatus != model.PaymentPaid {
		t.Fatalf("payment status = %s", paid.PaymentStatus)
	}
	_, err = svc.AddPayment(f.ctx, desk, res.ID, d("1"), model.PaymentCash)
	wantKind(t, err, apperr.ErrInvalidAmount)

	_, err = svc.Cancel(f.ctx, desk, res.ID, "")
	wantKind(t, err, apperr.ErrInvalidState)
	_, err = svc.Update(f.ctx, desk, res.ID, UpdateReservationInput{})
	wantKind(t, err, apperr.ErrInvalidState)
}

func TestCannotCancelGuestInHouse(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "401", "100", 2)
	c := f.client(t, "Sara", "Bennani")
	svc := NewReservationService(f.store, f.ledger)
	res := book(t, f, svc, room.ID, c.ID, "2030-04-01", "2030-04-04")
	if _, err := svc.CheckIn(f.ctx, f.owner, res.ID); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Cancel(f.ctx, f.owner, res.ID, "changed mind")
	wantKind(t, err, apperr.ErrInvalidState)
	_, err = svc.MarkNoShow(f.ctx, f.owner, res.ID)
	wantKind(t, err, apperr.ErrInvalidState)
}

func TestNoShowReleasesRoom(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "402", "100", 2)
	c := f.client(t, "Hamza", "Kettani")
	svc := NewReservationService(f.store, f.ledger)
	res := book(t, f, svc, room.ID, c.ID, "2030-05-01", "2030-05-02")

	got, err := svc.MarkNoShow(f.ctx, f.owner, res.ID)
	if err != nil {
		t.Fatal(err)
	}
	r, _ := f.store.Rooms().GetByID(f.ctx, f.hotel.ID, room.ID)
	if got.Status != model.ReservationNoShow || r.Status != model.RoomAvailable {
		t.Fatalf("reservation %s room %s", got.Status, r.Status)
	}
	_, err = svc.AddPayment(f.ctx, f.owner, res.ID, d("10"), "")
	wantKind(t, err, apperr.ErrInvalidState)
}

func TestReservationPaymentRejects(t *testing.T) {
	tests := map[string]struct {
		amount string
		mode   model.PaymentMode
		kind   error
	}{
		"half a cent":  {"0.005", "", apperr.ErrInvalidAmount},
		"sub-cent":     {"99.999", model.PaymentCash, apperr.ErrInvalidAmount},
		"zero":         {"0", "", apperr.ErrInvalidAmount},
		"unknown mode": {"50", "BITCOIN", apperr.ErrValidation},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			room := f.room(t, "601", "100", 2)
			c := f.client(t, "Nadia", "Tazi")
			svc := NewReservationService(f.store, f.ledger)
			res := book(t, f, svc, room.ID, c.ID, "2030-08-01", "2030-08-03")

			_, err := svc.AddPayment(f.ctx, f.owner, res.ID, d(tt.amount), tt.mode)
			wantKind(t, err, tt.kind)

			got, _ := f.store.Reservations().GetByID(f.ctx, f.hotel.ID, res.ID)
			if !got.Paid.IsZero() || got.PaymentMode != "" {
				t.Fatalf("reservation changed: paid=%s mode=%q", got.Paid, got.PaymentMode)
			}
			if n := len(f.ledgerEntries(t)); n != 0 {
				t.Fatalf("ledger entries = %d", n)
			}
		})
	}
}

func TestCreateReservationChecks(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "501", "100", 2)
	broken := f.room(t, "502", "100", 2)
	broken.Status = model.RoomMaintenance
	_ = f.store.Rooms().Update(f.ctx, broken)
	c := f.client(t, "Ali", "Berrada")
	svc := NewReservationService(f.store, f.ledger)
	base := CreateReservationInput{RoomID: room.ID, ClientID: c.ID, Arrival: day("2030-07-01"), Departure: day("2030-07-03")}

	tests := map[string]struct {
		mutate func(*CreateReservationInput)
		kind   error
	}{
		"maintenance":      {func(in *CreateReservationInput) { in.RoomID = broken.ID }, apperr.ErrRoomUnavailable},
		"over capacity":    {func(in *CreateReservationInput) { in.Adults, in.Children = 2, 1 }, apperr.ErrValidation},
		"overpaid":         {func(in *CreateReservationInput) { in.InitialPayment = d("201") }, apperr.ErrInvalidAmount},
		"negative payment": {func(in *CreateReservationInput) { in.InitialPayment = d("-5") }, apperr.ErrInvalidAmount},
		"no client":        {func(in *CreateReservationInput) { in.ClientID = 0 }, apperr.ErrValidation},
		"unknown room":     {func(in *CreateReservationInput) { in.RoomID = 9999 }, apperr.ErrNotFound},
		"other tenant":     {func(in *CreateReservationInput) { in.ClientID = 8888 }, apperr.ErrNotFound},
		"sub-cent payment": {func(in *CreateReservationInput) { in.InitialPayment = d("10.005") }, apperr.ErrInvalidAmount},
		"unknown mode":     {func(in *CreateReservationInput) { in.PaymentMode = "BITCOIN" }, apperr.ErrValidation},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := svc.CreateReservation(f.ctx, f.owner, in)
			wantKind(t, err, tt.kind)
		})
	}

	if list, _ := f.store.Reservations().List(f.ctx, f.hotel.ID, ReservationFilter{}); len(list) != 0 {
		t.Fatalf("reservations persisted: %d", len(list))
	}
}

func TestCreateReservationWithNewClient(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "601", "100", 2)
	svc := NewReservationService(f.store, f.ledger)

	res, err := svc.CreateReservation(f.ctx, f.owner, CreateReservationInput{
		RoomID:    room.ID,
		NewClient: &ClientInput{FirstName: "Ines", LastName: "Chraibi", Phone: "0611", Email: "Ines@Mail.test"},
		Arrival:   day("2030-08-01"),
		Departure: day("2030-08-02"),
	})
	if err != nil {
		t.Fatal(err)
	}
	c, err := f.store.Clients().GetByID(f.ctx, f.hotel.ID, res.ClientID)
	if err != nil {
		t.Fatal(err)
	}
	if c.Email != "ines@mail.test" {
		t.Fatalf("client = %+v", c)
	}

	// invalid inline client rolls the whole booking back
	_, err = svc.CreateReservation(f.ctx, f.owner, CreateReservationInput{
		RoomID:    room.ID,
		NewClient: &ClientInput{FirstName: "No", LastName: "Phone"},
		Arrival:   day("2030-09-01"),
		Departure: day("2030-09-02"),
	})
	wantKind(t, err, apperr.ErrValidation)
	clients, _ := f.store.Clients().List(f.ctx, f.hotel.ID, "")
	if len(clients) != 1 {
		t.Fatalf("clients = %d", len(clients))
	}
}

func TestConcurrentBookingsOfOneRoom(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "701", "100", 2)
	c := f.client(t, "Rim", "Lahlou")
	svc := NewReservationService(f.store, f.ledger)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			arrival := day("2030-10-01").AddDate(0, 0, offset%2)
			_, err := svc.CreateReservation(f.ctx, f.owner, CreateReservationInput{
				RoomID: room.ID, ClientID: c.ID, Arrival: arrival, Departure: arrival.Add(72 * time.Hour),
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if ok != 1 {
		t.Fatalf("bookings accepted = %d, want 1", ok)
	}
}

func TestAvailableRooms(t *testing.T) {
	f := newFixture(t)
	a := f.room(t, "801", "100", 2)
	b := f.room(t, "802", "100", 4)
	m := f.room(t, "803", "100", 4)
	m.Status = model.RoomOutOfService
	_ = f.store.Rooms().Update(f.ctx, m)
	c := f.client(t, "Adam", "Sqalli")
	book(t, f, NewReservationService(f.store, f.ledger), a.ID, c.ID, "2030-11-01", "2030-11-05")

	rooms, err := NewRoomService(f.store).Available(f.ctx, f.owner, day("2030-11-03"), day("2030-11-04"), RoomFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 1 || rooms[0].ID != b.ID {
		t.Fatalf("available = %+v", rooms)
	}
	rooms, _ = NewRoomService(f.store).Available(f.ctx, f.owner, day("2030-11-06"), day("2030-11-08"), RoomFilter{MinCapacity: 3})
	if len(rooms) != 1 || rooms[0].ID != b.ID {
		t.Fatalf("available with capacity = %+v", rooms)
	}
}

func TestRoomAndClientDeleteGuards(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "901", "100", 2)
	c := f.client(t, "Zineb", "Amrani")
	book(t, f, NewReservationService(f.store, f.ledger), room.ID, c.ID, "2030-12-01", "2030-12-02")

	wantKind(t, NewRoomService(f.store).Delete(f.ctx, f.owner, room.ID), apperr.ErrConflict)
	wantKind(t, NewClientService(f.store).Delete(f.ctx, f.owner, c.ID), apperr.ErrConflict)

	spare := f.room(t, "902", "100", 2)
	if err := NewRoomService(f.store).Delete(f.ctx, f.owner, spare.ID); err != nil {
		t.Fatal(err)
	}
}
