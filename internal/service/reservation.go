package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/logger"
	"github.com/iliyamo/hotel-management/internal/metrics"
	"github.com/iliyamo/hotel-management/internal/model"
)

// ReservationService books rooms without double-booking them.
type ReservationService struct {
	store  Store
	ledger *LedgerRecorder
}

func NewReservationService(store Store, ledger *LedgerRecorder) *ReservationService {
	return &ReservationService{store: store, ledger: ledger}
}

// CreateReservationInput describes a booking. Either ClientID or NewClient
// identifies the guest.
type CreateReservationInput struct {
	RoomID          uint64
	ClientID        uint64
	NewClient       *ClientInput
	Arrival         time.Time
	Departure       time.Time
	Adults          int
	Children        int
	InitialPayment  decimal.Decimal
	PaymentMode     model.PaymentMode
	Notes           string
	SpecialRequests string
	ExternalRef     string
	// Pending creates the reservation as EN_ATTENTE instead of CONFIRMEE.
	Pending bool
}

// CreateReservation locks the room row, checks for overlapping stays and
// inserts the reservation. The lock serialises bookings of one room, so two
// concurrent requests cannot both pass the overlap check.
func (s *ReservationService) CreateReservation(ctx context.Context, p auth.Principal, in CreateReservationInput) (_ *model.Reservation, err error) {
	if err := p.Require(auth.CreateReservation); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "reservation.create")
	span.SetAttributes(hotelAttr(p.HotelID), attribute.Int64("room.id", int64(in.RoomID)))
	defer func() { endSpan(span, err) }()

	arrival, departure := dateOnly(in.Arrival), dateOnly(in.Departure)
	if in.Arrival.IsZero() || in.Departure.IsZero() || !arrival.Before(departure) {
		return nil, apperr.New(apperr.ErrInvalidDateRange, "arrival must be before departure")
	}
	if in.Adults == 0 {
		in.Adults = 1
	}
	var fields apperr.Fields
	fields.Add(in.RoomID == 0, "room_id", "room is required")
	fields.Add(in.ClientID == 0 && in.NewClient == nil, "client_id", "client is required")
	fields.Add(in.Adults < 0, "adults", "adults must be positive")
	fields.Add(in.Children < 0, "children", "children must not be negative")
	fields.Add(in.PaymentMode != "" && !in.PaymentMode.Valid(), "payment_mode", "unknown payment mode")
	if err := fields.Err(); err != nil {
		return nil, err
	}
	if in.InitialPayment.IsNegative() {
		return nil, apperr.New(apperr.ErrInvalidAmount, "payment must not be negative")
	}
	if !fitsScale(in.InitialPayment, moneyPlaces) {
		return nil, apperr.New(apperr.ErrInvalidAmount, "amount %s has more than %d decimals", in.InitialPayment, moneyPlaces)
	}

	var (
		res    *model.Reservation
		client *model.Client
	)
	err = s.store.Tx(ctx, func(r Repos) error {
		room, err := r.Rooms().GetForUpdate(ctx, p.HotelID, in.RoomID)
		if err != nil {
			return err
		}
		if !room.Status.Bookable() {
			return apperr.New(apperr.ErrRoomUnavailable, "room %s is %s", room.Number, room.Status)
		}
		if room.Capacity > 0 && in.Adults+in.Children > room.Capacity {
			return apperr.Invalid("adults", "guests exceed room capacity")
		}

		if in.ClientID != 0 {
			client, err = r.Clients().GetByID(ctx, p.HotelID, in.ClientID)
		} else {
			client, err = createClient(ctx, r, p.HotelID, *in.NewClient)
		}
		if err != nil {
			return err
		}

		busy, err := r.Reservations().HasOverlap(ctx, room.ID, arrival, departure, 0)
		if err != nil {
			return err
		}
		if busy {
			metrics.ReservationConflicts.Inc()
			return apperr.New(apperr.ErrRoomUnavailable, "room %s is already booked between %s and %s",
				room.Number, arrival.Format(time.DateOnly), departure.Format(time.DateOnly))
		}

		nights := int(departure.Sub(arrival).Hours() / 24)
		total := room.PricePerNight.Mul(decimal.NewFromInt(int64(nights)))
		if in.InitialPayment.GreaterThan(total) {
			return apperr.New(apperr.ErrInvalidAmount, "payment %s exceeds total %s", in.InitialPayment, total)
		}

		status := model.ReservationConfirmed
		if in.Pending {
			status = model.ReservationPending
		}
		ts := now()
		res = &model.Reservation{
			HotelID:         p.HotelID,
			Number:          documentNumber(reservationPrefix),
			RoomID:          room.ID,
			ClientID:        client.ID,
			Arrival:         arrival,
			Departure:       departure,
			Nights:          nights,
			Adults:          in.Adults,
			Children:        in.Children,
			PricePerNight:   room.PricePerNight,
			Total:           total,
			Paid:            in.InitialPayment,
			Status:          status,
			PaymentStatus:   model.PaymentStatusFor(in.InitialPayment, total),
			PaymentMode:     in.PaymentMode,
			Notes:           in.Notes,
			SpecialRequests: in.SpecialRequests,
			ExternalRef:     in.ExternalRef,
			CreatedBy:       p.ActorID(),
			CreatedAt:       ts,
			UpdatedAt:       ts,
		}
		if err := r.Reservations().Create(ctx, res); err != nil {
			return err
		}

		if arrival.Equal(dateOnly(ts)) {
			room.Status = model.RoomOccupied
		} else {
			room.Status = model.RoomReserved
		}
		room.UpdatedAt = ts
		return r.Rooms().Update(ctx, room)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("reservation created",
		zap.String("number", res.Number),
		zap.Uint64("room_id", res.RoomID),
		zap.String("total", res.Total.String()))
	if res.Paid.IsPositive() {
		s.ledger.RecordReservationPayment(ctx, p.HotelID, res.ID, res.Number, client.FullName(), res.Paid, res.PaymentMode)
	}
	return res, nil
}

// transition loads the reservation and its room under lock, lets apply
// mutate both and persists them.
func (s *ReservationService) transition(ctx context.Context, p auth.Principal, id uint64, apply func(r Repos, res *model.Reservation, room *model.Room) error) (*model.Reservation, error) {
	var res *model.Reservation
	err := s.store.Tx(ctx, func(r Repos) error {
		var err error
		res, err = r.Reservations().GetForUpdate(ctx, p.HotelID, id)
		if err != nil {
			return err
		}
		room, err := r.Rooms().GetForUpdate(ctx, p.HotelID, res.RoomID)
		if err != nil {
			return err
		}
		roomStatus := room.Status
		if err := apply(r, res, room); err != nil {
			return err
		}
		ts := now()
		res.UpdatedAt = ts
		if err := r.Reservations().Update(ctx, res); err != nil {
			return err
		}
		if room.Status != roomStatus {
			room.UpdatedAt = ts
			return r.Rooms().Update(ctx, room)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// releaseRoom marks the room AVAILABLE unless another guest is currently in
// it.
func releaseRoom(ctx context.Context, r Repos, res *model.Reservation, room *model.Room) error {
	inHouse, err := r.Reservations().List(ctx, res.HotelID, ReservationFilter{
		Status: model.ReservationInProgress,
		RoomID: room.ID,
	})
	if err != nil {
		return err
	}
	for _, other := range inHouse {
		if other.ID != res.ID {
			return nil
		}
	}
	room.Status = model.RoomAvailable
	return nil
}

func invalidReservationState(res *model.Reservation, action string) error {
	return apperr.New(apperr.ErrInvalidState, "cannot %s reservation %s in status %s", action, res.Number, res.Status)
}

// Confirm moves a pending reservation to CONFIRMEE.
func (s *ReservationService) Confirm(ctx context.Context, p auth.Principal, id uint64) (*model.Reservation, error) {
	if err := p.Require(auth.UpdateReservation); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, id, func(_ Repos, res *model.Reservation, _ *model.Room) error {
		if res.Status != model.ReservationPending {
			return invalidReservationState(res, "confirm")
		}
		res.Status = model.ReservationConfirmed
		return nil
	})
}

// CheckIn starts the stay and occupies the room.
func (s *ReservationService) CheckIn(ctx context.Context, p auth.Principal, id uint64) (*model.Reservation, error) {
	if err := p.Require(auth.UpdateReservation); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, id, func(_ Repos, res *model.Reservation, room *model.Room) error {
		if res.Status != model.ReservationPending && res.Status != model.ReservationConfirmed {
			return invalidReservationState(res, "check in")
		}
		t := now()
		res.Status = model.ReservationInProgress
		res.CheckedInAt = &t
		res.CheckedInBy = p.ActorID()
		room.Status = model.RoomOccupied
		return nil
	})
}

// CheckOut ends the stay and sends the room to cleaning.
func (s *ReservationService) CheckOut(ctx context.Context, p auth.Principal, id uint64) (*model.Reservation, error) {
	if err := p.Require(auth.UpdateReservation); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, id, func(_ Repos, res *model.Reservation, room *model.Room) error {
		if res.Status != model.ReservationInProgress {
			return invalidReservationState(res, "check out")
		}
		t := now()
		res.Status = model.ReservationCompleted
		res.CheckedOutAt = &t
		res.CheckedOutBy = p.ActorID()
		room.Status = model.RoomCleaning
		return nil
	})
}

// Cancel cancels a reservation that has not started. A guest in house must
// check out instead.
func (s *ReservationService) Cancel(ctx context.Context, p auth.Principal, id uint64, reason string) (*model.Reservation, error) {
	if err := p.Require(auth.CancelReservation); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, id, func(r Repos, res *model.Reservation, room *model.Room) error {
		if res.Status == model.ReservationInProgress || res.Status.Closed() {
			return invalidReservationState(res, "cancel")
		}
		res.Status = model.ReservationCancelled
		if reason = strings.TrimSpace(reason); reason != "" {
			res.Notes = appendNote(res.Notes, "Cancelled: "+reason)
		}
		return releaseRoom(ctx, r, res, room)
	})
}

// MarkNoShow closes a reservation whose guest never arrived.
func (s *ReservationService) MarkNoShow(ctx context.Context, p auth.Principal, id uint64) (*model.Reservation, error) {
	if err := p.Require(auth.UpdateReservation); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, id, func(r Repos, res *model.Reservation, room *model.Room) error {
		if res.Status != model.ReservationPending && res.Status != model.ReservationConfirmed {
			return invalidReservationState(res, "mark no-show on")
		}
		res.Status = model.ReservationNoShow
		return releaseRoom(ctx, r, res, room)
	})
}

// UpdateReservationInput carries optional changes; nil fields are kept.
type UpdateReservationInput struct {
	Adults          *int
	Children        *int
	Notes           *string
	SpecialRequests *string
	ExternalRef     *string
}

// Update edits guest counts and notes of an open reservation.
func (s *ReservationService) Update(ctx context.Context, p auth.Principal, id uint64, in UpdateReservationInput) (*model.Reservation, error) {
	if err := p.Require(auth.UpdateReservation); err != nil {
		return nil, err
	}
	var fields apperr.Fields
	fields.Add(in.Adults != nil && *in.Adults < 1, "adults", "adults must be at least 1")
	fields.Add(in.Children != nil && *in.Children < 0, "children", "children must not be negative")
	if err := fields.Err(); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, id, func(_ Repos, res *model.Reservation, room *model.Room) error {
		if res.Status.Closed() {
			return invalidReservationState(res, "modify")
		}
		if in.Adults != nil {
			res.Adults = *in.Adults
		}
		if in.Children != nil {
			res.Children = *in.Children
		}
		if room.Capacity > 0 && res.Adults+res.Children > room.Capacity {
			return apperr.Invalid("adults", "guests exceed room capacity")
		}
		if in.Notes != nil {
			res.Notes = *in.Notes
		}
		if in.SpecialRequests != nil {
			res.SpecialRequests = *in.SpecialRequests
		}
		if in.ExternalRef != nil {
			res.ExternalRef = *in.ExternalRef
		}
		return nil
	})
}

// AddPayment records a payment against the balance. A completed stay can
// still be settled; cancelled and no-show reservations cannot.
func (s *ReservationService) AddPayment(ctx context.Context, p auth.Principal, id uint64, amount decimal.Decimal, mode model.PaymentMode) (*model.Reservation, error) {
	if err := p.Require(auth.UpdateReservation); err != nil {
		return nil, err
	}
	if err := checkPayment(amount); err != nil {
		return nil, err
	}
	if err := checkMode(mode); err != nil {
		return nil, err
	}
	res, err := s.transition(ctx, p, id, func(_ Repos, res *model.Reservation, _ *model.Room) error {
		if res.Status == model.ReservationCancelled || res.Status == model.ReservationNoShow {
			return invalidReservationState(res, "pay")
		}
		if amount.GreaterThan(res.Remaining()) {
			return apperr.New(apperr.ErrInvalidAmount, "payment %s exceeds remaining %s", amount, res.Remaining())
		}
		res.Paid = res.Paid.Add(amount)
		res.PaymentStatus = model.PaymentStatusFor(res.Paid, res.Total)
		if mode != "" {
			res.PaymentMode = mode
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	name := ""
	if c, err := s.store.Clients().GetByID(ctx, p.HotelID, res.ClientID); err == nil {
		name = c.FullName()
	}
	s.ledger.RecordReservationPayment(ctx, p.HotelID, res.ID, res.Number, name, amount, res.PaymentMode)
	return res, nil
}

// Get returns one reservation of the caller's hotel.
func (s *ReservationService) Get(ctx context.Context, p auth.Principal, id uint64) (*model.Reservation, error) {
	if err := p.Require(auth.ViewReservations); err != nil {
		return nil, err
	}
	return s.store.Reservations().GetByID(ctx, p.HotelID, id)
}

// List returns reservations matching f.
func (s *ReservationService) List(ctx context.Context, p auth.Principal, f ReservationFilter) ([]model.Reservation, error) {
	if err := p.Require(auth.ViewReservations); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Invalid("status", "unknown reservation status "+string(f.Status))
	}
	return s.store.Reservations().List(ctx, p.HotelID, f)
}

// ArrivalsToday lists confirmed or pending stays starting today.
func (s *ReservationService) ArrivalsToday(ctx context.Context, p auth.Principal) ([]model.Reservation, error) {
	today := dateOnly(now())
	all, err := s.List(ctx, p, ReservationFilter{ArrivalOn: &today})
	if err != nil {
		return nil, err
	}
	return filterStatus(all, model.ReservationPending, model.ReservationConfirmed), nil
}

// DeparturesToday lists in-house stays ending today.
func (s *ReservationService) DeparturesToday(ctx context.Context, p auth.Principal) ([]model.Reservation, error) {
	today := dateOnly(now())
	return s.List(ctx, p, ReservationFilter{DepartureOn: &today, Status: model.ReservationInProgress})
}

// InHouse lists guests currently checked in.
func (s *ReservationService) InHouse(ctx context.Context, p auth.Principal) ([]model.Reservation, error) {
	return s.List(ctx, p, ReservationFilter{Status: model.ReservationInProgress})
}

// Upcoming lists confirmed or pending stays arriving today or later.
func (s *ReservationService) Upcoming(ctx context.Context, p auth.Principal) ([]model.Reservation, error) {
	today := dateOnly(now())
	all, err := s.List(ctx, p, ReservationFilter{ArrivalFrom: &today})
	if err != nil {
		return nil, err
	}
	return filterStatus(all, model.ReservationPending, model.ReservationConfirmed), nil
}

func filterStatus(in []model.Reservation, keep ...model.ReservationStatus) []model.Reservation {
	out := in[:0]
	for _, r := range in {
		for _, k := range keep {
			if r.Status == k {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func appendNote(notes, line string) string {
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}
