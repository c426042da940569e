// Package wizard holds the four step pooja booking flow. A Wizard is owned
// by one UI loop and is not safe for concurrent use.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ayush-backend/internal/client"
	"ayush-backend/internal/models"
)

type Step int

const (
	SelectService Step = iota
	SelectDateTime
	EnterLocation
	Review
)

func (s Step) String() string {
	switch s {
	case SelectService:
		return "Select service"
	case SelectDateTime:
		return "Select date & time"
	case EnterLocation:
		return "Enter location"
	case Review:
		return "Review"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

var (
	ErrWrongStep      = errors.New("wizard: action not allowed at this step")
	ErrPastDate       = errors.New("wizard: please choose a future date and time")
	ErrMissingService = errors.New("wizard: select a pooja first")
)

// Draft is everything collected so far.
type Draft struct {
	PoojaID   string
	PoojaName string
	At        time.Time
	Slot      string
	Address   string
	Notes     string
}

// Contact is copied onto the booking at submit time.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// Submitter sends the assembled booking. *client.Client satisfies it.
type Submitter interface {
	CreateBooking(ctx context.Context, req client.BookingRequest) (*models.PoojaBooking, error)
}

type Wizard struct {
	step  Step
	draft Draft
	now   func() time.Time
}

type Option func(*Wizard)

// WithClock replaces time.Now for the past-date check.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

func New(opts ...Option) *Wizard {
	w := &Wizard{now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Wizard) Step() Step   { return w.step }
func (w *Wizard) Draft() Draft { return w.draft }

func (w *Wizard) expect(s Step) error {
	if w.step != s {
		return fmt.Errorf("%w: at %q, need %q", ErrWrongStep, w.step, s)
	}
	return nil
}

func (w *Wizard) SelectService(poojaID, name string) error {
	if err := w.expect(SelectService); err != nil {
		return err
	}
	if strings.TrimSpace(poojaID) == "" {
		return ErrMissingService
	}
	w.draft.PoojaID, w.draft.PoojaName = poojaID, name
	w.step = SelectDateTime
	return nil
}

// SelectDateTime takes the full instant of the ritual plus its display slot.
func (w *Wizard) SelectDateTime(at time.Time, slot string) error {
	if err := w.expect(SelectDateTime); err != nil {
		return err
	}
	if !at.After(w.now()) {
		return ErrPastDate
	}
	w.draft.At, w.draft.Slot = at, slot
	w.step = EnterLocation
	return nil
}

func (w *Wizard) EnterLocation(address, notes string) error {
	if err := w.expect(EnterLocation); err != nil {
		return err
	}
	w.draft.Address = strings.TrimSpace(address)
	w.draft.Notes = strings.TrimSpace(notes)
	w.step = Review
	return nil
}

// Back moves one step toward the start. Input already entered is kept.
func (w *Wizard) Back() {
	if w.step > SelectService {
		w.step--
	}
}

func (w *Wizard) Reset() {
	w.step = SelectService
	w.draft = Draft{}
}

// Payload assembles the request the wizard would submit.
func (w *Wizard) Payload(contact Contact) (client.BookingRequest, error) {
	if err := w.expect(Review); err != nil {
		return client.BookingRequest{}, err
	}
	return client.BookingRequest{
		Pooja:     w.draft.PoojaID,
		Name:      contact.Name,
		Email:     contact.Email,
		Phone:     contact.Phone,
		Address:   w.draft.Address,
		PoojaDate: w.draft.At,
		Time:      w.draft.Slot,
		Notes:     w.draft.Notes,
	}, nil
}

// Confirm submits once. On success the wizard starts over; on failure it
// stays at Review so the caller can retry by hand.
func (w *Wizard) Confirm(ctx context.Context, sub Submitter, contact Contact) (*models.PoojaBooking, error) {
	req, err := w.Payload(contact)
	if err != nil {
		return nil, err
	}
	b, err := sub.CreateBooking(ctx, req)
	if err != nil {
		return nil, err
	}
	w.Reset()
	return b, nil
}
