package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ayush-backend/internal/events"
	"ayush-backend/internal/models"
	"ayush-backend/internal/store"
)

type bookingInput struct {
	Pooja     string `json:"pooja"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	PoojaDate string `json:"poojaDate"`
	Time      string `json:"time"`
	Notes     string `json:"notes"`
}

// parsePoojaDate accepts an RFC 3339 instant or a bare date.
func parsePoojaDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, raw)
}

func (s *server) createBooking(c *gin.Context) {
	var in bookingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Pooja == "" || in.PoojaDate == "" {
		fail(c, http.StatusBadRequest, "Missing required fields.")
		return
	}
	poojaID, err := primitive.ObjectIDFromHex(in.Pooja)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid pooja id")
		return
	}
	date, err := parsePoojaDate(in.PoojaDate)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid pooja date")
		return
	}
	if !date.After(s.now()) {
		fail(c, http.StatusBadRequest, "Pooja date must be in the future")
		return
	}

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	pooja, err := s.store.Poojas.ByID(ctx, poojaID)
	if err != nil {
		s.storeError(c, err, "Pooja not found")
		return
	}
	user, err := s.store.Users.ByID(ctx, userID)
	if err != nil {
		s.storeError(c, err, "User not found")
		return
	}

	b := &models.PoojaBooking{
		User:      user.ID,
		Pooja:     pooja.ID,
		Name:      firstNonEmpty(in.Name, user.Name),
		Email:     firstNonEmpty(normalizeEmail(in.Email), user.Email),
		Phone:     firstNonEmpty(in.Phone, user.Phone),
		Address:   strings.TrimSpace(in.Address),
		PoojaDate: date,
		Time:      strings.TrimSpace(in.Time),
		Notes:     in.Notes,
		Status:    models.BookingPending,
	}
	if err := s.store.Bookings.Create(ctx, b); err != nil {
		s.internalError(c, err)
		return
	}

	s.metrics.bookingsCreated.Inc()
	s.publish(ctx, events.RKBookingCreated, events.NewBookingCreated(
		b.ID.Hex(), user.ID.Hex(), pooja.ID.Hex(), pooja.Name, b.PoojaDate, b.Time))
	s.log.WithFields(map[string]any{"booking_id": b.ID.Hex(), "pooja": pooja.Name}).Info("booking created")

	c.JSON(http.StatusCreated, gin.H{"success": true, "booking": b})
}

func (s *server) myBookings(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	bookings, err := s.store.Bookings.ListByUser(c.Request.Context(), userID)
	if err != nil {
		s.internalError(c, err)
		return
	}
	views, err := s.bookingViews(c.Request.Context(), bookings, false)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bookings": views})
}

func (s *server) allBookings(c *gin.Context) {
	opts, ok := listOptions(c)
	if !ok {
		return
	}
	if opts.Status != "" {
		if _, err := models.ParseBookingStatus(opts.Status); err != nil {
			fail(c, http.StatusBadRequest, "Invalid status")
			return
		}
	}
	bookings, total, err := s.store.Bookings.List(c.Request.Context(), opts)
	if err != nil {
		s.internalError(c, err)
		return
	}
	views, err := s.bookingViews(c.Request.Context(), bookings, true)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bookings": views, "total": total})
}

func (s *server) updateBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Status    string  `json:"status"`
		PoojaDate string  `json:"poojaDate"`
		Time      *string `json:"time"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := c.Request.Context()
	current, err := s.store.Bookings.ByID(ctx, id)
	if err != nil {
		s.storeError(c, err, "Booking not found")
		return
	}

	var patch store.BookingPatch
	if in.Status != "" {
		to, err := models.ParseBookingStatus(in.Status)
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid status")
			return
		}
		if to != current.Status {
			if !current.Status.CanTransitionTo(to) {
				fail(c, http.StatusConflict, fmt.Sprintf("Cannot move booking from %s to %s", current.Status, to))
				return
			}
			patch.Status = &to
		}
	}
	if in.PoojaDate != "" {
		date, err := parsePoojaDate(in.PoojaDate)
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid pooja date")
			return
		}
		if !date.After(s.now()) {
			fail(c, http.StatusBadRequest, "Pooja date must be in the future")
			return
		}
		patch.PoojaDate = &date
	}
	if in.Time != nil {
		slot := strings.TrimSpace(*in.Time)
		patch.Time = &slot
	}

	updated, err := s.store.Bookings.Update(ctx, id, current.Status, patch)
	if err != nil {
		s.storeError(c, err, "Booking not found")
		return
	}
	if patch.Status != nil {
		s.bookingStatusChanged(ctx, updated, current.Status)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": updated})
}

// cancelBooking marks a booking Cancelled. Owners may only withdraw a
// booking that has not been approved yet.
func (s *server) cancelBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	caller := currentIdentity(c)

	current, err := s.store.Bookings.ByID(ctx, id)
	if err != nil {
		s.storeError(c, err, "Booking not found")
		return
	}
	callerID, _ := caller.userID()
	owner := current.User == callerID
	if !caller.admin() && !owner {
		fail(c, http.StatusForbidden, "Not allowed to cancel this booking")
		return
	}
	if !caller.admin() && current.Status != models.BookingPending {
		fail(c, http.StatusConflict, "Only pending bookings can be cancelled")
		return
	}
	if !current.Status.CanTransitionTo(models.BookingCancelled) {
		fail(c, http.StatusConflict, fmt.Sprintf("Cannot move booking from %s to %s", current.Status, models.BookingCancelled))
		return
	}

	to := models.BookingCancelled
	updated, err := s.store.Bookings.Update(ctx, id, current.Status, store.BookingPatch{Status: &to})
	if err != nil {
		s.storeError(c, err, "Booking not found")
		return
	}
	s.bookingStatusChanged(ctx, updated, current.Status)
	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Booking cancelled", "booking": updated})
}

func (s *server) bookingStatusChanged(ctx context.Context, b *models.PoojaBooking, from models.BookingStatus) {
	s.metrics.statusChanges.WithLabelValues("booking", string(b.Status)).Inc()
	s.publish(ctx, events.RKBookingStatusChanged, events.NewBookingStatusChanged(
		b.ID.Hex(), b.User.Hex(), string(from), string(b.Status)))
}

// bookingViews resolves the pooja of each booking, and the user when
// withUser is set. A dangling pooja comes back as null, an unresolved user
// as its id.
func (s *server) bookingViews(ctx context.Context, bookings []models.PoojaBooking, withUser bool) ([]models.BookingView, error) {
	poojaIDs := make([]primitive.ObjectID, 0, len(bookings))
	userIDs := make([]primitive.ObjectID, 0, len(bookings))
	for _, b := range bookings {
		poojaIDs = append(poojaIDs, b.Pooja)
		userIDs = append(userIDs, b.User)
	}
	poojas, err := s.store.Poojas.ByIDs(ctx, poojaIDs)
	if err != nil {
		return nil, err
	}
	var users map[primitive.ObjectID]*models.User
	if withUser {
		if users, err = s.store.Users.ByIDs(ctx, userIDs); err != nil {
			return nil, err
		}
	}

	views := make([]models.BookingView, 0, len(bookings))
	for _, b := range bookings {
		v := models.BookingView{PoojaBooking: b, Pooja: poojas[b.Pooja], User: &models.UserSummary{ID: b.User}}
		if u, ok := users[b.User]; ok {
			v.User = u.Summary()
		}
		views = append(views, v)
	}
	return views, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
