package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ayush-backend/internal/events"
	"ayush-backend/internal/models"
	"ayush-backend/internal/store"
)

const (
	// recentActivityCount is how many orders the admin stats feed shows.
	recentActivityCount = 5
	// maxLineQuantity caps one product's quantity in an order, after
	// repeated lines are merged.
	maxLineQuantity = 10000
)

type orderItemInput struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type orderInput struct {
	Items           []orderItemInput `json:"items"`
	ShippingAddress string           `json:"shippingAddress"`
	PaymentMethod   string           `json:"paymentMethod"`
	TotalAmount     *float64         `json:"totalAmount"`
}

var errQuantityTooLarge = fmt.Errorf("Quantity must be at most %d", maxLineQuantity)

// activity is one line of the admin stats feed.
type activity struct {
	Message string `json:"message"`
}

type orderLine struct {
	product  primitive.ObjectID
	quantity int
}

// lines validates the requested items and merges repeated products,
// keeping first-seen order.
func (in orderInput) lines() ([]orderLine, error) {
	if len(in.Items) == 0 {
		return nil, errors.New("Order must contain at least one item")
	}
	index := map[primitive.ObjectID]int{}
	lines := []orderLine{}
	for _, it := range in.Items {
		id, err := primitive.ObjectIDFromHex(it.Product)
		if err != nil {
			return nil, errors.New("Invalid product id")
		}
		if it.Quantity < 1 {
			return nil, errors.New("Quantity must be at least 1")
		}
		if it.Quantity > maxLineQuantity {
			return nil, errQuantityTooLarge
		}
		if i, ok := index[id]; ok {
			if lines[i].quantity > maxLineQuantity-it.Quantity {
				return nil, errQuantityTooLarge
			}
			lines[i].quantity += it.Quantity
			continue
		}
		index[id] = len(lines)
		lines = append(lines, orderLine{product: id, quantity: it.Quantity})
	}
	return lines, nil
}

func (s *server) placeOrder(c *gin.Context) {
	var in orderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	lines, err := in.lines()
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	address := strings.TrimSpace(in.ShippingAddress)
	if address == "" {
		fail(c, http.StatusBadRequest, "Shipping address is required")
		return
	}
	method := models.PaymentCOD
	if in.PaymentMethod != "" {
		method = models.PaymentMethod(in.PaymentMethod)
		if !method.Valid() {
			fail(c, http.StatusBadRequest, "Invalid payment method")
			return
		}
	}

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := s.store.Users.ByID(ctx, userID); err != nil {
		s.storeError(c, err, "User not found")
		return
	}

	items, err := s.reserveStock(ctx, lines)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientStock) {
			s.metrics.stockRejected.Inc()
		}
		s.storeError(c, err, "Product not found")
		return
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	total = total.Round(2)
	if in.TotalAmount != nil && !decimal.NewFromFloat(*in.TotalAmount).Round(2).Equal(total) {
		s.log.WithFields(map[string]any{
			"user_id":      userID.Hex(),
			"client_total": *in.TotalAmount,
			"server_total": total.String(),
		}).Warn("client total differs from computed total, using computed")
	}

	order := &models.Order{
		User:            userID,
		Items:           items,
		ShippingAddress: address,
		PaymentMethod:   method,
		TotalAmount:     total.InexactFloat64(),
		Status:          models.OrderPending,
	}
	if err := s.store.Orders.Create(ctx, order); err != nil {
		s.releaseStock(ctx, items)
		s.internalError(c, err)
		return
	}

	s.metrics.ordersPlaced.Inc()
	s.metrics.orderRevenue.Add(order.TotalAmount)
	s.publish(ctx, events.RKOrderPlaced, events.NewOrderPlaced(
		order.ID.Hex(), userID.Hex(), len(order.Items), order.TotalAmount, string(order.PaymentMethod)))
	s.log.WithFields(map[string]any{"order_id": order.ID.Hex(), "total": total.String()}).Info("order placed")

	c.JSON(http.StatusCreated, gin.H{"success": true, "order": order})
}

// reserveStock takes each line's quantity out of stock. On the first
// failure every reservation already made is given back.
func (s *server) reserveStock(ctx context.Context, lines []orderLine) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		p, err := s.products.AdjustStock(ctx, l.product, -l.quantity)
		if err != nil {
			s.releaseStock(ctx, items)
			return nil, fmt.Errorf("reserve %s: %w", l.product.Hex(), err)
		}
		items = append(items, models.OrderItem{
			Product:  p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Quantity: l.quantity,
		})
	}
	return items, nil
}

// releaseStock returns reserved quantities. It outlives the request so a
// client disconnect cannot leak stock. Products deleted meanwhile are skipped.
func (s *server) releaseStock(ctx context.Context, items []models.OrderItem) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	for _, it := range items {
		if _, err := s.products.AdjustStock(ctx, it.Product, it.Quantity); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.log.WithError(err).WithFields(map[string]any{
				"product_id": it.Product.Hex(),
				"quantity":   it.Quantity,
			}).Error("release stock failed")
		}
	}
}

func (s *server) myOrders(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	orders, err := s.store.Orders.ListByUser(c.Request.Context(), userID)
	if err != nil {
		s.internalError(c, err)
		return
	}
	views, err := s.orderViews(c.Request.Context(), orders, currentIdentity(c), false)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": views})
}

func (s *server) allOrders(c *gin.Context) {
	opts, ok := listOptions(c)
	if !ok {
		return
	}
	if opts.Status != "" {
		if _, err := models.ParseOrderStatus(opts.Status); err != nil {
			fail(c, http.StatusBadRequest, "Invalid status")
			return
		}
	}
	orders, total, err := s.store.Orders.List(c.Request.Context(), opts)
	if err != nil {
		s.internalError(c, err)
		return
	}
	views, err := s.orderViews(c.Request.Context(), orders, currentIdentity(c), true)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": views, "total": total})
}

func (s *server) updateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	to, err := models.ParseOrderStatus(in.Status)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid status")
		return
	}

	ctx := c.Request.Context()
	caller := currentIdentity(c)
	current, err := s.store.Orders.ByID(ctx, id)
	if err != nil {
		s.storeError(c, err, "Order not found")
		return
	}
	callerID, _ := caller.userID()
	owner := current.User == callerID
	switch {
	case to == models.OrderCancelled && !caller.admin() && !owner:
		fail(c, http.StatusForbidden, "Not allowed to cancel this order")
		return
	case to != models.OrderCancelled && !caller.admin():
		fail(c, http.StatusForbidden, "Only admin can update status")
		return
	}
	if !current.Status.CanTransitionTo(to) {
		fail(c, http.StatusConflict, fmt.Sprintf("Cannot move order from %s to %s", current.Status, to))
		return
	}

	updated, err := s.store.Orders.UpdateStatus(ctx, id, current.Status, to)
	if err != nil {
		s.storeError(c, err, "Order not found")
		return
	}
	if to == models.OrderCancelled {
		s.releaseStock(ctx, updated.Items)
	}

	s.metrics.statusChanges.WithLabelValues("order", string(to)).Inc()
	s.publish(ctx, events.RKOrderStatusChanged, events.NewOrderStatusChanged(
		updated.ID.Hex(), updated.User.Hex(), string(current.Status), string(to), caller.ID))
	c.JSON(http.StatusOK, gin.H{"success": true, "order": updated})
}

func (s *server) orderStats(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := s.store.Orders.Stats(ctx, recentActivityCount)
	if err != nil {
		s.internalError(c, err)
		return
	}
	userIDs := make([]primitive.ObjectID, 0, len(stats.Recent))
	for _, o := range stats.Recent {
		userIDs = append(userIDs, o.User)
	}
	users, err := s.store.Users.ByIDs(ctx, userIDs)
	if err != nil {
		s.internalError(c, err)
		return
	}

	activities := make([]activity, 0, len(stats.Recent))
	for _, o := range stats.Recent {
		name := "Unknown"
		if u, ok := users[o.User]; ok && u.Name != "" {
			name = u.Name
		}
		activities = append(activities, activity{Message: fmt.Sprintf("Order %s placed by %s", shortID(o.ID), name)})
	}
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"totalOrders":      stats.TotalOrders,
		"totalRevenue":     stats.TotalRevenue.InexactFloat64(),
		"recentActivities": activities,
	})
}

// orderViews populates item products, and users when withUser is set,
// and attaches the actions the caller may take on each order.
func (s *server) orderViews(ctx context.Context, orders []models.Order, caller identity, withUser bool) ([]models.OrderView, error) {
	productIDs := []primitive.ObjectID{}
	userIDs := make([]primitive.ObjectID, 0, len(orders))
	for _, o := range orders {
		userIDs = append(userIDs, o.User)
		for _, it := range o.Items {
			productIDs = append(productIDs, it.Product)
		}
	}
	products, err := s.products.ByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	var users map[primitive.ObjectID]*models.User
	if withUser {
		if users, err = s.store.Users.ByIDs(ctx, userIDs); err != nil {
			return nil, err
		}
	}

	callerID, _ := caller.userID()
	views := make([]models.OrderView, 0, len(orders))
	for _, o := range orders {
		v := models.OrderView{
			Order:   o,
			Items:   make([]models.OrderItemView, 0, len(o.Items)),
			Actions: models.OrderActions(o.Status, caller.admin(), o.User == callerID),
			User:    &models.UserSummary{ID: o.User},
		}
		for _, it := range o.Items {
			v.Items = append(v.Items, models.OrderItemView{OrderItem: it, Product: products[it.Product]})
		}
		if u, ok := users[o.User]; ok {
			v.User = u.Summary()
		}
		views = append(views, v)
	}
	return views, nil
}

// shortID is the tail of an id shown to humans.
func shortID(id primitive.ObjectID) string {
	hex := id.Hex()
	return hex[len(hex)-5:]
}
