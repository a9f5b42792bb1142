package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/almuerzo-cl/almuerzo/backend/internal/service"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

// EventHandler serves lunch event booking
type EventHandler struct {
	booking service.IBookingService
}

func NewEventHandler(booking service.IBookingService) *EventHandler {
	return &EventHandler{booking: booking}
}

func (h *EventHandler) RegisterRoutes(router *gin.RouterGroup, g *guards) {
	events := router.Group("/events", g.auth)
	{
		events.POST("", h.CreateEvent)
		events.GET("", h.ListEvents)
		events.GET("/:id", h.GetEvent)
		events.POST("/:id/decision", h.DecideEvent)
		events.POST("/:id/cancel", h.CancelEvent)
		events.POST("/:id/check-in", h.CheckIn)
		events.POST("/:id/rating", h.RateEvent)
	}

	router.GET("/restaurants/:id/reservations", g.auth, g.manager, h.ListReservations)
}

// CreateEvent books a lunch. A full restaurant answers 409 with
// waitlist_available when the caller may retry with join_waitlist.
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req types.CreateLunchEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.booking.CreateLunchEvent(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListEvents lists the caller's events; scope=past lists finished ones.
func (h *EventHandler) ListEvents(c *gin.Context) {
	events, err := h.booking.ListOrganizerEvents(c.Request.Context(), currentUser(c), c.Query("scope") != "past")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	event, err := h.booking.GetEvent(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) DecideEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.DecideEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	event, err := h.booking.DecideEvent(c.Request.Context(), currentUser(c), id, req.Decision == "accept", req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) CancelEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.CancelEventRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	event, err := h.booking.CancelEvent(c.Request.Context(), currentUser(c), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) CheckIn(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	event, err := h.booking.CheckIn(c.Request.Context(), currentUser(c), id, req.Method, req.Location)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) RateEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.RateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rating, err := h.booking.RateEvent(c.Request.Context(), currentUser(c), id, req.Forks, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rating)
}

// ListReservations lists a restaurant's events, optionally for one day
// given as date=YYYY-MM-DD.
func (h *EventHandler) ListReservations(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var day *time.Time
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			badRequest(c, errors.New("date must be YYYY-MM-DD"))
			return
		}
		day = &d
	}
	reservations, err := h.booking.ListRestaurantReservations(c.Request.Context(), currentUser(c), id, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservations)
}
