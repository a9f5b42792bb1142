package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/almuerzo-cl/almuerzo/backend/internal/geo"
	"github.com/almuerzo-cl/almuerzo/backend/internal/middleware"
	"github.com/almuerzo-cl/almuerzo/backend/internal/service"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error             string `json:"error"`
	Code              string `json:"code"`
	WaitlistAvailable bool   `json:"waitlist_available,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrNoCandidates, http.StatusNotFound, "no_candidates"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{service.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{service.ErrPolicyNotAccepted, http.StatusBadRequest, "policy_not_accepted"},
	{service.ErrUserExists, http.StatusConflict, "user_exists"},
	{service.ErrRestaurantFull, http.StatusConflict, "restaurant_full"},
	{service.ErrNoWaitlist, http.StatusConflict, "no_waitlist"},
	{service.ErrOutsideCheckInWindow, http.StatusConflict, "outside_check_in_window"},
	{service.ErrTooFarForCheckIn, http.StatusConflict, "too_far_for_check_in"},
	{service.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{service.ErrAlreadyRated, http.StatusConflict, "already_rated"},
	{service.ErrMixedCart, http.StatusConflict, "mixed_cart"},
	{service.ErrOutOfStock, http.StatusConflict, "out_of_stock"},
	{service.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
}

// respondError maps service errors to HTTP responses. Unknown errors are
// recorded on the context for the access log and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.AbortWithStatusJSON(m.status, ErrorResponse{
				Error:             err.Error(),
				Code:              m.code,
				WaitlistAvailable: m.target == service.ErrRestaurantFull,
			})
			return
		}
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal"})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_input"})
}

func currentUser(c *gin.Context) uuid.UUID {
	id, _ := middleware.UserID(c)
	return id
}

// optionalUser returns nil for anonymous requests.
func optionalUser(c *gin.Context) *uuid.UUID {
	if id, ok := middleware.UserID(c); ok {
		return &id
	}
	return nil
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name, Code: "invalid_input"})
		return uuid.Nil, false
	}
	return id, true
}

// originQuery reads lat/lon query parameters. Missing or malformed
// coordinates yield nil so the service uses its default origin.
func originQuery(c *gin.Context) *geo.Point {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil {
		return nil
	}
	p := geo.Point{Lat: lat, Lon: lon}
	if !p.Valid() {
		return nil
	}
	return &p
}

func intQuery(c *gin.Context, name string, def int) int {
	if v, err := strconv.Atoi(c.Query(name)); err == nil && v >= 0 {
		return v
	}
	return def
}

func boolQuery(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(c.Query(name)))
	return v
}
