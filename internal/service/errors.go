package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUserExists           = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPolicyNotAccepted    = errors.New("no-show policy not accepted")
	ErrRestaurantFull       = errors.New("restaurant is full for this slot")
	ErrNoWaitlist           = errors.New("restaurant is full and has no waitlist")
	ErrOutsideCheckInWindow = errors.New("outside check-in window")
	ErrTooFarForCheckIn     = errors.New("too far from the restaurant to check in")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrAlreadyRated         = errors.New("event already rated")
	ErrMixedCart            = errors.New("order items span more than one restaurant")
	ErrOutOfStock           = errors.New("menu item out of stock")
	ErrNoCandidates         = errors.New("no restaurants match the request")
	ErrRateLimited          = errors.New("rate limit exceeded")
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
