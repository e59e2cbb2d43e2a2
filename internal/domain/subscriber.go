package domain

import (
	"errors"
	"time"
)

var (
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrAlreadySubscribed  = errors.New("email is already subscribed")
	ErrConsentRequired    = errors.New("consent is required")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
)

type SubscriberStatus string

const (
	SubscriberPending   SubscriberStatus = "pending"
	SubscriberConfirmed SubscriberStatus = "confirmed"
)

// CheckConsent rejects an explicit refusal. A request that does not carry
// consent at all is rejected only when required is set.
func CheckConsent(consent *bool, required bool) error {
	if consent == nil {
		if required {
			return ErrConsentRequired
		}
		return nil
	}
	if !*consent {
		return ErrConsentRequired
	}
	return nil
}

// Granted reports whether consent was explicitly given.
func Granted(consent *bool) bool {
	return consent != nil && *consent
}

type Subscriber struct {
	ID          string
	Email       string
	Consent     bool
	Status      SubscriberStatus
	CreatedAt   time.Time
	ConfirmedAt *time.Time // nil until the confirmation link is followed
}
