package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ErlanBelekov/blog-newsletter/internal/domain"
	"github.com/ErlanBelekov/blog-newsletter/internal/email"
	"github.com/ErlanBelekov/blog-newsletter/internal/repository"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultConfirmTTL = 48 * time.Hour
	confirmAudience   = "newsletter-confirm"
)

// SubscriptionUsecase is the double opt-in flow: subscribe stores a pending
// subscriber and emails a signed link, confirm flips it to confirmed.
type SubscriptionUsecase struct {
	subscribers    repository.SubscriberRepository
	email          email.Sender
	jwtKey         []byte
	confirmTTL     time.Duration
	confirmBase    string
	blogName       string
	requireConsent bool
	now            func() time.Time
}

type SubscriptionConfig struct {
	JWTKey         []byte
	ConfirmTTL     time.Duration
	ConfirmBaseURL string // link is {ConfirmBaseURL}/api/{provider}/confirm?token=...
	Provider       string
	BlogName       string
	RequireConsent bool // also reject requests that carry no consent field
}

func NewSubscriptionUsecase(subscribers repository.SubscriberRepository, sender email.Sender, cfg SubscriptionConfig) *SubscriptionUsecase {
	ttl := cfg.ConfirmTTL
	if ttl == 0 {
		ttl = DefaultConfirmTTL
	}
	base := strings.TrimRight(cfg.ConfirmBaseURL, "/") + "/api/" + url.PathEscape(cfg.Provider) + "/confirm"
	return &SubscriptionUsecase{
		subscribers:    subscribers,
		email:          sender,
		jwtKey:         cfg.JWTKey,
		confirmTTL:     ttl,
		confirmBase:    base,
		blogName:       cfg.BlogName,
		requireConsent: cfg.RequireConsent,
		now:            time.Now,
	}
}

// ConfirmTTL is how long a pending subscriber may stay unconfirmed.
func (u *SubscriptionUsecase) ConfirmTTL() time.Duration {
	return u.confirmTTL
}

// Subscribe stores a pending subscriber and emails the confirmation link.
// A nil consent means the client did not ask; see domain.CheckConsent.
func (u *SubscriptionUsecase) Subscribe(ctx context.Context, emailAddr string, consent *bool) error {
	if err := domain.CheckConsent(consent, u.requireConsent); err != nil {
		return err
	}

	sub, err := u.subscribers.CreatePending(ctx, emailAddr, domain.Granted(consent))
	if err != nil {
		if errors.Is(err, domain.ErrAlreadySubscribed) {
			return err
		}
		return fmt.Errorf("create pending subscriber: %w", err)
	}

	token, err := u.signConfirmToken(sub)
	if err != nil {
		return err
	}

	link := u.confirmBase + "?token=" + url.QueryEscape(token)
	subject, body, err := email.Confirmation(u.blogName, link, u.confirmTTL.String())
	if err != nil {
		return err
	}
	if err := u.email.Send(ctx, sub.Email, subject, body); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	return nil
}

// Confirm validates the emailed token and marks its subscriber confirmed.
func (u *SubscriptionUsecase) Confirm(ctx context.Context, rawToken string) (*domain.Subscriber, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (any, error) {
		return u.jwtKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(confirmAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(u.now),
	)
	if err != nil || claims.Subject == "" {
		return nil, domain.ErrTokenInvalid
	}

	sub, err := u.subscribers.Confirm(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrSubscriberNotFound) {
			// pruned before the link was followed
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("confirm subscriber: %w", err)
	}
	return sub, nil
}

func (u *SubscriptionUsecase) signConfirmToken(sub *domain.Subscriber) (string, error) {
	now := u.now()
	claims := jwt.RegisteredClaims{
		Subject:   sub.ID,
		Audience:  jwt.ClaimStrings{confirmAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(u.confirmTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.jwtKey)
	if err != nil {
		return "", fmt.Errorf("sign confirm token: %w", err)
	}
	return signed, nil
}
