package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ErlanBelekov/blog-newsletter/internal/domain"
	"github.com/resend/resend-go/v2"
)

// contactCreator is the subset of resend.ContactsSvc the audience needs.
type contactCreator interface {
	CreateWithContext(ctx context.Context, params *resend.CreateContactRequest) (resend.CreateContactResponse, error)
}

// ResendAudience subscribes by adding the email as a contact of a Resend
// audience. Resend handles confirmation and unsubscribes itself.
type ResendAudience struct {
	contacts       contactCreator
	audienceID     string
	requireConsent bool
}

func NewResendAudience(client *resend.Client, audienceID string, requireConsent bool) *ResendAudience {
	return newResendAudience(client.Contacts, audienceID, requireConsent)
}

func newResendAudience(contacts contactCreator, audienceID string, requireConsent bool) *ResendAudience {
	return &ResendAudience{
		contacts:       contacts,
		audienceID:     audienceID,
		requireConsent: requireConsent,
	}
}

func (a *ResendAudience) Subscribe(ctx context.Context, emailAddr string, consent *bool) error {
	if err := domain.CheckConsent(consent, a.requireConsent); err != nil {
		return err
	}

	_, err := a.contacts.CreateWithContext(ctx, &resend.CreateContactRequest{
		Email:      strings.ToLower(emailAddr),
		AudienceId: a.audienceID,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, resend.ErrRateLimit):
		return fmt.Errorf("create resend contact: rate limited: %w", err)
	case isDuplicateContact(err):
		return domain.ErrAlreadySubscribed
	default:
		return fmt.Errorf("create resend contact: %w", err)
	}
}

// isDuplicateContact matches the 400/422 reply Resend sends for an email
// already in the audience. resend-go has no typed error for it: the client
// returns errors.New("[ERROR]: " + message), with a message such as
// "Contact already exists".
func isDuplicateContact(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.HasPrefix(msg, "[error]: ") && strings.Contains(msg, "already exists")
}
