package handler

const (
	errInternalServer    = "Internal server error"
	errUnknownProvider   = "Unknown newsletter provider"
	errInvalidEmail      = "A valid email address is required"
	errConsentRequired   = "You need to agree to our Privacy Policy and GDPR regulations to subscribe."
	errAlreadySubscribed = "Email is already subscribed"
	errTokenInvalid      = "Confirmation link is invalid or expired"
)
