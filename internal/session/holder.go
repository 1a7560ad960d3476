package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tuition-roster/internal/models"
	appErrors "github.com/noah-isme/tuition-roster/pkg/errors"
)

// Authenticator checks a username/password pair. Any failure must be
// reported as ErrInvalidCredentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.AdminIdentity, error)
}

// Holder owns one session slot and the identity currently held in it.
type Holder struct {
	store   Store
	auth    Authenticator
	key     string
	ttl     time.Duration
	logger  *zap.Logger
	current *models.AdminIdentity
}

// NewHolder binds a Holder to the slot at key.
func NewHolder(store Store, auth Authenticator, key string, ttl time.Duration, logger *zap.Logger) *Holder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Holder{store: store, auth: auth, key: key, ttl: ttl, logger: logger}
}

// Key returns the slot key.
func (h *Holder) Key() string { return h.key }

// Init restores the identity persisted in the slot. An unreadable slot is
// cleared and treated as anonymous.
func (h *Holder) Init(ctx context.Context) error {
	identity, err := h.store.Load(ctx, h.key)
	if err != nil {
		h.logger.Warn("discarding unreadable session slot", zap.String("slot", h.key), zap.Error(err))
		h.current = nil
		if delErr := h.store.Delete(ctx, h.key); delErr != nil {
			return appErrors.Wrap(delErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset session")
		}
		return nil
	}
	h.current = identity
	return nil
}

// SignIn authenticates and writes the identity to the slot.
func (h *Holder) SignIn(ctx context.Context, username, password string) (*models.AdminIdentity, error) {
	identity, err := h.auth.Authenticate(ctx, username, password)
	if err != nil || identity == nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	if err := h.store.Save(ctx, h.key, *identity, h.ttl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}
	h.current = identity
	return identity, nil
}

// SignOut clears the slot.
func (h *Holder) SignOut(ctx context.Context) error {
	h.current = nil
	if err := h.store.Delete(ctx, h.key); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear session")
	}
	return nil
}

// Current returns the signed-in identity or nil.
func (h *Holder) Current() *models.AdminIdentity { return h.current }
