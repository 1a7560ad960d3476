package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-roster/internal/models"
	"github.com/noah-isme/tuition-roster/pkg/config"
	appErrors "github.com/noah-isme/tuition-roster/pkg/errors"
)

const tokenIssuer = "tuition-roster"

// Manager hands out session slots and the signed tokens that address them.
// The token subject is the slot key; the slot's presence is what makes a
// browser authenticated.
type Manager struct {
	store  Store
	auth   Authenticator
	cfg    config.SessionConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewManager constructs a Manager.
func NewManager(store Store, auth Authenticator, cfg config.SessionConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, auth: auth, cfg: cfg, logger: logger, now: time.Now}
}

// Token is a signed slot reference handed to the browser.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignIn authenticates into a fresh slot and returns its holder and token.
func (m *Manager) SignIn(ctx context.Context, username, password string) (*Holder, *models.AdminIdentity, *Token, error) {
	holder := m.holder(m.cfg.KeyPrefix + uuid.NewString())
	identity, err := holder.SignIn(ctx, username, password)
	if err != nil {
		return nil, nil, nil, err
	}
	token, err := m.sign(holder.Key())
	if err != nil {
		_ = holder.SignOut(ctx)
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue session token")
	}
	m.logger.Info("admin signed in", zap.String("username", identity.Username))
	return holder, identity, token, nil
}

// Resume validates a token and returns the initialised holder of its slot.
// It returns ErrUnauthorized when the slot is empty.
func (m *Manager) Resume(ctx context.Context, tokenString string) (*Holder, error) {
	key, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	holder := m.holder(key)
	if err := holder.Init(ctx); err != nil {
		return nil, err
	}
	if holder.Current() == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
	}
	return holder, nil
}

func (m *Manager) holder(key string) *Holder {
	return NewHolder(m.store, m.auth, key, m.cfg.TTL, m.logger)
}

func (m *Manager) sign(key string) (*Token, error) {
	issuedAt := m.now().UTC()
	expiresAt := issuedAt.Add(m.cfg.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   key,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return nil, err
	}
	return &Token{Value: signed, ExpiresAt: expiresAt}, nil
}

func (m *Manager) parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.cfg.Secret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session token")
	}
	if !token.Valid || !strings.HasPrefix(claims.Subject, m.cfg.KeyPrefix) {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid session token")
	}
	return claims.Subject, nil
}
