package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cardvault/catalog/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoginPath is where RequireAdmin sends anonymous visitors.
const LoginPath = "/login"

const stateKey = "session.state"

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session token has expired")
)

// State is the session view of one request.
type State struct {
	ID            string
	Identity      string
	Authenticated bool
}

type Options struct {
	CookieName string
	TTL        time.Duration
	// Secret signs session tokens. A random key is generated when empty,
	// which logs everybody out on restart.
	Secret []byte
	Secure bool
}

// Manager issues, resolves and destroys sessions.
type Manager struct {
	store Store
	opts  Options
	log   *zap.Logger
	now   func() time.Time
}

func NewManager(store Store, opts Options, log *zap.Logger) (*Manager, error) {
	if opts.CookieName == "" {
		opts.CookieName = "catalog_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 12 * time.Hour
	}
	if len(opts.Secret) == 0 {
		opts.Secret = make([]byte, 32)
		if _, err := rand.Read(opts.Secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, opts: opts, log: log, now: time.Now}, nil
}

// Load resolves the session cookie into a State on the request context and
// signs flash cookies with the session secret. Anything that fails to
// resolve leaves the request anonymous.
func (m *Manager) Load() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(flashSecretKey, m.opts.Secret)
		c.Set(stateKey, m.resolve(c))
		c.Next()
	}
}

func (m *Manager) resolve(c *gin.Context) State {
	token, err := c.Cookie(m.opts.CookieName)
	if err != nil || token == "" {
		return State{}
	}

	claims, err := m.parseToken(token)
	if err != nil {
		m.log.Debug("session token rejected", zap.Error(err))
		return State{}
	}

	sess, err := m.store.GetSession(c.Request.Context(), claims.ID)
	if err != nil {
		if !errors.Is(err, models.ErrSessionNotFound) {
			m.log.Error("session lookup failed", zap.Error(err))
		}
		return State{}
	}

	return State{
		ID:            sess.ID,
		Identity:      sess.Identity,
		Authenticated: sess.Authenticated,
	}
}

// Establish discards the current session and starts a new authenticated one
// for identity, so no state from before the login carries over.
func (m *Manager) Establish(c *gin.Context, identity string) error {
	ctx := c.Request.Context()

	if prev := FromContext(c); prev.ID != "" {
		if err := m.store.DeleteSession(ctx, prev.ID); err != nil {
			return fmt.Errorf("discard previous session: %w", err)
		}
	}
	ClearFlashes(c)

	now := m.now()
	sess := &models.Session{
		ID:            uuid.NewString(),
		Identity:      identity,
		Authenticated: true,
		ExpiresAt:     now.Add(m.opts.TTL),
		CreatedAt:     now,
	}
	if err := m.store.CreateSession(ctx, sess); err != nil {
		return err
	}

	token, err := m.signToken(sess)
	if err != nil {
		_ = m.store.DeleteSession(ctx, sess.ID)
		return err
	}

	m.setCookie(c, token, int(m.opts.TTL.Seconds()))
	c.Set(stateKey, State{ID: sess.ID, Identity: identity, Authenticated: true})
	return nil
}

// Destroy ends the current session. It is safe on anonymous requests.
func (m *Manager) Destroy(c *gin.Context) error {
	if cur := FromContext(c); cur.ID != "" {
		if err := m.store.DeleteSession(c.Request.Context(), cur.ID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	}
	m.setCookie(c, "", -1)
	c.Set(stateKey, State{})
	return nil
}

type claims struct {
	jwt.RegisteredClaims
}

func (m *Manager) signToken(sess *models.Session) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   sess.Identity,
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	})
	signed, err := tok.SignedString(m.opts.Secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (m *Manager) parseToken(raw string) (*claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.opts.Secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.ID == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}

func (m *Manager) setCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromContext returns the session state resolved by Load.
func FromContext(c *gin.Context) State {
	if v, ok := c.Get(stateKey); ok {
		if st, ok := v.(State); ok {
			return st
		}
	}
	return State{}
}

// IsAuthenticated reports whether the request carries an authenticated session.
func IsAuthenticated(c *gin.Context) bool {
	return FromContext(c).Authenticated
}

// RequireAdmin stops anonymous requests before the handler runs and sends
// them to the login page with a warning.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			AddFlash(c, Warning, "You must log in to access this page")
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}
