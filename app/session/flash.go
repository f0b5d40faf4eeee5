package session

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Flash levels.
const (
	Success = "success"
	Warning = "warning"
	Danger  = "danger"
)

const (
	flashCookie    = "catalog_flash"
	flashKey       = "session.flashes"
	flashSecretKey = "session.flashSecret"
)

// Flash is a one-shot notification shown on the next rendered page.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type flashClaims struct {
	Flashes []Flash `json:"flashes"`
	jwt.RegisteredClaims
}

// Flashes lets handlers carry notifications across a redirect. The queue is
// kept in a cookie signed with secret; cookies that fail verification are
// dropped. Manager.Load installs it with the session secret.
func Flashes(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(flashSecretKey, secret)
		c.Next()
	}
}

// AddFlash queues a notification. It is stored in a cookie so it survives
// the redirect that usually follows.
func AddFlash(c *gin.Context, level, message string) {
	flashes := append(pendingFlashes(c), Flash{Level: level, Message: message})
	c.Set(flashKey, flashes)
	writeFlashCookie(c, flashes)
}

// PopFlashes returns every queued notification and clears the queue.
func PopFlashes(c *gin.Context) []Flash {
	flashes := pendingFlashes(c)
	if len(flashes) > 0 {
		c.Set(flashKey, []Flash{})
		writeFlashCookie(c, nil)
	}
	return flashes
}

// ClearFlashes drops queued notifications without returning them.
func ClearFlashes(c *gin.Context) {
	PopFlashes(c)
}

func flashSecret(c *gin.Context) []byte {
	if v, ok := c.Get(flashSecretKey); ok {
		if secret, ok := v.([]byte); ok && len(secret) > 0 {
			return secret
		}
	}
	return nil
}

// pendingFlashes returns the flashes of this request, seeded from the
// incoming cookie on first use.
func pendingFlashes(c *gin.Context) []Flash {
	if v, ok := c.Get(flashKey); ok {
		if flashes, ok := v.([]Flash); ok {
			return flashes
		}
	}

	var flashes []Flash
	if raw, err := c.Cookie(flashCookie); err == nil && raw != "" {
		if decoded, err := decodeFlashes(raw, flashSecret(c)); err == nil {
			flashes = decoded
		}
	}
	c.Set(flashKey, flashes)
	return flashes
}

func decodeFlashes(raw string, secret []byte) ([]Flash, error) {
	if secret == nil {
		return nil, errors.New("no flash secret")
	}
	var claims flashClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims.Flashes, nil
}

// writeFlashCookie stores flashes, or clears the cookie when there are none.
// Without a secret the queue only lives for the current request.
func writeFlashCookie(c *gin.Context, flashes []Flash) {
	if len(flashes) == 0 {
		setFlashCookie(c, "", -1)
		return
	}

	secret := flashSecret(c)
	if secret == nil {
		return
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, flashClaims{Flashes: flashes}).SignedString(secret)
	if err != nil {
		return
	}
	setFlashCookie(c, signed, 0)
}

func setFlashCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
