package auth

import (
	"net/http"

	"github.com/cardvault/catalog/app/session"
	"github.com/cardvault/catalog/app/web"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminPath is where a successful login lands.
const AdminPath = "/admin"

// adminIdentity names the single operator in session records.
const adminIdentity = "admin"

type CredentialVerifier interface {
	Verify(candidate string) bool
}

type SessionManager interface {
	Establish(c *gin.Context, identity string) error
	Destroy(c *gin.Context) error
}

type LoginForm struct {
	VerificationCode string `form:"verification_code"`
}

type AuthHandler struct {
	verifier CredentialVerifier
	sessions SessionManager
	log      *zap.Logger
}

func NewAuthHandler(v CredentialVerifier, s SessionManager, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{verifier: v, sessions: s, log: log}
}

func (h *AuthHandler) HandleLoginForm(c *gin.Context) {
	if session.IsAuthenticated(c) {
		c.Redirect(http.StatusFound, AdminPath)
		return
	}
	web.Render(c, http.StatusOK, "login.html", gin.H{"Title": "Login"})
}

// HandleLogin checks the submitted code and, on a match, replaces the
// visitor's session with an authenticated one.
func (h *AuthHandler) HandleLogin(c *gin.Context) {
	var input LoginForm
	_ = c.ShouldBind(&input)

	if !h.verifier.Verify(input.VerificationCode) {
		h.log.Warn("login rejected", zap.String("client_ip", c.ClientIP()))
		session.AddFlash(c, session.Danger, "Invalid verification code")
		web.Render(c, http.StatusUnauthorized, "login.html", gin.H{"Title": "Login"})
		return
	}

	if err := h.sessions.Establish(c, adminIdentity); err != nil {
		h.log.Error("session not established", zap.Error(err))
		web.RenderError(c, err)
		return
	}

	h.log.Info("operator logged in", zap.String("client_ip", c.ClientIP()))
	web.RedirectWithFlash(c, AdminPath, session.Success, "Logged in successfully")
}

func (h *AuthHandler) HandleLogout(c *gin.Context) {
	if err := h.sessions.Destroy(c); err != nil {
		h.log.Error("session not destroyed", zap.Error(err))
		web.RenderError(c, err)
		return
	}
	web.RedirectWithFlash(c, "/", session.Success, "Logged out successfully")
}
