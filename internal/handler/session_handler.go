package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/validation"
	"github.com/noah-isme/sma-adp-client/pkg/response"
)

type authService interface {
	Login(ctx context.Context, draft validation.LoginDraft) (models.Session, error)
	Logout(ctx context.Context) error
	Session() models.Session
	Refresh(ctx context.Context) (models.Session, error)
	Register(ctx context.Context, draft validation.RegistrationDraft) (*models.RegisterResponse, error)
}

// sessionView is what the console exposes about the stored session. Tokens
// stay inside the process.
type sessionView struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
}

func viewOf(sess models.Session) sessionView {
	view := sessionView{Authenticated: sess.Authenticated(), User: sess.User}
	if exp, ok := sess.ExpiresAt(); ok {
		exp = exp.UTC()
		view.ExpiresAt = &exp
	}
	return view
}

// SessionHandler wires the session store to HTTP endpoints.
type SessionHandler struct {
	auth authService
}

// NewSessionHandler creates a new handler.
func NewSessionHandler(auth authService) *SessionHandler {
	return &SessionHandler{auth: auth}
}

// Login godoc
// @Summary Sign in
// @Description Authenticate with the school API and store the session
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body validation.LoginDraft true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /session/login [post]
func (h *SessionHandler) Login(c *gin.Context) {
	var draft validation.LoginDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, invalidPayload(err, "login"))
		return
	}
	sess, err := h.auth.Login(c.Request.Context(), draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, viewOf(sess), nil)
}

// Logout godoc
// @Summary Sign out
// @Description Drop the stored session and the cached rosters
// @Tags Session
// @Success 204
// @Router /session/logout [post]
func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Current godoc
// @Summary Current session
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Current(c *gin.Context) {
	response.JSON(c, http.StatusOK, viewOf(h.auth.Session()), nil)
}

// Refresh godoc
// @Summary Refresh the access token
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /session/refresh [post]
func (h *SessionHandler) Refresh(c *gin.Context) {
	sess, err := h.auth.Refresh(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, viewOf(sess), nil)
}

// Register godoc
// @Summary Register a console user
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body validation.RegistrationDraft true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /register [post]
func (h *SessionHandler) Register(c *gin.Context) {
	var draft validation.RegistrationDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, invalidPayload(err, "registration"))
		return
	}
	res, err := h.auth.Register(c.Request.Context(), draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}
