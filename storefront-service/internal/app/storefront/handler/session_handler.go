package handler

import (
	"net/http"

	"tapestore/storefront-service/internal/app/storefront/entity"
	"tapestore/storefront-service/internal/app/storefront/service"
	"tapestore/storefront-service/internal/app/storefront/session"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// SessionHandler обрабатывает вход, регистрацию и выход
// Каждый запрос получает собственный session.Boundary
type SessionHandler struct {
	deps      session.Dependencies
	validator *validator.Validate
}

// NewSessionHandler создает новый handler сессий
func NewSessionHandler(deps session.Dependencies) *SessionHandler {
	return &SessionHandler{
		deps:      deps,
		validator: newValidator(),
	}
}

// Login выполняет вход и сливает гостевое состояние из X-Guest-Token
// POST /session/login
func (h *SessionHandler) Login(c *gin.Context) {
	var req entity.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondValidationError(c, err)
		return
	}

	boundary, err := h.guestBoundary(c)
	if err != nil {
		respondError(c, err)
		return
	}

	snapshot, err := boundary.Login(c.Request.Context(), session.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSessionResponse(snapshot))
}

// Register регистрирует пользователя и сливает гостевое состояние
// POST /session/register
func (h *SessionHandler) Register(c *gin.Context) {
	var req entity.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondValidationError(c, err)
		return
	}

	boundary, err := h.guestBoundary(c)
	if err != nil {
		respondError(c, err)
		return
	}

	snapshot, err := boundary.Register(c.Request.Context(), session.Credentials{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toSessionResponse(snapshot))
}

// Logout завершает сессию и выдает новый гостевой токен
// POST /session/logout
func (h *SessionHandler) Logout(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	boundary := session.ResumeBoundary(&session.Identity{
		UserID:      userID,
		AccessToken: c.GetString(contextAuthToken),
	}, h.deps)

	snapshot, err := boundary.Logout(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSessionResponse(snapshot))
}

func (h *SessionHandler) guestBoundary(c *gin.Context) (*session.Boundary, error) {
	token := c.GetHeader(guestTokenHeader)
	if token != "" {
		if err := service.ValidateGuestToken(token); err != nil {
			return nil, err
		}
	}
	return session.NewGuestBoundary(token, h.deps), nil
}

func toSessionResponse(s *session.Snapshot) entity.SessionResponse {
	resp := entity.SessionResponse{
		State:             string(s.State),
		UserID:            s.UserID,
		GuestToken:        s.GuestToken,
		GuestTokenRevoked: s.GuestTokenRevoked,
		Cart:              s.Cart,
		Wishlist:          s.Wishlist,
		Rejected:          s.Rejected,
	}
	if s.Identity != nil {
		resp.AccessToken = s.Identity.AccessToken
		resp.RefreshToken = s.Identity.RefreshToken
	}
	return resp
}
