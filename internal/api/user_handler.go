package api

import (
	"net/http"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/config"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// UserHandler handles user endpoints
type UserHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "user").Logger(),
	}
}

// Create handles POST /v1/users
func (h *UserHandler) Create(c *gin.Context) {
	in, err := readUserInput(c, h.cfg.Upload.MaxSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.services.User.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err, "failed to create user")
		return
	}

	h.log.Info().Int64("user_id", res.User.ID).Msg("User created")
	c.JSON(http.StatusCreated, res)
}

// Update handles PUT /v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	in, err := readUserInput(c, h.cfg.Upload.MaxSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.services.User.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.log, err, "failed to update user")
		return
	}

	h.log.Info().Int64("user_id", id).Msg("User updated")
	c.JSON(http.StatusOK, res)
}

// Get handles GET /v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	user, err := h.services.User.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "failed to load user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// CheckAvailability handles POST /v1/users/check/:field
func (h *UserHandler) CheckAvailability(c *gin.Context) {
	var req struct {
		Value string `json:"value"`
		ID    int64  `json:"id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}

	field := models.Field(c.Param("field"))
	res, err := h.services.User.CheckAvailability(c.Request.Context(), field, req.Value, req.ID)
	if err != nil {
		respondError(c, h.log, err, "failed to check availability")
		return
	}
	c.JSON(http.StatusOK, res)
}
