package api

import (
	"net/http"
	"strconv"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/config"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/wizard"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WizardHandler drives server hosted wizard sessions
type WizardHandler struct {
	store *wizard.Store
	cfg   *config.Config
	log   zerolog.Logger
}

// NewWizardHandler creates a new WizardHandler
func NewWizardHandler(store *wizard.Store, cfg *config.Config, log zerolog.Logger) *WizardHandler {
	return &WizardHandler{
		store: store,
		cfg:   cfg,
		log:   log.With().Str("handler", "wizard").Logger(),
	}
}

// session resolves the :id parameter; it answers 404 itself
func (h *WizardHandler) session(c *gin.Context) (*wizard.Session, bool) {
	sess, err := h.store.Get(c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "failed to load wizard session")
		return nil, false
	}
	return sess, true
}

// render writes the session view. With ?wait=true pending validations and
// uploads finish first.
func (h *WizardHandler) render(c *gin.Context, status int, sess *wizard.Session, extra gin.H) {
	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		sess.Wait()
	}
	body := gin.H{"session": sess.View(c.Request.Context())}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// Open handles POST /v1/wizard/sessions. An optional {"user_id": n} opens
// edit mode.
func (h *WizardHandler) Open(c *gin.Context) {
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	sess, err := h.store.Open(c.Request.Context(), req.UserID)
	if err != nil {
		respondError(c, h.log, err, "failed to open wizard")
		return
	}
	h.render(c, http.StatusCreated, sess, nil)
}

// View handles GET /v1/wizard/sessions/:id
func (h *WizardHandler) View(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, sess, nil)
}

// ChangeFields handles PATCH /v1/wizard/sessions/:id/fields
func (h *WizardHandler) ChangeFields(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Fields map[models.Field]string `json:"fields"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fields are required"})
		return
	}

	if err := sess.Apply(c.Request.Context(), req.Fields); err != nil {
		respondError(c, h.log, err, "failed to change fields")
		return
	}
	h.render(c, http.StatusOK, sess, nil)
}

// Next handles POST /v1/wizard/sessions/:id/next
func (h *WizardHandler) Next(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	advanced, err := sess.Next(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "failed to advance wizard")
		return
	}
	h.render(c, http.StatusOK, sess, gin.H{"advanced": advanced})
}

// Previous handles POST /v1/wizard/sessions/:id/previous
func (h *WizardHandler) Previous(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	moved := sess.Previous()
	h.render(c, http.StatusOK, sess, gin.H{"moved": moved})
}

// Submit handles POST /v1/wizard/sessions/:id/submit. Failures are part of
// the returned view, so the status is always 200.
func (h *WizardHandler) Submit(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	phase := sess.Submit(c.Request.Context())
	h.log.Debug().Str("session", sess.ID).Stringer("phase", phase).Msg("Wizard submitted")
	h.render(c, http.StatusOK, sess, gin.H{"phase": phase})
}

// SelectImage handles PUT /v1/wizard/sessions/:id/profile-image
func (h *WizardHandler) SelectImage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	a, err := readAttachment(fh, h.cfg.Upload.MaxSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := sess.SelectImage(a); err != nil {
		respondError(c, h.log, err, "failed to attach image")
		return
	}
	h.render(c, http.StatusOK, sess, nil)
}

// RemoveImage handles DELETE /v1/wizard/sessions/:id/profile-image
func (h *WizardHandler) RemoveImage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.RemoveImage(); err != nil {
		respondError(c, h.log, err, "failed to remove image")
		return
	}
	h.render(c, http.StatusOK, sess, nil)
}

// Preview handles GET /v1/wizard/sessions/:id/profile-image/preview
func (h *WizardHandler) Preview(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	a, ok := sess.Preview()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no image selected"})
		return
	}
	c.Data(http.StatusOK, a.ContentType, a.Data)
}

// Close handles DELETE /v1/wizard/sessions/:id?confirm=true. Without
// confirm a session with unsaved changes stays open.
func (h *WizardHandler) Close(c *gin.Context) {
	confirm, _ := strconv.ParseBool(c.Query("confirm"))
	closed, err := h.store.Close(c.Request.Context(), c.Param("id"), confirm)
	if err != nil {
		respondError(c, h.log, err, "failed to close wizard")
		return
	}
	if !closed {
		c.JSON(http.StatusConflict, gin.H{"closed": false, "error": "Discard unsaved changes?"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed": true})
}
