package api

import (
	"errors"
	"net/http"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/config"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/service"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/upload"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// OrgHandler serves the option lists of the wizard
type OrgHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewOrgHandler creates a new OrgHandler
func NewOrgHandler(services *service.Services, log zerolog.Logger) *OrgHandler {
	return &OrgHandler{
		services: services,
		log:      log.With().Str("handler", "org").Logger(),
	}
}

// Departments handles GET /v1/departments
func (h *OrgHandler) Departments(c *gin.Context) {
	list, err := h.services.Org.Departments(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "failed to list departments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// Designations handles GET /v1/designations?department_id=
func (h *OrgHandler) Designations(c *gin.Context) {
	dept, ok := queryID(c, "department_id")
	if !ok {
		return
	}
	list, err := h.services.Org.Designations(c.Request.Context(), dept)
	if err != nil {
		respondError(c, h.log, err, "failed to list designations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// ReportTo handles GET /v1/report-to?department_id=&exclude=
func (h *OrgHandler) ReportTo(c *gin.Context) {
	dept, ok := queryID(c, "department_id")
	if !ok {
		return
	}
	exclude, ok := queryID(c, "exclude")
	if !ok {
		return
	}
	list, err := h.services.Org.ReportToCandidates(c.Request.Context(), dept, exclude)
	if err != nil {
		respondError(c, h.log, err, "failed to list report-to candidates")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// UploadHandler stores profile images ahead of submission
type UploadHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "upload").Logger(),
	}
}

// ProfileImage handles POST /v1/uploads/profile-image
func (h *UploadHandler) ProfileImage(c *gin.Context) {
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

	rec, err := h.services.Upload.StoreProfileImage(c.Request.Context(), a)
	if err != nil {
		if rejected(err) {
			vf := models.NewValidationFailure()
			vf.Add(string(models.FieldProfileImage), h.services.Upload.Limits().Message(err))
			err = vf
		}
		respondError(c, h.log, err, "failed to store image")
		return
	}

	h.log.Info().Str("url", rec.URL).Int64("size", rec.Size).Msg("Profile image stored")
	c.JSON(http.StatusCreated, gin.H{"url": rec.URL})
}

func rejected(err error) bool {
	return errors.Is(err, upload.ErrFileTooLarge) ||
		errors.Is(err, upload.ErrUnsupportedType) ||
		errors.Is(err, upload.ErrEmptyFile)
}
