package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/form"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/service"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/wizard"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// multipartOverhead is the room left for scalar fields next to the image
const multipartOverhead = 1 << 20

// respondError writes err in the envelope the wizard client understands:
// 422 {"errors": {...}} for field problems, {"error": "..."} otherwise
func respondError(c *gin.Context, log zerolog.Logger, err error, fallback string) {
	if vf, ok := models.AsValidationFailure(err); ok {
		c.JSON(http.StatusUnprocessableEntity, vf)
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, wizard.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "wizard session not found"})
	case errors.Is(err, models.ErrUnknownField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, form.ErrNotEditing):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	default:
		log.Error().Err(err).Msg(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// idParam parses an int64 path parameter
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s must be a positive number", name)})
		return 0, false
	}
	return id, true
}

// queryID parses an optional int64 query parameter; absent means 0
func queryID(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s must be a number", name)})
		return 0, false
	}
	return id, true
}

// readUserInput collects the wizard fields of a multipart or urlencoded
// body. Only sent fields are present in Values.
func readUserInput(c *gin.Context, maxSize int64) (*service.UserInput, error) {
	if err := c.Request.ParseMultipartForm(maxSize + multipartOverhead); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("parse form: %w", err)
	}

	in := &service.UserInput{Values: make(map[models.Field]string)}
	for _, f := range models.AllFields {
		if vals, ok := c.Request.PostForm[string(f)]; ok && len(vals) > 0 {
			in.Values[f] = vals[0]
		}
	}
	in.ImageURL = c.Request.PostFormValue(form.ImageURLField)

	if mf := c.Request.MultipartForm; mf != nil {
		if files := mf.File[string(models.FieldProfileImage)]; len(files) > 0 {
			a, err := readAttachment(files[0], maxSize)
			if err != nil {
				return nil, err
			}
			in.Image = a
		}
	}
	return in, nil
}

// readAttachment reads at most maxSize+1 bytes so oversized files are still
// rejected by the size rule rather than truncated silently
func readAttachment(fh *multipart.FileHeader, maxSize int64) (*models.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return &models.Attachment{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Data:        data,
	}, nil
}
