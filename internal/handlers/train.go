package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/scriptforge-backend/internal/apierr"
	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/services"
)

type TrainHandler struct {
	log           *logger.Logger
	scriptService services.ScriptService
}

func NewTrainHandler(log *logger.Logger, scriptService services.ScriptService) *TrainHandler {
	return &TrainHandler{
		log:           log.With("handler", "TrainHandler"),
		scriptService: scriptService,
	}
}

type scriptSummary struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Status string    `json:"status"`
}

// POST /api/train
// Accepts a multipart upload in field "script" plus optional title, genre,
// year, author fields, and runs the full ingestion pipeline. A training
// failure is reported as 502 with the script still in the body: the upload
// succeeded, the submission did not.
func (h *TrainHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadBytes+(1<<20))
	fh, err := c.FormFile("script")
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("no file uploaded"))
		return
	}

	var year *int
	if v := strings.TrimSpace(c.PostForm("year")); v != "" {
		y, convErr := strconv.Atoi(v)
		if convErr != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("year must be an integer"))
			return
		}
		year = &y
	}

	f, err := fh.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("could not read uploaded file"))
		return
	}
	defer func() { _ = f.Close() }()

	in := services.IngestInput{
		OriginalName: fh.Filename,
		MimeType:     fh.Header.Get("Content-Type"),
		SizeBytes:    fh.Size,
		Reader:       f,
		Title:        c.PostForm("title"),
		Genre:        c.PostForm("genre"),
		Year:         year,
		Author:       c.PostForm("author"),
	}

	script, err := h.scriptService.Ingest(c.Request.Context(), in)
	if err != nil {
		var ae *apierr.Error
		if script != nil && errors.As(err, &ae) && ae.Code == apierr.CodeServiceFailed {
			// Partial success: the artifact exists, training did not start.
			c.JSON(ae.Status, gin.H{
				"error":  ae.Error(),
				"code":   ae.Code,
				"script": scriptSummary{ID: script.ID, Title: script.Title, Status: script.Status},
			})
			return
		}
		RespondAPIError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"message": "Script uploaded successfully and sent for training",
		"script":  scriptSummary{ID: script.ID, Title: script.Title, Status: script.Status},
	})
}

// GET /api/train/status/:id
func (h *TrainHandler) Status(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("invalid script id"))
		return
	}
	script, err := h.scriptService.Get(c.Request.Context(), id)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"script_id":     script.ID,
		"title":         script.Title,
		"status":        script.Status,
		"training_data": script.TrainingData,
		"created_at":    script.CreatedAt,
		"updated_at":    script.UpdatedAt,
	})
}

// POST /api/train/:id/complete
// Training-completion callback from the generation service. The optional
// JSON body is stored verbatim as the script's training data.
func (h *TrainHandler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("invalid script id"))
		return
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("could not read callback body"))
		return
	}
	script, err := h.scriptService.CompleteTraining(c.Request.Context(), id, payload)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"message": "Training completed",
		"script":  scriptSummary{ID: script.ID, Title: script.Title, Status: script.Status},
	})
}

// POST /api/train/:id/resubmit
// Explicit retry for a script whose training submission failed.
func (h *TrainHandler) Resubmit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("invalid script id"))
		return
	}
	script, err := h.scriptService.Resubmit(c.Request.Context(), id)
	if err != nil {
		var ae *apierr.Error
		if script != nil && errors.As(err, &ae) && ae.Code == apierr.CodeServiceFailed {
			c.JSON(ae.Status, gin.H{
				"error":  ae.Error(),
				"code":   ae.Code,
				"script": scriptSummary{ID: script.ID, Title: script.Title, Status: script.Status},
			})
			return
		}
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"message": "Script resubmitted for training",
		"script":  scriptSummary{ID: script.ID, Title: script.Title, Status: script.Status},
	})
}
