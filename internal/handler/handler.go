package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trapcam/internal/config"
	"trapcam/internal/domain"
	"trapcam/internal/report"
	"trapcam/internal/service"
)

const filesField = "files"

type Handler struct {
	service service.ImageService
	cfg     *config.Config
	log     *zap.Logger
	report  ErrorReporter
}

func NewHandler(service service.ImageService, cfg *config.Config, log *zap.Logger, reporter ErrorReporter) *Handler {
	if reporter == nil {
		reporter = NopReporter
	}
	return &Handler{
		service: service,
		cfg:     cfg,
		log:     log,
		report:  reporter,
	}
}

// fail maps domain errors onto HTTP statuses and writes a JSON error body.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
	case domain.IsClientError(err):
		status = http.StatusBadRequest
	}

	fields := []zap.Field{
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("request_id", c.GetString(RequestIDKey)),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", fields...)
		h.report(err, map[string]string{"op": op})
	} else {
		h.log.Warn("Request rejected", fields...)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) GetUI(c *gin.Context) {
	images, err := h.service.ListImages(c.Request.Context())
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{"Images": images})
}

func (h *Handler) Complete(c *gin.Context) {
	c.HTML(http.StatusOK, "upload_complete.html", gin.H{})
}

func (h *Handler) readBatch(c *gin.Context) (domain.UploadBatch, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.App.MaxRequestSize())

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	headers := form.File[filesField]
	batch := make(domain.UploadBatch, 0, len(headers))
	for _, fh := range headers {
		batch = append(batch, uploadItem(fh))
	}
	return batch, nil
}

func uploadItem(fh *multipart.FileHeader) domain.UploadItem {
	return domain.UploadItem{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// UploadImages handles the browser form and redirects to the completion page.
func (h *Handler) UploadImages(c *gin.Context) {
	batch, err := h.readBatch(c)
	if err != nil {
		h.fail(c, "upload", err)
		return
	}

	if _, err := h.service.Upload(c.Request.Context(), batch); err != nil {
		h.fail(c, "upload", err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/complete/")
}

func (h *Handler) APIUpload(c *gin.Context) {
	batch, err := h.readBatch(c)
	if err != nil {
		h.fail(c, "upload", err)
		return
	}

	summary, err := h.service.Upload(c.Request.Context(), batch)
	if err != nil {
		h.fail(c, "upload", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

var paramFields = []string{"body_percentage", "bbox_width", "bbox_height", "limb_points"}

func parseParams(c *gin.Context) (domain.ProcessingParams, error) {
	var params domain.ProcessingParams

	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&params); err != nil {
			return params, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return params, nil
	}

	values := make([]int, len(paramFields))
	for i, field := range paramFields {
		raw := strings.TrimSpace(c.PostForm(field))
		if raw == "" {
			return params, fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, field)
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return params, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, field)
		}
		values[i] = v
	}

	params.BodyPercentage = values[0]
	params.BBoxWidth = values[1]
	params.BBoxHeight = values[2]
	params.LimbPoints = values[3]
	return params, nil
}

func (h *Handler) ProcessImages(c *gin.Context) {
	params, err := parseParams(c)
	if err != nil {
		h.fail(c, "process", err)
		return
	}

	if _, err := h.service.Process(c.Request.Context(), params); err != nil {
		h.fail(c, "process", err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/results/")
}

func (h *Handler) APIProcess(c *gin.Context) {
	params, err := parseParams(c)
	if err != nil {
		h.fail(c, "process", err)
		return
	}

	records, err := h.service.Process(c.Request.Context(), params)
	if err != nil {
		h.fail(c, "process", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": records})
}

func (h *Handler) ResultsPage(c *gin.Context) {
	records, err := h.service.Results(c.Request.Context())
	if err != nil {
		h.fail(c, "results", err)
		return
	}

	c.HTML(http.StatusOK, "results.html", gin.H{
		"Results": records,
		"Summary": report.Summarize(records),
	})
}

func (h *Handler) APIResults(c *gin.Context) {
	records, err := h.service.Results(c.Request.Context())
	if err != nil {
		h.fail(c, "results", err)
		return
	}

	c.JSON(http.StatusOK, records)
}

func (h *Handler) APISummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		h.fail(c, "summary", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *Handler) ListImages(c *gin.Context) {
	images, err := h.service.ListImages(c.Request.Context())
	if err != nil {
		h.fail(c, "list", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"images": images})
}

func (h *Handler) DeleteAll(c *gin.Context) {
	if _, err := h.service.DeleteAll(c.Request.Context()); err != nil {
		h.fail(c, "delete", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "All images deleted"})
}

func (h *Handler) Report(c *gin.Context) {
	summary, err := h.service.Report(c.Request.Context())
	if err != nil {
		h.fail(c, "report", err)
		return
	}

	c.HTML(http.StatusOK, "report.html", gin.H{
		"Summary":        summary,
		"EmptinessChart": report.EmptinessChart,
		"QualityChart":   report.QualityChart,
		"Version":        time.Now().UnixNano(),
	})
}

func (h *Handler) ExportCSV(c *gin.Context) {
	path, err := h.service.ExportCSV(c.Request.Context())
	if err != nil {
		h.fail(c, "export", err)
		return
	}

	c.FileAttachment(path, "submission.csv")
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}
