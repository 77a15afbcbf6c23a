// Package rest HTTP-интерфейс детектора на gin.
package rest

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"defect-inspector/internal/api/dto"
	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/entity"
)

// Detector операции детектора, нужные HTTP-слою.
type Detector interface {
	AddSample(ctx context.Context, img image.Image, label entity.Label, roi entity.ROI) (int, error)
	Train(ctx context.Context) (*entity.TrainedModel, float64, error)
	Predict(ctx context.Context, img image.Image, roi entity.ROI) (entity.Prediction, error)
	Counts(ctx context.Context) (entity.Counts, error)
	ModelInfo(ctx context.Context) (*entity.TrainedModel, error)
}

// ImageDecoder декодирует изображение из base64 или data URL.
type ImageDecoder interface {
	DecodeBase64(s string) (image.Image, error)
}

type Handler struct {
	detector Detector
	images   ImageDecoder
	log      *slog.Logger
}

func NewHandler(detector Detector, images ImageDecoder, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{detector: detector, images: images, log: log}
}

// Router регистрирует маршруты.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLog)

	r.GET("/health", Health)

	api := r.Group("/api")
	api.POST("/add_sample", h.AddSample)
	api.POST("/detect", h.Detect)
	api.POST("/train", h.Train)
	api.GET("/counts", h.Counts)
	api.GET("/model", h.Model)
	return r
}

// Health проверка живости.
func Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AddSample POST /api/add_sample
func (h *Handler) AddSample(c *gin.Context) {
	var req dto.ImageSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, domain.InvalidCommand("%v", err))
		return
	}
	label, err := dto.ParseLabel(req.Label)
	if err != nil {
		h.fail(c, err)
		return
	}
	img, err := h.images.DecodeBase64(req.Image)
	if err != nil {
		h.respond(c, http.StatusBadRequest, err)
		return
	}

	n, err := h.detector.AddSample(c.Request.Context(), img, label, dto.ResolveROI(req.ROI, img.Bounds()))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AddSample(n))
}

// Detect POST /api/detect
func (h *Handler) Detect(c *gin.Context) {
	var req dto.ImageDetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, domain.InvalidCommand("%v", err))
		return
	}
	img, err := h.images.DecodeBase64(req.Image)
	if err != nil {
		h.respond(c, http.StatusBadRequest, err)
		return
	}

	p, err := h.detector.Predict(c.Request.Context(), img, dto.ResolveROI(req.ROI, img.Bounds()))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Predict(p))
}

// Train POST /api/train
func (h *Handler) Train(c *gin.Context) {
	_, accuracy, err := h.detector.Train(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Train(accuracy))
}

// Counts GET /api/counts
func (h *Handler) Counts(c *gin.Context) {
	counts, err := h.detector.Counts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Counts(counts))
}

// Model GET /api/model
func (h *Handler) Model(c *gin.Context) {
	m, err := h.detector.ModelInfo(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ModelInfo(m))
}

func (h *Handler) fail(c *gin.Context, err error) {
	h.respond(c, StatusCode(err), err)
}

func (h *Handler) respond(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
	} else {
		h.log.Warn("request rejected", "path", c.FullPath(), "error", err, "remote_addr", c.ClientIP())
	}
	c.JSON(status, dto.Error(err))
}

// StatusCode сопоставляет вид ошибки HTTP-статусу.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCommand):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrOutOfBounds), errors.Is(err, domain.ErrFeatureExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInsufficientData),
		errors.Is(err, domain.ErrModelNotTrained),
		errors.Is(err, domain.ErrIncompatibleFeatures):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) requestLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.log.Info("http request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"duration", time.Since(start),
	)
}
