// Package dto описывает JSON-конверты запросов и ответов детектора.
package dto

import (
	"encoding/json"
	"image"
	"time"

	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/entity"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// AddSampleRequest полезная нагрузка команды add_sample.
type AddSampleRequest struct {
	ImagePath string      `json:"imagePath"`
	Label     string      `json:"label"`
	ROI       *entity.ROI `json:"roi,omitempty"`
}

// PredictRequest полезная нагрузка команды predict.
type PredictRequest struct {
	ImagePath string      `json:"imagePath"`
	ROI       *entity.ROI `json:"roi,omitempty"`
}

// ImageSampleRequest тело POST /api/add_sample: изображение в base64 или data URL.
type ImageSampleRequest struct {
	Image string      `json:"image" binding:"required"`
	Label string      `json:"label" binding:"required"`
	ROI   *entity.ROI `json:"roi,omitempty"`
}

// ImageDetectRequest тело POST /api/detect.
type ImageDetectRequest struct {
	Image string      `json:"image" binding:"required"`
	ROI   *entity.ROI `json:"roi,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

type TrainResponse struct {
	Status   string  `json:"status"`
	Message  string  `json:"message,omitempty"`
	Accuracy float64 `json:"accuracy"`
}

type CountsResponse struct {
	Status string        `json:"status"`
	Counts entity.Counts `json:"counts"`
}

type AddSampleResponse struct {
	Status      string `json:"status"`
	SampleCount int    `json:"sample_count"`
}

type PredictResponse struct {
	Status     string  `json:"status"`
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

// ModelInfoResponse метаданные сохранённой модели.
// Accuracy посчитана на обучающей выборке.
type ModelInfoResponse struct {
	Status        string        `json:"status"`
	Extractor     string        `json:"extractor"`
	FeatureLength int           `json:"feature_length"`
	Trees         int           `json:"trees"`
	Accuracy      float64       `json:"accuracy"`
	Counts        entity.Counts `json:"counts"`
	TrainedAt     time.Time     `json:"trained_at"`
}

// ImportResponse итог пакетного импорта.
type ImportResponse struct {
	Status      string `json:"status"`
	Imported    int    `json:"imported"`
	SampleCount int    `json:"sample_count"`
}

func Error(err error) ErrorResponse {
	return ErrorResponse{Status: StatusError, Message: err.Error(), Kind: domain.KindOf(err)}
}

func Train(accuracy float64) TrainResponse {
	return TrainResponse{Status: StatusSuccess, Message: "Model trained successfully", Accuracy: accuracy}
}

func Counts(c entity.Counts) CountsResponse {
	return CountsResponse{Status: StatusSuccess, Counts: c}
}

func AddSample(n int) AddSampleResponse {
	return AddSampleResponse{Status: StatusSuccess, SampleCount: n}
}

func Predict(p entity.Prediction) PredictResponse {
	return PredictResponse{Status: StatusSuccess, Prediction: string(p.Label), Confidence: p.Confidence}
}

func ModelInfo(m *entity.TrainedModel) ModelInfoResponse {
	return ModelInfoResponse{
		Status:        StatusSuccess,
		Extractor:     m.Extractor,
		FeatureLength: m.FeatureLength,
		Trees:         m.Forest.Size(),
		Accuracy:      m.Accuracy,
		Counts:        m.Counts,
		TrainedAt:     m.TrainedAt,
	}
}

// ParseAddSample разбирает и проверяет JSON команды add_sample.
func ParseAddSample(raw string) (AddSampleRequest, entity.Label, error) {
	var req AddSampleRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return req, "", domain.InvalidCommand("malformed add_sample payload: %v", err)
	}
	if req.ImagePath == "" {
		return req, "", domain.InvalidCommand("imagePath is required")
	}
	if req.ROI == nil {
		return req, "", domain.InvalidCommand("roi is required")
	}
	label, err := ParseLabel(req.Label)
	if err != nil {
		return req, "", err
	}
	return req, label, nil
}

// ParsePredict разбирает и проверяет JSON команды predict.
func ParsePredict(raw string) (PredictRequest, error) {
	var req PredictRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return req, domain.InvalidCommand("malformed predict payload: %v", err)
	}
	if req.ImagePath == "" {
		return req, domain.InvalidCommand("imagePath is required")
	}
	if req.ROI == nil {
		return req, domain.InvalidCommand("roi is required")
	}
	return req, nil
}

// ParseLabel переводит ошибку разбора метки в ErrInvalidCommand.
func ParseLabel(s string) (entity.Label, error) {
	label, err := entity.ParseLabel(s)
	if err != nil {
		return "", domain.InvalidCommand("%v", err)
	}
	return label, nil
}

// ResolveROI возвращает ROI запроса или весь кадр, если ROI не задан.
func ResolveROI(roi *entity.ROI, bounds image.Rectangle) entity.ROI {
	if roi == nil {
		return entity.FullFrame(bounds)
	}
	return *roi
}
