package rest_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defect-inspector/internal/api/rest"
	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/entity"
	"defect-inspector/internal/infrastructure/vision"
	"defect-inspector/internal/ml"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockDetector реализация rest.Detector на функциях.
type mockDetector struct {
	AddSampleFunc func(ctx context.Context, img image.Image, label entity.Label, roi entity.ROI) (int, error)
	TrainFunc     func(ctx context.Context) (*entity.TrainedModel, float64, error)
	PredictFunc   func(ctx context.Context, img image.Image, roi entity.ROI) (entity.Prediction, error)
	CountsFunc    func(ctx context.Context) (entity.Counts, error)
	ModelInfoFunc func(ctx context.Context) (*entity.TrainedModel, error)
}

func (m *mockDetector) AddSample(ctx context.Context, img image.Image, label entity.Label, roi entity.ROI) (int, error) {
	return m.AddSampleFunc(ctx, img, label, roi)
}

func (m *mockDetector) Train(ctx context.Context) (*entity.TrainedModel, float64, error) {
	return m.TrainFunc(ctx)
}

func (m *mockDetector) Predict(ctx context.Context, img image.Image, roi entity.ROI) (entity.Prediction, error) {
	return m.PredictFunc(ctx, img, roi)
}

func (m *mockDetector) Counts(ctx context.Context) (entity.Counts, error) {
	return m.CountsFunc(ctx)
}

func (m *mockDetector) ModelInfo(ctx context.Context) (*entity.TrainedModel, error) {
	return m.ModelInfoFunc(ctx)
}

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newRouter(d rest.Detector) *gin.Engine {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return rest.NewHandler(d, vision.NewLoader(), log).Router()
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_AddSample(t *testing.T) {
	payload := pngDataURL(t, 40, 30)

	tests := []struct {
		name           string
		body           string
		mockFunc       func(ctx context.Context, img image.Image, label entity.Label, roi entity.ROI) (int, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: roi defaults to full image",
			body: `{"image":"` + payload + `","label":"good"}`,
			mockFunc: func(_ context.Context, _ image.Image, label entity.Label, roi entity.ROI) (int, error) {
				if label != entity.LabelGood || roi != (entity.ROI{Width: 40, Height: 30}) {
					return 0, errors.New("unexpected arguments")
				}
				return 3, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"success","sample_count":3}`,
		},
		{
			name: "success: explicit roi",
			body: `{"image":"` + payload + `","label":"bad","roi":{"x":1,"y":2,"width":10,"height":10}}`,
			mockFunc: func(_ context.Context, _ image.Image, _ entity.Label, roi entity.ROI) (int, error) {
				if roi != (entity.ROI{X: 1, Y: 2, Width: 10, Height: 10}) {
					return 0, errors.New("unexpected roi")
				}
				return 1, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"success","sample_count":1}`,
		},
		{
			name:           "error: missing image",
			body:           `{"label":"good"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error: unknown label",
			body:           `{"image":"` + payload + `","label":"meh"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error: not an image",
			body:           `{"image":"aGVsbG8=","label":"good"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "error: roi out of bounds",
			body: `{"image":"` + payload + `","label":"good","roi":{"x":30,"y":0,"width":20,"height":5}}`,
			mockFunc: func(_ context.Context, img image.Image, _ entity.Label, roi entity.ROI) (int, error) {
				return 0, &domain.OutOfBoundsError{ROI: roi, Bounds: img.Bounds()}
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "error: persistence failure",
			body: `{"image":"` + payload + `","label":"good"}`,
			mockFunc: func(context.Context, image.Image, entity.Label, entity.ROI) (int, error) {
				return 0, &domain.IOError{Op: "persist samples", Err: errors.New("disk full")}
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&mockDetector{AddSampleFunc: tt.mockFunc})
			w := do(router, http.MethodPost, "/api/add_sample", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"status":"error"`)
			}
		})
	}
}

func TestHandler_Detect(t *testing.T) {
	payload := pngDataURL(t, 16, 16)

	tests := []struct {
		name           string
		mockFunc       func(ctx context.Context, img image.Image, roi entity.ROI) (entity.Prediction, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success",
			mockFunc: func(_ context.Context, _ image.Image, roi entity.ROI) (entity.Prediction, error) {
				return entity.Prediction{Label: entity.LabelBad, Confidence: 0.75, ROI: roi}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"success","prediction":"bad","confidence":0.75}`,
		},
		{
			name: "error: model not trained",
			mockFunc: func(context.Context, image.Image, entity.ROI) (entity.Prediction, error) {
				return entity.Prediction{}, domain.ErrModelNotTrained
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"status":"error","message":"model not trained yet and no saved model found","kind":"model_not_trained"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&mockDetector{PredictFunc: tt.mockFunc})
			w := do(router, http.MethodPost, "/api/detect", `{"image":"`+payload+`"}`)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestHandler_Train(t *testing.T) {
	tests := []struct {
		name           string
		mockFunc       func(ctx context.Context) (*entity.TrainedModel, float64, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success",
			mockFunc: func(context.Context) (*entity.TrainedModel, float64, error) {
				return &entity.TrainedModel{}, 0.5, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"success","message":"Model trained successfully","accuracy":0.5}`,
		},
		{
			name: "error: insufficient data",
			mockFunc: func(context.Context) (*entity.TrainedModel, float64, error) {
				return nil, 0, &domain.InsufficientDataError{Empty: []entity.Label{entity.LabelBad}}
			},
			expectedStatus: http.StatusConflict,
			expectedBody: `{"status":"error","kind":"insufficient_data",` +
				`"message":"not enough samples to train the model: no samples for bad; need samples from both classes"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&mockDetector{TrainFunc: tt.mockFunc})
			w := do(router, http.MethodPost, "/api/train", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestHandler_CountsAndModel(t *testing.T) {
	trainedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	router := newRouter(&mockDetector{
		CountsFunc: func(context.Context) (entity.Counts, error) {
			return entity.Counts{Good: 4, Bad: 2}, nil
		},
		ModelInfoFunc: func(context.Context) (*entity.TrainedModel, error) {
			return &entity.TrainedModel{
				Extractor:     "native",
				FeatureLength: 36,
				Forest:        &ml.RandomForest{Trees: make([]*ml.DecisionTree, 3)},
				Accuracy:      1,
				Counts:        entity.Counts{Good: 4, Bad: 2},
				TrainedAt:     trainedAt,
			}, nil
		},
	})

	w := do(router, http.MethodGet, "/api/counts", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","counts":{"good":4,"bad":2}}`, w.Body.String())

	w = do(router, http.MethodGet, "/api/model", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","extractor":"native","feature_length":36,"trees":3,
		"accuracy":1,"counts":{"good":4,"bad":2},"trained_at":"2024-03-01T10:00:00Z"}`, w.Body.String())

	w = do(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, rest.StatusCode(domain.InvalidCommand("x")))
	assert.Equal(t, http.StatusUnprocessableEntity, rest.StatusCode(&domain.FeatureExtractionError{Err: errors.New("x")}))
	assert.Equal(t, http.StatusConflict, rest.StatusCode(domain.Incompatible("x")))
	assert.Equal(t, http.StatusInternalServerError, rest.StatusCode(errors.New("x")))
}
