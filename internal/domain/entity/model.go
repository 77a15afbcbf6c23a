package entity

import "time"

// Scaler приводит вектор признаков к масштабу обучающей выборки.
type Scaler interface {
	Features() int
	Transform(x []float64) ([]float64, error)
	Valid() error
}

// Classifier ансамбль, обученный на масштабированных признаках.
// Индекс класса соответствует позиции в Labels.
type Classifier interface {
	Features() int
	Classes() int
	Size() int
	PredictProba(x []float64) ([]float64, error)
	Predict(x []float64) (int, float64, error)
	Valid() error
}

// TrainedModel пара масштабатор + классификатор, обученная на одном снимке
// хранилища образцов. После обучения не меняется, следующее обучение
// заменяет её целиком.
type TrainedModel struct {
	Extractor     string
	FeatureLength int
	Scaler        Scaler
	Forest        Classifier
	// Accuracy доля верно классифицированных обучающих строк.
	// Это точность на обучающей выборке, а не оценка обобщения.
	Accuracy  float64
	Counts    Counts
	TrainedAt time.Time
}

// Prediction результат классификации ROI.
type Prediction struct {
	Label      Label   // наиболее вероятный класс
	Confidence float64 // апостериорная вероятность этого класса
	ROI        ROI     // область, по которой считали признаки
}
