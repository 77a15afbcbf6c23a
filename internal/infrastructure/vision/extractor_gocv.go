//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/entity"
	"defect-inspector/internal/domain/port"
)

// GoCVName имя экстрактора на OpenCV.
const GoCVName = "gocv"

// GoCVExtractor считает те же признаки средствами OpenCV.
type GoCVExtractor struct {
	bins int
}

// NewGoCVExtractor создаёт экстрактор на OpenCV.
func NewGoCVExtractor(bins int) (*GoCVExtractor, error) {
	if err := checkBins(bins); err != nil {
		return nil, err
	}
	return &GoCVExtractor{bins: bins}, nil
}

func (e *GoCVExtractor) Name() string { return GoCVName }

func (e *GoCVExtractor) Bins() int { return e.bins }

// Extract вырезает ROI, переводит в серый и считает признаки.
func (e *GoCVExtractor) Extract(img image.Image, roi entity.ROI) (entity.FeatureVector, error) {
	if _, err := cropRect(img, roi); err != nil {
		return nil, err
	}
	fail := func(err error) (entity.FeatureVector, error) {
		return nil, &domain.FeatureExtractionError{ROI: roi, Err: err}
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fail(fmt.Errorf("convert image: %w", err))
	}
	defer mat.Close()
	if mat.Empty() {
		return fail(errors.New("empty image"))
	}

	crop := mat.Region(image.Rect(roi.X, roi.Y, roi.X+roi.Width, roi.Y+roi.Height))
	defer crop.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(crop, &gray, gocv.ColorBGRToGray)

	mean := gocv.NewMat()
	defer mean.Close()
	std := gocv.NewMat()
	defer std.Close()
	gocv.MeanStdDev(gray, &mean, &std)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, CannyLow, CannyHigh)

	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(gray, &lap, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)
	lapMean := gocv.NewMat()
	defer lapMean.Close()
	lapStd := gocv.NewMat()
	defer lapStd.Close()
	gocv.MeanStdDev(lap, &lapMean, &lapStd)
	lapSD := lapStd.GetDoubleAt(0, 0)

	hist := gocv.NewMat()
	defer hist.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.CalcHist([]gocv.Mat{gray}, []int{0}, mask, &hist, []int{e.bins}, []float64{0, 256}, false)

	total := float64(gray.Rows() * gray.Cols())
	if total == 0 {
		return fail(errors.New("empty crop"))
	}

	fv := make(entity.FeatureVector, 0, entity.FeatureLength(e.bins))
	fv = append(fv,
		mean.GetDoubleAt(0, 0),
		std.GetDoubleAt(0, 0),
		edges.Mean().Val1,
		lapSD*lapSD,
	)
	for i := 0; i < e.bins; i++ {
		fv = append(fv, float64(hist.GetFloatAt(i, 0))/total)
	}
	if !fv.Finite() {
		return fail(errors.New("non-finite feature value"))
	}
	return fv, nil
}

// Проверка реализации интерфейса
var _ port.FeatureExtractor = (*GoCVExtractor)(nil)
