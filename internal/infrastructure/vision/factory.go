package vision

import (
	"fmt"

	"defect-inspector/internal/domain/port"
)

// NewExtractor выбирает экстрактор по имени.
func NewExtractor(name string, bins int) (port.FeatureExtractor, error) {
	switch name {
	case "", NativeName:
		e, err := NewNativeExtractor(bins)
		if err != nil {
			return nil, err
		}
		return e, nil
	case GoCVName:
		e, err := NewGoCVExtractor(bins)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", name)
	}
}
