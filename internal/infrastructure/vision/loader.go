package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/port"
)

// Loader декодирует изображения из файлов и байтов.
type Loader struct{}

// NewLoader создаёт загрузчик изображений.
func NewLoader() *Loader {
	return &Loader{}
}

// Load читает и декодирует файл изображения.
func (l *Loader) Load(ctx context.Context, path string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.IOError{Op: "failed to load image from path", Path: path, Err: err}
	}
	img, err := l.Decode(data)
	if err != nil {
		var ioErr *domain.IOError
		if errors.As(err, &ioErr) {
			ioErr.Path = path
		}
		return nil, err
	}
	return img, nil
}

// Decode декодирует байты изображения.
func (l *Loader) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &domain.IOError{Op: "decode image", Err: errors.New("empty image")}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &domain.IOError{Op: "decode image", Err: err}
	}
	if b := img.Bounds(); b.Empty() {
		return nil, &domain.IOError{Op: "decode image", Err: errors.New("empty image")}
	}
	return img, nil
}

// DecodeBase64 декодирует base64 или data URL ("data:image/png;base64,...").
func (l *Loader) DecodeBase64(s string) (image.Image, error) {
	if i := strings.Index(s, ","); strings.HasPrefix(s, "data:") && i >= 0 {
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, domain.InvalidCommand("image is not valid base64: %v", err)
	}
	img, err := l.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode uploaded image: %w", err)
	}
	return img, nil
}

// Проверка реализации интерфейса
var _ port.ImageLoader = (*Loader)(nil)
