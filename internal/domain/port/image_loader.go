package port

import (
	"context"
	"image"
)

// ImageLoader интерфейс загрузки изображений
type ImageLoader interface {
	// Load читает и декодирует изображение с диска
	Load(ctx context.Context, path string) (image.Image, error)

	// Decode декодирует изображение из байтов
	Decode(data []byte) (image.Image, error)
}
