package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/entity"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoader_LoadAndDecode(t *testing.T) {
	l := NewLoader()
	data := encodePNG(t, noisyImage(12, 9))

	path := filepath.Join(t.TempDir(), "part.png")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	img, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 12, 9), img.Bounds())

	// PNG без потерь: признаки совпадают с исходником
	e := newExtractor(t)
	roi := entity.ROI{Width: 12, Height: 9}
	want, err := e.Extract(noisyImage(12, 9), roi)
	require.NoError(t, err)
	got, err := e.Extract(img, roi)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoader_Errors(t *testing.T) {
	l := NewLoader()

	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	require.ErrorIs(t, err, domain.ErrIO)
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.jpg")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, err = l.Load(context.Background(), bad)
	require.ErrorIs(t, err, domain.ErrIO)
	require.Contains(t, err.Error(), bad)

	_, err = l.Decode(nil)
	require.ErrorIs(t, err, domain.ErrIO)
}

func TestLoader_DecodeBase64(t *testing.T) {
	l := NewLoader()
	data := encodePNG(t, noisyImage(5, 4))
	b64 := base64.StdEncoding.EncodeToString(data)

	for _, s := range []string{b64, "data:image/png;base64," + b64} {
		img, err := l.DecodeBase64(s)
		require.NoError(t, err)
		require.Equal(t, 5, img.Bounds().Dx())
	}

	_, err := l.DecodeBase64("%%%")
	require.ErrorIs(t, err, domain.ErrInvalidCommand)

	_, err = l.DecodeBase64(base64.StdEncoding.EncodeToString([]byte("junk")))
	require.ErrorIs(t, err, domain.ErrIO)
}

func TestAnnotate(t *testing.T) {
	img := noisyImage(60, 40)
	out, err := Annotate(img, entity.Prediction{
		Label:      entity.LabelBad,
		Confidence: 0.87,
		ROI:        entity.ROI{X: 5, Y: 2, Width: 30, Height: 20},
	})
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 60, 40), decoded.Bounds())
}

func TestAnnotate_CaptionCenteredOverROI(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 120, 60))
	out, err := Annotate(img, entity.Prediction{
		Label:      entity.LabelBad,
		Confidence: 0.87,
		ROI:        entity.ROI{X: 40, Y: 30, Width: 40, Height: 20},
	})
	require.NoError(t, err)
	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	// "bad 0.87" шириной 56 px вокруг центра x=60
	inside, outside := 0, 0
	for y := 16; y <= 26; y++ {
		for x := 0; x < 120; x++ {
			r, _, _, _ := decoded.At(x, y).RGBA()
			if r>>8 < 128 {
				continue
			}
			switch {
			case x >= 32 && x < 88:
				inside++
			case x < 24 || x >= 96:
				outside++
			}
		}
	}
	assert.Positive(t, inside)
	assert.Zero(t, outside)

	_, err = Annotate(img, entity.Prediction{Label: entity.LabelGood, ROI: entity.ROI{Width: 6, Height: 6}})
	require.NoError(t, err)
}
