package container

import (
	"context"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defect-inspector/config"
	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/entity"
	"defect-inspector/internal/infrastructure/storage"
)

func testConfig(t *testing.T, backend string) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		DataDir:       dir,
		StoreBackend:  backend,
		SQLitePath:    filepath.Join(dir, "defectd.db"),
		Extractor:     "native",
		HistogramBins: 8,
		ForestTrees:   5,
		ForestSeed:    42,
	}
}

func TestNew(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, backend := range []string{config.BackendFile, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			c, err := New(context.Background(), testConfig(t, backend), log)
			require.NoError(t, err)
			t.Cleanup(func() { _ = c.Close() })

			assert.Equal(t, "native", c.Detector.Extractor().Name())
			assert.Equal(t, 8, c.Detector.Extractor().Bins())

			img := image.NewGray(image.Rect(0, 0, 10, 10))
			n, err := c.Detector.AddSample(context.Background(), img, entity.LabelGood, entity.FullFrame(img.Bounds()))
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestOpenBlobStore_File(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)
	s, err := OpenBlobStore(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &storage.FileBlobStore{}, s)
}

func TestNew_Errors(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := testConfig(t, "s3")
	_, err := New(context.Background(), cfg, log)
	require.ErrorIs(t, err, domain.ErrInvalidCommand)

	cfg = testConfig(t, config.BackendFile)
	cfg.Extractor = "sift"
	_, err = New(context.Background(), cfg, log)
	require.Error(t, err)
}

func TestOpenBlobStore_Unreachable(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	sqliteCfg := testConfig(t, config.BackendSQLite)
	blocker := filepath.Join(sqliteCfg.DataDir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	sqliteCfg.SQLitePath = filepath.Join(blocker, "defectd.db")

	redisCfg := testConfig(t, config.BackendRedis)
	redisCfg.RedisAddr = "127.0.0.1:1"

	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"sqlite under a regular file", sqliteCfg},
		{"redis refused", redisCfg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenBlobStore(context.Background(), tt.cfg, log)
			require.ErrorIs(t, err, domain.ErrIO)
			assert.Equal(t, "io", domain.KindOf(err))
		})
	}
}
