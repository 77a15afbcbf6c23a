package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"defect-inspector/internal/api/dto"
	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/entity"
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

func (c *cli) importCommand() *cobra.Command {
	var (
		labelName string
		roiSpec   string
	)
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Add every image in a directory as a sample of one label",
		Long: `Add every image in a directory as a sample of one label.

Images are processed in name order. Import stops at the first failure;
samples added before it stay stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, err := dto.ParseLabel(labelName)
			if err != nil {
				return err
			}
			var roi *entity.ROI
			if roiSpec != "" {
				r, err := entity.ParseROI(roiSpec)
				if err != nil {
					return domain.InvalidCommand("%v", err)
				}
				roi = &r
			}

			paths, err := imageFiles(args[0])
			if err != nil {
				return err
			}
			deps, err := c.container(cmd.Context())
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions(len(paths),
				progressbar.OptionSetDescription("Importing "+string(label)),
				progressbar.OptionSetWriter(c.stderr),
				progressbar.OptionShowCount(),
			)

			imported, count := 0, 0
			for _, path := range paths {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				img, err := deps.Loader.Load(cmd.Context(), path)
				if err != nil {
					return err
				}
				count, err = deps.Detector.AddSample(cmd.Context(), img, label, dto.ResolveROI(roi, img.Bounds()))
				if err != nil {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				imported++
				_ = bar.Add(1)
			}
			_ = bar.Finish()
			fmt.Fprintln(c.stderr)

			if imported == 0 {
				counts, err := deps.Detector.Counts(cmd.Context())
				if err != nil {
					return err
				}
				count = counts.Of(label)
			}
			return c.write(dto.ImportResponse{Status: dto.StatusSuccess, Imported: imported, SampleCount: count})
		},
	}
	cmd.Flags().StringVar(&labelName, "label", "", "label of the imported samples: good or bad")
	cmd.Flags().StringVar(&roiSpec, "roi", "", `region "x,y,width,height"; whole image when empty`)
	return cmd
}

// imageFiles возвращает изображения каталога в порядке имён.
func imageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &domain.IOError{Op: "read directory", Path: dir, Err: err}
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}
