package cli

import (
	"github.com/spf13/cobra"

	"defect-inspector/internal/api/dto"
)

func (c *cli) trainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Fit the scaler and random forest on all stored samples",
		Long: `Fit the scaler and random forest on all stored samples.

The reported accuracy is measured on the training samples themselves and
overstates how the model will do on new parts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := c.container(cmd.Context())
			if err != nil {
				return err
			}
			_, accuracy, err := deps.Detector.Train(cmd.Context())
			if err != nil {
				return err
			}
			return c.write(dto.Train(accuracy))
		},
	}
}

func (c *cli) countsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get_counts",
		Short: "Print the number of stored samples per label",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := c.container(cmd.Context())
			if err != nil {
				return err
			}
			counts, err := deps.Detector.Counts(cmd.Context())
			if err != nil {
				return err
			}
			return c.write(dto.Counts(counts))
		},
	}
}

func (c *cli) addSampleCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "add_sample <json>",
		Short:   "Add a labelled sample from an image file",
		Example: `  defectd add_sample '{"imagePath":"part.jpg","label":"good","roi":{"x":0,"y":0,"width":100,"height":100}}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, label, err := dto.ParseAddSample(args[0])
			if err != nil {
				return err
			}
			deps, err := c.container(cmd.Context())
			if err != nil {
				return err
			}
			img, err := deps.Loader.Load(cmd.Context(), req.ImagePath)
			if err != nil {
				return err
			}
			n, err := deps.Detector.AddSample(cmd.Context(), img, label, *req.ROI)
			if err != nil {
				return err
			}
			return c.write(dto.AddSample(n))
		},
	}
}

func (c *cli) predictCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "predict <json>",
		Short:   "Classify a region of an image file",
		Example: `  defectd predict '{"imagePath":"part.jpg","roi":{"x":0,"y":0,"width":100,"height":100}}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := dto.ParsePredict(args[0])
			if err != nil {
				return err
			}
			deps, err := c.container(cmd.Context())
			if err != nil {
				return err
			}
			// модель загружается до изображения
			if _, err := deps.Detector.ModelInfo(cmd.Context()); err != nil {
				return err
			}
			img, err := deps.Loader.Load(cmd.Context(), req.ImagePath)
			if err != nil {
				return err
			}
			p, err := deps.Detector.Predict(cmd.Context(), img, *req.ROI)
			if err != nil {
				return err
			}
			return c.write(dto.Predict(p))
		},
	}
}

func (c *cli) modelInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "model_info",
		Short: "Print metadata of the saved model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := c.container(cmd.Context())
			if err != nil {
				return err
			}
			m, err := deps.Detector.ModelInfo(cmd.Context())
			if err != nil {
				return err
			}
			return c.write(dto.ModelInfo(m))
		},
	}
}
