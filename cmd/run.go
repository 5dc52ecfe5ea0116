package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GeowazM/calcSpectralIndices/internal/composite"
	"github.com/GeowazM/calcSpectralIndices/internal/indices"
	"github.com/GeowazM/calcSpectralIndices/internal/pipeline"
	"github.com/GeowazM/calcSpectralIndices/internal/sensor"
	"github.com/GeowazM/calcSpectralIndices/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process one image",
	Long: `
Computes the selected indices for one image, writes them and the exported bands
as single-band GeoTIFFs and stacks everything into <base>_rst_stack.tif.

Examples:

  spectral run --input po_2661437_img_clip.tif
  spectral run -i scene.tif -s wv2 -o out/ --indices ndvi,builtup --preview
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input := viper.GetString("input")
		if input == "" && len(args) == 1 {
			input = args[0]
		}
		if input == "" {
			return errors.New("no input image given, use --input")
		}

		job, backend, err := jobTemplate()
		if err != nil {
			return err
		}
		job.Input = input
		job.Base = viper.GetString("base")

		res, err := pipeline.NewRunner(backend).Run(cmd.Context(), job)
		if err != nil {
			return err
		}
		ui.PrintResult(res)
		return nil
	},
	Args: cobra.MaximumNArgs(1),
}

// jobTemplate builds the job settings shared by every image from flags and
// SPECTRAL_* variables.
func jobTemplate() (pipeline.Job, composite.Backend, error) {
	layout, err := sensor.Resolve(viper.GetString("sensor-layout"))
	if err != nil {
		return pipeline.Job{}, nil, err
	}
	kinds, err := indices.ParseKinds(viper.GetString("indices"))
	if err != nil {
		return pipeline.Job{}, nil, err
	}
	backend, err := composite.NewBackend(viper.GetString("backend"))
	if err != nil {
		return pipeline.Job{}, nil, err
	}
	return pipeline.Job{
		Layout:      layout,
		OutputDir:   viper.GetString("output-dir"),
		Indices:     kinds,
		KeepPartial: viper.GetBool("keep-partial"),
		Preview:     viper.GetBool("preview"),
		Footprint:   viper.GetBool("footprint"),
	}, backend, nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("input", "i", "", "Input multispectral GeoTIFF")
	runCmd.Flags().String("base", "", "Base name of the output files (default: input file name without extension)")
	addJobFlags(runCmd.Flags())
}
