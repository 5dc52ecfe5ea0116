package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GeowazM/calcSpectralIndices/internal/batch"
	"github.com/GeowazM/calcSpectralIndices/internal/notification"
	"github.com/GeowazM/calcSpectralIndices/internal/pipeline"
	"github.com/GeowazM/calcSpectralIndices/internal/properties"
	"github.com/GeowazM/calcSpectralIndices/internal/ui"
)

var batchCmd = &cobra.Command{
	Use:   "batch [images...]",
	Short: "Process many images on a worker pool",
	Long: `
Processes the images given as arguments and/or listed in a manifest CSV with
the columns input,sensor_layout,output_dir. Empty manifest columns fall back to
the flags. Relative manifest paths are relative to the manifest.

A failing image is recorded and the batch continues. Interrupting the batch
stops queued images; running images finish.

Flags:

  --workers  Number of images processed at once.
  --report   Write a CSV record per image.
  --resume   Skip images whose input and settings are unchanged since their
             last successful run and whose stack still exists. The run cache
             lives under $ROOT_PATH/data/cache/runs.

Discord summaries are sent when DISCORD_SUCCESS_NOTIFICATION_URL or
DISCORD_ERROR_NOTIFICATION_URL is set.

Examples:

  spectral batch --workers 8 scenes/*.tif
  spectral batch --manifest scenes.csv --report report.csv --resume
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		template, backend, err := jobTemplate()
		if err != nil {
			return err
		}

		var jobs []pipeline.Job
		if manifest := viper.GetString("manifest"); manifest != "" {
			fromManifest, err := manifestJobs(manifest, template)
			if err != nil {
				return err
			}
			jobs = append(jobs, fromManifest...)
		}
		for _, input := range args {
			job := template
			job.Input = input
			jobs = append(jobs, job)
		}
		if len(jobs) == 0 {
			return errors.New("no images given, pass them as arguments or use --manifest")
		}

		runner := &batch.Runner{
			Workers:  viper.GetInt("workers"),
			Backend:  backend,
			Progress: os.Stderr,
		}
		if discord := notification.NewDiscord(properties.DiscordSuccessNotificationUrl(), properties.DiscordErrorNotificationUrl()); discord.Enabled() {
			runner.Notify = discord
		}
		if viper.GetBool("resume") {
			runner.Cache = batch.NewCache(properties.CacheDir())
			slog.Info("resume enabled", "cache", runner.Cache.Dir())
		}

		records := runner.Run(cmd.Context(), jobs)
		ui.PrintSummary(records)

		if report := viper.GetString("report"); report != "" {
			if err := writeReport(report, records); err != nil {
				return err
			}
			ui.PrintInfo("Report written to " + report)
		}

		if _, failed := batch.Summary(records); failed {
			return fmt.Errorf("%d of %d images did not complete", countProblems(records), len(records))
		}
		return nil
	},
}

func manifestJobs(path string, template pipeline.Job) ([]pipeline.Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := batch.ReadManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return batch.Jobs(rows, filepath.Dir(path), template)
}

func writeReport(path string, records []batch.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := batch.WriteReport(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func countProblems(records []batch.Record) int {
	n := 0
	for _, r := range records {
		if r.Status == batch.StatusFailed || r.Status == batch.StatusCancelled {
			n++
		}
	}
	return n
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("manifest", "m", "", "Manifest CSV with input,sensor_layout,output_dir columns")
	batchCmd.Flags().IntP("workers", "w", properties.DefaultWorkers, "Number of images processed at once")
	batchCmd.Flags().String("report", "", "Write a per-image CSV report to this file")
	batchCmd.Flags().Bool("resume", false, "Skip images unchanged since their last successful run")
	addJobFlags(batchCmd.Flags())
}
