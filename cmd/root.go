package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/GeowazM/calcSpectralIndices/internal/indices"
	"github.com/GeowazM/calcSpectralIndices/internal/properties"
	"github.com/GeowazM/calcSpectralIndices/internal/raster"
	"github.com/GeowazM/calcSpectralIndices/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "spectral",
	Short: "Compute spectral indices from multispectral GeoTIFFs and stack them",
	Long: `
spectral reads a 4-band (Ikonos/PlanetScope) or 8-band (WorldView-2) GeoTIFF,
computes NDVI, NDWI and a built-up index, writes every index and every exported
band as a single-band Float32 GeoTIFF next to the input, and stacks them into
one multi-band GeoTIFF.

Every flag may also be given as an environment variable with the SPECTRAL_
prefix, e.g. SPECTRAL_SENSOR_LAYOUT=wv2. A .env file in the working directory
is loaded first.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		setDefaultSlog()
		raster.RegisterDrivers()
		if !viper.GetBool("quiet") {
			ui.PrintBanner()
		}
		return nil
	},
}

// Execute runs the root command. A first SIGINT or SIGTERM cancels the
// command context; a second one exits immediately.
func Execute() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interrupt := make(chan os.Signal, 2)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		for i := 0; ; i++ {
			sig := <-interrupt
			slog.Warn("Received signal", "signal", sig)
			if i > 0 {
				os.Exit(130)
			}
			cancel()
		}
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

func init() {
	viper.SetEnvPrefix("SPECTRAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug messages")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Do not print the banner")
}

func setDefaultSlog() {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// addJobFlags registers the flags shared by run and batch.
func addJobFlags(fs *pflag.FlagSet) {
	fs.StringP("sensor-layout", "s", properties.DefaultSensorLayout,
		"Built-in layout (ikonos, worldview2 and aliases) or layout CSV, optionally path#sensor")
	fs.StringP("output-dir", "o", "", "Output directory (default: next to the input)")
	fs.String("indices", "", fmt.Sprintf("Comma separated indices to compute (default: %s)", kindList(indices.All())))
	fs.String("backend", properties.DefaultBackend, "Composition backend: godal or exec")
	fs.Bool("keep-partial", false, "Keep already written files when a later step fails")
	fs.Bool("preview", false, "Also render an NDVI preview PNG")
	fs.Bool("footprint", false, "Also write the image footprint as GeoJSON")
}

func kindList(kinds []indices.Kind) string {
	s := make([]string, len(kinds))
	for i, k := range kinds {
		s[i] = string(k)
	}
	return strings.Join(s, ",")
}
