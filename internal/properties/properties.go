package properties

import (
	"os"
	"path/filepath"
)

// RootPath is the working root for run state such as the resume cache.
// It falls back to the current directory.
func RootPath() string {
	if root := os.Getenv("ROOT_PATH"); root != "" {
		return root
	}
	return "."
}

func CacheDir() string {
	return filepath.Join(RootPath(), "data", "cache", "runs")
}

func DiscordErrorNotificationUrl() string {
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}

func DiscordSuccessNotificationUrl() string {
	return os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL")
}

// Defaults for flags that may also be set through SPECTRAL_* variables.
const (
	DefaultSensorLayout = "ikonos"
	DefaultBackend      = "godal"
	DefaultWorkers      = 4
)
