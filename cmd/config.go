package cmd

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/naka-gawa/github-star-badge/internal/settings"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initConfig loads configuration from all sources in order of precedence:
// flags, environment, .env files, config file, schema defaults.
func initConfig() {
	// .env.local overrides .env; neither overrides the real environment.
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}

	settings.Register(viper.GetViper())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv(settings.TokenKey, "SHOW_GITHUB_STAR_GITHUB_TOKEN", "GITHUB_TOKEN")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".github-star-badge")
	}
	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// newLogger discards all logs unless --verbose is set.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
	if verbose {
		logger.SetOutput(os.Stderr) // If verbose, log to standard error.
	}
	return logger
}
