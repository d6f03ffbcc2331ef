package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"formfill/config"
	"formfill/utils"
)

var rootCmd = &cobra.Command{
	Use:           "autofill",
	Short:         "Fill web forms from a stored profile and submit after review",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("failed to bind flags: %w", err)
		}

		cfg := config.GetAppConfig()
		utils.SetGlobalLogger(utils.NewLoggerWithOptions(utils.LoggerOptions{
			Level: utils.LogLevel(strings.ToUpper(viper.GetString("log-level"))),
			File:  cfg.LogFile,
		}))
		return nil
	},
}

func init() {
	viper.SetEnvPrefix("AUTOFILL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("log-level", "WARN", "log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.AddCommand(newRunCmd(), newProfileCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
