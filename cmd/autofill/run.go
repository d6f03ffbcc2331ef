package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"formfill/config"
	"formfill/database"
	"formfill/models"
	"formfill/services"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the form, fill it and ask before submitting",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAutofill(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("url", "", "form URL")
	cmd.Flags().String("profile", "", "JSON profile file (defaults to the stored profile)")
	cmd.Flags().String("user", "cli", "user key; selects the browser profile directory")
	cmd.Flags().Bool("headless", false, "run without a visible browser window")
	cmd.Flags().Bool("yes", false, "submit without asking")
	return cmd
}

func runAutofill(ctx context.Context, in io.Reader, out io.Writer) error {
	formURL := viper.GetString("url")
	if formURL == "" {
		return errors.New("--url is required")
	}
	userKey := viper.GetString("user")

	cfg := config.GetAppConfig()
	profile, err := loadProfile(ctx, cfg.Database, userKey, viper.GetString("profile"))
	if err != nil {
		return err
	}

	launcher, err := services.NewPlaywrightLauncher(services.NewLauncherOptions(cfg.Automation))
	if err != nil {
		return err
	}
	defer launcher.Stop()

	manager := services.NewSessionManager(
		services.NewManagerConfig(cfg.Automation),
		launcher,
		nil,
		services.NewFieldMapper(services.NewMapperConfig(cfg.Automation)),
		services.NewScreenshotService(nil, cfg.Automation.ScreenshotDir),
	)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = manager.Shutdown(shutdownCtx)
	}()

	return drive(ctx, manager, bufio.NewReader(in), out, userKey, formURL, profile, viper.GetBool("headless"), viper.GetBool("yes"))
}

// autofillSession is the part of the session manager the CLI drives
type autofillSession interface {
	Start(ctx context.Context, userKey, formURL string, profile services.Profile, headless bool) (*services.RunResult, error)
	Continue(ctx context.Context, sessionID string, profile services.Profile) (*services.RunResult, error)
	Submit(ctx context.Context, sessionID string) (*services.SubmitResult, error)
	Cancel(sessionID string) *services.CancelResult
}

func drive(ctx context.Context, manager autofillSession, in *bufio.Reader, out io.Writer, userKey, formURL string, profile services.Profile, headless, yes bool) error {
	result, err := manager.Start(ctx, userKey, formURL, profile, headless)
	if err != nil {
		return err
	}

	for result.NeedsLogin {
		fmt.Fprintln(out, result.Message)
		if !confirm(in, out, "Signed in? Continue [y/N]: ") {
			manager.Cancel(result.SessionID)
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
		result, err = manager.Continue(ctx, result.SessionID, profile)
		if err != nil {
			return err
		}
	}

	if err := printJSON(out, result.Diagnostics); err != nil {
		return err
	}
	if result.State == services.StateFailed {
		return fmt.Errorf("autofill failed: %s", result.Message)
	}
	if missing := services.DescribeMissingFields(result.MissingFields); missing != "" {
		fmt.Fprintln(out, missing)
	}
	if result.ScreenshotKey != "" {
		fmt.Fprintf(out, "Snapshot: %s\n", result.ScreenshotKey)
	}

	if !yes && !confirm(in, out, "Submit the form? [y/N]: ") {
		manager.Cancel(result.SessionID)
		fmt.Fprintln(out, "Not submitted.")
		return nil
	}

	submitted, err := manager.Submit(ctx, result.SessionID)
	if err != nil {
		return err
	}
	if !submitted.Success {
		manager.Cancel(result.SessionID)
		return fmt.Errorf("submit failed: %s", submitted.Reason)
	}
	if submitted.Confirmed {
		fmt.Fprintln(out, "Submitted and confirmed.")
	} else {
		fmt.Fprintln(out, "Submitted; no confirmation page seen.")
	}
	return nil
}

// loadProfile reads a JSON file when given, else the stored profile
func loadProfile(ctx context.Context, dbCfg config.DatabaseConfig, userKey, path string) (services.Profile, error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open profile: %w", err)
		}
		defer f.Close()

		data, err := models.DecodeProfile(f)
		if err != nil {
			return nil, err
		}
		return services.Profile(data), nil
	}

	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("no --profile given and the profile store is unavailable: %w", err)
	}
	defer db.Close()

	data, err := models.NewProfileModel(db).GetProfile(ctx, userKey)
	if err != nil {
		return nil, err
	}
	return services.Profile(data), nil
}

func confirm(in *bufio.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
