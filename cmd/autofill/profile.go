package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"formfill/config"
	"formfill/database"
	"formfill/models"
	"formfill/utils"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage stored profiles",
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Store a JSON profile for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("file")
			userKey := viper.GetString("user")
			if path == "" || userKey == "" {
				return errors.New("--file and --user are required")
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open profile: %w", err)
			}
			defer f.Close()

			data, err := models.DecodeProfile(f)
			if err != nil {
				return err
			}

			db, err := database.Connect(cmd.Context(), config.GetDatabaseConfig())
			if err != nil {
				return err
			}
			defer db.Close()

			profiles := models.NewProfileModel(db)
			if err := profiles.CreateTable(cmd.Context()); err != nil {
				return err
			}
			if err := profiles.SaveProfile(cmd.Context(), userKey, data); err != nil {
				return err
			}

			utils.LogInfo("Profile stored", map[string]interface{}{
				"user_key": userKey,
				"keys":     len(data),
			})
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %d answers for %s\n", len(data), userKey)
			return nil
		},
	}
	importCmd.Flags().String("file", "", "JSON profile file")
	importCmd.Flags().String("user", "", "user key")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print a user's stored profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			userKey := viper.GetString("user")
			if userKey == "" {
				return errors.New("--user is required")
			}

			db, err := database.Connect(cmd.Context(), config.GetDatabaseConfig())
			if err != nil {
				return err
			}
			defer db.Close()

			data, err := models.NewProfileModel(db).GetProfile(cmd.Context(), userKey)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		},
	}
	showCmd.Flags().String("user", "", "user key")

	cmd.AddCommand(importCmd, showCmd)
	return cmd
}
