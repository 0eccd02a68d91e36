package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-pipeline/internal/config"
	"github.com/jonathan/apply-pipeline/internal/store"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect or change pipeline settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a setting value",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting value",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return store.Connect(cmd.Context(), cfg.DatabaseURL)
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	value, err := st.Setting(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("setting %q not found", args[0])
	}
	fmt.Fprintln(os.Stdout, value)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SetSetting(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s = %s\n", args[0], args[1])
	return nil
}
