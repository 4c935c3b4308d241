package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/planboard/internal/config"
	"github.com/javiermolinar/planboard/internal/tui/theme"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  planboard config`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runConfigInteractive(cmd)
		},
	}
}

func (a *App) runConfigInteractive(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	reader := a.reader(cmd)
	fmt.Fprintf(out, "Config file: %s\n\n", a.configPath)

	// Reload so flag overrides are not written back
	cfg, err := config.LoadFrom(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	_, fileErr := os.Stat(a.configPath)
	if os.IsNotExist(fileErr) {
		fmt.Fprintln(out, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(a.configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(out, "Created %s\n\n", a.configPath)
	}

	printConfig(out, cfg)

	if !promptYesNo(out, reader, "\nWould you like to edit the configuration?") {
		return nil
	}

	cfg.Planner.User = promptValue(out, reader, "User", cfg.Planner.User)
	cfg.Planner.DefaultView = promptValue(out, reader, "Default view (day, week, month)", cfg.Planner.DefaultView)
	cfg.Planner.DefaultDays = promptInt(out, reader, "Default days", cfg.Planner.DefaultDays)
	cfg.Planner.Autosave = promptBool(out, reader, "Autosave", cfg.Planner.Autosave)
	cfg.Storage.Backend = promptValue(out, reader, "Storage backend (sqlite, file)", cfg.Storage.Backend)
	cfg.Storage.DBPath = promptValue(out, reader, "Database path", cfg.Storage.DBPath)
	cfg.Storage.DataDir = promptValue(out, reader, "Data directory", cfg.Storage.DataDir)
	cfg.Server.URL = promptValue(out, reader, "Server URL (empty for local)", cfg.Server.URL)
	cfg.UI.Theme = promptTheme(out, reader, cfg.UI.Theme)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.SaveTo(a.configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(out, "\nConfiguration saved!")
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintln(w, "[planner]")
	fmt.Fprintf(w, "  user              = %s\n", cfg.Planner.User)
	fmt.Fprintf(w, "  default_view      = %s\n", cfg.Planner.DefaultView)
	fmt.Fprintf(w, "  default_days      = %d\n", cfg.Planner.DefaultDays)
	fmt.Fprintf(w, "  autosave          = %t\n", cfg.Planner.Autosave)
	fmt.Fprintf(w, "  autosave_delay_ms = %d\n", cfg.Planner.AutosaveDelayMS)
	fmt.Fprintln(w, "\n[storage]")
	fmt.Fprintf(w, "  backend           = %s\n", cfg.Storage.Backend)
	fmt.Fprintf(w, "  db_path           = %s\n", cfg.Storage.DBPath)
	fmt.Fprintf(w, "  data_dir          = %s\n", cfg.Storage.DataDir)
	fmt.Fprintln(w, "\n[server]")
	fmt.Fprintf(w, "  addr              = %s\n", cfg.Server.Addr)
	fmt.Fprintf(w, "  url               = %s\n", cfg.Server.URL)
	if cfg.Server.Secret != "" {
		fmt.Fprintln(w, "  secret            = (set)")
	}
	fmt.Fprintln(w, "\n[ui]")
	fmt.Fprintf(w, "  theme             = %s\n", cfg.UI.Theme)
}

func promptYesNo(w io.Writer, reader *bufio.Reader, question string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func promptValue(w io.Writer, reader *bufio.Reader, label, current string) string {
	if current == "" {
		fmt.Fprintf(w, "  %s: ", label)
	} else {
		fmt.Fprintf(w, "  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func promptInt(w io.Writer, reader *bufio.Reader, label string, current int) int {
	for {
		value := promptValue(w, reader, label, strconv.Itoa(current))
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
		fmt.Fprintf(w, "  Invalid number %q\n", value)
	}
}

func promptBool(w io.Writer, reader *bufio.Reader, label string, current bool) bool {
	for {
		value := promptValue(w, reader, label, strconv.FormatBool(current))
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
		fmt.Fprintf(w, "  Invalid value %q, use true or false\n", value)
	}
}

func promptTheme(w io.Writer, reader *bufio.Reader, current string) string {
	options := strings.Join(theme.Available(), ", ")
	label := fmt.Sprintf("UI theme (%s)", options)
	for {
		value := strings.ToLower(promptValue(w, reader, label, current))
		if theme.IsAvailable(value) {
			return value
		}
		fmt.Fprintf(w, "  Invalid theme %q. Available: %s\n", value, options)
	}
}
