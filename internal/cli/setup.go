package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mmcdole/gallery/internal/adapter"
	"github.com/spf13/cobra"
)

func newSetupCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Store the catalog API key in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := e.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return runSetup(cmd.OutOrStdout(), e, cfg)
		},
	}
}

// runSetup prompts for the API key without echo and saves it
func runSetup(out io.Writer, e *env, cfg *adapter.Config) error {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Welcome to Gallery!")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "An API key from thecatapi.com is needed to load images.")

	for attempt := 0; attempt < 3; attempt++ {
		fmt.Fprint(out, "API key: ")
		key, err := e.readSecret()
		fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			fmt.Fprintln(out, "API key cannot be empty. Please try again.")
			continue
		}

		cfg.Catalog.APIKey = key
		if err := e.saveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(out, "✓ Configuration saved to %s\n", adapter.ConfigPath())
		return nil
	}
	return errors.New("no API key entered")
}
