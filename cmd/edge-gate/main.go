package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dgellow/edge-gate/internal"
	"github.com/dgellow/edge-gate/internal/config"
	"github.com/dgellow/edge-gate/internal/crypto"
	"github.com/dgellow/edge-gate/internal/log"
	"github.com/spf13/cobra"
)

var BuildVersion = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.LogError("%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "edge-gate",
		Short: "OAuth2 login gate in front of static or internal sites",
		Long: `edge-gate challenges every request without a valid session with a
GitHub login, enforcing email-domain and organization policies, and
forwards authorized requests to the upstream origin.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		validateCmd(),
		configInitCmd(),
		keygenCmd(),
		versionCmd(),
	)
	return rootCmd
}

func serveCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gate",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log.LogInfoWithFields("main", "Starting edge-gate", map[string]any{
				"version": BuildVersion,
				"config":  configPath,
			})

			ctx := context.Background()
			gate, err := internal.NewEdgeGate(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to create gate: %w", err)
			}
			return gate.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func validateCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file without resolving environment variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cmd.OutOrStdout(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config-init <path>",
		Short: "Write a starter config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := generateDefaultConfig(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default config at: %s\n", args[0])
			return nil
		},
	}
}

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a random session signing key for GATE_HASH_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := crypto.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), BuildVersion)
		},
	}
}

func generateDefaultConfig(path string) error {
	data, err := json.MarshalIndent(config.DefaultConfig(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func validateConfig(out io.Writer, path string) error {
	result, err := config.ValidateFile(path)
	if err != nil {
		return fmt.Errorf("error during validation: %w", err)
	}

	fmt.Fprintf(out, "Validating: %s\n", path)

	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\nErrors (%d):\n", len(result.Errors))
		for _, err := range result.Errors {
			if err.Path != "" {
				fmt.Fprintf(out, "  - %s: %s\n", err.Path, err.Message)
			} else {
				fmt.Fprintf(out, "  - %s\n", err.Message)
			}
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintf(out, "\nWarnings (%d):\n", len(result.Warnings))
		for _, warn := range result.Warnings {
			if warn.Path != "" {
				fmt.Fprintf(out, "  - %s: %s\n", warn.Path, warn.Message)
			} else {
				fmt.Fprintf(out, "  - %s\n", warn.Message)
			}
		}
	}

	fmt.Fprintln(out)
	if len(result.Errors) == 0 && len(result.Warnings) == 0 {
		fmt.Fprintln(out, "Result: PASS")
	} else if len(result.Errors) == 0 {
		fmt.Fprintln(out, "Result: PASS (with warnings)")
	} else {
		fmt.Fprintln(out, "Result: FAIL")
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("validation failed: %d error(s), %d warning(s)", len(result.Errors), len(result.Warnings))
	}
	return nil
}
