// Package main provides the CLI entry point for leadflow, a multi-tenant
// lead generation core: encrypted provider credentials, resilient
// RocketReach calls with usage accounting, and LLM agent tasks.
//
// # Basic Usage
//
// Configure a tenant's provider credentials:
//
//	leadflow settings set --tenant acme --api-key rr-live-...
//
// Search for leads:
//
//	leadflow search --tenant acme --company "Acme Corp" --role CTO
//
// Run an agent task:
//
//	leadflow task run --tenant acme --type lead-discovery "Find CTOs at fintech startups in Berlin"
//
// # Environment Variables
//
//   - LEADFLOW_CONFIG: Path to configuration file
//   - LEADFLOW_VAULT_PASSPHRASE: Master passphrase for credential encryption
//   - ANTHROPIC_API_KEY: Anthropic API key for agent tasks
//   - OPENAI_API_KEY: OpenAI API key for agent tasks
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := buildRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "leadflow",
		Short:         "Multi-tenant lead generation core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("LEADFLOW_CONFIG"),
		"Path to YAML configuration file")

	cmd.AddCommand(
		buildSettingsCmd(&configPath),
		buildSearchCmd(&configPath),
		buildTaskCmd(&configPath),
		buildLeadsCmd(&configPath),
		buildUsageCmd(&configPath),
	)
	return cmd
}
