package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/leadflow/internal/audit"
	"github.com/haasonsaas/leadflow/internal/rocketreach"
	"github.com/haasonsaas/leadflow/internal/settings"
	"github.com/haasonsaas/leadflow/pkg/models"
)

func buildSettingsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage per-tenant provider settings",
	}
	cmd.AddCommand(
		buildSettingsSetCmd(configPath),
		buildSettingsShowCmd(configPath),
		buildSettingsDeleteCmd(configPath),
	)
	return cmd
}

func buildSettingsSetCmd(configPath *string) *cobra.Command {
	var (
		tenantID    string
		actorID     string
		apiKey      string
		baseURL     string
		enabled     bool
		dailyLimit  int
		concurrency int
		maxRetries  int
		baseDelayMs int
		maxDelayMs  int
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update a tenant's provider settings",
		Example: `  # Configure credentials for a tenant
  leadflow settings set --tenant acme --api-key rr-live-xxx

  # Tighten the retry budget
  leadflow settings set --tenant acme --max-retries 3 --base-delay-ms 250`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			record, err := a.admin.Upsert(cmd.Context(), tenantID, audit.Actor{ID: actorID}, settings.UpsertInput{
				IsEnabled:   enabled,
				BaseURL:     baseURL,
				APIKey:      apiKey,
				DailyLimit:  dailyLimit,
				Concurrency: concurrency,
				RetryPolicy: models.RetryPolicy{
					MaxRetries:  maxRetries,
					BaseDelayMs: baseDelayMs,
					MaxDelayMs:  maxDelayMs,
				},
			})
			if err != nil {
				return err
			}
			fmt.Printf("settings saved for tenant %s (version %d)\n", record.TenantID, record.Version)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().StringVar(&actorID, "actor", "cli", "Acting user recorded in the audit trail")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Provider API key (empty keeps the stored key)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Provider base URL override")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "Whether the provider is enabled")
	cmd.Flags().IntVar(&dailyLimit, "daily-limit", 0, "Daily lookup budget (0 = unlimited)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Concurrent call limit (0 = default)")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "Retry budget (0 = default)")
	cmd.Flags().IntVar(&baseDelayMs, "base-delay-ms", 0, "Initial backoff in milliseconds (0 = default)")
	cmd.Flags().IntVar(&maxDelayMs, "max-delay-ms", 0, "Backoff ceiling in milliseconds (0 = default)")
	cobra.CheckErr(cmd.MarkFlagRequired("tenant"))
	return cmd
}

func buildSettingsShowCmd(configPath *string) *cobra.Command {
	var tenantID string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a tenant's resolved provider settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			resolved, err := a.resolver.Resolve(cmd.Context(), tenantID)
			if err != nil {
				return err
			}
			fmt.Printf("tenant:      %s\n", resolved.TenantID)
			fmt.Printf("base URL:    %s\n", resolved.BaseURL)
			fmt.Printf("api key:     %s\n", maskKey(resolved.APIKey))
			fmt.Printf("concurrency: %d\n", resolved.Concurrency)
			fmt.Printf("daily limit: %d\n", resolved.DailyLimit)
			fmt.Printf("retries:     %d (base %s, max %s)\n",
				resolved.RetryPolicy.MaxRetries, resolved.RetryPolicy.BaseDelay, resolved.RetryPolicy.MaxDelay)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cobra.CheckErr(cmd.MarkFlagRequired("tenant"))
	return cmd
}

func buildSettingsDeleteCmd(configPath *string) *cobra.Command {
	var (
		tenantID string
		actorID  string
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a tenant's provider settings and credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.admin.Delete(cmd.Context(), tenantID, audit.Actor{ID: actorID}); err != nil {
				return err
			}
			fmt.Printf("settings deleted for tenant %s\n", tenantID)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().StringVar(&actorID, "actor", "cli", "Acting user recorded in the audit trail")
	cobra.CheckErr(cmd.MarkFlagRequired("tenant"))
	return cmd
}

func buildSearchCmd(configPath *string) *cobra.Command {
	var (
		tenantID string
		company  string
		role     string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search for leads through the provider",
		Example: `  leadflow search --tenant acme --company "Acme Corp" --role CTO
  leadflow search --tenant acme --role "VP Engineering" --limit 25`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			req := rocketreach.SearchRequest{PageSize: limit}
			if company != "" {
				req.Query.CompanyName = []string{company}
			}
			if role != "" {
				req.Query.CurrentTitle = []string{role}
			}
			resp, err := a.client.SearchPeople(cmd.Context(), tenantID, req)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTITLE\tCOMPANY\tLOCATION")
			for _, p := range resp.Profiles {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.CurrentTitle, p.CurrentEmployer, p.Location)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("%d of %d results\n", len(resp.Profiles), resp.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().StringVar(&company, "company", "", "Company name filter")
	cmd.Flags().StringVar(&role, "role", "", "Job title filter")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum results")
	cobra.CheckErr(cmd.MarkFlagRequired("tenant"))
	return cmd
}

func buildTaskCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Run and inspect agent tasks",
	}
	cmd.AddCommand(
		buildTaskRunCmd(configPath),
		buildTaskListCmd(configPath),
		buildTaskShowCmd(configPath),
	)
	return cmd
}

func buildTaskRunCmd(configPath *string) *cobra.Command {
	var (
		tenantID string
		userID   string
		taskType string
	)
	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Run an agent task to completion",
		Args:  cobra.ExactArgs(1),
		Example: `  leadflow task run --tenant acme --type lead-discovery \
    "Find CTOs at fintech startups in Berlin and save the top 5"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			defer a.serveMetrics()()

			executor, err := a.newExecutor(tenantID, userID)
			if err != nil {
				return err
			}

			task, err := executor.ExecuteTask(cmd.Context(), tenantID, userID, args[0], models.TaskType(taskType))
			if task != nil {
				a.metrics.ObserveTask(task)
			}
			if err != nil {
				return err
			}

			fmt.Printf("task %s completed in %d steps\n\n", task.ID, len(task.Steps))
			fmt.Println(task.Result.Text)

			if totals := a.tracker.Get(tenantID, rocketreach.Provider); totals.Calls > 0 {
				fmt.Printf("\nprovider usage: %d calls, %d units, %d errors\n",
					totals.Calls, totals.Units, totals.Errors)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().StringVar(&userID, "user", "cli", "User recorded on the task")
	cmd.Flags().StringVar(&taskType, "type", string(models.TaskCustom),
		"Task type: lead-discovery, email-outreach, research, custom")
	cobra.CheckErr(cmd.MarkFlagRequired("tenant"))
	return cmd
}

func buildTaskListCmd(configPath *string) *cobra.Command {
	var (
		tenantID string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a tenant's tasks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			tasks, err := a.stores.Tasks.List(cmd.Context(), tenantID, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tSTEPS\tCREATED\tPROMPT")
			for _, task := range tasks {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					task.ID, task.Type, task.Status, len(task.Steps),
					task.CreatedAt.Format(time.RFC3339), truncate(task.Prompt, 48))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum tasks to list")
	cobra.CheckErr(cmd.MarkFlagRequired("tenant"))
	return cmd
}

func buildTaskShowCmd(configPath *string) *cobra.Command {
	var tenantID string
	cmd := &cobra.Command{
		Use:   "show [task-id]",
		Short: "Show a task's steps and result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := a.stores.Tasks.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if task.TenantID != tenantID {
				return fmt.Errorf("task %s not found for tenant %s", args[0], tenantID)
			}
			out, err := json.MarshalIndent(task, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cobra.CheckErr(cmd.MarkFlagRequired("tenant"))
	return cmd
}

func buildLeadsCmd(configPath *string) *cobra.Command {
	var (
		tenantID string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List saved leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			leads, err := a.stores.Leads.List(cmd.Context(), tenantID, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTITLE\tCOMPANY\tEMAIL\tSOURCE")
			for _, lead := range leads {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					lead.Name, lead.Title, lead.Company, lead.Email, lead.Source)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum leads to list")
	cobra.CheckErr(cmd.MarkFlagRequired("tenant"))
	return cmd
}

func buildUsageCmd(configPath *string) *cobra.Command {
	var (
		tenantID string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "List provider usage records",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.stores.Usage.List(cmd.Context(), tenantID, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tENDPOINT\tMETHOD\tSTATUS\tUNITS\tMS\tERROR")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					r.CreatedAt.Format(time.RFC3339), r.Endpoint, r.Method,
					r.Status, r.Units, r.DurationMs, truncate(r.Error, 40))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum records to list")
	cobra.CheckErr(cmd.MarkFlagRequired("tenant"))
	return cmd
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back up to a rune boundary so the cut never emits invalid UTF-8.
	cut := n - 1
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
