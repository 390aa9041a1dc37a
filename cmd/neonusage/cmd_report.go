package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/j-veylop/neon-usage-tui/internal/models"
)

func newUsageCmd() *cobra.Command {
	var (
		projectIDs []string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Print daily consumption for the last thirty days",
		Long: `Print daily consumption for the last thirty days.

Without --project the saved project filter is used; an empty filter means
every project in the organization.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, mgr, logCloser, err := setup()
			if err != nil {
				return err
			}
			defer shutdown(mgr, logCloser)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var result *models.UsageResult
			if cmd.Flags().Changed("project") {
				result, err = mgr.LoadUsage(ctx, projectIDs)
			} else {
				result, err = mgr.RefreshUsage(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to load consumption data: %w", err)
			}

			if asJSON {
				return writeUsageJSON(cmd.OutOrStdout(), result)
			}
			return writeUsageTable(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringArrayVarP(&projectIDs, "project", "p", nil, "restrict to a project id (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}

func newProjectsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List the organization's projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, mgr, logCloser, err := setup()
			if err != nil {
				return err
			}
			defer shutdown(mgr, logCloser)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			list, err := mgr.LoadProjects(ctx)
			if err != nil {
				return fmt.Errorf("failed to load projects: %w", err)
			}

			selected := mgr.Filter().Selected()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			return writeProjectsTable(cmd.OutOrStdout(), list, selected)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}

// usageReport is the JSON shape of the usage command.
type usageReport struct {
	From       time.Time           `json:"from"`
	To         time.Time           `json:"to"`
	ProjectIDs []string            `json:"projectIds"`
	Records    []models.DailyUsage `json:"records"`
	Summary    reportSummary       `json:"summary"`
	FromCache  bool                `json:"fromCache"`
}

type reportSummary struct {
	ComputeHours      float64 `json:"computeHours"`
	AvgStorageGiB     float64 `json:"avgStorageGiB"`
	DataTransferGiB   float64 `json:"dataTransferGiB"`
	PeakExtraBranches float64 `json:"peakExtraBranches"`
	Days              int     `json:"days"`
}

func newUsageReport(result *models.UsageResult) usageReport {
	sum := models.Summarize(result.Records)
	records := result.Records
	if records == nil {
		records = []models.DailyUsage{}
	}
	ids := result.ProjectIDs
	if ids == nil {
		ids = []string{}
	}

	return usageReport{
		From:       result.Range.From,
		To:         result.Range.To,
		ProjectIDs: ids,
		Records:    records,
		FromCache:  result.FromCache,
		Summary: reportSummary{
			ComputeHours:      sum.ComputeHours(),
			AvgStorageGiB:     sum.AvgStorage,
			DataTransferGiB:   sum.DataTransfer,
			PeakExtraBranches: sum.PeakExtraBranches,
			Days:              sum.Days,
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeUsageJSON(w io.Writer, result *models.UsageResult) error {
	return writeJSON(w, newUsageReport(result))
}

func plainTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(_, _ int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func writeUsageTable(w io.Writer, result *models.UsageResult) error {
	scope := "all projects"
	if result.Filtered() {
		scope = fmt.Sprintf("%d project(s)", len(result.ProjectIDs))
	}
	if _, err := fmt.Fprintf(w, "%s · %s\n", result.Range, scope); err != nil {
		return err
	}

	if len(result.Records) == 0 {
		_, err := fmt.Fprintln(w, "No consumption data found for the last 30 days.")
		return err
	}

	t := plainTable("Date", "Compute hrs", "Root GiB", "Child GiB", "History GiB", "Egress GiB", "Branches")
	for _, d := range result.Records {
		day := d.Date
		if parsed, err := d.Day(); err == nil {
			day = parsed.UTC().Format("2006-01-02")
		}
		t.Row(
			day,
			fmt.Sprintf("%.2f", d.Compute/3600),
			fmt.Sprintf("%.2f", d.StorageRoot),
			fmt.Sprintf("%.2f", d.StorageChild),
			fmt.Sprintf("%.2f", d.StorageHistory),
			fmt.Sprintf("%.2f", d.DataTransfer),
			fmt.Sprintf("%.0f", d.ExtraBranches),
		)
	}

	sum := models.Summarize(result.Records)
	_, err := fmt.Fprintf(w, "%s\nTotal compute %.1f hrs · avg storage %.2f GiB · transfer %.2f GiB · peak extra branches %.0f\n",
		t.String(), sum.ComputeHours(), sum.AvgStorage, sum.DataTransfer, sum.PeakExtraBranches)
	return err
}

func writeProjectsTable(w io.Writer, list []models.Project, selected []string) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No projects found.")
		return err
	}

	t := plainTable("", "Name", "ID")
	for _, p := range list {
		t.Row(lo.Ternary(lo.Contains(selected, p.ID), "*", ""), p.Name, p.ID)
	}

	footer := "No saved filter: usage covers every project."
	if len(selected) > 0 {
		footer = fmt.Sprintf("* %d project(s) in the saved filter.", len(selected))
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", t.String(), footer)
	return err
}
