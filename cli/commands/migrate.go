package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/cqlmigrate/cli/internal/config"
	"github.com/satishbabariya/cqlmigrate/cli/internal/ui"
	"github.com/satishbabariya/cqlmigrate/migrate"
	"github.com/satishbabariya/cqlmigrate/migrate/introspect"
	"github.com/satishbabariya/cqlmigrate/migrate/planner"
	"github.com/satishbabariya/cqlmigrate/migrate/shadow"
)

const timeLayout = "2006-01-02 15:04:05"

// errAborted is returned when the confirmation prompt is declined.
var errAborted = errors.New("migration aborted")

func newMigrateCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply and inspect migrations",
		Long:  "Apply pending migrations and report the migration history of the keyspace",
	}

	cmd.AddCommand(newMigrateUpCommand(r))
	cmd.AddCommand(newMigrateStatusCommand(r))
	cmd.AddCommand(newMigrateHistoryCommand(r))
	cmd.AddCommand(newMigrateLatestCommand(r))

	return cmd
}

func newMigrateUpCommand(r *runner) *cobra.Command {
	var dryRun, yes bool
	var snapshot string

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Long: `Apply every registered migration newer than the latest applied version,
in ascending version order. With --dry-run the migrations run against an
in-memory copy of the keyspace and the statements they would issue are printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				return r.runPlan(cmd.Context())
			}
			return r.runUp(cmd.Context(), yes, snapshot)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the statements without touching the keyspace")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Write the resulting schema as JSON to this file")

	return cmd
}

func (r *runner) runPlan(ctx context.Context) error {
	s, release, err := r.session()
	if err != nil {
		return err
	}
	defer release()

	p := planner.NewPlanner(shadow.NewShadowDB(s, r.logger), r.app.Migrations, r.engineOptions()...)
	plan, planErr := p.Plan(ctx)
	if plan == nil {
		return planErr
	}

	ui.PrintHeader("Migration plan", "keyspace "+plan.Keyspace)
	if len(plan.Bootstrap) > 0 {
		ui.PrintSection("bootstrap")
		ui.PrintStatements(plan.Bootstrap)
	}
	for i, step := range plan.Steps {
		ui.PrintStep(i+1, len(plan.Steps), fmt.Sprintf("%s (%s)", step.Name, step.Version))
		ui.PrintStatements(step.Statements)
	}

	if planErr != nil {
		return fmt.Errorf("dry run failed: %w", planErr)
	}
	if len(plan.Steps) == 0 {
		ui.PrintSuccess("Keyspace %s is up to date", plan.Keyspace)
		return nil
	}
	ui.PrintInfo("%d migration(s) would be applied", len(plan.Steps))
	return nil
}

func (r *runner) runUp(ctx context.Context, yes bool, snapshot string) error {
	engine, release, err := r.engine(ctx)
	if err != nil {
		return err
	}
	defer release()

	pending, err := engine.Pending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		ui.PrintSuccess("Keyspace %s is up to date", engine.Keyspace())
		return r.writeSnapshot(ctx, engine, snapshot)
	}

	ui.PrintInfo("%d pending migration(s) for keyspace %s", len(pending), engine.Keyspace())
	names := make([]string, len(pending))
	for i, m := range pending {
		names[i] = fmt.Sprintf("%s %s", m.Version(), m.Name())
	}
	ui.PrintList(names)

	if !yes {
		ok, err := ui.Confirm("Apply these migrations?")
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
	}

	applied, err := engine.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("applied %d of %d migration(s): %w", applied, len(pending), err)
	}
	ui.PrintSuccess("Applied %d migration(s)", applied)
	return r.writeSnapshot(ctx, engine, snapshot)
}

func (r *runner) writeSnapshot(ctx context.Context, engine *migrate.Engine, path string) error {
	if path == "" {
		return nil
	}
	schema, err := engine.Executor().Introspector().Snapshot(ctx)
	if err != nil {
		return err
	}
	data, err := introspect.SerializeSchema(schema)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(config.AppFs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	ui.PrintInfo("Schema snapshot written to %s", path)
	return nil
}

func newMigrateStatusCommand(r *runner) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of every registered migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.runStatus(cmd.Context(), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table or markdown")
	return cmd
}

func (r *runner) runStatus(ctx context.Context, format string) error {
	engine, release, err := r.engine(ctx)
	if err != nil {
		return err
	}
	defer release()

	statuses, err := engine.Status(ctx)
	if err != nil {
		return err
	}

	switch format {
	case "markdown", "md":
		var b strings.Builder
		fmt.Fprintf(&b, "# Migrations for `%s`\n\n", engine.Keyspace())
		b.WriteString("| Version | Name | State | Applied at |\n|---|---|---|---|\n")
		for _, s := range statuses {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", s.Migration.Version(), s.Migration.Name(), s.State, appliedAt(s))
		}
		return ui.PrintMarkdown(b.String())
	case "table", "":
		rows := make([][]string, 0, len(statuses))
		for _, s := range statuses {
			rows = append(rows, []string{s.Migration.Version().String(), s.Migration.Name(), ui.State(string(s.State)), appliedAt(s)})
		}
		ui.PrintHeader("Migration status", "keyspace "+engine.Keyspace())
		if len(rows) == 0 {
			ui.PrintWarning("No migrations registered")
			return nil
		}
		return ui.PrintTable([]string{"Version", "Name", "State", "Applied at"}, rows)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func appliedAt(s migrate.MigrationStatus) string {
	if s.Record == nil {
		return "-"
	}
	return s.Record.AppliedAt.Format(timeLayout)
}

func newMigrateHistoryCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List applied migrations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, release, err := r.engine(ctx)
			if err != nil {
				return err
			}
			defer release()

			records, err := engine.AppliedMigrations(ctx)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				ui.PrintInfo("No migrations applied to %s", engine.Keyspace())
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{rec.Version, rec.Name, rec.AppliedAt.Format(timeLayout), rec.Description})
			}
			return ui.PrintTable([]string{"Version", "Name", "Applied at", "Description"}, rows)
		},
	}
}

func newMigrateLatestCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Print the latest applied migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, release, err := r.engine(ctx)
			if err != nil {
				return err
			}
			defer release()

			latest, err := engine.LatestMigration(ctx)
			if err != nil {
				return err
			}
			if latest == nil {
				ui.PrintInfo("No migrations applied to %s", engine.Keyspace())
				return nil
			}
			fmt.Fprintf(ui.Out, "%s %s (applied %s)\n", latest.Version, latest.Name, latest.AppliedAt.Format(timeLayout))
			return nil
		},
	}
}
