package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/cqlmigrate/cli/internal/config"
	"github.com/satishbabariya/cqlmigrate/cli/internal/ui"
	"github.com/satishbabariya/cqlmigrate/migrate/diff"
	"github.com/satishbabariya/cqlmigrate/migrate/introspect"
	"github.com/satishbabariya/cqlmigrate/migrate/shadow"
)

// errDrift is returned by "db diff --exit-code" when the schemas differ.
var errDrift = errors.New("keyspace schema differs from snapshot")

func newDBCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect the keyspace schema",
	}

	cmd.AddCommand(newDBInspectCommand(r))
	cmd.AddCommand(newDBDiffCommand(r))
	return cmd
}

func newDBInspectCommand(r *runner) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the current keyspace schema",
		Long: `Read the keyspace metadata and print it as CQL (the default) or as the
JSON snapshot format written by "migrate up --snapshot".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, release, err := r.session()
			if err != nil {
				return err
			}
			defer release()

			switch format {
			case "json":
				schema, err := introspect.New(s).Snapshot(ctx)
				if err != nil {
					return err
				}
				data, err := introspect.SerializeSchema(schema)
				if err != nil {
					return err
				}
				fmt.Fprintln(ui.Out, string(data))
				return nil
			case "cql", "":
				snap := shadow.NewShadowDB(s, r.logger)
				if err := snap.Create(ctx); err != nil {
					return err
				}
				defer snap.Drop()
				fmt.Fprint(ui.Out, snap.Session().Describe())
				return nil
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "cql", "Output format: cql or json")
	return cmd
}

func newDBDiffCommand(r *runner) *cobra.Command {
	var snapshot string
	var exitCode bool

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare the keyspace schema with a snapshot",
		Long: `Compare a snapshot written by "migrate up --snapshot" with the live keyspace
and list the changes that turn the snapshot into the live schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := afero.ReadFile(config.AppFs, snapshot)
			if err != nil {
				return fmt.Errorf("failed to read snapshot: %w", err)
			}
			expected, err := introspect.DeserializeSchema(data)
			if err != nil {
				return err
			}

			s, release, err := r.session()
			if err != nil {
				return err
			}
			defer release()

			live, err := introspect.New(s).Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			result := diff.Diff(expected, live)
			if result.Empty() {
				ui.PrintSuccess("Keyspace %s matches %s", live.Name, snapshot)
				return nil
			}

			ui.PrintWarning("%d difference(s) between %s and keyspace %s", len(result.Changes), snapshot, live.Name)
			rows := make([][]string, 0, len(result.Changes))
			for _, c := range result.Changes {
				rows = append(rows, []string{string(c.Type), c.Object, c.Description})
			}
			if err := ui.PrintTable([]string{"Change", "Object", "Description"}, rows); err != nil {
				return err
			}
			if exitCode {
				return errDrift
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&snapshot, "snapshot", "s", "schema.json", "Snapshot file to compare against")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "Fail when differences are found")
	return cmd
}
