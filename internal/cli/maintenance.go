package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/sakif/bookreview/internal/catalog"
	"github.com/sakif/bookreview/internal/model"
	"github.com/sakif/bookreview/internal/repository"
	"github.com/sakif/bookreview/internal/server"
)

func (a *App) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load sample readers, books and reviews into an empty catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.seed(cmd.Context())
		},
	}
}

func (a *App) seed(ctx context.Context) error {
	seeded, err := a.store.SeedSampleData(ctx)
	if err != nil {
		return err
	}
	if !seeded {
		fmt.Fprintln(a.Stdout, "Catalog already has books; nothing seeded.")
		return nil
	}
	fmt.Fprintf(a.Stdout, "Sample data loaded. Sample readers log in with password %q.\n", catalog.SamplePassword)
	return nil
}

func (a *App) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Remove reviews whose book or reader no longer exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			removed, err := a.store.ValidateIntegrity(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.Stdout, "Removed %d orphaned review(s).\n", removed)

			lister, ok := a.kv.(repository.KeyLister)
			if !ok {
				return nil
			}
			keys, err := lister.Keys(ctx)
			if err != nil {
				return err
			}
			slices.Sort(keys)
			fmt.Fprintln(a.Stdout, "Stored keys:")
			for _, k := range keys {
				fmt.Fprintf(a.Stdout, "  %s\n", k)
			}
			return nil
		},
	}
}

func (a *App) exportCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole catalog as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.store.Export(cmd.Context())
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding snapshot: %w", err)
			}
			data = append(data, '\n')

			if file == "" {
				_, err = a.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(file, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", file, err)
			}
			fmt.Fprintf(a.Stdout, "Exported %d books and %d reviews to %s.\n", len(snap.Books), len(snap.Reviews), file)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "output file (default stdout)")
	return cmd
}

func (a *App) importCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the catalog with a JSON export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading %s: %w", file, err)
			}
			var snap model.Snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				return fmt.Errorf("decoding %s: %w", file, err)
			}
			if err := a.store.Import(ctx, &snap); err != nil {
				return err
			}
			removed, err := a.store.ValidateIntegrity(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.Stdout, "Imported %d readers, %d books and %d reviews (%d orphaned review(s) dropped).\n",
				len(snap.Users), len(snap.Books), len(snap.Reviews)-removed, removed)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "export file to read")
	requireFlags(cmd, "file")
	return cmd
}

func (a *App) serveCommand() *cobra.Command {
	var (
		addr string
		seed bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog as a read-only JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if seed {
				if err := a.seed(ctx); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.HTTPAddr
			}
			srv := server.New(server.Config{Addr: addr}, a.store, a.logger)
			fmt.Fprintf(a.Stdout, "Serving on %s (Ctrl+C to stop).\n", addr)
			return srv.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config httpAddr)")
	cmd.Flags().BoolVar(&seed, "seed", false, "load sample data first when the catalog is empty")
	return cmd
}
