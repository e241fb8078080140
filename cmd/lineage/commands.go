package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/OFFIS-RIT/lineage/internal/service"
	"github.com/OFFIS-RIT/lineage/pkg/common"
	"github.com/OFFIS-RIT/lineage/pkg/extract"
	"github.com/OFFIS-RIT/lineage/pkg/graph"
	"github.com/OFFIS-RIT/lineage/pkg/resolver"

	"github.com/spf13/cobra"
)

type servicesFactory func(ctx context.Context, cfg service.Config) (*service.Services, error)

type cli struct {
	newServices servicesFactory
	memory      bool
	depth       int
	subject     string
}

func newRootCmd(factory servicesFactory) *cobra.Command {
	c := &cli{newServices: factory}

	rootCmd := &cobra.Command{
		Use:           "lineage",
		Short:         "Explore the musical influence graph",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVar(&c.memory, "memory", false, "keep all state in memory instead of PostgreSQL")

	graphCmd := &cobra.Command{
		Use:   "graph <slug>",
		Short: "Print the influence neighborhood of an artist as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runGraph,
	}
	graphCmd.Flags().IntVar(&c.depth, "depth", graph.DefaultDepth, "hops to expand (1-3)")

	resolveCmd := &cobra.Command{
		Use:   "resolve <slug>",
		Short: "Resolve an identifier to a validated artist",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runResolve,
	}

	neighborsCmd := &cobra.Command{
		Use:   "neighbors <slug>",
		Short: "Sync and list the direct influence edges of an artist",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runNeighbors,
	}

	extractCmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract influence relations from a wikitext file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runExtract,
	}
	extractCmd.Flags().StringVar(&c.subject, "subject", "", "identifier of the artist the markup describes")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE:  c.runMigrate,
	}

	rootCmd.AddCommand(graphCmd, resolveCmd, neighborsCmd, extractCmd, migrateCmd)
	return rootCmd
}

func (c *cli) services(cmd *cobra.Command) (*service.Services, error) {
	cfg := service.ConfigFromEnv()
	cfg.Memory = cfg.Memory || c.memory
	return c.newServices(cmd.Context(), cfg)
}

func (c *cli) runGraph(cmd *cobra.Command, args []string) error {
	svc, err := c.services(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.Builder.Build(cmd.Context(), args[0], graph.ClampDepth(c.depth))
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}

func (c *cli) runResolve(cmd *cobra.Command, args []string) error {
	svc, err := c.services(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	artist, err := svc.Resolver.Resolve(cmd.Context(), args[0])
	if errors.Is(err, resolver.ErrNotFound) {
		return fmt.Errorf("%s is not a musical artist", args[0])
	}
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), artist)
}

func (c *cli) runNeighbors(cmd *cobra.Command, args []string) error {
	svc, err := c.services(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	artist, err := svc.Resolver.Resolve(cmd.Context(), args[0])
	if errors.Is(err, resolver.ErrNotFound) {
		return fmt.Errorf("%s is not a musical artist", args[0])
	}
	if err != nil {
		return err
	}

	if _, err := svc.Syncer.Sync(cmd.Context(), artist.ID); err != nil {
		return err
	}

	neighbors, err := svc.Store.Neighbors(cmd.Context(), artist.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, n := range graph.SortNeighbors(neighbors) {
		arrow := "<-"
		if n.Outgoing {
			arrow = "->"
		}
		fmt.Fprintf(out, "%s %s %s\t%s\t%s\n", artist.ID, arrow, n.Artist.ID, n.Kind, n.Provenance)
	}
	return nil
}

func (c *cli) runExtract(cmd *cobra.Command, args []string) error {
	var (
		markup []byte
		err    error
	)
	if args[0] == "-" {
		markup, err = io.ReadAll(cmd.InOrStdin())
	} else {
		markup, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read markup: %w", err)
	}

	subject := c.subject
	if subject == "" {
		subject = "Subject"
	}
	subject = common.Slug(subject)

	relations := extract.Extract(string(markup), subject)
	edges := make([]common.InfluenceEdge, 0, len(relations))
	for _, r := range relations {
		edges = append(edges, r.Edge(subject))
	}
	return writeJSON(cmd.OutOrStdout(), edges)
}

func (c *cli) runMigrate(cmd *cobra.Command, args []string) error {
	if c.memory {
		return errors.New("migrate needs a database, drop --memory")
	}
	cfg := service.ConfigFromEnv()
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	return service.Migrate(cfg.DatabaseURL, cfg.MigrationsPath)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
