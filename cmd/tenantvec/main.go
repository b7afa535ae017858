package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/viant/tenant-vec/tenant"
	"github.com/viant/tenant-vec/vector"
)

var (
	configPath string
	dbPath     string
	indexDir   string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "tenantvec",
	Short:         "Per-tenant vector index over a SQLite store",
	Long:          `A command-line interface for ingesting embeddings and searching per-tenant flat vector indexes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database schema and index directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := os.MkdirAll(a.cfg.IndexDir, 0o755); err != nil {
			return fmt.Errorf("failed to create index dir: %w", err)
		}
		fmt.Printf("Initialized %s with indexes under %s\n", a.cfg.DatabasePath, a.cfg.IndexDir)
		return nil
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed an item, store it and add it to the tenant index",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetInt64("owner")
		status, _ := cmd.Flags().GetString("status")
		image, _ := cmd.Flags().GetString("image")
		text, _ := cmd.Flags().GetString("text")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		vec, err := a.queryVector(ctx, cmd)
		if err != nil {
			return err
		}
		name := filepath.Base(image)
		if image == "" {
			name = text
		}
		id, err := a.source.AddImage(ctx, owner, name, status)
		if err != nil {
			return fmt.Errorf("failed to add image: %w", err)
		}
		if err := a.source.PutEmbedding(ctx, id, vec, a.embedder.Model()); err != nil {
			return fmt.Errorf("failed to store embedding: %w", err)
		}
		if status == vector.StatusReady {
			if err := a.cache.Push(ctx, owner, [][]float32{vec}, []int64{id}); err != nil {
				return fmt.Errorf("failed to index image %d: %w", id, err)
			}
		}
		fmt.Printf("Ingested image %d for owner %d (%s)\n", id, owner, status)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find the most similar items of a tenant",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetInt64("owner")
		k, _ := cmd.Flags().GetInt("top-k")
		viaSQL, _ := cmd.Flags().GetBool("sql")
		outputJSON, _ := cmd.Flags().GetBool("json")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		query, err := a.queryVector(ctx, cmd)
		if err != nil {
			return err
		}
		var matches []tenant.Match
		if viaSQL {
			scored, err := a.source.ScoreBySQL(ctx, owner, query, k)
			if err != nil {
				return fmt.Errorf("sql search failed: %w", err)
			}
			for _, s := range scored {
				matches = append(matches, tenant.Match{ID: s.ID, Score: s.Score})
			}
		} else if matches, err = a.cache.SearchTopK(ctx, owner, query, k); err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if outputJSON {
			return printJSON(matches)
		}
		if len(matches) == 0 {
			fmt.Println("No results")
			return nil
		}
		for n, m := range matches {
			fmt.Printf("%d. id=%d score=%.6f\n", n+1, m.ID, m.Score)
		}
		return nil
	},
}

var dupsCmd = &cobra.Command{
	Use:   "dups",
	Short: "List items within a squared L2 distance of the query",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetInt64("owner")
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		outputJSON, _ := cmd.Flags().GetBool("json")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		query, err := a.queryVector(ctx, cmd)
		if err != nil {
			return err
		}
		ids, err := a.cache.SearchNearDuplicates(ctx, owner, query, threshold)
		if err != nil {
			return fmt.Errorf("duplicate search failed: %w", err)
		}
		if outputJSON {
			if ids == nil {
				ids = []int64{}
			}
			return printJSON(ids)
		}
		fmt.Printf("%d near duplicates\n", len(ids))
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild a tenant index from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetInt64("owner")
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ok, err := a.cache.Rebuild(context.Background(), owner)
		if err != nil {
			return fmt.Errorf("rebuild failed: %w", err)
		}
		if !ok {
			fmt.Printf("Owner %d has no ready embeddings\n", owner)
			return nil
		}
		stats, _ := a.cache.Stats(owner)
		fmt.Printf("Rebuilt owner %d: %d vectors, dimension %d\n", owner, stats.Count, stats.Dim)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show tenant index statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetInt64("owner")
		outputJSON, _ := cmd.Flags().GetBool("json")
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		e, err := a.cache.Require(context.Background(), owner)
		if errors.Is(err, tenant.ErrNoIndex) {
			fmt.Printf("Owner %d has no index\n", owner)
			return nil
		}
		if err != nil {
			return err
		}
		indexPath, idsPath := a.dir.Paths(owner)
		stats := map[string]interface{}{
			"owner":      owner,
			"count":      e.Index.Count(),
			"dimension":  e.Dim,
			"normalized": e.Index.Normalized(),
			"index_file": indexPath,
			"ids_file":   idsPath,
		}
		if outputJSON {
			return printJSON(stats)
		}
		fmt.Printf("Owner: %d\n", owner)
		fmt.Printf("Vectors: %d\n", e.Index.Count())
		fmt.Printf("Dimension: %d\n", e.Dim)
		fmt.Printf("Normalized: %t\n", e.Index.Normalized())
		fmt.Printf("Files: %s, %s\n", indexPath, idsPath)
		return nil
	},
}

func printJSON(v interface{}) error {
	data, err := gojson.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&indexDir, "index-dir", "", "Directory holding tenant index files")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	for _, c := range []*cobra.Command{ingestCmd, searchCmd, dupsCmd, rebuildCmd, statsCmd} {
		c.Flags().Int64("owner", 0, "Owner (tenant) id")
		c.MarkFlagRequired("owner")
	}
	for _, c := range []*cobra.Command{ingestCmd, searchCmd, dupsCmd} {
		c.Flags().String("vector", "", "Vector (comma-separated)")
		c.Flags().String("text", "", "Text to embed")
		c.Flags().String("image", "", "Image file to embed")
	}

	ingestCmd.Flags().String("status", vector.StatusReady, "Image status (READY, PENDING, PROCESSING, FAILED)")

	searchCmd.Flags().Int("top-k", 10, "Number of results")
	searchCmd.Flags().Bool("sql", false, "Rank inside SQLite instead of the cached index")
	searchCmd.Flags().Bool("json", false, "Output as JSON")

	dupsCmd.Flags().Float64("threshold", 0.05, "Squared L2 distance threshold")
	dupsCmd.Flags().Bool("json", false, "Output as JSON")

	statsCmd.Flags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		initCmd,
		ingestCmd,
		searchCmd,
		dupsCmd,
		rebuildCmd,
		statsCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
