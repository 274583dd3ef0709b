package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ironready/coach-api/internal/config"
	"ironready/coach-api/internal/logger"
	"ironready/coach-api/internal/retrieval"
	"ironready/coach-api/internal/storage"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed the exercise corpus and write an index snapshot",
	Long: `Read every exercise from the corpus, embed one text per exercise and write
the snapshot as JSON. With --publish the snapshot is also uploaded to the
configured bucket under s3.index_key.

Example:
  indexctl build --corpus data/exercises.csv --out data/exercise_index.json
  indexctl build --corpus data/exercises.xlsx --embedder http --publish`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		corpus, _ := flags.GetString("corpus")
		out, _ := flags.GetString("out")
		embedderName, _ := flags.GetString("embedder")
		batch, _ := flags.GetInt("batch")
		publish, _ := flags.GetBool("publish")

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if out == "" {
			out = cfg.Retrieval.IndexPath
		}
		if embedderName != "" {
			cfg.Retrieval.Embedder = embedderName
		}

		docs, err := retrieval.LoadCorpus(corpus)
		if err != nil {
			return err
		}
		cmd.Printf("Loaded %d exercises from %s\n", len(docs), corpus)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		snap, err := retrieval.BuildSnapshot(ctx, docs, embedderFor(cfg.Retrieval), batch)
		if err != nil {
			return err
		}
		data, err := snap.Marshal()
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}

		if err := writeSnapshot(out, data); err != nil {
			return err
		}
		cmd.Printf("Wrote %s (%s, %d dimensions, %d entries)\n", out, snap.Embedder, snap.Dimensions, len(snap.Entries))

		if !publish {
			return nil
		}
		if !cfg.S3.Enabled() {
			return fmt.Errorf("--publish needs s3.bucket_name and s3.region")
		}
		store, err := storage.NewS3Storage(ctx, cfg.S3, logger.New(cfg.Log.Level))
		if err != nil {
			return err
		}
		if err := store.PutObject(ctx, cfg.S3.IndexKey, data, "application/json"); err != nil {
			return err
		}
		cmd.Printf("Published s3://%s/%s\n", cfg.S3.BucketName, cfg.S3.IndexKey)
		return nil
	},
}

func embedderFor(cfg config.RetrievalConfig) retrieval.Embedder {
	if cfg.Embedder == "http" {
		return retrieval.NewHTTPEmbedder(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.Timeout)
	}
	return retrieval.NewHashingEmbedder(cfg.Dimensions)
}

// writeSnapshot replaces path atomically so a watching server never reads a
// half-written file.
func writeSnapshot(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".exercise_index-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("install snapshot: %w", err)
	}
	return nil
}

func init() {
	flags := buildCmd.Flags()
	flags.StringP("corpus", "c", "data/exercises.csv", "exercise corpus (.csv or .xlsx)")
	flags.StringP("out", "o", "", "snapshot path (default retrieval.index_path)")
	flags.String("embedder", "", "hashing or http (default retrieval.embedder)")
	flags.Int("batch", 32, "documents per embedding request")
	flags.Bool("publish", false, "upload the snapshot to s3.index_key")

	rootCmd.AddCommand(buildCmd)
}
