// Package cli implements the semsearch command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/poppart-mac/smartcomponents/config"
	"github.com/poppart-mac/smartcomponents/embed"
	"github.com/poppart-mac/smartcomponents/engine"
	"github.com/poppart-mac/smartcomponents/store/bolt"
	"github.com/poppart-mac/smartcomponents/vector"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "semsearch",
	Short: "Semantic search over local files",
	Long: `semsearch indexes local files with embeddings and answers top-k
similarity queries over them.

Example usage:
  semsearch index .                  # Embed and index the current directory
  semsearch query -q "locking bugs"  # Find the most similar documents`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}
		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./semsearch.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

// openStore opens the configured document store, creating it when create is
// set. The returned closer releases the underlying database.
func openStore(create bool) (vector.Store, io.Closer, error) {
	dbPath := cfg.DBPath(rootDir)
	if !create {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("no index found at %s; run 'semsearch index' first", dbPath)
		}
	} else if err := config.EnsureDir(rootDir); err != nil {
		return nil, nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	switch cfg.Store.Backend {
	case "bolt":
		s, err := bolt.Open(dbPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		db, err := engine.Open(dbPath)
		if err != nil {
			return nil, nil, err
		}
		s, err := vector.NewSQLiteStore(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return s, db, nil
	}
}

// newEmbedder builds the configured embedding client.
func newEmbedder() (embed.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return embed.NewOpenAI(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model)
	case "ollama":
		return embed.NewOllama(cfg.Embedding.Model, cfg.Embedding.BaseURL)
	case "compatible":
		return embed.NewOpenAICompatible(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BaseURL)
	case "static":
		return embed.NewStatic(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}
