package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/poppart-mac/smartcomponents/internal/fs"
	"github.com/poppart-mac/smartcomponents/vector"
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Embed and index files for similarity search",
	Long: `Index files in the specified directory: each selected file is embedded
and stored for later similarity queries. The index lives in .semsearch/
within the target directory unless the config points elsewhere.

Examples:
  semsearch index .                 # Index current directory
  semsearch index /path/to/notes    # Index specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := rootDir
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	store, closer, err := openStore(true)
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	defer closer.Close()

	embedder, err := newEmbedder()
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	files, err := walker.Walk(path)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if len(files) == 0 {
		fmt.Println("No files matched the ingest patterns.")
		return nil
	}

	fmt.Printf("Indexing %d files from %s with %s...\n", len(files), path, embedder.ModelName())

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	ctx := cmd.Context()
	const batchSize = 32
	indexed := 0
	var warnings []string
	for i := 0; i < len(files); i += batchSize {
		end := i + batchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[i:end]

		docs := make([]vector.Document, 0, len(batch))
		texts := make([]string, 0, len(batch))
		for _, f := range batch {
			content, err := os.ReadFile(f.Path)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", f.Rel, err))
				continue
			}
			docs = append(docs, vector.Document{
				ID:      f.Rel,
				Content: string(content),
			})
			texts = append(texts, string(content))
		}
		if len(docs) == 0 {
			bar.Add(len(batch))
			continue
		}

		embeddings, err := embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch failed: %w", err)
		}
		if len(embeddings) != len(docs) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(embeddings), len(docs))
		}
		for j := range docs {
			docs[j].Embedding = embeddings[j]
		}

		if _, err := store.AddDocuments(ctx, docs); err != nil {
			return fmt.Errorf("failed to store documents: %w", err)
		}
		indexed += len(docs)
		bar.Add(len(batch))
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Files indexed: %d\n", indexed)
	if len(warnings) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	fmt.Printf("\nIndex stored at: %s\n", cfg.DBPath(rootDir))
	return nil
}
