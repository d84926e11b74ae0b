// cmd/indexer walks a content tree and upserts it into the vector store,
// grounded on cmd/rag-indexer/main.go's flag-driven collection setup and
// indexContentFiles walk, generalized to Cora's article/PDF indexer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/rayied/cora/pkg/config"
	"github.com/rayied/cora/pkg/indexer"
	"github.com/rayied/cora/pkg/llm"
	"github.com/rayied/cora/pkg/vectorstore"
)

var (
	configPath = flag.String("config", "", "Path to an optional YAML defaults file")
	contentDir = flag.String("content-dir", "./content", "Directory containing article JSON and PDF files")
	reset      = flag.Bool("reset", false, "Delete and recreate the collection before indexing")
	statsOnly  = flag.Bool("stats", false, "Print the current point count and exit without indexing")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldRed := color.New(color.FgRed, color.Bold).SprintFunc()
	boldYellow := color.New(color.FgYellow, color.Bold).SprintFunc()

	llmClient := llm.NewOllamaClient(cfg.ModelName, cfg.OllamaHost)
	defer llmClient.Close()

	qdrantAddr := fmt.Sprintf("%s:%d", cfg.QdrantHost, cfg.QdrantPort)
	store, err := vectorstore.NewQdrant(ctx, qdrantAddr, cfg.CollectionName, llmClient, cfg.BatchSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s connecting to Qdrant: %v\n", boldRed("Error"), err)
		os.Exit(1)
	}
	defer store.Close()

	if *statsOnly {
		count, err := store.Count(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s counting points: %v\n", boldRed("Error"), err)
			os.Exit(1)
		}
		fmt.Printf("Collection %s at %s has %s points\n", boldGreen(cfg.CollectionName), boldGreen(qdrantAddr), boldGreen(fmt.Sprint(count)))
		return
	}

	ix := indexer.New(store, llmClient, cfg.BatchSize, cfg.ChunkSize, cfg.ChunkOverlap)

	if *reset {
		fmt.Println(boldYellow("Resetting collection before indexing..."))
		if err := ix.Reset(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "%s resetting collection: %v\n", boldRed("Error"), err)
			os.Exit(1)
		}
	}

	fmt.Printf("Indexing content from %s\n", boldGreen(*contentDir))
	stats, err := ix.IndexTree(ctx, *contentDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s indexing content: %v\n", boldRed("Error"), err)
		os.Exit(1)
	}

	fmt.Printf("%s %d article files, %d documents, %d records upserted\n",
		boldGreen("Done:"), stats.ArticlesSeen, stats.DocumentsSeen, stats.RecordsUpserted)
	if len(stats.Errors) > 0 {
		fmt.Println(boldYellow(fmt.Sprintf("%d files failed to parse:", len(stats.Errors))))
		for _, e := range stats.Errors {
			fmt.Printf("  - %s\n", e.Error())
		}
	}
}
