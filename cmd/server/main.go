// cmd/server runs Cora's HTTP boundary, wiring config, the vector store,
// the LLM backend, the translator, sessions, and both request pipelines
// behind net/http.Server, grounded on cmd/rag-service/main.go's flag and
// signal-driven graceful shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rayied/cora/pkg/classifier"
	"github.com/rayied/cora/pkg/config"
	"github.com/rayied/cora/pkg/httpapi"
	"github.com/rayied/cora/pkg/llm"
	"github.com/rayied/cora/pkg/prompt"
	"github.com/rayied/cora/pkg/qa"
	"github.com/rayied/cora/pkg/retriever"
	"github.com/rayied/cora/pkg/session"
	"github.com/rayied/cora/pkg/translator"
	"github.com/rayied/cora/pkg/vectorstore"
)

var (
	configPath = flag.String("config", "", "Path to an optional YAML defaults file")
	port       = flag.Int("port", 0, "Port to listen on (overrides PORT env var when set)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\nShutting down...")
		cancel()
	}()

	llmClient := llm.NewOllamaClient(cfg.ModelName, cfg.OllamaHost)
	defer llmClient.Close()

	qdrantAddr := fmt.Sprintf("%s:%d", cfg.QdrantHost, cfg.QdrantPort)
	store, err := vectorstore.NewQdrant(ctx, qdrantAddr, cfg.CollectionName, llmClient, cfg.BatchSize)
	if err != nil {
		log.Fatalf("Error connecting to Qdrant: %v", err)
	}
	defer store.Close()

	translatorClient := translator.New(cfg.TranslatorURL, cfg.TranslatorWait)
	sessionManager := session.New(cfg.SessionTTL, cfg.MaxTurns)
	assembler := prompt.New()
	r := retriever.New(store, llmClient)

	engine := qa.New(r, translatorClient, sessionManager, assembler, llmClient, qa.Options{
		ModelName:      cfg.ModelName,
		K:              cfg.K,
		Threshold:      cfg.Threshold,
		MaxTurns:       cfg.MaxTurns,
		TranslatorWait: cfg.TranslatorWait,
		RetrievalWait:  cfg.RetrievalWait,
		WallClock:      cfg.QAWallClock,
	})
	cls := classifier.New(r, assembler, llmClient, cfg.ModelName, cfg.K, cfg.Threshold)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: httpapi.NewServer(engine, cls),
	}

	go func() {
		log.Printf("Cora listening on port %d\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	sweepTicker := time.NewTicker(cfg.SessionTTL)
	defer sweepTicker.Stop()
	go func() {
		for {
			select {
			case <-sweepTicker.C:
				if n := sessionManager.Sweep(); n > 0 {
					log.Printf("Swept %d expired sessions\n", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
}
