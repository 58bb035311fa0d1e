package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/pb1803/PDF-RAG/internal/config"
	"github.com/pb1803/PDF-RAG/internal/database"
	"github.com/pb1803/PDF-RAG/internal/embedding"
	"github.com/pb1803/PDF-RAG/internal/logger"
	"github.com/pb1803/PDF-RAG/internal/processor"

	"github.com/google/uuid"
)

func main() {
	pdfPath := flag.String("pdf", "", "Path to PDF file (required)")
	docID := flag.String("doc", "", "Document ID (defaults to a new UUID)")
	chunkSize := flag.Int("chunk-size", 800, "Character size for text chunks")
	chunkOverlap := flag.Int("chunk-overlap", 100, "Character overlap between chunks")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.NewStructured("info", "console").Error("failed to load config", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	if *pdfPath == "" {
		log.Error("pdf path is required", nil)
		os.Exit(1)
	}
	if _, err := os.Stat(*pdfPath); os.IsNotExist(err) {
		log.Error("pdf file does not exist", map[string]interface{}{"path": *pdfPath})
		os.Exit(1)
	}
	if *docID == "" {
		*docID = uuid.NewString()
	}

	ctx := context.Background()

	db, err := database.NewDB(cfg.Database.Postgres.GetDSN())
	if err != nil {
		log.Error("failed to connect to database", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Initialize(ctx); err != nil {
		log.Error("failed to initialize database", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	pdfProcessor := processor.NewPDFProcessor(*chunkSize, *chunkOverlap)

	log.Info("processing pdf", map[string]interface{}{"path": *pdfPath, "doc_id": *docID})
	startTime := time.Now()
	chunks, err := pdfProcessor.ProcessPDF(ctx, *pdfPath, *docID)
	if err != nil {
		log.Error("failed to process pdf", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	log.Info("extracted chunks", map[string]interface{}{
		"chunks":  len(chunks),
		"elapsed": time.Since(startTime).String(),
	})

	embedder, err := embedding.NewOllamaEmbedder(cfg.LLM.OllamaHost, cfg.Embedding.Model)
	if err != nil {
		log.Error("failed to create embedder", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	embedder.MaxConcurrent = cfg.Embedding.MaxConcurrent
	embedder.MaxRetries = cfg.Embedding.MaxRetries

	embeddingStart := time.Now()
	progressFunc := func(processed, total int) {
		if processed%25 == 0 || processed == total {
			log.Info("embedding progress", map[string]interface{}{
				"processed": processed,
				"total":     total,
			})
		}
	}

	chunks, err = embedder.EmbedBatchWithProgress(ctx, chunks, progressFunc)
	if err != nil {
		log.Error("failed to embed chunks", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	log.Info("embeddings complete", map[string]interface{}{"elapsed": time.Since(embeddingStart).String()})

	for i := range chunks {
		if err := db.StoreChunk(ctx, &chunks[i]); err != nil {
			log.Error("failed to store chunk", map[string]interface{}{
				"chunk": chunks[i].ID,
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}

	log.Info("document indexed", map[string]interface{}{
		"doc_id":  *docID,
		"chunks":  len(chunks),
		"elapsed": time.Since(startTime).String(),
	})
}
