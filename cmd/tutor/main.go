package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pb1803/PDF-RAG/internal/config"
	"github.com/pb1803/PDF-RAG/internal/database"
	"github.com/pb1803/PDF-RAG/internal/embedding"
	"github.com/pb1803/PDF-RAG/internal/engine"
	"github.com/pb1803/PDF-RAG/internal/history"
	"github.com/pb1803/PDF-RAG/internal/llm"
	"github.com/pb1803/PDF-RAG/internal/logger"
	"github.com/pb1803/PDF-RAG/internal/models"
	"github.com/pb1803/PDF-RAG/internal/retrieval"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	interactive := flag.Bool("i", false, "Run in interactive mode")
	queryFlag := flag.String("q", "", "Question to answer (non-interactive mode)")
	sessionFlag := flag.String("session", "", "Session ID for conversation context")
	docFlag := flag.String("doc", "", "Restrict retrieval to one document ID")
	topK := flag.Int("top-k", 0, "Number of fragments to retrieve")
	useRedis := flag.Bool("redis", false, "Keep conversation history in Redis")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()

	db, err := database.NewDB(cfg.Database.Postgres.GetDSN())
	if err != nil {
		log.Error("failed to connect to database", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer db.Close()

	embedder, err := embedding.NewOllamaEmbedder(cfg.LLM.OllamaHost, cfg.Embedding.Model)
	if err != nil {
		log.Error("failed to create embedder", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		log.Error("failed to create generator", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	var store history.Store
	if *useRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Database.Redis.Address,
			Password: cfg.Database.Redis.Password,
			DB:       cfg.Database.Redis.DB,
		})
		redisStore := history.NewRedisStore(client, cfg.Engine.HistoryCap,
			time.Duration(cfg.Chat.SessionTTLDays)*24*time.Hour)
		if err := redisStore.Ping(ctx); err != nil {
			log.Error("failed to connect to redis", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
		store = redisStore
	} else {
		store = history.NewMemoryStore(cfg.Engine.HistoryCap)
	}

	retriever := retrieval.NewRetriever(embedder, db, log)
	eng := engine.New(generator, retriever, store, engine.OptionsFromConfig(cfg), log).
		WithMetrics(engine.NewMetrics(prometheus.DefaultRegisterer))

	sessionID := *sessionFlag
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if *interactive {
		runInteractiveMode(ctx, eng, store, sessionID, *docFlag, *topK)
		return
	}

	if *queryFlag == "" {
		log.Error("question is required in non-interactive mode, use -q 'your question'", nil)
		os.Exit(1)
	}

	resp, err := ask(ctx, eng, store, sessionID, *queryFlag, *docFlag, *topK)
	if err != nil {
		fmt.Fprintln(os.Stderr, userMessage(err))
		os.Exit(1)
	}
	fmt.Println(formatAnswer(resp))
}

func newGenerator(cfg *config.Config) (llm.Generator, error) {
	if cfg.LLM.Provider == "openai" {
		return llm.NewOpenAILLM(cfg.LLM.OpenAIKey, cfg.LLM.OpenAIBaseURL, cfg.LLM.OpenAIModel), nil
	}
	return llm.NewOllamaLLM(cfg.LLM.OllamaHost, cfg.LLM.OllamaModel)
}

func runInteractiveMode(ctx context.Context, eng *engine.Engine, store history.Store, sessionID, docScope string, topK int) {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("PDF Tutor - Ask questions about your documents (type 'exit' to quit)")
	if docScope != "" {
		fmt.Printf("Restricting retrieval to document: %s\n", docScope)
	}

	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}

		input := scanner.Text()
		if strings.ToLower(input) == "exit" || strings.ToLower(input) == "quit" {
			break
		}
		if strings.TrimSpace(input) == "" {
			continue
		}

		if strings.HasPrefix(strings.ToLower(input), "/doc ") {
			docScope = strings.TrimSpace(strings.TrimPrefix(input, "/doc "))
			if docScope == "" {
				fmt.Println("Document filter cleared")
			} else {
				fmt.Printf("Document filter set to: %s\n", docScope)
			}
			continue
		}

		fmt.Print("Thinking... ")
		resp, err := ask(ctx, eng, store, sessionID, input, docScope, topK)
		if err != nil {
			fmt.Printf("\r%s\n", userMessage(err))
			continue
		}
		fmt.Println("\r" + formatAnswer(resp))
	}
}

// ask runs one question through the engine and records both turns in the
// conversation store. Writing turns is the caller's job; the engine only
// reads them.
func ask(ctx context.Context, eng *engine.Engine, store history.Store, sessionID, question, docScope string, topK int) (*models.FinalResponse, error) {
	resp, err := eng.Answer(ctx, engine.AnswerRequest{
		Question:  question,
		SessionID: sessionID,
		DocScope:  docScope,
		TopK:      topK,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_ = store.Append(ctx, sessionID,
		models.ConversationTurn{Role: models.RoleUser, Text: question, Timestamp: now},
		models.ConversationTurn{Role: models.RoleAssistant, Text: resp.Answer, Timestamp: now},
	)

	return resp, nil
}

// userMessage maps engine errors to user-safe text; upstream error details
// stay in the logs.
func userMessage(err error) string {
	var refused *engine.GenerationRefused
	if errors.As(err, &refused) {
		return "This question can't be answered due to a content policy restriction."
	}
	var genErr *engine.GenerationError
	if errors.As(err, &genErr) {
		return "Text generation failed. Please try again or rephrase your question."
	}
	return fmt.Sprintf("Error: %v", err)
}

func formatAnswer(resp *models.FinalResponse) string {
	var sb strings.Builder

	sb.WriteString(resp.Answer)
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "[%s, confidence %.2f]\n", resp.AnswerType, resp.Confidence)
	if len(resp.Sources) > 0 {
		sb.WriteString("Sources: " + strings.Join(resp.Sources, "; ") + "\n")
	}
	if resp.FollowUp != "" {
		sb.WriteString("Follow-up: " + resp.FollowUp + "\n")
	}

	return sb.String()
}
