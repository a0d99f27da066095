package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qdrant/go-client/qdrant"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/physical-ai/textbook-rag/config"
	"github.com/physical-ai/textbook-rag/controller"
	"github.com/physical-ai/textbook-rag/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: invalid configuration: %v", err)
	}

	l := newLogger(cfg.LogLevel)
	ctx := context.Background()

	// Gemini serves both embeddings and chat completions.
	geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Fatalf("FATAL: failed to create Gemini client: %v", err)
	}
	l.Info("connected to Gemini")

	host, port, useTLS, err := cfg.QdrantEndpoint()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.QdrantAPIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		log.Fatalf("FATAL: failed to create Qdrant client: %v", err)
	}
	defer qdrantClient.Close()

	store := services.NewQdrantStore(qdrantClient, l)
	if err := store.EnsureCollection(ctx); err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: failed to connect to Postgres: %v", err)
	}
	defer pool.Close()

	chatLog := services.NewPostgresChatLog(pool)
	if err := chatLog.EnsureSchema(ctx); err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	embedder := services.NewGeminiEmbedder(geminiClient, l)
	generator := services.NewGeminiGenerator(geminiClient)
	profiles := services.NewPostgresProfiles(pool)
	loader := services.NewDocumentLoader(cfg.ContentDir, l)

	agent := services.NewAgent(embedder, store, generator, profiles, chatLog, l)
	ingestor := services.NewIngestor(loader, embedder, store, l)

	chatController := controller.NewChatController(agent, l)
	ingestController := controller.NewIngestController(ingestor, l)

	if cfg.WatchContent {
		go ingestor.WatchDirectory(ctx, cfg.ContentDir)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(controller.RequestLogger(l))

	// CORS for the docs-site chat widget.
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-User-ID, X-Current-Page")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "textbook-rag",
		})
	})

	api := router.Group("/api", controller.APIKeyAuth(cfg.APIKey))
	{
		api.POST("/chat", chatController.Chat)
		api.POST("/ingest", ingestController.Ingest)
	}

	l.WithField("port", cfg.HTTPPort).Info("starting server")
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatalf("FATAL: server exited: %v", err)
	}
}

func newLogger(level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)
	return l
}
