package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AswanthManoj/stay-insight/internal/analysis"
	"github.com/AswanthManoj/stay-insight/internal/export"
	"github.com/AswanthManoj/stay-insight/internal/llm"
	"github.com/AswanthManoj/stay-insight/internal/llm/openai"
	"github.com/AswanthManoj/stay-insight/internal/places"
	"github.com/AswanthManoj/stay-insight/internal/resultstore"
	"github.com/AswanthManoj/stay-insight/internal/serpapi"
	"github.com/AswanthManoj/stay-insight/internal/shared/config"
	"github.com/AswanthManoj/stay-insight/internal/shared/metrics"
	"github.com/AswanthManoj/stay-insight/internal/shared/server/middleware"
	"github.com/AswanthManoj/stay-insight/internal/shared/server/respond"
	"github.com/AswanthManoj/stay-insight/internal/shared/storage/db"
	"github.com/AswanthManoj/stay-insight/internal/tasks"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	// Dependencies
	var sqlDB *sql.DB
	if cfg.DatabaseURL != "" {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		dbConn, err := db.Connect(context.Background(), cfg.DatabaseURL, opts)
		if err != nil {
			log.Printf("failed to connect database, falling back to memory: %v", err)
		} else {
			if err := db.RunMigrations(context.Background(), dbConn); err != nil {
				log.Printf("failed to run migrations, falling back to memory: %v", err)
				dbConn.Close()
				dbConn = nil
			}
		}
		sqlDB = dbConn
	}

	var store resultstore.Store
	if sqlDB != nil {
		store = &resultstore.PGStore{DB: sqlDB}
	} else {
		store = resultstore.NewMemoryStore()
	}

	var serpClient serpapi.Client
	serpHTTPClient, err := serpapi.NewHTTPClient(cfg.SerpAPIKey, cfg.SerpAPIBaseURL, cfg.Language)
	if err != nil {
		log.Printf("serpapi client unavailable: %v", err)
		serpClient = serpapi.PlaceholderClient{}
	} else {
		serpClient = serpHTTPClient
	}
	fetcher := places.NewReviewFetcher(serpClient, cfg.PageDelay, cfg.NumReviews, cfg.MaxReviews)
	suggester := places.NewSuggestionFetcher(serpClient, cfg.NumSuggestions)

	var llmClient llm.Client
	openaiClient, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, "")
	if err != nil {
		log.Printf("openai client unavailable: %v", err)
		llmClient = llm.PlaceholderClient{}
	} else {
		llmClient = openaiClient
	}
	analyzer := analysis.NewAnalyzer(llmClient)

	manager := tasks.NewManager(fetcher, suggester, analyzer, store, cfg.BatchSize)
	manager.StartCleanup(context.Background())
	taskHandler := tasks.NewHandler(manager, export.JSONExporter{})

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	taskHandler.RegisterRoutes(api)
	r.GET("/metrics", metrics.Handler())

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
