package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"dialogue-service/internal/autofill"
	"dialogue-service/internal/config"
	"dialogue-service/internal/db"
	"dialogue-service/internal/event"
	"dialogue-service/internal/handlers"
	"dialogue-service/internal/realtime"
	"dialogue-service/internal/repository"
	"dialogue-service/internal/roster"
	"dialogue-service/internal/service"
	"dialogue-service/pkg/discovery"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Mongo.URI == "" {
		log.Fatal("MONGO_URI is required")
	}
	db.InitMongo(cfg.Mongo.URI)

	// RabbitMQ event publisher
	var publisher *event.EventPublisher
	if cfg.RabbitMQ.URI != "" && cfg.RabbitMQ.Exchange != "" {
		publisher, err = event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, events will not be published")
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "X-User-ID", "X-Role-ID", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	database := db.Client.Database(cfg.Mongo.Database)

	// Dialogue authoring
	dialogueRepo := repository.NewDialogueRepository(database)
	nodeRepo := repository.NewNodeRepository(database)
	responseRepo := repository.NewResponseRepository(database)
	dialogueService := service.NewDialogueService(dialogueRepo, nodeRepo, responseRepo)
	dialogueHandler := handlers.NewDialogueHandler(dialogueService)

	// Sessions and decisions
	hub := realtime.NewHub()
	sessionRepo := repository.NewSessionRepository(database)
	decisionRepo := repository.NewDecisionRepository(database)
	rosterClient := roster.NewClient(os.Getenv("SIMULATION_SERVICE_URL"))
	sessionService := service.NewSessionService(
		sessionRepo,
		decisionRepo,
		dialogueService,
		rosterClient,
		autofill.Policy{
			MinResponseSeconds: cfg.AutoFill.MinResponseSeconds,
			MaxResponseSeconds: cfg.AutoFill.MaxResponseSeconds,
		},
		hub,
	)
	sessionHandler := handlers.NewSessionHandler(sessionService, hub)

	decisionService := service.NewDecisionService(decisionRepo)
	decisionHandler := handlers.NewDecisionHandler(decisionService)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	setupDialogueRoutes(r, dialogueHandler, publisher)
	setupSessionRoutes(r, sessionHandler, publisher)
	setupDecisionRoutes(r, decisionHandler, publisher)

	// Consul registration (optional)
	if cfg.Consul.Enabled {
		registry, err := discovery.NewServiceRegistry(cfg)
		if err != nil {
			log.Fatalf("Failed to create service registry: %v", err)
		}
		if err := registry.Register(); err != nil {
			log.Fatalf("Failed to register with Consul: %v", err)
		}
		defer registry.Deregister()
	}

	r.Run(":" + cfg.Server.Port)
}

func setupDialogueRoutes(r *gin.Engine, h *handlers.DialogueHandler, publisher *event.EventPublisher) {
	public := r.Group("/public/dialogue/definition")
	{
		public.GET("/", h.ListDialogues)
		public.GET("/:id", func(c *gin.Context) {
			h.GetDialogue(c)
			publisher.Publish("dialogue.viewed", gin.H{"id": c.Param("id")})
		})
		public.GET("/:id/validate", h.ValidateDialogue)
	}

	protected := r.Group("/protected/dialogue/definition")
	protected.Use(requireUser())
	{
		protected.POST("/", func(c *gin.Context) {
			h.CreateDialogue(c)
			publisher.Publish("dialogue.created", gin.H{
				"user_id":   c.GetHeader("X-User-ID"),
				"timestamp": time.Now(),
			})
		})
		protected.PUT("/:id", h.UpdateDialogue)
		protected.DELETE("/:id", func(c *gin.Context) {
			h.ArchiveDialogue(c)
			publisher.Publish("dialogue.archived", gin.H{"id": c.Param("id")})
		})
		protected.POST("/:id/activate", func(c *gin.Context) {
			h.ActivateDialogue(c)
			publisher.Publish("dialogue.activated", gin.H{"id": c.Param("id")})
		})
		protected.POST("/:id/duplicate", h.DuplicateDialogue)

		// graph structure (draft only)
		protected.POST("/:id/node", h.CreateNode)
		protected.PUT("/:id/node/:nodeId", h.UpdateNode)
		protected.DELETE("/:id/node/:nodeId", h.DeleteNode)
		protected.POST("/:id/response", h.CreateResponse)
		protected.PUT("/:id/response/:responseId", h.UpdateResponse)
		protected.DELETE("/:id/response/:responseId", h.DeleteResponse)
	}
}

func setupSessionRoutes(r *gin.Engine, h *handlers.SessionHandler, publisher *event.EventPublisher) {
	public := r.Group("/public/dialogue/session")
	{
		// guests participate too: the turn projection applies the
		// unregistered fallback rules
		public.GET("/:id", h.GetSession)
		public.GET("/:id/turn", h.GetTurn)
		public.GET("/:id/watch", h.Watch)
	}

	protected := r.Group("/protected/dialogue/session")
	protected.Use(requireUser())
	{
		protected.POST("/", func(c *gin.Context) {
			h.CreateSession(c)
			publisher.Publish("dialogue.session.created", gin.H{
				"user_id":   c.GetHeader("X-User-ID"),
				"timestamp": time.Now(),
			})
		})
		protected.POST("/:id/start", func(c *gin.Context) {
			h.StartSession(c)
			publisher.Publish("dialogue.session.started", gin.H{
				"session_id": c.Param("id"),
				"timestamp":  time.Now(),
			})
		})
		protected.POST("/:id/advance", func(c *gin.Context) {
			h.Advance(c)
			publisher.Publish("dialogue.decision.recorded", gin.H{
				"session_id": c.Param("id"),
				"user_id":    c.GetHeader("X-User-ID"),
				"timestamp":  time.Now(),
			})
		})
		protected.POST("/:id/pause", func(c *gin.Context) {
			h.PauseSession(c)
			publisher.Publish("dialogue.session.paused", gin.H{"session_id": c.Param("id")})
		})
		protected.POST("/:id/resume", func(c *gin.Context) {
			h.ResumeSession(c)
			publisher.Publish("dialogue.session.resumed", gin.H{"session_id": c.Param("id")})
		})
		protected.POST("/:id/finalize", func(c *gin.Context) {
			h.FinalizeSession(c)
			publisher.Publish("dialogue.session.finished", gin.H{"session_id": c.Param("id")})
		})
		protected.POST("/:id/autofill", func(c *gin.Context) {
			h.AutoFill(c)
			publisher.Publish("dialogue.session.autofilled", gin.H{"session_id": c.Param("id")})
		})
		protected.GET("/:id/history", h.GetHistory)
		protected.GET("/:id/decisions", h.GetDecisions)
	}
}

func setupDecisionRoutes(r *gin.Engine, h *handlers.DecisionHandler, publisher *event.EventPublisher) {
	protected := r.Group("/protected/dialogue/decision")
	protected.Use(requireUser())
	{
		protected.GET("/:id", h.GetDecision)
		protected.POST("/:id/audio", h.AttachAudio)
		protected.POST("/:id/audio/processed", h.MarkAudioProcessed)
		protected.POST("/:id/justify", h.Justify)
		protected.POST("/:id/evaluate", func(c *gin.Context) {
			h.Evaluate(c)
			publisher.Publish("dialogue.decision.evaluated", gin.H{
				"decision_id": c.Param("id"),
				"user_id":     c.GetHeader("X-User-ID"),
				"timestamp":   time.Now(),
			})
		})
		protected.GET("/session/:id/pending", h.PendingEvaluation)
	}
}

func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-User-ID") == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "MISSING_USER_ID",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
