package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/voyplan/voyplan/internal/adapters/amap"
	"github.com/voyplan/voyplan/internal/app/domain/attractions"
	"github.com/voyplan/voyplan/internal/app/domain/auth"
	"github.com/voyplan/voyplan/internal/app/domain/budget"
	"github.com/voyplan/voyplan/internal/app/domain/chat"
	"github.com/voyplan/voyplan/internal/app/domain/geo"
	"github.com/voyplan/voyplan/internal/app/domain/planning"
	"github.com/voyplan/voyplan/internal/app/domain/transport"
	"github.com/voyplan/voyplan/internal/app/domain/trips"
	"github.com/voyplan/voyplan/internal/pkg/config"
	"github.com/voyplan/voyplan/internal/upstream/planclient"
)

// Dependencies carries the shared infrastructure handed to route setup.
type Dependencies struct {
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	Cfg    *config.Config
	Logger *zap.Logger
}

type AppHandlers struct {
	Auth        *auth.AuthHandlers
	Trips       *trips.TripHandlers
	Budget      *budget.BudgetHandlers
	Planning    *planning.Handlers
	Chat        *chat.ChatHandlers
	Attractions *attractions.Handlers

	jwtConfig auth.JWTConfig
}

// Setup wires repositories, services and handlers, and registers every
// route. The returned cleanup closes live planning sessions at shutdown.
func Setup(r *gin.Engine, deps Dependencies) func() {
	handlers := setupDependencies(deps)
	setupRouter(r, handlers)
	return handlers.Planning.CloseAll
}

func setupDependencies(deps Dependencies) *AppHandlers {
	cfg, log := deps.Cfg, deps.Logger

	// Auth
	authRepo := auth.NewPostgresAuthRepo(deps.Pool, log)
	authService := auth.NewAuthService(authRepo, cfg, log)

	// Trips and budgets
	tripRepo := trips.NewRepository(deps.Pool, log)
	tripService := trips.NewService(tripRepo, log)
	budgetRepo := budget.NewRepository(deps.Pool, log)
	budgetService := budget.NewService(budgetRepo, log)

	// Itinerary enrichment pipeline: geocoding, transport estimation and
	// route drawing all go through the Amap web services.
	amapClient := amap.New(cfg.Amap.BaseURL, cfg.Amap.Key, log)
	resolver := geo.NewResolver(amapClient, log)
	scheduler := planning.NewBatchScheduler(resolver, log)
	estimator := transport.NewEstimator(amapClient, log)

	planFetcher := planclient.New(cfg.Upstream.PlanBaseURL, deps.Redis, log)

	return &AppHandlers{
		Auth:        auth.NewAuthHandlers(authService, log),
		Trips:       trips.NewTripHandlers(tripService, log),
		Budget:      budget.NewBudgetHandlers(budgetService, log),
		Planning:    planning.NewHandlers(planFetcher, scheduler, estimator, amapClient, log),
		Chat:        chat.NewChatHandlers(cfg, log),
		Attractions: attractions.NewHandlers(amapClient, log),
		jwtConfig:   authService.JWTConfig(),
	}
}

func setupRouter(r *gin.Engine, h *AppHandlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := auth.JWTAuthMiddleware(h.jwtConfig)

	optionalJWT := h.jwtConfig
	optionalJWT.Optional = true
	optionalAuth := auth.JWTAuthMiddleware(optionalJWT)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.HandleRegister)
		authGroup.POST("/login", h.Auth.HandleLogin)
		authGroup.POST("/logout", h.Auth.HandleLogout)
		authGroup.GET("/me", requireAuth, h.Auth.HandleMe)
		authGroup.PUT("/profile", requireAuth, h.Auth.HandleUpdateProfile)
		authGroup.PUT("/password", requireAuth, h.Auth.HandleChangePassword)
	}

	tripGroup := api.Group("/trips", requireAuth)
	{
		tripGroup.GET("", h.Trips.HandleListTrips)
		tripGroup.POST("", h.Trips.HandleCreateTrip)
		tripGroup.GET("/stats", h.Trips.HandleTripStats)
		tripGroup.GET("/:id", h.Trips.HandleGetTrip)
		tripGroup.PUT("/:id", h.Trips.HandleUpdateTrip)
		tripGroup.POST("/:id/rating", h.Trips.HandleRateTrip)
		tripGroup.DELETE("/:id", h.Trips.HandleDeleteTrip)

		tripGroup.GET("/:id/budget", h.Budget.HandleGetSummary)
		tripGroup.POST("/:id/budget/items", h.Budget.HandleAddItem)
		tripGroup.DELETE("/:id/budget/items/:itemId", h.Budget.HandleRemoveItem)
		tripGroup.GET("/:id/budget/expenses", h.Budget.HandleListExpenses)
		tripGroup.POST("/:id/budget/expenses", h.Budget.HandleAddExpense)
		tripGroup.DELETE("/:id/budget/expenses/:expenseId", h.Budget.HandleRemoveExpense)
	}

	// Planning sessions and the chat proxy work for anonymous visitors too;
	// the itinerary itself lives in the chat backend, keyed by session.
	planGroup := api.Group("/planning/sessions", optionalAuth)
	{
		planGroup.POST("", h.Planning.HandleOpenSession)
		planGroup.GET("/:id", h.Planning.HandleSessionState)
		planGroup.POST("/:id/day", h.Planning.HandleSelectDay)
		planGroup.POST("/:id/leg", h.Planning.HandleSelectLeg)
		planGroup.POST("/:id/overview", h.Planning.HandleOverview)
		planGroup.POST("/:id/sidebar", h.Planning.HandleToggleSidebar)
		planGroup.DELETE("/:id", h.Planning.HandleCloseSession)
	}

	// Attraction browsing needs no account either.
	api.GET("/attractions", optionalAuth, h.Attractions.HandleSearch)

	chatGroup := api.Group("/chat", optionalAuth)
	{
		chatGroup.POST("/stream", h.Chat.HandleStreamMessage)
		chatGroup.GET("/:sessionId/history", h.Chat.HandleGetHistory)
		chatGroup.DELETE("/:sessionId/history", h.Chat.HandleClearHistory)
	}
}
