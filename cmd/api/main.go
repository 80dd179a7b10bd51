package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"relocation-advisor/internal/auth"
	"relocation-advisor/internal/cleanup"
	"relocation-advisor/internal/config"
	"relocation-advisor/internal/database"
	"relocation-advisor/internal/enrich"
	"relocation-advisor/internal/handlers"
	"relocation-advisor/internal/llm"
	"relocation-advisor/internal/models"
	"relocation-advisor/internal/places"
	"relocation-advisor/internal/ratelimit"
	"relocation-advisor/internal/recommend"
	"relocation-advisor/internal/scheduler"
	"relocation-advisor/internal/search"
	"relocation-advisor/internal/snapshot"
	"relocation-advisor/internal/webimage"
)

var (
	appConfig    *config.Config
	gormDB       *database.GormDB
	legacyDB     *database.LegacyDB
	searchClient *search.SearchClient
	rateLimiter  *ratelimit.RateLimiter
	tokenManager *auth.TokenManager
	orchestrator *recommend.Orchestrator
)

func main() {
	configPath := getEnv("CONFIG_PATH", "/app/config/advisor_config.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// Primary store
	mysqlCfg := appConfig.Database.MySQL
	gormDB, err = database.NewGormDB(
		getEnvOr(mysqlCfg.Host, "DB_HOST", "mysql"),
		getEnvIntOr(mysqlCfg.Port, "DB_PORT", 3306),
		getEnvOr(mysqlCfg.User, "DB_USER", "advisor_user"),
		getEnvOr(mysqlCfg.Password, "DB_PASSWORD", "advisor_pass"),
		getEnvOr(mysqlCfg.Database, "DB_NAME", "advisor_db"),
	)
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	defer gormDB.Close()

	if err := gormDB.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Legacy read path (optional)
	pgCfg := appConfig.Database.Postgres
	if pgCfg.Host != "" {
		legacyDB, err = database.NewLegacyDB(
			pgCfg.Host, pgCfg.Port, pgCfg.User, pgCfg.Password, pgCfg.Database,
			getEnvOr(pgCfg.SSLMode, "LEGACY_SSLMODE", "disable"),
		)
		if err != nil {
			log.Printf("Warning: legacy store unavailable: %v", err)
			legacyDB = nil
		} else {
			defer legacyDB.Close()
			log.Println("Legacy store connected")
		}
	}

	// City autocomplete index
	meiliHost := getEnvOr(appConfig.Search.Meilisearch.Host, "MEILISEARCH_HOST", "http://meilisearch:7700")
	meiliKey := getEnvOr(appConfig.Search.Meilisearch.APIKey, "MEILISEARCH_KEY", "masterKey123")
	searchClient = search.NewSearchClient(meiliHost, meiliKey)
	if err := searchClient.InitIndex(); err != nil {
		log.Printf("Warning: Failed to initialize search index: %v", err)
	} else if count, err := searchClient.DocumentCount(); err == nil && count == 0 {
		// First boot: load the bundled city list in the background.
		go func() {
			if err := searchClient.LoadCitiesCSV(appConfig.Search.CitiesCSV); err != nil {
				log.Printf("Warning: Failed to load cities CSV: %v", err)
			}
		}()
	}

	// Place photo cache
	var cache places.Cache
	var memCache *places.MemoryCache
	if appConfig.Cache.Backend == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     getEnvOr(appConfig.Cache.Redis.Addr, "REDIS_ADDR", "localhost:6379"),
			Password: appConfig.Cache.Redis.Password,
			DB:       appConfig.Cache.Redis.DB,
		})
		cache = places.NewRedisCache(redisClient, appConfig.Cache.GetTTL())
		log.Println("Place cache backend: redis")
	} else {
		memCache = places.NewMemoryCache(appConfig.Cache.GetTTL())
		cache = memCache
		log.Println("Place cache backend: memory")
	}

	// Place image resolution
	placesFilter, err := places.NewFilter(
		appConfig.Places.CommercialTypes,
		appConfig.Places.CommercialKeywords,
		appConfig.Places.ResidentialHints,
	)
	if err != nil {
		log.Fatalf("Invalid commercial keyword pattern: %v", err)
	}
	inflight := ratelimit.NewInFlightLimiter(appConfig.Places.MaxInFlight)
	placesClient := places.NewClient(appConfig.Places, inflight)
	placesResolver := places.NewResolver(placesClient, cache, placesFilter)
	webFetcher := webimage.NewFetcher()
	imageResolver := recommend.NewImageResolver(placesResolver, webFetcher, appConfig.Places.GetCriticalTimeout())

	// Structured generation
	llmClient := llm.NewClient(appConfig.LLM)
	generator := llm.NewGenerator(llmClient, appConfig.LLM)

	snapshotService := snapshot.NewService(gormDB.DB())
	orchestrator = recommend.NewOrchestrator(
		gormDB, snapshotService, generator, imageResolver, placesFilter,
		appConfig.LLM.DetailConcurrency,
	)

	// Background enrichment
	var worker *enrich.Worker
	if appConfig.Enrich.Enabled {
		worker = enrich.NewWorker(gormDB, placesResolver, appConfig.Enrich)
		worker.Start()
		defer worker.Stop()
	}

	// Maintenance
	cleanupService := cleanup.NewService(gormDB)
	appScheduler := scheduler.NewScheduler(cleanupService, memCache, appConfig)
	if err := appScheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start scheduler: %v", err)
	}
	defer appScheduler.Stop()

	rateLimiter = ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.RequestsPerDay,
		appConfig.RateLimit.Enabled,
	)

	tokenManager = auth.NewTokenManager(
		getEnvOr(appConfig.Auth.JWTSecret, "JWT_SECRET", ""),
		time.Duration(appConfig.Auth.TokenTTLHours)*time.Hour,
	)

	// Setup Gin router
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/health", healthCheck)
	r.POST("/api/auth/login", login)
	r.GET("/api/cities", suggestCities)

	authed := r.Group("/api", tokenManager.Middleware())
	{
		authed.POST("/journeys", createJourney)
		authed.GET("/journeys", listJourneys)
		authed.GET("/journeys/:id", getJourney)
		authed.POST("/journeys/:id/run", rateLimitMiddleware(), runJourney)

		// Old clients run without an explicit journey.
		authed.POST("/recommendations", rateLimitMiddleware(), createAndRun)
		authed.GET("/recommendations/latest", getLatestRecommendation)
		authed.GET("/recommendations/:id", getRecommendation)
		authed.GET("/legacy/recommendations", getLegacyRecommendations)
	}

	r.GET("/api/ratelimit/stats", getRateLimitStats)

	adminHandler := handlers.NewAdminHandler(gormDB, cleanupService, rateLimiter, webFetcher)
	admin := r.Group("/api/admin")
	{
		admin.GET("/stats", adminHandler.GetStats)
		admin.GET("/queue", adminHandler.GetQueue)
		admin.POST("/maintenance/run", adminHandler.RunMaintenance)
		admin.GET("/maintenance/logs", adminHandler.GetMaintenanceLogs)
		admin.GET("/ratelimit", adminHandler.GetRateLimitStats)
	}

	port := getEnv("PORT", appConfig.Server.Port)
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// login finds or creates the user and issues a token. Identity verification
// happens upstream at the gateway; this service only needs a stable user id.
func login(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := gormDB.FindOrCreateUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	token, err := tokenManager.IssueToken(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func suggestCities(c *gin.Context) {
	prefix := c.Query("q")
	if prefix == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q parameter is required"})
		return
	}
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)

	cities, err := searchClient.SuggestCities(prefix, c.Query("state"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

func createJourney(c *gin.Context) {
	userID, _ := auth.UserID(c)

	var req struct {
		Label          string   `json:"label"`
		SelectedState  string   `json:"selectedState"`
		SelectedCities []string `json:"selectedCities"`
		Inputs         string   `json:"inputs"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	journey := &models.Journey{
		UserID:         userID,
		Label:          req.Label,
		SelectedState:  req.SelectedState,
		SelectedCities: models.StringList(req.SelectedCities),
		Inputs:         req.Inputs,
	}
	if err := gormDB.CreateJourney(c.Request.Context(), journey); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, journey)
}

func listJourneys(c *gin.Context) {
	userID, _ := auth.UserID(c)
	journeys, err := gormDB.ListJourneys(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"journeys": journeys})
}

func getJourney(c *gin.Context) {
	userID, _ := auth.UserID(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid journey id"})
		return
	}

	journey, err := gormDB.FindJourney(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "journey not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if journey.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "journey not found"})
		return
	}
	c.JSON(http.StatusOK, journey)
}

// runJourney executes the recommendation pipeline synchronously and returns
// the full result. Background enrichment continues after the response.
func runJourney(c *gin.Context) {
	userID, _ := auth.UserID(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid journey id"})
		return
	}

	journey, err := gormDB.FindJourney(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) || (err == nil && journey.UserID != userID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "journey not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := orchestrator.Run(c.Request.Context(), id)
	switch {
	case errors.Is(err, recommend.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, recommend.ErrJourneyState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, result)
	}
}

// createAndRun is the pre-journey API shape: one POST creates a journey from
// the submitted profile overrides and runs it synchronously.
func createAndRun(c *gin.Context) {
	userID, _ := auth.UserID(c)

	var req struct {
		SelectedState  string   `json:"selectedState"`
		SelectedCities []string `json:"selectedCities"`
		Inputs         string   `json:"inputs"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	journey := &models.Journey{
		UserID:         userID,
		Label:          "legacy",
		SelectedState:  req.SelectedState,
		SelectedCities: models.StringList(req.SelectedCities),
		Inputs:         req.Inputs,
	}
	if err := gormDB.CreateJourney(c.Request.Context(), journey); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := orchestrator.Run(c.Request.Context(), journey.ID)
	switch {
	case errors.Is(err, recommend.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, result)
	}
}

func getRecommendation(c *gin.Context) {
	userID, _ := auth.UserID(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recommendation id"})
		return
	}

	full, err := gormDB.GetFullRecommendation(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) || (err == nil && full.UserID != userID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "recommendation not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, full)
}

func getLatestRecommendation(c *gin.Context) {
	userID, _ := auth.UserID(c)

	id, err := gormDB.GetLatestRecommendationForUser(c.Request.Context(), userID)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no recommendations yet"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	full, err := gormDB.GetFullRecommendation(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, full)
}

func getLegacyRecommendations(c *gin.Context) {
	if legacyDB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "legacy store not configured"})
		return
	}
	userID, _ := auth.UserID(c)

	user, err := gormDB.FindUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	recs, err := legacyDB.GetRecommendationsByEmail(user.Email, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

func rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rateLimiter.AllowRequest() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
				"stats": rateLimiter.GetStats(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func getRateLimitStats(c *gin.Context) {
	c.JSON(http.StatusOK, rateLimiter.GetStats())
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvOr prefers the config value, then the environment, then the default.
func getEnvOr(configValue, envKey, fallback string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, fallback)
}

func getEnvIntOr(configValue int, envKey string, fallback int) int {
	if configValue > 0 {
		return configValue
	}
	if value := os.Getenv(envKey); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
