package main

import (
	"os"
	"strconv"
	"time"

	"montoit-backend/controllers"
	"montoit-backend/database"
	"montoit-backend/middlewares"
	"montoit-backend/notify"
	"montoit-backend/routes"
	"montoit-backend/signature"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	if os.Getenv("APP_ENV") != "production" {
		config = zap.NewDevelopmentConfig()
	}
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(lvl)); err == nil {
			config.Level.SetLevel(level)
		}
	}
	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

func main() {
	// ---- Database
	database.Connect()
	database.AutoMigrate()
	if err := database.Migrate(); err != nil {
		panic(err)
	}

	logger := newLogger()
	defer logger.Sync()

	// ---- Signature workflow wiring. The provider credential is explicit
	// config handed to the adapter here; nothing reads it elsewhere.
	provider := signature.NewCertifiedClient(signature.CertifiedClientConfig{
		BaseURL: os.Getenv("SIGNATURE_PROVIDER_URL"),
		APIKey:  os.Getenv("SIGNATURE_PROVIDER_API_KEY"),
		Timeout: time.Duration(envInt("SIGNATURE_PROVIDER_TIMEOUT_SECONDS", 30)) * time.Second,
	})
	strategy := signature.NewStrategy(provider,
		envBool("SIGNATURE_ALLOW_FALLBACK", true), logger)

	var notifier signature.Notifier
	if url := os.Getenv("NOTIFY_WEBHOOK_URL"); url != "" {
		notifier = notify.NewWebhook(url, 10*time.Second)
	}

	store := database.NewMandateStore(database.DB)
	controllers.Signer = signature.NewEngine(store, strategy, notifier, logger)

	// ---- Limits (configurable via env)
	// Fiber default BodyLimit is 4 * 1024 * 1024 bytes if unset (per docs).
	// We allow overriding with BODY_LIMIT_BYTES or BODY_LIMIT_MB.
	bodyLimitBytes := envInt("BODY_LIMIT_BYTES", 0)
	if bodyLimitBytes <= 0 {
		bodyLimitBytes = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    bodyLimitBytes,
	})

	// ---- CORS
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))

	// ---- Global rate limiter (applies to all routes; tune via env)
	rlMax := envInt("RATE_LIMIT_MAX", 60)                                            // default 60 reqs
	rlWindow := time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second // default 60s window
	app.Use(limiter.New(limiter.Config{
		Max:        rlMax,
		Expiration: rlWindow,
		// Default KeyGenerator = client IP; default 429 handler is fine.
		// See: https://docs.gofiber.io/api/middleware/limiter
	}))

	// ---- Routes
	routes.Register(app)

	// ---- Start
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info("API server starting", zap.String("port", port))
	if err := app.Listen(":" + port); err != nil {
		panic(err)
	}
}
