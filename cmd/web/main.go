package main

import (
	"fmt"
	"log"
	"os"

	"mpesapay/internal/checkout"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stdout), zapcore.InfoLevel)

	return zap.New(core).Sugar(), nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from the environment")
	}

	cfg := config{
		addr:   getEnv("WEB_ADDR", ":3000"),
		env:    getEnv("ENV", "development"),
		apiURL: getEnv("API_URL", "http://localhost:8080"),
	}

	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	app, err := newApplication(cfg, logger, checkout.NewHTTPClient(cfg.apiURL))
	if err != nil {
		logger.Fatal(err)
	}

	logger.Fatal(app.run(app.mount()))
}
