package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/ShelfLife2025/receipt-ai-backend/internal/extraction"
	"github.com/ShelfLife2025/receipt-ai-backend/internal/ocr"
	"github.com/ShelfLife2025/receipt-ai-backend/internal/receipt"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Pick up a local .env in development; missing files are fine
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	fs := ff.NewFlagSet("receipt-ai")
	var (
		port          = fs.IntLong("port", 8080, "HTTP server port")
		extractorType = fs.StringLong("extractor", "gemini", "Extractor type: 'gemini' or 'ollama'")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel   = fs.StringLong("gemini-model", "", "Google Gemini model name (or set GEMINI_MODEL env var; default "+extraction.DefaultGeminiModel+")")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "llama3", "Ollama model name (e.g., llama3, mistral, qwen2)")
		maxUpload     = fs.IntLong("max-upload", receipt.DefaultMaxUploadBytes, "Maximum upload size in bytes")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_AI"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	ctx := context.Background()

	// Initialize the OCR client. Vision resolves credentials from the
	// environment (GOOGLE_APPLICATION_CREDENTIALS).
	slog.Info("Initializing Vision client...")
	detector, err := ocr.NewGoogleVision(ctx)
	if err != nil {
		slog.Error("Failed to initialize Vision client", "error", err)
		os.Exit(1)
	}
	defer detector.Close()

	// Initialize extractor based on type
	var extractor extraction.Extractor
	switch *extractorType {
	case "gemini":
		// Get Gemini API key and model from flags or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		// Flag wins over the environment, same as the API key
		modelName := *geminiModel
		if modelName == "" {
			modelName = os.Getenv("GEMINI_MODEL")
		}
		if modelName == "" {
			modelName = extraction.DefaultGeminiModel
		}
		slog.Info("Initializing Gemini extractor...", "model", modelName)
		extractor, err = extraction.NewGemini(ctx, apiKey, modelName)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama extractor...", "url", *ollamaURL, "model", *ollamaModel)
		extractor, err = extraction.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid extractor type", "type", *extractorType, "valid", "gemini or ollama")
		os.Exit(1)
	}
	defer extractor.Close()

	// Initialize service and server
	parseService := receipt.NewService(detector, extractor)
	server := receipt.NewServer(parseService, int64(*maxUpload))

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
