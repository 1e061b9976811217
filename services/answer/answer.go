// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package answer provides the code-search answer service for AleutianSearch.
//
// This package contains the main Service type that coordinates all
// components of the service: HTTP routing, the answer pipeline, the
// completion backend, the Weaviate vector database, analytics, and
// observability infrastructure.
//
// # Usage
//
//	cfg := answer.Config{
//	    Port:        7878,
//	    WeaviateURL: "http://aleutian-weaviate:8080",
//	}
//	svc, err := answer.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
//
// Environment variables supply the collaborator endpoints that are not
// part of Config: EMBEDDING_SERVICE_URL for the embedding sidecar,
// ANSWER_API_BASE (or the backend-specific variables) for the completion
// client, and INFLUXDB_URL/INFLUXDB_TOKEN for analytics.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianSearch/pkg/tokens"
	"github.com/AleutianAI/AleutianSearch/services/answer/analytics"
	"github.com/AleutianAI/AleutianSearch/services/answer/content"
	"github.com/AleutianAI/AleutianSearch/services/answer/datatypes"
	"github.com/AleutianAI/AleutianSearch/services/answer/middleware"
	"github.com/AleutianAI/AleutianSearch/services/answer/observability"
	"github.com/AleutianAI/AleutianSearch/services/answer/pipeline"
	"github.com/AleutianAI/AleutianSearch/services/answer/routes"
	"github.com/AleutianAI/AleutianSearch/services/answer/search"
	"github.com/AleutianAI/AleutianSearch/services/llm"
	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the answer service.
//
// # Description
//
// Service abstracts the answer-service lifecycle, enabling testing and
// alternative implementations. The interface follows the minimal surface
// area principle - only essential lifecycle methods are exposed.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and should
// only be called once per instance.
//
// # Limitations
//
//   - No graceful shutdown method yet (planned for future)
//   - Run() blocks until server error
//
// # Assumptions
//
//   - Service is fully initialized before Run() is called
//   - Run() is called at most once per Service instance
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	//
	// # Description
	//
	// Starts the Gin HTTP server on the configured port. This method
	// blocks until the server stops (due to error or shutdown signal).
	//
	// # Outputs
	//
	//   - error: Non-nil if server fails to start or encounters fatal error
	//
	// # Assumptions
	//
	//   - Service was successfully created via New()
	//   - Port is available and not in use
	Run() error

	// Router returns the underlying Gin engine for testing.
	//
	// # Description
	//
	// Provides access to the configured Gin router, primarily for
	// integration testing where direct HTTP calls are needed.
	//
	// # Outputs
	//
	//   - *gin.Engine: The configured router with all routes registered
	//
	// # Assumptions
	//
	//   - Caller will not modify the router
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds answer-service configuration options.
//
// # Description
//
// Config centralizes all configuration for the answer service. Values can
// be populated from environment variables (see cmd/answer), config files,
// or programmatically for testing.
//
// # Required Fields
//
//   - WeaviateURL: the service cannot answer queries without the index.
//
// # Optional Fields
//
// All other fields have defaults applied by New().
//
// # Examples
//
//	// Minimal config
//	cfg := Config{WeaviateURL: "http://localhost:8080"}
//
//	// Custom port and completion backend
//	cfg := Config{
//	    Port:        8080,
//	    LLMBackend:  "openai",
//	    WeaviateURL: "http://localhost:8080",
//	}
type Config struct {
	// Port is the HTTP server port. Default: 7878
	Port int

	// LLMBackend specifies the completion provider.
	// Valid values: "answerapi", "openai", "ollama", "local"
	// Default: "answerapi"
	LLMBackend string

	// WeaviateURL is the Weaviate vector database URL. Required: both
	// semantic search and file content fetches go through Weaviate.
	// Example: "http://localhost:8080"
	WeaviateURL string

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "aleutian-otel-collector:4317"
	OTelEndpoint string

	// EnableMetrics enables Prometheus metrics endpoint.
	// Default: true
	EnableMetrics bool

	// TokenizerModel is the model id used for prompt token counting.
	// Default: "text-davinci-003" (p50k_base)
	TokenizerModel string
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Description
//
// service is the main implementation that coordinates:
//   - HTTP routing via Gin
//   - The answer pipeline (search, select, grow, explain)
//   - Completion client management
//   - Weaviate integration for snippets and file content
//   - Query analytics via InfluxDB
//   - OpenTelemetry tracing and Prometheus metrics
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New()
// returns.
//
// # Assumptions
//
//   - All external services (embedding sidecar, completion backend,
//     Weaviate, OTel) are reachable if configured
type service struct {
	config         Config
	router         *gin.Engine
	weaviateClient *weaviate.Client
	llmClient      llm.CompletionClient
	recorder       analytics.Recorder
	recorderClose  func()
	pipe           *pipeline.Pipeline
	tracerCleanup  func(context.Context)
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a new answer Service with the given configuration.
//
// # Description
//
// New initializes all answer-service components:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing
//  3. Initializes Prometheus metrics
//  4. Creates the Weaviate client and ensures the schema
//  5. Creates the completion client based on backend type
//  6. Creates the analytics recorder (non-fatal when unconfigured)
//  7. Assembles the answer pipeline
//  8. Sets up HTTP routes
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults, except
//     WeaviateURL which is required.
//
// # Outputs
//
//   - Service: Ready-to-run answer service
//   - error: Non-nil if initialization fails
//
// # Examples
//
//	cfg := Config{Port: 7878, WeaviateURL: "http://localhost:8080"}
//	svc, err := New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
//
// # Limitations
//
//   - Completion client creation may fail if required environment
//     variables are missing
//
// # Assumptions
//
//   - Environment variables are set for the chosen completion backend
//     and the embedding sidecar
//   - Network is available for external service connections
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	// The index holds everything the service serves; refuse to start
	// without it rather than booting a server that can only return 500s.
	if strings.Trim(s.config.WeaviateURL, "\"' ") == "" {
		return nil, fmt.Errorf("weaviate URL is required")
	}

	// Initialize OpenTelemetry tracer
	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	// Initialize Prometheus metrics
	if s.config.EnableMetrics {
		observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics for the answer pipeline")
	}

	// Initialize Weaviate client (required)
	if err := s.initWeaviate(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize Weaviate: %w", err)
	}

	// Initialize completion client
	if err := s.initCompletionClient(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize completion client: %w", err)
	}

	// Initialize analytics recorder (optional)
	s.initAnalytics()

	// Assemble the answer pipeline
	if err := s.initPipeline(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize answer pipeline: %w", err)
	}

	// Setup HTTP router
	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
//
// # Description
//
// Starts the Gin HTTP server on the configured port. This method
// blocks until the server stops due to error or shutdown signal.
// Cleanup (analytics flush, tracer shutdown) is automatic on return.
//
// # Outputs
//
//   - error: Non-nil if server fails to start or encounters fatal error
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting answer server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
//
// # Description
//
// Provides access to the configured Gin router for integration testing.
//
// # Outputs
//
//   - *gin.Engine: The configured router
//
// # Assumptions
//
//   - Caller will not modify the router
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
//
// # Description
//
// Applies sensible defaults for any zero-valued configuration fields.
// WeaviateURL has no default; New() rejects an empty value.
//
// # Inputs
//
//   - cfg: User-provided configuration
//
// # Outputs
//
//   - Config: Configuration with defaults applied
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 7878
	}
	if cfg.LLMBackend == "" {
		cfg.LLMBackend = "answerapi"
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "aleutian-otel-collector:4317"
	}
	if cfg.TokenizerModel == "" {
		cfg.TokenizerModel = tokens.DefaultModel
	}
	// EnableMetrics defaults to true (zero value is false, so we need explicit check)
	cfg.EnableMetrics = true

	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// # Description
//
// Sets up OTLP trace exporter to send spans to the configured collector.
//
// # Outputs
//
//   - func(context.Context): Cleanup function to call on shutdown
//   - error: Non-nil if tracer setup fails
//
// # Limitations
//
//   - Uses insecure gRPC connection (appropriate for internal networks)
//
// # Assumptions
//
//   - OTel collector is reachable at configured endpoint
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("answer-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initWeaviate initializes the Weaviate vector database client.
//
// # Description
//
// Creates a Weaviate client from the configured URL and ensures the
// CodeChunk and SourceFile schema classes exist. Unlike the schema
// check, client creation is fatal: the answer pipeline cannot run
// without the index.
//
// # Outputs
//
//   - error: Non-nil if the URL is invalid or client creation fails
//
// # Assumptions
//
//   - Weaviate server is running and accessible
func (s *service) initWeaviate() error {
	weaviateURL := strings.Trim(s.config.WeaviateURL, "\"' ")

	if !strings.Contains(weaviateURL, "http") {
		return fmt.Errorf("invalid Weaviate URL: %s", weaviateURL)
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("invalid Weaviate URL: %s", weaviateURL)
	}

	clientConf := weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	}

	s.weaviateClient, err = weaviate.NewClient(clientConf)
	if err != nil {
		return fmt.Errorf("failed to create Weaviate client: %w", err)
	}

	// Schema ensure is best-effort at startup; the classes usually exist
	// already and answersctl can create them out of band.
	if err := datatypes.EnsureWeaviateSchema(s.weaviateClient); err != nil {
		slog.Warn("Weaviate schema check failed, continuing", "error", err)
	}
	slog.Info("Weaviate client initialized", "url", weaviateURL)

	return nil
}

// initCompletionClient initializes the completion provider client.
//
// # Description
//
// Creates the appropriate completion client based on the configured
// backend type.
//
// # Outputs
//
//   - error: Non-nil if completion client creation fails
//
// # Limitations
//
//   - Only supports: answerapi, openai, ollama, local
//
// # Assumptions
//
//   - Required environment variables are set for the chosen provider
func (s *service) initCompletionClient() error {
	var err error

	switch s.config.LLMBackend {
	case "answerapi":
		s.llmClient, err = llm.NewAnswerAPIClient()
		slog.Info("Using answer-api completion backend")
	case "openai":
		s.llmClient, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI completion backend")
	case "ollama":
		s.llmClient, err = llm.NewOllamaClient()
		slog.Info("Using Ollama completion backend")
	case "local":
		s.llmClient, err = llm.NewLocalLlamaCppClient()
		slog.Info("Using Local Llama.cpp completion backend")
	default:
		slog.Warn("Unknown LLM backend, defaulting to answer-api", "backend", s.config.LLMBackend)
		s.llmClient, err = llm.NewAnswerAPIClient()
	}

	return err
}

// initAnalytics initializes the query analytics recorder.
//
// # Description
//
// Creates the InfluxDB recorder when the INFLUXDB_* environment is
// configured. Analytics is optional: on any failure the service falls
// back to a no-op recorder and query events are dropped.
func (s *service) initAnalytics() {
	recorder, err := analytics.NewInfluxRecorder()
	if err != nil {
		slog.Warn("Analytics disabled, query events will be dropped", "error", err)
		s.recorder = analytics.NopRecorder{}
		return
	}

	s.recorder = recorder
	s.recorderClose = recorder.Close
}

// initPipeline assembles the answer pipeline from its collaborators.
//
// # Description
//
// Creates the embedding client, the Weaviate-backed semantic index and
// file store, and the token counter, then wires them into the pipeline
// together with the completion client and analytics recorder.
//
// # Outputs
//
//   - error: Non-nil if the embedding client cannot be created
//
// # Assumptions
//
//   - initWeaviate, initCompletionClient, and initAnalytics ran first
func (s *service) initPipeline() error {
	embedder, err := search.NewHTTPEmbedder()
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}

	index := search.NewWeaviateIndex(s.weaviateClient, embedder)
	files := content.NewWeaviateStore(s.weaviateClient)
	counter := tokens.NewCounter(s.config.TokenizerModel)

	s.pipe = pipeline.New(index, files, s.llmClient, counter, s.recorder)

	return nil
}

// initRouter sets up the Gin HTTP router with all routes.
//
// # Description
//
// Creates the Gin engine, applies middleware, and registers all routes.
//
// # Assumptions
//
//   - The pipeline is initialized
func (s *service) initRouter() {
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("answer-service"))
	s.router.Use(middleware.RequestID())

	routes.SetupRoutes(s.router, s.pipe)
}

// cleanup releases all resources held by the service.
//
// # Description
//
// Called when Run() exits or on initialization failure. Flushes the
// analytics recorder and shuts down the tracer.
func (s *service) cleanup() {
	// Flush buffered analytics events
	if s.recorderClose != nil {
		s.recorderClose()
	}

	// Shutdown tracer
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
