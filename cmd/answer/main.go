// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command answer starts the AleutianSearch answer HTTP server.
//
// This is the main entry point for the containerized answer service.
// It reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - ANSWER_PORT: HTTP server port (default: 7878)
//   - LLM_BACKEND: completion provider - answerapi, openai, ollama, local (default: answerapi)
//   - WEAVIATE_SERVICE_URL: Weaviate vector DB URL (required)
//   - EMBEDDING_SERVICE_URL: embedding sidecar URL (required)
//   - ANSWER_API_BASE: answer-api base URL (required for the answerapi backend)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: aleutian-otel-collector:4317)
//   - INFLUXDB_URL, INFLUXDB_TOKEN: analytics sink (optional)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_DIR: directory for JSON log files (optional)
//
// # Usage
//
//	# Build
//	go build -o answer ./cmd/answer
//
//	# Run
//	./answer
//
//	# Or via container
//	podman-compose up answer
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/AleutianAI/AleutianSearch/pkg/logging"
	"github.com/AleutianAI/AleutianSearch/services/answer"
)

func main() {
	// Setup structured logging
	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(os.Getenv("LOG_LEVEL")),
		LogDir:  os.Getenv("LOG_DIR"),
		Service: "answer",
		JSON:    true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	// Build configuration from environment variables
	cfg := answer.Config{
		Port:         getEnvInt("ANSWER_PORT", 7878),
		LLMBackend:   getEnvString("LLM_BACKEND", "answerapi"),
		WeaviateURL:  os.Getenv("WEAVIATE_SERVICE_URL"),
		OTelEndpoint: getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "aleutian-otel-collector:4317"),
	}

	slog.Info("Starting answer service",
		"port", cfg.Port,
		"llm_backend", cfg.LLMBackend,
		"weaviate_url", cfg.WeaviateURL,
	)

	svc, err := answer.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create answer service: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Answer service error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
