// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianSearch/services/answer/datatypes"
	"github.com/spf13/cobra"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	weaviateURL string // Weaviate endpoint for schema commands
	serviceAddr string // Answer service base URL for the health probe
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var (
	rootCmd = &cobra.Command{
		Use:   "answersctl",
		Short: "Operator CLI for the AleutianSearch answer service",
		Long: `answersctl manages the answer service from the outside:
it creates the Weaviate schema the service reads from and probes a
running instance for liveness.`,
	}

	schemaCmd = &cobra.Command{
		Use:   "schema",
		Short: "Manage the Weaviate schema used by the answer service",
	}
	schemaEnsureCmd = &cobra.Command{
		Use:   "ensure",
		Short: "Create the CodeChunk and SourceFile classes if absent",
		Long: `Connects to Weaviate and creates any missing answer-service
classes. Existing classes are left untouched, so the command is safe to
run repeatedly and on every deploy.`,
		Run: runSchemaEnsure,
	}

	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Probe a running answer service",
		Long: `Sends GET /health to the answer service and exits non-zero
when the service is unreachable or unhealthy. Intended for deploy
scripts and container health checks.`,
		Run: runHealth,
	}
)

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	schemaEnsureCmd.Flags().StringVar(&weaviateURL, "weaviate-url",
		defaultWeaviateURL(), "Weaviate endpoint (defaults to WEAVIATE_SERVICE_URL)")
	healthCmd.Flags().StringVar(&serviceAddr, "addr",
		"http://localhost:7878", "Answer service base URL")

	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaEnsureCmd)
	rootCmd.AddCommand(healthCmd)
}

// defaultWeaviateURL resolves the schema target from the same variable
// the service reads, so compose environments need no extra flags.
func defaultWeaviateURL() string {
	if v := os.Getenv("WEAVIATE_SERVICE_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

// runSchemaEnsure connects to Weaviate and creates missing classes.
func runSchemaEnsure(cmd *cobra.Command, args []string) {
	trimmed := strings.Trim(weaviateURL, "\"' ")

	parsedURL, err := url.Parse(trimmed)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		log.Fatalf("Invalid Weaviate URL %q", weaviateURL)
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		log.Fatalf("Failed to create Weaviate client: %v", err)
	}

	if err := datatypes.EnsureWeaviateSchema(client); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	fmt.Printf("Schema ensured at %s\n", trimmed)
}

// runHealth probes GET /health and exits non-zero on failure.
func runHealth(cmd *cobra.Command, args []string) {
	healthURL := strings.TrimRight(serviceAddr, "/") + "/health"

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(healthURL)
	if err != nil {
		log.Fatalf("Failed to connect to answer service: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Answer service returned an error: %s", resp.Status)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Fatalf("Failed to parse health response: %v", err)
	}
	if body.Status != "ok" {
		log.Fatalf("Answer service unhealthy: status=%q", body.Status)
	}

	fmt.Printf("Answer service at %s is healthy\n", serviceAddr)
}
