// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"testing"
)

// =============================================================================
// DEFAULT RESOLUTION TESTS
// =============================================================================

func TestDefaultWeaviateURL_FromEnv(t *testing.T) {
	t.Setenv("WEAVIATE_SERVICE_URL", "http://weaviate.internal:8080")

	got := defaultWeaviateURL()
	if got != "http://weaviate.internal:8080" {
		t.Errorf("defaultWeaviateURL() = %q, want env value", got)
	}
}

func TestDefaultWeaviateURL_Fallback(t *testing.T) {
	t.Setenv("WEAVIATE_SERVICE_URL", "")

	got := defaultWeaviateURL()
	if got != "http://localhost:8080" {
		t.Errorf("defaultWeaviateURL() = %q, want http://localhost:8080", got)
	}
}

// =============================================================================
// COMMAND TREE TESTS
// =============================================================================

func TestCommandTree(t *testing.T) {
	var foundSchema, foundHealth bool
	for _, c := range rootCmd.Commands() {
		switch c.Name() {
		case "schema":
			foundSchema = true
		case "health":
			foundHealth = true
		}
	}
	if !foundSchema {
		t.Error("rootCmd should have a schema subcommand")
	}
	if !foundHealth {
		t.Error("rootCmd should have a health subcommand")
	}

	var foundEnsure bool
	for _, c := range schemaCmd.Commands() {
		if c.Name() == "ensure" {
			foundEnsure = true
		}
	}
	if !foundEnsure {
		t.Error("schema should have an ensure subcommand")
	}
}

func TestHealthCommand_AddrFlag(t *testing.T) {
	flag := healthCmd.Flags().Lookup("addr")
	if flag == nil {
		t.Fatal("health should define an --addr flag")
	}
	if flag.DefValue != "http://localhost:7878" {
		t.Errorf("--addr default = %q, want http://localhost:7878", flag.DefValue)
	}
}

func TestSchemaEnsureCommand_WeaviateURLFlag(t *testing.T) {
	flag := schemaEnsureCmd.Flags().Lookup("weaviate-url")
	if flag == nil {
		t.Fatal("schema ensure should define a --weaviate-url flag")
	}
}
