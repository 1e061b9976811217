// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCounterDefaultsModel(t *testing.T) {
	c := NewCounter("")
	assert.Equal(t, DefaultModel, c.model)
}

func TestCountEmptyText(t *testing.T) {
	c := NewCounter(DefaultModel)
	assert.Equal(t, 0, c.Count(""))
}

func TestCountIsPositiveForText(t *testing.T) {
	c := NewCounter(DefaultModel)
	n := c.Count("func main() { fmt.Println(\"hello\") }")
	assert.Greater(t, n, 0)
}

func TestCountGrowsWithInput(t *testing.T) {
	c := NewCounter(DefaultModel)
	short := c.Count("select the snippet")
	long := c.Count(strings.Repeat("select the snippet ", 50))
	assert.Greater(t, long, short)
}

func TestZeroValueCounterStillCounts(t *testing.T) {
	var c ModelCounter
	assert.Greater(t, c.Count("zero value must not panic"), 0)
}
