// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/neurotrace/skeleton"
)

func sample() *skeleton.Skeleton {
	return &skeleton.Skeleton{
		Name: "cached neuron",
		Nodes: []skeleton.Node{
			{ID: 1, ParentID: skeleton.RootParentID, Radius: 800},
			{ID: 2, ParentID: 1, X: 100},
		},
		Connectors: []skeleton.Connector{{NodeID: 2, ConnectorID: 9}},
		Tags:       skeleton.Tags{"soma": {1}},
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, "42", sample()))

	got, ok, err := s.Get(ctx, "42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cached neuron", got.Name)
	assert.Len(t, got.Nodes, 2)
	assert.Len(t, got.Connectors, 1)
	assert.Equal(t, []int64{1}, got.Tags.Nodes("soma"))
}

func TestMiss(t *testing.T) {
	ctx := context.Background()
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get(ctx, "404")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, "42", sample()))
	require.NoError(t, s.Delete(ctx, "42"))

	_, ok, err := s.Get(ctx, "42")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting again is fine.
	require.NoError(t, s.Delete(ctx, "42"))
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	cfg := InMemoryConfig()
	cfg.TTL = 50 * time.Millisecond
	s, err := Open(cfg)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, "42", sample()))

	_, ok, err := s.Get(ctx, "42")
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(120 * time.Millisecond)

	_, ok, err = s.Get(ctx, "42")
	require.NoError(t, err)
	assert.False(t, ok, "entry must expire after the TTL")
}

func TestPersistentStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := DefaultConfig(dir)
	cfg.SyncWrites = false // speed up the test
	s, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "42", sample()))
	require.NoError(t, s.Close())

	// Reopen and read back.
	s, err = Open(cfg)
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.Get(ctx, "42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cached neuron", got.Name)
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Put(ctx, "42", sample()), ErrClosed)
	_, _, err = s.Get(ctx, "42")
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, s.Close(), "double close is safe")
}
