// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catmaid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/neurotrace/catmaid/store"
	"github.com/AleutianAI/neurotrace/skeleton"
)

// testConfig returns a fast-retry config against a test server.
func testConfig(serverURL string) Config {
	cfg := DefaultConfig(serverURL, 1)
	cfg.Token = "secret"
	cfg.RetryBase = time.Millisecond
	cfg.RetryMaxDelay = 5 * time.Millisecond
	return cfg
}

// skeletonPayload is the wire shape of one test skeleton.
func skeletonPayload() map[string]any {
	return map[string]any{
		"neuronname": "wired neuron",
		"nodes": []map[string]any{
			{"id": 1, "parent_id": nil, "x": 0, "y": 0, "z": 0, "radius": 800, "user_id": 5, "confidence": 5},
			{"id": 2, "parent_id": 1, "x": 100, "y": 0, "z": 0, "radius": -1, "user_id": 5, "confidence": 5},
		},
		"connectors": []map[string]any{
			{"treenode_id": 2, "connector_id": 9, "relation_id": 0, "x": 100, "y": 0, "z": 0},
		},
		"tags": map[string][]int64{"soma": {1}},
	}
}

func TestFetchSkeletons(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("X-Authorization")
		gotPath = r.URL.Path
		var req struct {
			SkeletonIDs []string `json:"skeleton_ids"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"42"}, req.SkeletonIDs)
		json.NewEncoder(w).Encode(map[string]any{
			"skeletons": map[string]any{"42": skeletonPayload()},
		})
	}))
	defer srv.Close()

	c, err := New(testConfig(srv.URL))
	require.NoError(t, err)

	got, err := c.FetchSkeletons(context.Background(), []string{"42"})
	require.NoError(t, err)
	require.Contains(t, got, "42")

	s := got["42"]
	assert.Equal(t, "wired neuron", s.Name)
	assert.Len(t, s.Nodes, 2)
	assert.Equal(t, skeleton.RootParentID, s.Nodes[0].ParentID)
	assert.Equal(t, skeleton.RelationPresynaptic, s.Connectors[0].Relation)
	assert.Equal(t, []int64{1}, s.Tags.Nodes("soma"))

	assert.Equal(t, "Token secret", gotAuth)
	assert.Equal(t, "/1/skeletons/compact-detail", gotPath)
}

func TestRetryOn5xxThenSuccess(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			http.Error(w, "overloaded", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"42": "late neuron"})
	}))
	defer srv.Close()

	c, err := New(testConfig(srv.URL))
	require.NoError(t, err)

	names, err := c.FetchNames(context.Background(), []string{"42"})
	require.NoError(t, err)
	assert.Equal(t, "late neuron", names["42"])
	assert.Equal(t, int32(3), hits.Load())
}

func TestRetriesExhausted(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 2
	c, err := New(cfg)
	require.NoError(t, err)

	_, err = c.FetchNames(context.Background(), []string{"42"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), hits.Load(), "initial attempt plus two retries")
}

func TestUnauthorizedNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := New(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = c.FetchNames(context.Background(), []string{"42"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), hits.Load(), "auth failures must not retry")
}

func TestReviewStatusPercentConversion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string][2]float64{
			"1": {200, 50},
			"2": {0, 0},
		})
	}))
	defer srv.Close()

	c, err := New(testConfig(srv.URL))
	require.NoError(t, err)

	got, err := c.FetchReviewStatus(context.Background(), []string{"1", "2"})
	require.NoError(t, err)
	assert.Equal(t, 25.0, got["1"])
	assert.Equal(t, 0.0, got["2"], "empty skeletons review to zero")
}

func TestAnnotationsJoin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"annotations": map[string]string{"10": "PN", "11": "left"},
			"skeletons": map[string][]map[string]int64{
				"1": {{"id": 10}, {"id": 11}},
				"2": {{"id": 10}},
			},
		})
	}))
	defer srv.Close()

	c, err := New(testConfig(srv.URL))
	require.NoError(t, err)

	got, err := c.FetchAnnotations(context.Background(), []string{"1", "2"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"PN", "left"}, got["1"])
	assert.Equal(t, []string{"PN"}, got["2"])
}

func TestFetchVolume(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1/volumes/LH_L/" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"name":     "LH_L",
			"vertices": [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			"faces":    [][3]int{{0, 1, 2}},
		})
	}))
	defer srv.Close()

	c, err := New(testConfig(srv.URL))
	require.NoError(t, err)

	m, err := c.FetchVolume(context.Background(), "LH_L")
	require.NoError(t, err)
	assert.Equal(t, "LH_L", m.Name)
	assert.Len(t, m.Faces, 1)

	_, err = c.FetchVolume(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrVolumeNotFound)
}

func TestStoreBackedFetch(t *testing.T) {
	ctx := context.Background()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"skeletons": map[string]any{"42": skeletonPayload()},
		})
	}))
	defer srv.Close()

	st, err := store.Open(store.InMemoryConfig())
	require.NoError(t, err)
	defer st.Close()

	cfg := testConfig(srv.URL)
	cfg.Store = st
	c, err := New(cfg)
	require.NoError(t, err)

	// First fetch goes to the server and fills the store.
	got, err := c.FetchSkeletons(ctx, []string{"42"})
	require.NoError(t, err)
	require.Contains(t, got, "42")
	require.Equal(t, int32(1), hits.Load())

	// Second fetch is served locally.
	got, err = c.FetchSkeletons(ctx, []string{"42"})
	require.NoError(t, err)
	assert.Equal(t, "wired neuron", got["42"].Name)
	assert.Equal(t, int32(1), hits.Load(), "store hit must skip the network")
}

func TestConfigValidation(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url", ProjectID: 1})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "https://catmaid.example.org", ProjectID: 0})
	assert.Error(t, err)

	_, err = New(DefaultConfig("https://catmaid.example.org", 1))
	assert.NoError(t, err)
}
