// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store caches fetched skeleton payloads in an embedded BadgerDB so
// repeated sessions against the same server skip the network for unchanged
// skeletons. Entries expire by TTL; reconstruction data changes as tracers
// work, so the cache is a staleness tradeoff the caller opts into.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/neurotrace/skeleton"
)

// ErrClosed indicates use after Close.
var ErrClosed = errors.New("store: closed")

// Config holds configuration for the skeleton store.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory.
	Path string

	// InMemory enables in-memory mode (no disk persistence). Useful for
	// testing.
	InMemory bool

	// TTL is how long a cached skeleton stays valid. Zero keeps entries
	// forever.
	TTL time.Duration

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. Nil disables it.
	Logger *slog.Logger
}

// DefaultConfig returns production defaults: on-disk, synced writes and a
// 24h TTL.
func DefaultConfig(path string) Config {
	return Config{
		Path:       path,
		SyncWrites: true,
		TTL:        24 * time.Hour,
	}
}

// InMemoryConfig returns a test configuration with no disk I/O.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// Store is a TTL cache of skeleton payloads keyed by skeleton ID.
//
// Thread Safety: Safe for concurrent use; BadgerDB transactions provide
// the isolation.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open creates the store, creating the directory when needed.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("store: path required for persistent mode")
		}
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(cfg.SyncWrites)
	}
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{db: db, ttl: cfg.TTL}, nil
}

func key(skeletonID string) []byte {
	return []byte("skel:" + skeletonID)
}

// Put caches a skeleton payload under its ID, honoring the TTL.
func (s *Store) Put(ctx context.Context, skeletonID string, skel *skeleton.Skeleton) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(skel)
	if err != nil {
		return fmt.Errorf("encode skeleton %s: %w", skeletonID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key(skeletonID), payload)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("store skeleton %s: %w", skeletonID, err)
	}
	return nil
}

// Get returns the cached payload and true, or false on a miss (absent or
// expired).
func (s *Store) Get(ctx context.Context, skeletonID string) (*skeleton.Skeleton, bool, error) {
	if s.db.IsClosed() {
		return nil, false, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(skeletonID))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load skeleton %s: %w", skeletonID, err)
	}
	var skel skeleton.Skeleton
	if err := json.Unmarshal(payload, &skel); err != nil {
		// A corrupt entry behaves like a miss; the client refetches.
		slog.Warn("dropping corrupt cache entry",
			slog.String("skeleton_id", skeletonID),
			slog.String("error", err.Error()),
		)
		return nil, false, nil
	}
	return &skel, true, nil
}

// Delete removes a cached skeleton. Absent keys are not an error.
func (s *Store) Delete(ctx context.Context, skeletonID string) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(skeletonID))
	})
}

// Close releases the database. Safe to call twice.
func (s *Store) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	return s.db.Close()
}
