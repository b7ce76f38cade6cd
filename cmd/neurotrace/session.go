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
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AleutianAI/neurotrace/catmaid"
	"github.com/AleutianAI/neurotrace/catmaid/store"
)

var tracerProvider *sdktrace.TracerProvider

// newSession builds an authenticated server session from the global flags.
// The returned cleanup closes the local store, if one was opened.
func newSession() (*catmaid.Client, func(), error) {
	if serverURL == "" {
		return nil, nil, fmt.Errorf("--server is required")
	}
	if projectID <= 0 {
		return nil, nil, fmt.Errorf("--project is required")
	}
	setupTracing()

	cfg := catmaid.DefaultConfig(serverURL, projectID)
	cfg.Token = apiToken
	cfg.Username = apiUser
	cfg.Password = apiPass

	cleanup := func() {}
	if storeDir != "" {
		st, err := store.Open(store.DefaultConfig(storeDir))
		if err != nil {
			return nil, nil, fmt.Errorf("open skeleton store: %w", err)
		}
		cfg.Store = st
		cleanup = func() {
			if err := st.Close(); err != nil {
				slog.Warn("closing skeleton store", slog.String("error", err.Error()))
			}
		}
	}

	client, err := catmaid.New(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return client, cleanup, nil
}

// setupTracing installs a stdout span exporter when --trace is set.
func setupTracing() {
	if !traceStdout || tracerProvider != nil {
		return
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		slog.Warn("trace exporter unavailable", slog.String("error", err.Error()))
		return
	}
	tracerProvider = sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tracerProvider)
}

func shutdownTracing() {
	if tracerProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tracerProvider.Shutdown(ctx); err != nil {
		slog.Warn("trace shutdown", slog.String("error", err.Error()))
	}
	tracerProvider = nil
}
