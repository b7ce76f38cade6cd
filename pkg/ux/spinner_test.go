// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"errors"
	"testing"
	"time"
)

func TestSpinnerStartStop(t *testing.T) {
	s := NewSpinner("fetching")
	s.Start()
	time.Sleep(10 * time.Millisecond)
	s.Stop()

	// Stop again must not panic or block.
	s.Stop()
}

func TestSpinnerDoubleStart(t *testing.T) {
	s := NewSpinner("fetching")
	s.Start()
	s.Start()
	s.Stop()
}

func TestUpdateMessage(t *testing.T) {
	s := NewSpinner("fetching")
	s.Start()
	s.UpdateMessage("fetching [2/3]")
	s.mu.Lock()
	got := s.message
	s.mu.Unlock()
	s.Stop()

	if got != "fetching [2/3]" {
		t.Errorf("message = %q", got)
	}
}

func TestWithSpinner(t *testing.T) {
	ran := false
	if err := WithSpinner("working", func() error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("WithSpinner: %v", err)
	}
	if !ran {
		t.Error("function never ran")
	}

	sentinel := errors.New("boom")
	if err := WithSpinner("working", func() error { return sentinel }); !errors.Is(err, sentinel) {
		t.Errorf("error not propagated: %v", err)
	}
}
