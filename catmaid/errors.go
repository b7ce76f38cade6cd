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
	"errors"
	"fmt"
)

// ----- Errors -----

var (
	// ErrUnauthorized indicates rejected credentials (401/403). Never
	// retried.
	ErrUnauthorized = errors.New("catmaid: unauthorized")

	// ErrUnavailable indicates the server kept failing after all retry
	// attempts (5xx or transport errors).
	ErrUnavailable = errors.New("catmaid: server unavailable")

	// ErrVolumeNotFound indicates an unknown volume name.
	ErrVolumeNotFound = errors.New("catmaid: volume not found")
)

// statusError carries a non-retryable HTTP status.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("catmaid: http %d: %s", e.code, e.body)
}
