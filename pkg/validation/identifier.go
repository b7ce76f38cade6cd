// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation for identifiers that end up
// in server URLs or storage keys. Validating user-provided skeleton IDs and
// volume names up front prevents path traversal and request smuggling.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// skeletonIDPattern matches CATMAID skeleton IDs: decimal digits only,
// no sign, no leading zeros beyond a bare "0" being rejected anyway.
var skeletonIDPattern = regexp.MustCompile(`^[1-9][0-9]{0,18}$`)

// volumeNamePattern matches volume names as stored server-side: letters,
// digits, underscores, dots, hyphens and spaces. Max length 100.
var volumeNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_. \-]{0,99}$`)

// ValidateSkeletonID validates a skeleton ID string before it is used in a
// request body or a storage key.
//
// Example:
//
//	if err := validation.ValidateSkeletonID(arg); err != nil {
//	    return fmt.Errorf("invalid skeleton id: %w", err)
//	}
func ValidateSkeletonID(id string) error {
	if id == "" {
		return fmt.Errorf("skeleton id cannot be empty")
	}
	if !skeletonIDPattern.MatchString(id) {
		return fmt.Errorf("invalid skeleton id: %q (must be a positive integer)", id)
	}
	return nil
}

// ValidateSkeletonIDs validates multiple skeleton IDs, reporting every
// invalid one at once.
func ValidateSkeletonIDs(ids []string) error {
	var invalid []string
	for _, id := range ids {
		if err := ValidateSkeletonID(id); err != nil {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid skeleton ids: %v", invalid)
	}
	return nil
}

// ValidateVolumeName validates a volume name before it is interpolated
// into a request path.
func ValidateVolumeName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("volume name cannot be empty")
	}
	if !volumeNamePattern.MatchString(trimmed) {
		return fmt.Errorf("invalid volume name: %q", name)
	}
	return nil
}
