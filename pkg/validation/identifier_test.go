// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"testing"
)

func TestValidateSkeletonID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "42", false},
		{"single digit", "1", false},
		{"large", "9223372036854775807", false},

		{"empty", "", true},
		{"zero", "0", true},
		{"negative", "-1", true},
		{"leading zero", "042", true},
		{"non numeric", "abc", true},
		{"path traversal", "../16", true},
		{"whitespace", "4 2", true},
		{"newline injection", "42\n16", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSkeletonID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSkeletonID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSkeletonIDs(t *testing.T) {
	if err := ValidateSkeletonIDs([]string{"1", "2", "3"}); err != nil {
		t.Errorf("valid ids rejected: %v", err)
	}
	err := ValidateSkeletonIDs([]string{"1", "bad", "-2"})
	if err == nil {
		t.Fatal("invalid ids accepted")
	}
}

func TestValidateVolumeName(t *testing.T) {
	tests := []struct {
		name    string
		volume  string
		wantErr bool
	}{
		{"simple", "LH_L", false},
		{"with space", "mushroom body R", false},
		{"with dot", "v14.neuropil", false},
		{"hyphen", "AL-R", false},

		{"empty", "", true},
		{"only spaces", "   ", true},
		{"path traversal", "../secrets", true},
		{"slash", "a/b", true},
		{"leading dot", ".hidden", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVolumeName(tt.volume)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVolumeName(%q) error = %v, wantErr %v", tt.volume, err, tt.wantErr)
			}
		})
	}
}
