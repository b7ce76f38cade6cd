// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package neuron

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/AleutianAI/neurotrace/skeleton"
)

// FromSWC imports a skeleton from SWC text.
//
// Description:
//
//	SWC rows are "id label x y z radius parent" with coordinates and radii
//	in micrometers; both are converted to nanometers (x1000) on import.
//	Comment lines (#) and blank lines are skipped. A parent of -1 marks the
//	root. The entity gets a synthesized numeric skeleton ID since SWC files
//	carry none, and the payload is validated (exactly one root) before the
//	entity is built.
func FromSWC(r io.Reader, opts ...Option) (*Neuron, error) {
	s, err := parseSWC(r)
	if err != nil {
		return nil, err
	}
	skid := strconv.FormatUint(uint64(uuid.New().ID()), 10)
	if s.Name == "" {
		s.Name = "neuron_" + skid
	}
	return FromSkeleton(skid, s, opts...)
}

// FromSWCFile imports an SWC file, naming the neuron after the file.
func FromSWCFile(path string, opts ...Option) (*Neuron, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open swc: %w", err)
	}
	defer f.Close()

	s, err := parseSWC(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	skid := strconv.FormatUint(uint64(uuid.New().ID()), 10)
	return FromSkeleton(skid, s, opts...)
}

func parseSWC(r io.Reader) (*skeleton.Skeleton, error) {
	s := &skeleton.Skeleton{Tags: skeleton.Tags{}}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 7 {
			return nil, fmt.Errorf("swc line %d: %d columns, want 7", lineNo, len(fields))
		}
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("swc line %d: node id: %w", lineNo, err)
		}
		x, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("swc line %d: x: %w", lineNo, err)
		}
		y, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("swc line %d: y: %w", lineNo, err)
		}
		z, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("swc line %d: z: %w", lineNo, err)
		}
		radius, err := strconv.ParseFloat(fields[5], 64)
		if err != nil {
			return nil, fmt.Errorf("swc line %d: radius: %w", lineNo, err)
		}
		parent, err := strconv.ParseInt(fields[6], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("swc line %d: parent id: %w", lineNo, err)
		}
		if parent < 0 {
			parent = skeleton.RootParentID
		}
		s.Nodes = append(s.Nodes, skeleton.Node{
			ID:       id,
			ParentID: parent,
			X:        x * 1000,
			Y:        y * 1000,
			Z:        z * 1000,
			Radius:   radius * 1000,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read swc: %w", err)
	}
	return s, nil
}
