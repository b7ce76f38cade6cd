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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/neurotrace/skeleton"
)

var validate = validator.New()

// SelectionRecord is one entry of a selection file: an ordered JSON array
// of skeleton IDs with display colors, shareable between client tools.
type SelectionRecord struct {
	SkeletonID int64   `json:"skeleton_id" validate:"required,gt=0"`
	Color      string  `json:"color" validate:"required,hexcolor,len=7"`
	Opacity    float64 `json:"opacity" validate:"gte=0,lte=1"`
}

// SelectionRecords renders the collection as selection entries in order.
func (l *List) SelectionRecords() ([]SelectionRecord, error) {
	records := make([]SelectionRecord, 0, l.Len())
	for _, n := range l.neurons {
		id, err := canonicalSkid(n.SkeletonID())
		if err != nil {
			return nil, err
		}
		records = append(records, SelectionRecord{
			SkeletonID: id,
			Color:      n.Color.Hex(),
			Opacity:    1,
		})
	}
	return records, nil
}

// WriteSelection writes the collection as a selection file. Only identity
// and color are persisted; no structural data leaves the process.
func (l *List) WriteSelection(w io.Writer) error {
	records, err := l.SelectionRecords()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	return nil
}

// SaveSelectionFile writes the selection to path.
func (l *List) SaveSelectionFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create selection file: %w", err)
	}
	defer f.Close()
	if err := l.WriteSelection(f); err != nil {
		return err
	}
	return f.Close()
}

// ReadSelection builds a collection from a selection file. Entities are
// bare (no structural data); order and colors come from the records, every
// record is validated before any entity is built. Pass WithFetcher to
// attach a session to the loaded entities.
func ReadSelection(r io.Reader, opts ...Option) (*List, error) {
	var records []SelectionRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode selection: %w", err)
	}
	for i, rec := range records {
		if err := validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("selection record %d: %w", i, err)
		}
	}
	neurons := make([]*Neuron, 0, len(records))
	for _, rec := range records {
		color, err := skeleton.ParseHexColor(rec.Color)
		if err != nil {
			return nil, err
		}
		n := New(strconv.FormatInt(rec.SkeletonID, 10), opts...)
		n.Color = color
		neurons = append(neurons, n)
	}
	return NewList(neurons...), nil
}

// LoadSelectionFile reads a selection file from path.
func LoadSelectionFile(path string, opts ...Option) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open selection file: %w", err)
	}
	defer f.Close()
	return ReadSelection(f, opts...)
}
