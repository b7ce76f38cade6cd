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
	"fmt"
	"log/slog"
	"net/url"

	"github.com/AleutianAI/neurotrace/neuron"
	"github.com/AleutianAI/neurotrace/pkg/validation"
	"github.com/AleutianAI/neurotrace/skeleton"
	"github.com/AleutianAI/neurotrace/volume"
)

// Compile-time check: the session satisfies the model's remote boundary.
var _ neuron.Fetcher = (*Client)(nil)

// ----- Wire DTOs -----

type wireNode struct {
	ID         int64   `json:"id"`
	ParentID   *int64  `json:"parent_id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Radius     float64 `json:"radius"`
	CreatorID  int64   `json:"user_id"`
	Confidence int     `json:"confidence"`
}

type wireConnector struct {
	NodeID      int64   `json:"treenode_id"`
	ConnectorID int64   `json:"connector_id"`
	Relation    int     `json:"relation_id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
}

type wireSkeleton struct {
	Name       string             `json:"neuronname"`
	Nodes      []wireNode         `json:"nodes"`
	Connectors []wireConnector    `json:"connectors"`
	Tags       map[string][]int64 `json:"tags"`
}

func (w *wireSkeleton) decode() *skeleton.Skeleton {
	s := &skeleton.Skeleton{
		Name: w.Name,
		Tags: skeleton.Tags(w.Tags),
	}
	for _, n := range w.Nodes {
		parent := skeleton.RootParentID
		if n.ParentID != nil {
			parent = *n.ParentID
		}
		s.Nodes = append(s.Nodes, skeleton.Node{
			ID:         n.ID,
			ParentID:   parent,
			X:          n.X,
			Y:          n.Y,
			Z:          n.Z,
			Radius:     n.Radius,
			CreatorID:  n.CreatorID,
			Confidence: n.Confidence,
		})
	}
	for _, c := range w.Connectors {
		s.Connectors = append(s.Connectors, skeleton.Connector{
			NodeID:      c.NodeID,
			ConnectorID: c.ConnectorID,
			Relation:    skeleton.Relation(c.Relation),
			X:           c.X,
			Y:           c.Y,
			Z:           c.Z,
		})
	}
	return s
}

type skeletonIDsRequest struct {
	SkeletonIDs []string `json:"skeleton_ids"`
}

// ----- Fetcher implementation -----

// FetchSkeletons pulls full structural payloads, consulting the local store
// first when one is configured. Fresh server results are written back to
// the store.
func (c *Client) FetchSkeletons(ctx context.Context, skeletonIDs []string) (map[string]*skeleton.Skeleton, error) {
	out := make(map[string]*skeleton.Skeleton, len(skeletonIDs))

	missing := skeletonIDs
	if c.cfg.Store != nil {
		missing = missing[:0:0]
		for _, id := range skeletonIDs {
			cached, ok, err := c.cfg.Store.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			if ok {
				storeHitsTotal.Inc()
				out[id] = cached
				continue
			}
			storeMissesTotal.Inc()
			missing = append(missing, id)
		}
		if len(missing) == 0 {
			return out, nil
		}
	}

	var resp struct {
		Skeletons map[string]wireSkeleton `json:"skeletons"`
	}
	err := c.doJSON(ctx, "POST", "skeletons",
		c.endpoint("/skeletons/compact-detail"),
		skeletonIDsRequest{SkeletonIDs: missing}, &resp)
	if err != nil {
		return nil, err
	}

	for id, w := range resp.Skeletons {
		s := w.decode()
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("skeleton %s from server: %w", id, err)
		}
		out[id] = s
		if c.cfg.Store != nil {
			if err := c.cfg.Store.Put(ctx, id, s); err != nil {
				// Cache write failure degrades to uncached operation.
				slog.Warn("skeleton store write failed",
					slog.String("skeleton_id", id),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	return out, nil
}

// FetchNames pulls display names only.
func (c *Client) FetchNames(ctx context.Context, skeletonIDs []string) (map[string]string, error) {
	var resp map[string]string
	err := c.doJSON(ctx, "POST", "names",
		c.endpoint("/skeleton/neuronnames"),
		skeletonIDsRequest{SkeletonIDs: skeletonIDs}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// FetchReviewStatus pulls per-skeleton review counts and converts them to
// percentages. The server reports [total, reviewed] node counts; an empty
// skeleton reviews to 0.
func (c *Client) FetchReviewStatus(ctx context.Context, skeletonIDs []string) (map[string]float64, error) {
	var resp map[string][2]float64
	err := c.doJSON(ctx, "POST", "review_status",
		c.endpoint("/skeletons/review-status"),
		skeletonIDsRequest{SkeletonIDs: skeletonIDs}, &resp)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(resp))
	for id, counts := range resp {
		total, reviewed := counts[0], counts[1]
		if total <= 0 {
			out[id] = 0
			continue
		}
		out[id] = reviewed / total * 100
	}
	return out, nil
}

// FetchAnnotations pulls annotation labels per skeleton. The server
// responds with an annotation table plus per-skeleton ID references.
func (c *Client) FetchAnnotations(ctx context.Context, skeletonIDs []string) (map[string][]string, error) {
	var resp struct {
		Annotations map[string]string `json:"annotations"`
		Skeletons   map[string][]struct {
			ID int64 `json:"id"`
		} `json:"skeletons"`
	}
	err := c.doJSON(ctx, "POST", "annotations",
		c.endpoint("/skeleton/annotationlist"),
		skeletonIDsRequest{SkeletonIDs: skeletonIDs}, &resp)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(resp.Skeletons))
	for id, refs := range resp.Skeletons {
		labels := make([]string, 0, len(refs))
		for _, ref := range refs {
			if name, ok := resp.Annotations[fmt.Sprintf("%d", ref.ID)]; ok {
				labels = append(labels, name)
			}
		}
		out[id] = labels
	}
	return out, nil
}

// FetchVolume pulls a neuropil mesh by name.
func (c *Client) FetchVolume(ctx context.Context, name string) (*volume.Mesh, error) {
	if err := validation.ValidateVolumeName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVolumeNotFound, err)
	}
	var resp struct {
		Name     string       `json:"name"`
		Vertices [][3]float64 `json:"vertices"`
		Faces    [][3]int     `json:"faces"`
	}
	err := c.doJSON(ctx, "GET", "volume",
		c.endpoint("/volumes/%s/", url.PathEscape(name)), nil, &resp)
	if notFoundStatus(err) {
		return nil, fmt.Errorf("%w: %q", ErrVolumeNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return volume.New(resp.Name, resp.Vertices, resp.Faces, skeleton.DefaultColor)
}
