// Package search holds the retrieval strategies: keyword (trigram), semantic
// (vector similarity) and the weighted hybrid of the two. Metadata filtering
// lives on the record store since it is plain predicate pushdown.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultLimit applies when a request leaves Limit unset.
	DefaultLimit = 10
	// MaxLimit bounds the scored set; larger requests are clamped.
	MaxLimit = 100
)

// SourceParty marks keyword matches on participant fields. Parties are not
// content units, so the value only ever appears in keyword results.
const SourceParty = "party"

// ErrInvalidRequest wraps all input validation failures. They are rejected
// before any store access.
var ErrInvalidRequest = errors.New("invalid search request")

// Result is one ranked match. Source and SourceIndex say which span of which
// record matched; Snippet is only populated by the keyword path.
type Result struct {
	VconUUID    string  `json:"uuid"`
	Source      string  `json:"source"`
	SourceIndex int     `json:"source_index"`
	Score       float64 `json:"score"`
	Snippet     string  `json:"snippet,omitempty"`
}

type KeywordRequest struct {
	Query  string            `json:"query"`
	Tags   map[string]string `json:"tags,omitempty"`
	After  *time.Time        `json:"after,omitempty"`
	Before *time.Time        `json:"before,omitempty"`
	Limit  int               `json:"limit,omitempty"`
}

func (r *KeywordRequest) Validate() error {
	if len(r.Query) == 0 {
		return fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	r.Limit = clampLimit(r.Limit)
	return nil
}

type SemanticRequest struct {
	Vector    []float32         `json:"vector"`
	Threshold float64           `json:"threshold"`
	Tags      map[string]string `json:"tags,omitempty"`
	After     *time.Time        `json:"after,omitempty"`
	Before    *time.Time        `json:"before,omitempty"`
	Limit     int               `json:"limit,omitempty"`
}

func (r *SemanticRequest) Validate() error {
	if len(r.Vector) == 0 {
		return fmt.Errorf("%w: query vector is required", ErrInvalidRequest)
	}
	if r.Threshold < 0 || r.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v out of range [0,1]", ErrInvalidRequest, r.Threshold)
	}
	r.Limit = clampLimit(r.Limit)
	return nil
}

type HybridRequest struct {
	Query  string            `json:"query"`
	Vector []float32         `json:"vector,omitempty"`
	Weight float64           `json:"weight"`
	Tags   map[string]string `json:"tags,omitempty"`
	After  *time.Time        `json:"after,omitempty"`
	Before *time.Time        `json:"before,omitempty"`
	Limit  int               `json:"limit,omitempty"`
}

func (r *HybridRequest) Validate() error {
	if len(r.Query) == 0 {
		return fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	if r.Weight < 0 || r.Weight > 1 {
		return fmt.Errorf("%w: weight %v out of range [0,1]", ErrInvalidRequest, r.Weight)
	}
	if r.Weight > 0 && len(r.Vector) == 0 {
		return fmt.Errorf("%w: query vector is required when weight > 0", ErrInvalidRequest)
	}
	r.Limit = clampLimit(r.Limit)
	return nil
}

type Searcher interface {
	Keyword(ctx context.Context, req KeywordRequest) ([]Result, error)
	Semantic(ctx context.Context, req SemanticRequest) ([]Result, error)
	Hybrid(ctx context.Context, req HybridRequest) ([]Result, error)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
