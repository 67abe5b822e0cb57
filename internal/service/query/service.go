package query

import (
	"context"

	"github.com/vcon-dev/vcon-mcp-sub005/search"
	"github.com/vcon-dev/vcon-mcp-sub005/tags"
)

// Service fronts the retrieval strategies for the transport layer. Requests
// are validated by the searcher before any store access; an empty result set
// is a valid answer, never an error.
type Service struct {
	searcher search.Searcher
	tags     tags.Index
}

func (s *Service) Keyword(ctx context.Context, req search.KeywordRequest) ([]search.Result, error) {
	return s.searcher.Keyword(ctx, req)
}

func (s *Service) Semantic(ctx context.Context, req search.SemanticRequest) ([]search.Result, error) {
	return s.searcher.Semantic(ctx, req)
}

func (s *Service) Hybrid(ctx context.Context, req search.HybridRequest) ([]search.Result, error) {
	return s.searcher.Hybrid(ctx, req)
}

func (s *Service) LookupTags(ctx context.Context, criteria map[string]string) ([]string, error) {
	return s.tags.Lookup(ctx, criteria)
}

func (s *Service) DiscoverTags(ctx context.Context, keyFilter string, minCount int) ([]tags.KeyInfo, error) {
	return s.tags.Discover(ctx, keyFilter, minCount)
}

func (s *Service) RefreshTags(ctx context.Context) error {
	return s.tags.Refresh(ctx)
}

func New(
	searcher search.Searcher,
	idx tags.Index,
) *Service {
	return &Service{
		searcher: searcher,
		tags:     idx,
	}
}
