// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package query implements QueryEngine: it parses a user query against
// IndexEngine, applies post-filters the index itself does not know about,
// builds a content snippet per hit, and assembles facet counts.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	klaskerrors "github.com/klask-search/klask/internal/errors"
	"github.com/klask-search/klask/pkg/model"
	"github.com/klask-search/klask/pkg/searchindex"
)

// snippetWindow is the number of characters kept on each side of the first
// matched term.
const snippetWindow = 100

// fallbackSnippetLen is how much of the content is shown when no query
// term is found verbatim (e.g. a boolean/phrase query with no single
// literal substring match).
const fallbackSnippetLen = 200

// maxCandidateScan bounds how many ranked candidates are decoded when
// post-filters or facets require looking past the requested page. Filtered
// totals are exact up to this many matches and a lower bound beyond it.
const maxCandidateScan = 10000

// Engine is the QueryEngine.
type Engine struct {
	index *searchindex.Engine
}

// New wraps index for querying.
func New(index *searchindex.Engine) *Engine {
	return &Engine{index: index}
}

// whitelist splits a comma-separated filter value into its members. An
// empty filter has no members and is treated as "no filter".
func whitelist(filter string) []string {
	if filter == "" {
		return nil
	}
	parts := strings.Split(filter, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Search runs q against the index, applies post-filters, pages the
// surviving hits, and reports the post-filter total. Facets, when
// requested, are computed across every surviving hit, not just the page.
func (e *Engine) Search(q model.SearchQuery) (model.SearchResult, error) {
	start := time.Now()
	defer func() { searchDuration.Observe(time.Since(start).Seconds()) }()

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	projects := whitelist(q.Project)
	versions := whitelist(q.Version)
	extensions := whitelist(q.Extension)

	text := q.Text
	if strings.TrimSpace(text) == "" {
		text = "*"
	}

	// Post-filters and facets both need visibility past the requested
	// page: a filtered-out candidate must not count toward the total, and
	// facet counts cover the whole result set. Scan wide in those cases;
	// otherwise the page itself is enough and bleve's own match count is
	// the total.
	filtered := len(projects) > 0 || len(versions) > 0 || len(extensions) > 0
	scanSize := limit + q.Offset
	if filtered || q.IncludeFacets {
		scanSize = maxCandidateScan
	}

	hits, matchTotal, err := e.index.Search(text, scanSize)
	if err != nil {
		return model.SearchResult{}, klaskerrors.Wrap(err, klaskerrors.ErrQueryParseFailed)
	}

	var passed []searchindex.RankedHit
	for _, h := range hits {
		if len(projects) > 0 && !contains(projects, h.Document.Project) {
			continue
		}
		if len(versions) > 0 && !contains(versions, h.Document.Version) {
			continue
		}
		if len(extensions) > 0 && !contains(extensions, h.Document.Extension) {
			continue
		}
		passed = append(passed, h)
	}

	total := len(passed)
	if !filtered && matchTotal > total {
		total = matchTotal
	}

	if q.Offset >= len(passed) {
		return model.SearchResult{Hits: nil, Total: total}, nil
	}
	end := q.Offset + limit
	if end > len(passed) {
		end = len(passed)
	}
	page := passed[q.Offset:end]

	result := model.SearchResult{Total: total}
	for _, h := range page {
		result.Hits = append(result.Hits, model.SearchHit{
			Document:   h.Document,
			Score:      h.Score,
			Snippet:    Snippet(q.Text, h.Document.Content),
			DocAddress: searchindex.DocAddress(h.Document.FileID),
		})
	}
	if q.IncludeFacets {
		facets := facetsOf(passed)
		result.Facets = &facets
	}
	return result, nil
}

// Snippet locates the first case-insensitive occurrence of any
// whitespace-separated term in queryText within content and returns a
// window of ±snippetWindow characters. If no term is found, it falls back
// to the first fallbackSnippetLen characters plus an ellipsis.
func Snippet(queryText, content string) string {
	lowerContent := strings.ToLower(content)

	for _, term := range strings.Fields(queryText) {
		term = strings.Trim(term, `"`)
		if term == "" || term == "*" {
			continue
		}
		pos := strings.Index(lowerContent, strings.ToLower(term))
		if pos < 0 {
			continue
		}
		start := pos - snippetWindow
		if start < 0 {
			start = 0
		}
		end := pos + len(term) + snippetWindow
		if end > len(content) {
			end = len(content)
		}
		return content[start:end]
	}

	if len(content) > fallbackSnippetLen {
		return content[:fallbackSnippetLen] + "…"
	}
	return content
}

// Facets computes facet counts for project/version/extension across hits.
// Callers pass the full post-filter candidate set, not just one page.
func Facets(hits []model.SearchHit) model.SearchFacets {
	ranked := make([]searchindex.RankedHit, len(hits))
	for i, h := range hits {
		ranked[i] = searchindex.RankedHit{Document: h.Document, Score: h.Score}
	}
	return facetsOf(ranked)
}

// facetsOf computes facet counts across the full post-filter candidate set,
// which is wider than the page Search returns.
func facetsOf(hits []searchindex.RankedHit) model.SearchFacets {
	return model.SearchFacets{
		Projects:   countBy(hits, func(d model.IndexDocument) string { return d.Project }),
		Versions:   countBy(hits, func(d model.IndexDocument) string { return d.Version }),
		Extensions: countBy(hits, func(d model.IndexDocument) string { return d.Extension }),
	}
}

func countBy(hits []searchindex.RankedHit, key func(model.IndexDocument) string) []model.FacetValue {
	counts := make(map[string]int)
	for _, h := range hits {
		counts[key(h.Document)]++
	}
	values := make([]model.FacetValue, 0, len(counts))
	for v, c := range counts {
		values = append(values, model.FacetValue{Value: v, Count: c})
	}
	sort.Slice(values, func(i, j int) bool {
		if values[i].Count != values[j].Count {
			return values[i].Count > values[j].Count
		}
		return values[i].Value < values[j].Value
	})
	return values
}

// GetByID returns the single document identified by id.
func (e *Engine) GetByID(id uuid.UUID) (model.IndexDocument, error) {
	return e.index.GetByID(id)
}

// GetByDocAddress returns the single document identified by a previously
// issued doc address string.
func (e *Engine) GetByDocAddress(addr string) (model.IndexDocument, error) {
	idStr := strings.TrimPrefix(addr, "id:")
	id, err := uuid.Parse(idStr)
	if err != nil {
		return model.IndexDocument{}, klaskerrors.WrapWithMessage(err, "parse doc address")
	}
	return e.index.GetByID(id)
}
