// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package searchindex wraps a full-text index with the serialized-writer,
// snapshot-reader discipline the crawler and query path both depend on:
// upsert and delete are buffered against a pending batch, and become
// visible to search only once Commit flushes them.
package searchindex

import (
	"fmt"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/google/uuid"

	klaskerrors "github.com/klask-search/klask/internal/errors"
	"github.com/klask-search/klask/pkg/model"
)

// Engine is the IndexEngine: one exclusive writer guarding a pending batch,
// and bleve's own index providing snapshot reads.
type Engine struct {
	index bleve.Index

	writerMu sync.Mutex
	pending  *bleve.Batch
}

// Open opens the index at dir, creating it (and the directory) if it does
// not yet exist.
func Open(dir string) (*Engine, error) {
	if _, err := os.Stat(dir); err == nil {
		idx, err := bleve.Open(dir)
		if err != nil {
			return nil, klaskerrors.WrapWithMessage(err, "open index")
		}
		return &Engine{index: idx, pending: idx.NewBatch()}, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, klaskerrors.WrapWithMessage(err, "create index dir")
	}

	idx, err := bleve.New(dir, buildMapping())
	if err != nil {
		return nil, klaskerrors.WrapWithMessage(err, "create index")
	}
	return &Engine{index: idx, pending: idx.NewBatch()}, nil
}

// Close releases the underlying index resources.
func (e *Engine) Close() error {
	return e.index.Close()
}

// Upsert buffers a delete-then-add for doc.FileID. Not visible until
// Commit.
func (e *Engine) Upsert(doc model.IndexDocument) error {
	e.writerMu.Lock()
	defer e.writerMu.Unlock()

	id := doc.FileID.String()
	e.pending.Delete(id)
	return e.pending.Index(id, indexedDocument{
		FileID:     id,
		FileName:   doc.FileName,
		FilePath:   doc.FilePath,
		Content:    doc.Content,
		Repository: doc.Repository,
		Project:    doc.Project,
		Version:    doc.Version,
		Extension:  doc.Extension,
	})
}

// DeleteByID buffers removal of a single document. Not visible until
// Commit.
func (e *Engine) DeleteByID(id uuid.UUID) {
	e.writerMu.Lock()
	defer e.writerMu.Unlock()
	e.pending.Delete(id.String())
}

// DeleteByRepository buffers removal of every document whose repository
// field equals name. Not visible until Commit.
func (e *Engine) DeleteByRepository(name string) error {
	q := bleve.NewTermQuery(name)
	q.SetField(fieldRepository)
	req := bleve.NewSearchRequestOptions(q, maxScanSize, 0, false)

	e.writerMu.Lock()
	defer e.writerMu.Unlock()

	for {
		result, err := e.index.Search(req)
		if err != nil {
			return klaskerrors.WrapWithMessage(err, "delete_by_repository scan")
		}
		if len(result.Hits) == 0 {
			break
		}
		for _, hit := range result.Hits {
			e.pending.Delete(hit.ID)
		}
		if len(result.Hits) < maxScanSize {
			break
		}
		req.From += maxScanSize
	}
	return nil
}

// maxScanSize bounds each delete_by_repository scan page.
const maxScanSize = 1000

// Commit flushes all buffered upserts/deletes atomically. A fresh batch is
// started for subsequent mutations.
func (e *Engine) Commit() error {
	e.writerMu.Lock()
	defer e.writerMu.Unlock()

	if e.pending.Size() == 0 {
		return nil
	}
	if err := e.index.Batch(e.pending); err != nil {
		return klaskerrors.Wrap(err, klaskerrors.ErrIndexWriteFailed)
	}
	e.pending = e.index.NewBatch()
	return nil
}

// Clear deletes every document and commits immediately, for test fixtures
// and full reindex.
func (e *Engine) Clear() error {
	e.writerMu.Lock()
	ids, err := e.allDocIDs()
	if err != nil {
		e.writerMu.Unlock()
		return err
	}
	for _, id := range ids {
		e.pending.Delete(id)
	}
	e.writerMu.Unlock()

	return e.Commit()
}

func (e *Engine) allDocIDs() ([]string, error) {
	q := bleve.NewMatchAllQuery()
	req := bleve.NewSearchRequestOptions(q, maxScanSize, 0, false)

	var ids []string
	for {
		result, err := e.index.Search(req)
		if err != nil {
			return nil, klaskerrors.WrapWithMessage(err, "clear scan")
		}
		for _, hit := range result.Hits {
			ids = append(ids, hit.ID)
		}
		if len(result.Hits) < maxScanSize {
			break
		}
		req.From += maxScanSize
	}
	return ids, nil
}

// Stats reports the document count currently visible to readers.
type Stats struct {
	TotalDocuments uint64
}

// Stats returns the most recently committed document count.
func (e *Engine) Stats() (Stats, error) {
	count, err := e.index.DocCount()
	if err != nil {
		return Stats{}, klaskerrors.WrapWithMessage(err, "stats")
	}
	return Stats{TotalDocuments: count}, nil
}

// storedFields lists every field requested back from a search hit so
// callers can reassemble a full model.IndexDocument from it.
var storedFields = []string{
	fieldFileName, fieldFilePath, fieldContent,
	fieldRepository, fieldProject, fieldVersion, fieldExtension,
}

// RankedHit is one ranked raw result from Search, before QueryEngine's
// post-filters, snippet generation, and facet assembly.
type RankedHit struct {
	Document model.IndexDocument
	Score    float64
}

// Search parses queryText against content/file_name/file_path (boolean
// AND of space-separated terms, phrase quoting, "*" matching everything)
// and returns the top n ranked hits with their stored fields decoded. The
// returned total is the number of documents that matched before any
// post-filtering.
func (e *Engine) Search(queryText string, n int) ([]RankedHit, int, error) {
	req := bleve.NewSearchRequestOptions(buildQuery(queryText), n, 0, false)
	req.Fields = storedFields

	result, err := e.index.Search(req)
	if err != nil {
		return nil, 0, klaskerrors.Wrap(err, klaskerrors.ErrQueryParseFailed)
	}

	hits := make([]RankedHit, 0, len(result.Hits))
	for _, h := range result.Hits {
		id, parseErr := uuid.Parse(h.ID)
		if parseErr != nil {
			continue
		}
		hits = append(hits, RankedHit{
			Document: documentFromHit(id, h.Fields),
			Score:    h.Score,
		})
	}
	return hits, int(result.Total), nil
}

// buildQuery turns the user's query text into a bleve query. Every
// whitespace-separated term must match (bleve's own query-string parser
// treats bare terms as optional, which is not the semantics wanted here),
// so terms are combined into a conjunction. Quoted spans stay together as
// phrases, and terms keep the full query-string syntax, so field:value
// lookups like file_id:<uuid> still work.
func buildQuery(queryText string) query.Query {
	if queryText == "*" {
		return bleve.NewMatchAllQuery()
	}

	terms := splitQueryTerms(queryText)
	if len(terms) == 1 {
		return bleve.NewQueryStringQuery(terms[0])
	}

	conj := bleve.NewConjunctionQuery()
	for _, term := range terms {
		conj.AddQuery(bleve.NewQueryStringQuery(term))
	}
	return conj
}

// splitQueryTerms splits on whitespace while keeping double-quoted spans
// intact (quotes included, so the query parser still sees the phrase).
func splitQueryTerms(text string) []string {
	var terms []string
	var current []rune
	inQuotes := false
	for _, r := range text {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current = append(current, r)
		case (r == ' ' || r == '\t' || r == '\n') && !inQuotes:
			if len(current) > 0 {
				terms = append(terms, string(current))
				current = current[:0]
			}
		default:
			current = append(current, r)
		}
	}
	if len(current) > 0 {
		terms = append(terms, string(current))
	}
	if len(terms) == 0 {
		return []string{text}
	}
	return terms
}

// GetByID fetches a single document, for the get_by_id contract surface.
func (e *Engine) GetByID(id uuid.UUID) (model.IndexDocument, error) {
	q := bleve.NewDocIDQuery([]string{id.String()})
	req := bleve.NewSearchRequest(q)
	req.Fields = storedFields
	req.Size = 1

	result, err := e.index.Search(req)
	if err != nil {
		return model.IndexDocument{}, klaskerrors.WrapWithMessage(err, "get_by_id")
	}
	if len(result.Hits) == 0 {
		return model.IndexDocument{}, klaskerrors.ErrNotFound
	}
	return documentFromHit(id, result.Hits[0].Fields), nil
}

func documentFromHit(id uuid.UUID, fields map[string]interface{}) model.IndexDocument {
	str := func(key string) string {
		v, _ := fields[key].(string)
		return v
	}
	return model.IndexDocument{
		FileID:     id,
		FileName:   str(fieldFileName),
		FilePath:   str(fieldFilePath),
		Content:    str(fieldContent),
		Repository: str(fieldRepository),
		Project:    str(fieldProject),
		Version:    str(fieldVersion),
		Extension:  str(fieldExtension),
	}
}

// DocAddress renders a stable string handle for a document. bleve does
// not expose (segment, local-id) pairs through the public Index
// interface, so the document's own id is used verbatim: it is already the
// stable per-document handle the rest of the system works with.
func DocAddress(id uuid.UUID) string {
	return fmt.Sprintf("id:%s", id)
}
