// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package searchindex

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// fieldFileID through fieldExtension name the stored fields on the indexed
// document type. content is stored (not just indexed) so snippet
// generation can read it back from a search hit without a second lookup.
const (
	fieldFileID     = "file_id"
	fieldFileName   = "file_name"
	fieldFilePath   = "file_path"
	fieldContent    = "content"
	fieldRepository = "repository"
	fieldProject    = "project"
	fieldVersion    = "version"
	fieldExtension  = "extension"

	docType = "file"
)

// buildMapping constructs the index mapping: file_id/repository/project/
// version/extension as stored keyword fields, file_name/file_path as
// stored text, and content stored as well so snippet generation can read
// it back from a hit without a second lookup.
func buildMapping() mapping.IndexMapping {
	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	keyword.Store = true
	keyword.IncludeInAll = false

	text := bleve.NewTextFieldMapping()
	text.Store = true

	contentField := bleve.NewTextFieldMapping()
	contentField.Store = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(fieldFileID, keyword)
	doc.AddFieldMappingsAt(fieldFileName, text)
	doc.AddFieldMappingsAt(fieldFilePath, text)
	doc.AddFieldMappingsAt(fieldContent, contentField)
	doc.AddFieldMappingsAt(fieldRepository, keyword)
	doc.AddFieldMappingsAt(fieldProject, keyword)
	doc.AddFieldMappingsAt(fieldVersion, keyword)
	doc.AddFieldMappingsAt(fieldExtension, keyword)

	im := bleve.NewIndexMapping()
	im.AddDocumentMapping(docType, doc)
	im.DefaultMapping = doc
	im.DefaultType = docType

	return im
}

// indexedDocument is the bleve-facing document shape; json tags match the
// field names above so the default reflection-based indexer lines up with
// the explicit mapping.
type indexedDocument struct {
	FileID     string `json:"file_id"`
	FileName   string `json:"file_name"`
	FilePath   string `json:"file_path"`
	Content    string `json:"content"`
	Repository string `json:"repository"`
	Project    string `json:"project"`
	Version    string `json:"version"`
	Extension  string `json:"extension"`
}
