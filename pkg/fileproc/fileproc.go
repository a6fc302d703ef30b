// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package fileproc decides which files are worth indexing and turns a
// single file's bytes into the stored IndexDocument shape.
package fileproc

import (
	"strings"

	"github.com/klask-search/klask/pkg/model"
)

// supportedExtensions are lowercased, without the leading dot.
var supportedExtensions = map[string]struct{}{
	"rs": {}, "py": {}, "js": {}, "ts": {}, "java": {}, "c": {}, "cpp": {},
	"h": {}, "hpp": {}, "go": {}, "rb": {}, "php": {}, "cs": {}, "swift": {},
	"kt": {}, "scala": {}, "clj": {}, "hs": {}, "ml": {}, "fs": {}, "elm": {},
	"dart": {}, "vue": {}, "jsx": {}, "tsx": {}, "html": {}, "css": {},
	"scss": {}, "less": {}, "sql": {}, "sh": {}, "bash": {}, "zsh": {},
	"fish": {}, "ps1": {}, "bat": {}, "cmd": {}, "dockerfile": {},
	"yaml": {}, "yml": {}, "json": {}, "toml": {}, "xml": {}, "md": {},
	"txt": {}, "cfg": {}, "conf": {}, "ini": {}, "properties": {},
	"gradle": {}, "maven": {}, "pom": {}, "sbt": {}, "cmake": {},
	"makefile": {}, "r": {}, "m": {}, "perl": {}, "pl": {}, "lua": {},
}

// distinguishedNames are extension-less filenames that are still indexed.
var distinguishedNames = map[string]struct{}{
	"dockerfile": {}, "makefile": {}, "rakefile": {}, "gemfile": {},
	"vagrantfile": {}, "procfile": {}, "readme": {}, "license": {},
	"changelog": {}, "authors": {}, "contributors": {}, "copying": {},
	"install": {}, "news": {}, "todo": {},
}

// ignoredDirNames are skipped outright by a FileSystem-source directory
// walk, in addition to any dot-prefixed directory.
var ignoredDirNames = map[string]struct{}{
	"node_modules": {}, "target": {}, "__pycache__": {},
}

// Supported reports whether path should be indexed, based on its extension
// or, for extension-less files, its base name.
func Supported(path string) bool {
	ext := model.Extension(path)
	if ext != "" {
		_, ok := supportedExtensions[ext]
		return ok
	}

	name := strings.ToLower(model.BaseName(path))
	_, ok := distinguishedNames[name]
	return ok
}

// IgnoredDir reports whether a directory named name should be skipped
// during a FileSystem-source walk.
func IgnoredDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, ok := ignoredDirNames[name]
	return ok
}

// ContainsNUL reports whether content has an embedded NUL byte, the
// heuristic used to reject binary files that happen to decode as UTF-8.
func ContainsNUL(content string) bool {
	return strings.IndexByte(content, 0) >= 0
}

// Build assembles the stored IndexDocument for a single file. project is
// the individual child-project name (equal to repository name for
// non-group sources); repositoryField is the parent aggregate used for
// mass-deletion grouping, which differs from project only for GitLab/GitHub
// group sources.
func Build(relativePath, content, repositoryField, project, version string) model.IndexDocument {
	return model.IndexDocument{
		FileName:   model.BaseName(relativePath),
		FilePath:   relativePath,
		Content:    content,
		Repository: repositoryField,
		Project:    project,
		Version:    version,
		Extension:  model.Extension(relativePath),
	}
}
