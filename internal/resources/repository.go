// Package resources provides the fixed set of named reference texts consumed
// during prompt assembly: the code template, engine documentation, and the
// reference source for the optimizer and recommender components.
//
// All resources are loaded once at startup from a configured directory; a
// missing backing file is a constructor error, not a per-lookup failure.
package resources

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ID identifies one resource in the repository.
type ID string

// The full enumerated resource set. The repository refuses to start if any
// backing file is absent.
const (
	Template               ID = "template"
	CSVTemplate            ID = "csv_template"
	LiquidHandlingTemplate ID = "liquid_handling_template"
	StockConcentrations    ID = "stock_concentrations"
	Docs                   ID = "docs"
	Preprocess             ID = "preprocess"
	Optimizer              ID = "optimizer"
	Recommender            ID = "recommender"
	RecommendationEngine   ID = "recommendation_engine"
)

// fileNames maps each resource ID to its backing file inside the resource
// directory.
var fileNames = map[ID]string{
	Template:               "art_template.py",
	CSVTemplate:            "template.csv",
	LiquidHandlingTemplate: "liquid_handler_instructions_template.py",
	StockConcentrations:    "stock_concentrations.csv",
	Docs:                   "recommendation_engine_docs.txt",
	Preprocess:             "preprocess.py",
	Optimizer:              "optimizer.py",
	Recommender:            "recommender.py",
	RecommendationEngine:   "recommendation_engine.py",
}

// Repository is a read-only mapping from resource IDs to file contents.
type Repository struct {
	contents map[ID]string
}

// Load reads every known resource from dir. Any unreadable file fails the
// load; there is no lazy or partial repository.
func Load(dir string) (*Repository, error) {
	contents := make(map[ID]string, len(fileNames))
	for id, name := range fileNames {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load resource %q: %w", id, err)
		}
		contents[id] = string(data)
	}
	return &Repository{contents: contents}, nil
}

// Get returns the text for a resource ID. Unknown IDs are a lookup error.
func (r *Repository) Get(id ID) (string, error) {
	text, ok := r.contents[id]
	if !ok {
		return "", fmt.Errorf("unknown resource %q", id)
	}
	return text, nil
}

// IDs returns the enumerated resource IDs in stable order.
func IDs() []ID {
	ids := make([]ID, 0, len(fileNames))
	for id := range fileNames {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// FileName returns the backing file name for an ID, for diagnostics.
func FileName(id ID) string {
	return fileNames[id]
}
