package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	streamyerrors "github.com/weftrun/weft/pkg/errors"
)

// Load reads an ordered list of YAML documents from disk, deep-merges them
// (later documents override earlier ones), normalizes source references,
// and validates static shape. It does not perform dependency analysis —
// see internal/graph.Analyze for that.
func Load(paths ...string) (*NormalizedConfig, error) {
	docs := make([]rawDocument, 0, len(paths))
	for _, path := range paths {
		doc, err := loadDocument(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return Merge(docs...)
}

// LoadBytes parses an ordered list of in-memory YAML documents, useful for
// tests and for embedding callers that do not read from disk.
func LoadBytes(contents ...[]byte) (*NormalizedConfig, error) {
	docs := make([]rawDocument, 0, len(contents))
	for i, data := range contents {
		var doc rawDocument
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, streamyerrors.NewConfigError(fmt.Sprintf("document[%d]", i), "invalid YAML", err)
		}
		docs = append(docs, doc)
	}
	return Merge(docs...)
}

// Merge deep-merges already-parsed documents and produces the normalized,
// validated configuration.
func Merge(docs ...rawDocument) (*NormalizedConfig, error) {
	merged := mergeDocuments(docs)

	cfg, err := normalize(merged)
	if err != nil {
		return nil, err
	}

	if err := validateShape(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDocument(path string) (rawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rawDocument{}, streamyerrors.NewConfigError(path, "cannot read file", err)
	}

	var doc rawDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return rawDocument{}, streamyerrors.NewConfigError(path, "invalid YAML", err)
	}

	return doc, nil
}
