// Package specstore persists environment spec files and installed-set manifests.
package specstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	vivafs "go.trai.ch/viva/internal/adapters/fs"
	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Store implements ports.SpecStore on JSON or YAML files.
type Store struct{}

// NewStore creates a new spec Store.
func NewStore() *Store {
	return &Store{}
}

// specFile is the on-disk shape. Pointers distinguish missing fields from empty ones.
type specFile struct {
	Channels      *[]string  `json:"channels" yaml:"channels"`
	Requests      *[]string  `json:"requests" yaml:"requests"`
	CreatedAt     *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty" yaml:"last_updated_at,omitempty"`
}

type format int

const (
	formatAuto format = iota
	formatJSON
	formatYAML
)

func formatFor(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatAuto
	}
}

// Load reads the spec at path.
func (s *Store) Load(path string) (*domain.EnvironmentSpec, error) {
	//nolint:gosec // Path comes from the specifier resolver
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrNotFound, "no spec file"), "spec_file", path)
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSpecReadFailed.Error()), "spec_file", path)
	}

	raw, err := decode(data, formatFor(path))
	if err != nil {
		return nil, errors.Join(domain.ErrSpecCorrupt, zerr.With(err, "spec_file", path))
	}

	if raw.Channels == nil || raw.Requests == nil {
		return nil, zerr.With(
			zerr.Wrap(domain.ErrSpecCorrupt, "spec file must define channels and requests"),
			"spec_file", path,
		)
	}

	spec := &domain.EnvironmentSpec{
		Channels: *raw.Channels,
		Requests: *raw.Requests,
	}
	if raw.CreatedAt != nil {
		spec.CreatedAt = *raw.CreatedAt
	}
	if raw.LastUpdatedAt != nil {
		spec.LastUpdatedAt = *raw.LastUpdatedAt
	}
	return spec, nil
}

func decode(data []byte, f format) (specFile, error) {
	var raw specFile
	switch f {
	case formatJSON:
		err := json.Unmarshal(data, &raw)
		return raw, wrapDecode(err, "invalid JSON")
	case formatYAML:
		err := yaml.Unmarshal(data, &raw)
		return raw, wrapDecode(err, "invalid YAML")
	default:
		if err := json.Unmarshal(data, &raw); err == nil {
			return raw, nil
		}
		raw = specFile{}
		if !looksLikeYAMLMapping(data) {
			return raw, zerr.New("neither JSON nor YAML")
		}
		err := yaml.Unmarshal(data, &raw)
		return raw, wrapDecode(err, "neither JSON nor YAML")
	}
}

// looksLikeYAMLMapping filters out inputs yaml.v3 would accept as a bare scalar.
func looksLikeYAMLMapping(data []byte) bool {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return false
	}
	return len(node.Content) == 1 && node.Content[0].Kind == yaml.MappingNode
}

func wrapDecode(err error, msg string) error {
	if err == nil {
		return nil
	}
	return zerr.Wrap(err, msg)
}

// Save atomically replaces the spec at path. YAML paths are written as YAML, everything else as JSON.
// Top-level keys of an existing file that the spec does not define are kept.
func (s *Store) Save(path string, spec domain.EnvironmentSpec) error {
	channels := spec.Channels
	if channels == nil {
		channels = []string{}
	}
	requests := spec.Requests
	if requests == nil {
		requests = []string{}
	}
	raw := specFile{
		Channels: &channels,
		Requests: &requests,
	}
	if !spec.CreatedAt.IsZero() {
		raw.CreatedAt = &spec.CreatedAt
	}
	if !spec.LastUpdatedAt.IsZero() {
		raw.LastUpdatedAt = &spec.LastUpdatedAt
	}

	var doc any = raw
	if fields := unknownFields(path); len(fields) > 0 {
		fields[keyChannels] = channels
		fields[keyRequests] = requests
		if raw.CreatedAt != nil {
			fields[keyCreatedAt] = spec.CreatedAt
		}
		if raw.LastUpdatedAt != nil {
			fields[keyLastUpdatedAt] = spec.LastUpdatedAt
		}
		doc = fields
	}

	var (
		data []byte
		err  error
	)
	if formatFor(path) == formatYAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err = enc.Encode(doc); err == nil {
			err = enc.Close()
		}
		data = buf.Bytes()
	} else {
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return zerr.Wrap(err, domain.ErrSpecWriteFailed.Error())
	}

	if err := vivafs.AtomicWriteFile(path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrSpecWriteFailed.Error()), "spec_file", path)
	}
	return nil
}

const (
	keyChannels      = "channels"
	keyRequests      = "requests"
	keyCreatedAt     = "created_at"
	keyLastUpdatedAt = "last_updated_at"
)

// unknownFields returns the top-level keys of the file at path that are not spec fields.
// A missing or unreadable file has none.
func unknownFields(path string) map[string]any {
	//nolint:gosec // Path comes from the specifier resolver
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var fields map[string]any
	// YAML is a superset of JSON, so one decoder covers both formats.
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil
	}
	for _, key := range []string{keyChannels, keyRequests, keyCreatedAt, keyLastUpdatedAt} {
		delete(fields, key)
	}
	return fields
}

// Delete removes the spec at path.
func (s *Store) Delete(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(domain.ErrNotFound, "no spec file"), "spec_file", path)
		}
		return zerr.With(zerr.Wrap(err, "failed to delete spec file"), "spec_file", path)
	}
	return nil
}
