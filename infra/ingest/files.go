package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/rota/core/model"
)

// unmarshal decodes data as JSON or YAML depending on the file extension.
func unmarshal(path string, data []byte, v any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
	return fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
}

func load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := unmarshal(path, data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadRoster reads a roster file of the form {members: [{name, rank, group}]}.
func LoadRoster(path string) (*model.Roster, error) {
	var r model.Roster
	if err := load(path, &r); err != nil {
		return nil, err
	}
	for i, e := range r.Entries {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("%s: roster entry %d has no name", path, i)
		}
	}
	return model.NewRoster(r.Entries), nil
}

// LoadSettings reads a settings file. Sessions missing from the file get
// the bounds derived from m; sessions unknown to m are rejected.
func LoadSettings(path string, m *model.Matrix) (model.Settings, error) {
	var s model.Settings
	if err := load(path, &s); err != nil {
		return model.Settings{}, err
	}
	return AlignSettings(s, m)
}

// AlignSettings orders s.Sessions like the matrix, filling gaps with the
// defaults of model.DefaultSettings. An empty session list yields the
// defaults for every session.
func AlignSettings(s model.Settings, m *model.Matrix) (model.Settings, error) {
	def := model.DefaultSettings(m)
	byLabel := make(map[string]model.SessionSettings, len(s.Sessions))
	for _, ss := range s.Sessions {
		if _, ok := m.SessionIndex(ss.Label); !ok {
			return model.Settings{}, fmt.Errorf("settings reference unknown session %q", ss.Label)
		}
		byLabel[ss.Label] = ss
	}
	out := model.Settings{Subgroup: s.Subgroup, Targets: s.Targets, Sessions: def.Sessions}
	for i, d := range def.Sessions {
		if ss, ok := byLabel[d.Label]; ok {
			out.Sessions[i] = ss
		}
	}
	return out.Clone(), nil
}
