// Package ingest reads availability sheets, rosters and settings files.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/kilianp07/rota/core/model"
)

// ErrFormat is returned when a sheet has no member columns.
var ErrFormat = errors.New("sheet needs a label column and at least one member column")

// Options controls sheet parsing.
type Options struct {
	Markers        model.Markers `json:"markers"`
	IgnorePrefixes []string      `json:"ignore_prefixes"`
}

// DefaultOptions returns the markers and ignore prefixes of the usual sheets.
func DefaultOptions() Options {
	return Options{
		Markers:        model.DefaultMarkers(),
		IgnorePrefixes: []string{"最終更新日時", "コメント"},
	}
}

// SetDefaults fills unset values.
func (o *Options) SetDefaults() {
	def := DefaultOptions()
	if len(o.Markers.Available) == 0 {
		o.Markers.Available = def.Markers.Available
	}
	if len(o.Markers.Tentative) == 0 {
		o.Markers.Tentative = def.Markers.Tentative
	}
	if o.IgnorePrefixes == nil {
		o.IgnorePrefixes = def.IgnorePrefixes
	}
}

// Validate rejects markers that map to both statuses.
func (o Options) Validate() error {
	seen := map[string]bool{}
	for _, a := range o.Markers.Available {
		seen[strings.TrimSpace(a)] = true
	}
	for _, t := range o.Markers.Tentative {
		if seen[strings.TrimSpace(t)] {
			return fmt.Errorf("ingest: marker %q is both available and tentative", t)
		}
	}
	return nil
}

// decode returns UTF-8 text, treating anything else as Shift-JIS.
func decode(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return data, nil
	}
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decode shift-jis: %w", err)
	}
	return out, nil
}

// ReadCSV parses a sheet whose header row holds member names and whose
// following rows hold one session each, the label in the first column.
func ReadCSV(r io.Reader, opts Options) (*model.Matrix, error) {
	opts.SetDefaults()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data, err := decode(raw)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 || len(records[0]) < 2 {
		return nil, ErrFormat
	}

	members := make([]string, 0, len(records[0])-1)
	for _, h := range records[0][1:] {
		members = append(members, strings.TrimSpace(h))
	}
	for len(members) > 0 && members[len(members)-1] == "" {
		members = members[:len(members)-1]
	}
	if len(members) == 0 {
		return nil, ErrFormat
	}

	var sessions []string
	var cells [][]model.Status
	for _, rec := range records[1:] {
		if blank(rec) || ignored(rec[0], opts.IgnorePrefixes) {
			continue
		}
		row := make([]model.Status, len(members))
		for i := range members {
			if i+1 < len(rec) {
				row[i] = opts.Markers.Parse(rec[i+1])
			}
		}
		sessions = append(sessions, strings.TrimSpace(rec[0]))
		cells = append(cells, row)
	}
	return model.NewMatrix(sessions, members, cells)
}

// LoadMatrix reads a sheet from path.
func LoadMatrix(path string, opts Options) (*model.Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	m, err := ReadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func ignored(label string, prefixes []string) bool {
	label = strings.TrimSpace(label)
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(label, p) {
			return true
		}
	}
	return false
}
