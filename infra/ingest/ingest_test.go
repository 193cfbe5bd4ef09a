package ingest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/kilianp07/rota/core/model"
)

const sheet = `日程,佐藤,鈴木,高橋,
4/1(月), ○ ,△,,
4/2(火),-,○,○,

最終更新日時,2024/03/30,,,
コメント欄,よろしく,,,
4/3(水),△,,×,
`

func TestReadCSV(t *testing.T) {
	m, err := ReadCSV(strings.NewReader(sheet), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"佐藤", "鈴木", "高橋"}, m.Members())
	assert.Equal(t, []string{"4/1(月)", "4/2(火)", "4/3(水)"}, m.Sessions())
	assert.Equal(t, model.Available, m.StatusOf("4/1(月)", "佐藤"))
	assert.Equal(t, model.Tentative, m.StatusOf("4/1(月)", "鈴木"))
	assert.Equal(t, model.Unavailable, m.StatusOf("4/1(月)", "高橋"))
	assert.Equal(t, model.Unavailable, m.StatusOf("4/3(水)", "高橋"))
}

func TestReadCSVShiftJIS(t *testing.T) {
	encoded, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(sheet))
	require.NoError(t, err)
	m, err := ReadCSV(bytes.NewReader(encoded), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "佐藤", m.Member(0))
	assert.Equal(t, 3, m.NumSessions())
	assert.Equal(t, model.Available, m.Status(1, 2))
}

func TestReadCSVCustomMarkers(t *testing.T) {
	opts := Options{Markers: model.Markers{Available: []string{"o"}, Tentative: []string{"?"}}}
	m, err := ReadCSV(strings.NewReader("day,a,b\nd1,o,?\n"), opts)
	require.NoError(t, err)
	assert.Equal(t, model.Available, m.Status(0, 0))
	assert.Equal(t, model.Tentative, m.Status(0, 1))
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("only\nd1\n"), Options{})
	assert.True(t, errors.Is(err, ErrFormat))

	_, err = ReadCSV(strings.NewReader(""), Options{})
	assert.ErrorIs(t, err, ErrFormat)

	_, err = ReadCSV(strings.NewReader("day,a\nd1,○\nd1,○\n"), Options{})
	assert.ErrorIs(t, err, model.ErrDuplicateSession)
}

func TestOptionsValidate(t *testing.T) {
	o := Options{Markers: model.Markers{Available: []string{"o"}, Tentative: []string{"o"}}}
	assert.Error(t, o.Validate())
	def := DefaultOptions()
	assert.NoError(t, def.Validate())
}

func TestLoadRosterAndSettings(t *testing.T) {
	dir := t.TempDir()
	rosterYAML := filepath.Join(dir, "roster.yaml")
	require.NoError(t, os.WriteFile(rosterYAML, []byte(`members:
  - name: 鈴木
    rank: 1
    group: senior
  - name: 佐藤
    rank: 2
`), 0o644))
	r, err := LoadRoster(rosterYAML)
	require.NoError(t, err)
	assert.Equal(t, "senior", r.Group("鈴木"))
	assert.True(t, r.Less("鈴木", "佐藤"))

	rosterJSON := filepath.Join(dir, "roster.json")
	require.NoError(t, os.WriteFile(rosterJSON, []byte(`{"members":[{"name":"a","rank":1}]}`), 0o644))
	r, err = LoadRoster(rosterJSON)
	require.NoError(t, err)
	rank, ok := r.Rank("a")
	assert.True(t, ok)
	assert.Equal(t, 1, rank)

	m, err := ReadCSV(strings.NewReader(sheet), Options{})
	require.NoError(t, err)
	settingsPath := filepath.Join(dir, "settings.yml")
	require.NoError(t, os.WriteFile(settingsPath, []byte(`subgroup: senior
targets:
  鈴木: 2
sessions:
  - label: 4/2(火)
    min: 1
    max: 2
    sub_min: 1
  - label: 4/1(月)
    enabled: false
`), 0o644))
	s, err := LoadSettings(settingsPath, m)
	require.NoError(t, err)
	require.Len(t, s.Sessions, 3)
	assert.Equal(t, "4/1(月)", s.Sessions[0].Label)
	assert.False(t, s.Sessions[0].IsEnabled())
	assert.Equal(t, 2, s.Sessions[1].Max)
	assert.Equal(t, 1, *s.Sessions[1].SubMin)
	assert.Equal(t, model.DefaultSettings(m).Sessions[2], s.Sessions[2])
	assert.Equal(t, 2, s.Target("鈴木"))
	assert.Equal(t, "senior", s.Subgroup)
}

func TestLoadSettingsErrors(t *testing.T) {
	dir := t.TempDir()
	m, err := ReadCSV(strings.NewReader(sheet), Options{})
	require.NoError(t, err)

	unknown := filepath.Join(dir, "s.json")
	require.NoError(t, os.WriteFile(unknown, []byte(`{"sessions":[{"label":"nope","min":0,"max":1}]}`), 0o644))
	_, err = LoadSettings(unknown, m)
	assert.Error(t, err)

	txt := filepath.Join(dir, "s.txt")
	require.NoError(t, os.WriteFile(txt, []byte(`x`), 0o644))
	_, err = LoadSettings(txt, m)
	assert.Error(t, err)

	typo := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(typo, []byte("sesions: []\n"), 0o644))
	_, err = LoadSettings(typo, m)
	assert.Error(t, err)
}
