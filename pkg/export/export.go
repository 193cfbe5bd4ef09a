// Package export writes assignments as CSV, JSON or a plain text report.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/kilianp07/rota/core/model"
)

// Label returns the display form of an entry: the name followed by its
// occurrence in parentheses when the member is placed more than once.
func Label(e model.Entry) string {
	if e.Occurrence == 0 {
		return e.Name
	}
	return fmt.Sprintf("%s(%d)", e.Name, e.Occurrence)
}

func labels(r model.Row) []string {
	out := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = Label(e)
	}
	return out
}

// WriteJSON writes the rows to w in JSON format.
func WriteJSON(w io.Writer, rows []model.Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteCSV writes one line per session: label, count and the members
// joined by a separator.
func WriteCSV(w io.Writer, rows []model.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"session", "count", "members"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Session,
			strconv.Itoa(r.Count),
			strings.Join(labels(r), "、"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText writes an aligned report.
func WriteText(w io.Writer, rows []model.Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%d\t%s\n", r.Session, r.Count, strings.Join(labels(r), ", ")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Write dispatches on format: "csv", "json", "html" or "text".
func Write(w io.Writer, format string, rows []model.Row) error {
	switch strings.ToLower(format) {
	case "csv":
		return WriteCSV(w, rows)
	case "json":
		return WriteJSON(w, rows)
	case "html":
		return WriteHTML(w, rows)
	case "text", "txt", "":
		return WriteText(w, rows)
	}
	return fmt.Errorf("unknown export format %q", format)
}
