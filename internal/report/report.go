// internal/report/report.go

// Package report writes the derived commit-activity report as CSV.
package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github-heat-harvester/internal/model"
)

var header = []string{"id_comment", "id_issue", "commits_before", "commits_after"}

// Writer emits activity-window rows as CSV, one row per toxic comment.
type Writer struct {
	cw          *csv.Writer
	wroteHeader bool
}

// NewWriter wraps w for CSV output. The header row is written lazily before
// the first record.
func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: csv.NewWriter(w)}
}

// Write appends one report row.
func (w *Writer) Write(row model.ActivityWindow) error {
	if !w.wroteHeader {
		if err := w.cw.Write(header); err != nil {
			return err
		}
		w.wroteHeader = true
	}
	return w.cw.Write([]string{
		strconv.FormatInt(row.CommentID, 10),
		strconv.FormatInt(row.IssueID, 10),
		strconv.Itoa(row.CommitsBefore),
		strconv.Itoa(row.CommitsAfter),
	})
}

// Flush writes buffered rows (and the header, for an empty report) to the
// underlying writer.
func (w *Writer) Flush() error {
	if !w.wroteHeader {
		if err := w.cw.Write(header); err != nil {
			return err
		}
		w.wroteHeader = true
	}
	w.cw.Flush()
	return w.cw.Error()
}
