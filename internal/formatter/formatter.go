// package formatter renders action history in various formats (CSV, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/spool/internal/models"
	"github.com/desertthunder/spool/internal/shared"
)

// Format names an output format for history exports.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "text", "txt", "csv" or "json". An empty string selects text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, csv or json)", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension used for f.
func (f Format) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// HistoryEntry is the exported shape of an [models.ActionRecord].
type HistoryEntry struct {
	Sequence   int       `json:"sequence"`
	ID         string    `json:"id"`
	Account    string    `json:"account"`
	Action     string    `json:"action"`
	Target     string    `json:"target,omitempty"`
	Result     string    `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
	OK         bool      `json:"ok"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
}

func toEntry(r *models.ActionRecord) HistoryEntry {
	return HistoryEntry{
		Sequence:   r.Sequence(),
		ID:         r.ID(),
		Account:    r.AccountID(),
		Action:     r.Action().String(),
		Target:     r.Target(),
		Result:     r.Result(),
		Error:      r.ErrorMessage(),
		OK:         r.Succeeded(),
		StartedAt:  r.StartedAt().UTC(),
		FinishedAt: r.FinishedAt().UTC(),
		DurationMS: r.Duration().Milliseconds(),
	}
}

// AccountSummary counts outcomes for one account.
type AccountSummary struct {
	Account   string `json:"account"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// Summarize groups records by account, sorted by account name.
func Summarize(records []*models.ActionRecord) []AccountSummary {
	byAccount := map[string]*AccountSummary{}
	for _, r := range records {
		s, ok := byAccount[r.AccountID()]
		if !ok {
			s = &AccountSummary{Account: r.AccountID()}
			byAccount[r.AccountID()] = s
		}
		if r.Succeeded() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}

	out := make([]AccountSummary, 0, len(byAccount))
	for _, s := range byAccount {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out
}

// ExportHistoryToCSV converts records to CSV with columns: Sequence, Started, Account, Action, Target, Result, Error, Duration
func ExportHistoryToCSV(records []*models.ActionRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "Started", "Account", "Action", "Target", "Result", "Error", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range records {
		e := toEntry(r)
		record := []string{
			fmt.Sprint(e.Sequence),
			e.StartedAt.Format(time.RFC3339),
			e.Account,
			e.Action,
			e.Target,
			e.Result,
			e.Error,
			r.Duration().String(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportHistoryToJSON converts records to an indented JSON array.
func ExportHistoryToJSON(records []*models.ActionRecord) ([]byte, error) {
	entries := make([]HistoryEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, toEntry(r))
	}
	return shared.MarshalJSON(entries, true)
}

// ExportHistoryToText renders records as a table followed by a per-account summary.
func ExportHistoryToText(records []*models.ActionRecord) ([]byte, error) {
	var buf bytes.Buffer

	if len(records) == 0 {
		buf.WriteString("No actions recorded.\n")
		return buf.Bytes(), nil
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		status := "ok"
		detail := r.Result()
		if !r.Succeeded() {
			status = "failed"
			detail = r.ErrorMessage()
		}
		rows = append(rows, []string{
			fmt.Sprint(r.Sequence()),
			r.StartedAt().Local().Format("2006-01-02 15:04:05"),
			r.AccountID(),
			r.Action().String(),
			r.Target(),
			status,
			detail,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "STARTED", "ACCOUNT", "ACTION", "TARGET", "STATUS", "DETAIL").
		Rows(rows...)
	buf.WriteString(t.Render())
	buf.WriteString("\n\n")

	buf.WriteString(fmt.Sprintf("Actions: %d\n", len(records)))
	for _, s := range Summarize(records) {
		buf.WriteString(fmt.Sprintf("  %s: %d ok, %d failed\n", s.Account, s.Succeeded, s.Failed))
	}

	return buf.Bytes(), nil
}

// Render encodes records in the given format.
func Render(records []*models.ActionRecord, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportHistoryToCSV(records)
	case FormatJSON:
		return ExportHistoryToJSON(records)
	case FormatText:
		return ExportHistoryToText(records)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// WriteHistory renders records to w.
func WriteHistory(w io.Writer, records []*models.ActionRecord, f Format) error {
	data, err := Render(records, f)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// WriteHistoryExport writes records to a file.
//
// Defaults to history.{ext} as the filename.
func WriteHistoryExport(records []*models.ActionRecord, f Format, filepath string) (string, error) {
	if filepath == "" {
		filepath = "history." + f.Extension()
	}

	data, err := Render(records, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write history file: %w", err)
	}

	return filepath, nil
}
