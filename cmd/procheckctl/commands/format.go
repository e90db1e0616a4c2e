package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
)

const (
	formatJSON  = "json"
	formatTable = "table"
	valueNA     = "N/A"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

// formatProcesses renders a slice of processes in the requested format.
func formatProcesses(processes []Process, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatJSONValue(processes)
	case formatTable:
		return formatProcessesTable(processes), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

// formatProcess renders a single process in the requested format.
func formatProcess(p Process, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatJSONValue(p)
	case formatTable:
		return formatProcessDetail(p), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

// formatRunning renders the running set in the requested format.
func formatRunning(entries []RunningEntry, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatJSONValue(entries)
	case formatTable:
		return formatRunningTable(entries), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

// --- Table formatters ---

func formatProcessesTable(processes []Process) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLOT\tADDRESS\tSTATE\tVERSION\tPACKAGE\tAPP-ID")

	for _, p := range processes {
		fmt.Fprintf(w, "%d\t0x%x\t%s\t%d\t%s\t%s\n",
			p.ID, p.Address, p.State, p.Version,
			valueOr(p.PackageName), appIDColumn(p),
		)
	}

	_ = w.Flush()

	return buf.String()
}

func formatProcessDetail(p Process) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Slot:\t%d\n", p.ID)
	fmt.Fprintf(w, "Generation:\t%d\n", p.Generation)
	fmt.Fprintf(w, "Address:\t0x%x\n", p.Address)
	fmt.Fprintf(w, "State:\t%s\n", p.State)
	fmt.Fprintf(w, "Version:\t%d\n", p.Version)
	fmt.Fprintf(w, "Package:\t%s\n", valueOr(p.PackageName))
	fmt.Fprintf(w, "App ID Kind:\t%s\n", p.AppIDKind)
	fmt.Fprintf(w, "App ID:\t%s\n", valueOr(p.AppID))
	fmt.Fprintf(w, "Short ID:\t%s\n", valueOr(p.ShortID))

	if p.Reason != "" {
		fmt.Fprintf(w, "Reason:\t%s\n", p.Reason)
	}

	_ = w.Flush()

	return buf.String()
}

func formatRunningTable(entries []RunningEntry) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLOT\tSHORT-ID")

	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\n", e.SlotID, e.ShortID)
	}

	_ = w.Flush()

	return buf.String()
}

func appIDColumn(p Process) string {
	if p.AppID == "" {
		return p.AppIDKind
	}
	return p.AppID
}

func valueOr(s string) string {
	if s == "" {
		return valueNA
	}
	return s
}

// --- JSON formatter ---

func formatJSONValue(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal to JSON: %w", err)
	}
	return string(data) + "\n", nil
}
