// Package results reads the benchmark results directory: listing the CSV
// files experiments produce, parsing them, and rendering quick-look plots.
package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrTooFewColumns rejects CSVs that cannot be plotted. The message is
// surfaced to the user verbatim.
var ErrTooFewColumns = errors.New("CSV must have at least two columns for plotting.")

// ErrNotFound is returned for result files that do not exist.
var ErrNotFound = errors.New("result file not found")

// File describes one CSV in the results directory.
type File struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Table is a parsed CSV: the header row and the data rows under it.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Dir is a handle on the results directory.
type Dir struct {
	root string
}

// NewDir creates a handle for root, creating the directory if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create results directory: %w", err)
	}
	return &Dir{root: root}, nil
}

// Root returns the directory path.
func (d *Dir) Root() string { return d.root }

// List returns the CSV files in the directory, newest first by
// modification time.
func (d *Dir) List() ([]File, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read results dir: %w", err)
	}

	var files []File
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, File{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})
	return files, nil
}

// Read parses the named CSV. The name must be a bare file name; anything
// resembling a path is rejected.
func (d *Dir) Read(name string) (*Table, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid result name: %q", name)
	}

	f, err := os.Open(filepath.Join(d.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open result file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}
	return &Table{Columns: records[0], Rows: records[1:]}, nil
}

// Series extracts column idx of every row as float64, skipping rows that
// do not parse. The returned labels slice holds column 0 of the surviving
// rows, so the two stay aligned.
func (t *Table) Series(idx int) (labels []string, values []float64) {
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
		if err != nil {
			continue
		}
		label := ""
		if len(row) > 0 {
			label = row[0]
		}
		labels = append(labels, label)
		values = append(values, v)
	}
	return labels, values
}

// Allocate picks a fresh results file name in dir using the shared
// timestamp format, appending " (n)" before the extension on collision.
// The file is created empty so concurrent callers cannot claim the same
// name.
func Allocate(dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create results directory: %w", err)
	}

	base := "experiment_results_" + now.Format("02-01-06_15_04")
	name := base + ".csv"
	for n := 1; ; n++ {
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()
			return path, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("allocate results file: %w", err)
		}
		name = fmt.Sprintf("%s (%d).csv", base, n)
	}
}
