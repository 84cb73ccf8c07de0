// Package export writes journaled runs as xz-compressed JSON lines.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/cognicore/kleisli/pkg/kleisli/store"
)

// Record is the exported form of a run.
type Record struct {
	ID        string    `json:"id"`
	Digest    string    `json:"digest"`
	Input     string    `json:"input"`
	Tokens    []string  `json:"tokens"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

func toRecord(r store.Run) Record {
	tokens := r.Tokens
	if tokens == nil {
		tokens = []string{}
	}
	return Record{
		ID:        r.ID,
		Digest:    r.Digest,
		Input:     r.Input,
		Tokens:    tokens,
		Note:      r.Note,
		CreatedAt: r.CreatedAt,
	}
}

func (rec Record) run() store.Run {
	return store.Run{
		ID:        rec.ID,
		Digest:    rec.Digest,
		Input:     rec.Input,
		Tokens:    rec.Tokens,
		Note:      rec.Note,
		CreatedAt: rec.CreatedAt,
	}
}

// WriteXZ writes runs to w as xz-compressed JSON lines.
func WriteXZ(w io.Writer, runs []store.Run) error {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create xz writer: %w", err)
	}

	enc := json.NewEncoder(xw)
	enc.SetEscapeHTML(false)
	for _, r := range runs {
		if err := enc.Encode(toRecord(r)); err != nil {
			xw.Close()
			return fmt.Errorf("encode run %s: %w", r.ID, err)
		}
	}

	if err := xw.Close(); err != nil {
		return fmt.Errorf("close xz writer: %w", err)
	}
	return nil
}

// ReadXZ reads runs written by WriteXZ.
func ReadXZ(r io.Reader) ([]store.Run, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create xz reader: %w", err)
	}

	var runs []store.Run
	scanner := bufio.NewScanner(xr)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		runs = append(runs, rec.run())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return runs, nil
}

// WriteFile writes runs to path, replacing any existing file.
func WriteFile(path string, runs []store.Run) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteXZ(f, runs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
