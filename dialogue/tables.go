package dialogue

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/milk9111/ebiten-yarn/assets"
)

// LineInfo is one row of a compiled program's string table.
type LineInfo struct {
	ID         string `csv:"id"`
	Text       string `csv:"text"`
	File       string `csv:"file"`
	Node       string `csv:"node"`
	LineNumber int    `csv:"lineNumber"`
}

// StringTable maps line ids to their text.
type StringTable struct {
	Lines map[string]LineInfo
}

// ParseStringTable reads a header CSV. Any malformed row fails the whole
// table.
func ParseStringTable(data []byte) (*StringTable, error) {
	var rows []LineInfo
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, err
	}
	t := &StringTable{Lines: make(map[string]LineInfo, len(rows))}
	for i, row := range rows {
		if row.ID == "" {
			return nil, fmt.Errorf("row %d: empty id", i+2)
		}
		t.Lines[row.ID] = row
	}
	return t, nil
}

// Lookup returns the raw text for id.
func (t *StringTable) Lookup(id string) (string, bool) {
	if t == nil {
		return "", false
	}
	info, ok := t.Lines[id]
	return info.Text, ok
}

type StringTableLoader struct{}

func (StringTableLoader) Extensions() []string {
	return []string{linesExt}
}

func (StringTableLoader) Load(_ context.Context, lc *assets.LoadContext, data []byte) (any, error) {
	t, err := ParseStringTable(data)
	if err != nil {
		return nil, fmt.Errorf("dialogue: string table %s: %w", lc.Path(), err)
	}
	return t, nil
}

// MetadataInfo is one row of a compiled program's metadata table.
type MetadataInfo struct {
	ID         string
	Node       string
	LineNumber int
	Tags       []string
}

// MetadataTable maps line ids to their tags.
type MetadataTable struct {
	Lines map[string]MetadataInfo
}

var errMetadataHeader = errors.New("metadata header must start with id,node,lineNumber")

// ParseMetadataTable reads the metadata CSV. Rows are variable width: every
// column after lineNumber holds tags, and a single column may hold several
// whitespace-separated tags.
func ParseMetadataTable(data []byte) (*MetadataTable, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return &MetadataTable{Lines: map[string]MetadataInfo{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(header) < 3 || header[0] != "id" || header[1] != "node" || header[2] != "lineNumber" {
		return nil, errMetadataHeader
	}

	t := &MetadataTable{Lines: map[string]MetadataInfo{}}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row, _ := r.FieldPos(0)
		if len(rec) < 3 {
			return nil, fmt.Errorf("row %d: expected at least 3 columns, got %d", row, len(rec))
		}
		if rec[0] == "" {
			return nil, fmt.Errorf("row %d: empty id", row)
		}
		n, err := strconv.Atoi(strings.TrimSpace(rec[2]))
		if err != nil {
			return nil, fmt.Errorf("row %d: lineNumber: %w", row, err)
		}
		info := MetadataInfo{ID: rec[0], Node: rec[1], LineNumber: n}
		for _, col := range rec[3:] {
			info.Tags = append(info.Tags, strings.Fields(col)...)
		}
		t.Lines[info.ID] = info
	}
	return t, nil
}

// Tags returns the tags recorded for id, or nil.
func (t *MetadataTable) Tags(id string) []string {
	if t == nil {
		return nil
	}
	info, ok := t.Lines[id]
	if !ok || len(info.Tags) == 0 {
		return nil
	}
	return append([]string(nil), info.Tags...)
}

type MetadataTableLoader struct{}

func (MetadataTableLoader) Extensions() []string {
	return []string{metadataExt}
}

func (MetadataTableLoader) Load(_ context.Context, lc *assets.LoadContext, data []byte) (any, error) {
	t, err := ParseMetadataTable(data)
	if err != nil {
		return nil, fmt.Errorf("dialogue: metadata table %s: %w", lc.Path(), err)
	}
	return t, nil
}
