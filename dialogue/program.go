package dialogue

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/DrJosh9000/yarn/bytecode"
	"google.golang.org/protobuf/proto"

	"github.com/milk9111/ebiten-yarn/assets"
)

const (
	ProgramExt       = "yarnc"
	LinesKind        = "lines"
	MetadataKind     = "metadata"
	linesExt         = LinesKind + ".csv"
	metadataExt      = MetadataKind + ".csv"
	DefaultStartNode = "Start"
)

// Program is a compiled yarn program plus handles to its companion tables.
type Program struct {
	Program       *bytecode.Program
	StringTable   assets.Handle[*StringTable]
	MetadataTable assets.Handle[*MetadataTable]
}

// TablePath returns the companion table path for a compiled program:
// dir/story.yarnc -> dir/story.<kind>.csv.
func TablePath(programPath, kind string) string {
	p := assets.CleanPath(programPath)
	dir, file := path.Split(p)
	stem := strings.TrimSuffix(file, path.Ext(file))
	return dir + stem + "." + kind + ".csv"
}

// ProgramLoader decodes .yarnc files and pulls in the sibling string and
// metadata tables as dependencies.
type ProgramLoader struct{}

func (ProgramLoader) Extensions() []string {
	return []string{ProgramExt}
}

func (ProgramLoader) Load(_ context.Context, lc *assets.LoadContext, data []byte) (any, error) {
	prog := &bytecode.Program{}
	if err := proto.Unmarshal(data, prog); err != nil {
		return nil, fmt.Errorf("dialogue: decode %s: %w", lc.Path(), err)
	}

	lines := TablePath(lc.Path(), LinesKind)
	metadata := TablePath(lc.Path(), MetadataKind)
	lc.Dependency(lines)
	lc.Dependency(metadata)

	return &Program{
		Program:       prog,
		StringTable:   assets.NewHandle[*StringTable](lines),
		MetadataTable: assets.NewHandle[*MetadataTable](metadata),
	}, nil
}
