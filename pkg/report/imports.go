package report

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/depchain/pkg/importmodel"
)

// ImportLine is one reference of a file with its classification.
type ImportLine struct {
	importmodel.Import `yaml:",inline"`

	Line    int  `json:"line"              yaml:"line"`
	Dynamic bool `json:"dynamic,omitempty" yaml:"dynamic,omitempty"`
}

// FileImports lists the classified imports of a file in document order.
type FileImports struct {
	Path    string       `json:"path"    yaml:"path"`
	Lang    string       `json:"lang"    yaml:"lang"`
	Imports []ImportLine `json:"imports" yaml:"imports"`
}

// NewFileImports classifies every reference of file.
func NewFileImports(file importmodel.File) *FileImports {
	out := &FileImports{
		Path:    file.Path,
		Lang:    file.Lang,
		Imports: make([]ImportLine, 0, len(file.References)),
	}

	for _, ref := range file.References {
		out.Imports = append(out.Imports, ImportLine{
			Import:  importmodel.Classify(ref.Specifier, ref.TypeOnly),
			Line:    ref.Line,
			Dynamic: ref.Dynamic,
		})
	}

	return out
}

// Write renders the imports in the given format.
func (f *FileImports) Write(w io.Writer, format Format) error {
	return writeAs(w, format, f, f.table)
}

func (f *FileImports) table() string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(f.Path + " (" + f.Lang + ")")
	tbl.AppendHeader(table.Row{"Line", "Kind", "Specifier", "Flags"})

	for _, imp := range f.Imports {
		tbl.AppendRow(table.Row{strconv.Itoa(imp.Line), imp.Kind.String(), imp.FullSpecifier(), flags(imp)})
	}

	return tbl.Render()
}

func flags(imp ImportLine) string {
	switch {
	case imp.TypeOnly && imp.Dynamic:
		return "types only, dynamic"
	case imp.TypeOnly:
		return "types only"
	case imp.Dynamic:
		return "dynamic"
	default:
		return ""
	}
}
