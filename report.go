package bindgen

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/broady/bindgen/ir"
)

// Status is the outcome of binding one declaration.
type Status string

const (
	StatusSupported   Status = "supported"
	StatusUnsupported Status = "unsupported"
	StatusSkipped     Status = "skipped"
)

// ReportEntry is one declaration in a Report.
type ReportEntry struct {
	Name   string
	Kind   ir.DeclKind
	Status Status
	Source ir.Source
}

// TypeUse counts the declarations using one unsupported type.
type TypeUse struct {
	Spelling string
	Decls    []string
}

// InvalidMacro is a macro that produced no binding.
type InvalidMacro struct {
	Name   string
	Code   ir.ErrorCode
	Reason string
}

// Report summarizes which declarations of a module can be bound.
type Report struct {
	Module   string
	Language ir.Language

	// Entries lists every declaration in module order.
	Entries []ReportEntry

	// UnsupportedTypes is sorted by spelling.
	UnsupportedTypes []TypeUse

	InvalidMacros []InvalidMacro
}

// Check generates the bindings in memory and reports what was bound.
func (g *Generator) Check(ctx context.Context) (*Report, error) {
	res, err := g.Generate(ctx)
	if err != nil {
		return nil, err
	}
	return NewReport(res), nil
}

// NewReport builds a report from a generation result.
func NewReport(res *Result) *Report {
	r := &Report{
		Module:   res.Module.Name,
		Language: res.Module.Language,
	}
	for i, st := range res.Declarations {
		e := ReportEntry{Name: st.Name, Kind: st.Kind, Status: StatusSupported}
		if i < len(res.Module.Decls) {
			e.Source = res.Module.Decls[i].Src()
		}
		switch {
		case st.Skipped:
			e.Status = StatusSkipped
		case !st.Supported:
			e.Status = StatusUnsupported
		}
		r.Entries = append(r.Entries, e)
	}

	types := treemap.NewWithStringComparator()
	for _, w := range res.Warnings {
		switch w.Code {
		case ir.CodeUnsupportedType:
			if w.Type == "" {
				continue
			}
			var decls []string
			if v, ok := types.Get(w.Type); ok {
				decls = v.([]string)
			}
			if len(decls) == 0 || decls[len(decls)-1] != w.Decl {
				decls = append(decls, w.Decl)
			}
			types.Put(w.Type, decls)
		case ir.CodeInvalidMacro, ir.CodeMacroCycle:
			r.InvalidMacros = append(r.InvalidMacros, InvalidMacro{Name: w.Decl, Code: w.Code, Reason: w.Message})
		}
	}
	it := types.Iterator()
	for it.Next() {
		r.UnsupportedTypes = append(r.UnsupportedTypes, TypeUse{
			Spelling: it.Key().(string),
			Decls:    it.Value().([]string),
		})
	}
	return r
}

// Count returns the number of entries with the given status.
func (r *Report) Count(s Status) int {
	n := 0
	for _, e := range r.Entries {
		if e.Status == s {
			n++
		}
	}
	return n
}

// WriteTable prints the report as aligned columns.
func (r *Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "DECLARATION\tKIND\tSTATUS\tSOURCE\n")
	for _, e := range r.Entries {
		src := ""
		if !e.Source.IsZero() {
			src = fmt.Sprintf("%s:%d", e.Source.File, e.Source.Line)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Name, e.Kind, e.Status, src)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.UnsupportedTypes) > 0 {
		fmt.Fprintf(w, "\nUnsupported types:\n")
		for _, t := range r.UnsupportedTypes {
			fmt.Fprintf(w, "  %s (%d declarations)\n", t.Spelling, len(t.Decls))
		}
	}
	if len(r.InvalidMacros) > 0 {
		fmt.Fprintf(w, "\nSkipped macros:\n")
		for _, m := range r.InvalidMacros {
			fmt.Fprintf(w, "  %s: %s\n", m.Name, m.Reason)
		}
	}
	_, err := fmt.Fprintf(w, "\n%d supported, %d unsupported, %d skipped\n",
		r.Count(StatusSupported), r.Count(StatusUnsupported), r.Count(StatusSkipped))
	return err
}
