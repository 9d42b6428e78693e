package patch

import (
	"fmt"
	"sort"
)

// Patch is a set of column updates for one row. It replaces ad hoc
// map[string]interface{} building so the allowed columns are explicit.
type Patch struct {
	fields map[string]any
}

func New() *Patch {
	return &Patch{fields: map[string]any{}}
}

func (p *Patch) Set(column string, value any) *Patch {
	p.fields[column] = value
	return p
}

// SetIf sets column only when v is non nil.
func SetIf[T any](p *Patch, column string, v *T) *Patch {
	if v != nil {
		p.fields[column] = *v
	}
	return p
}

func (p *Patch) Empty() bool { return len(p.fields) == 0 }

func (p *Patch) Has(column string) bool {
	_, ok := p.fields[column]
	return ok
}

func (p *Patch) Get(column string) (any, bool) {
	v, ok := p.fields[column]
	return v, ok
}

func (p *Patch) Columns() []string {
	cols := make([]string, 0, len(p.fields))
	for c := range p.fields {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Map returns a copy suitable for gorm's Updates.
func (p *Patch) Map() map[string]any {
	out := make(map[string]any, len(p.fields))
	for k, v := range p.fields {
		out[k] = v
	}
	return out
}

// Restrict fails when the patch touches a column outside allowed.
func (p *Patch) Restrict(allowed ...string) error {
	ok := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		ok[a] = struct{}{}
	}
	for _, c := range p.Columns() {
		if _, found := ok[c]; !found {
			return fmt.Errorf("column %q cannot be updated", c)
		}
	}
	return nil
}
