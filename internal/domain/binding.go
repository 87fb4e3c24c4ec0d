package domain

import "sort"

// BindingSet maps placeholder names to their values (filesystem paths or
// scalar flags). Templates are resolved against a BindingSet; every
// placeholder a template references must have a binding before resolution.
type BindingSet map[string]string

// Missing returns the subset of names that have no non-empty binding,
// sorted for stable error messages.
func (b BindingSet) Missing(names []string) []string {
	var missing []string
	for _, name := range names {
		if b[name] == "" {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Clone returns a copy of the binding set. Resolution never mutates the
// caller's bindings.
func (b BindingSet) Clone() BindingSet {
	out := make(BindingSet, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
