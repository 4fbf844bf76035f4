package style

import "github.com/inamate/infomap/internal/document"

// Resolve looks p up in the bound style, then the item's own config, then
// the defaults. It is recomputed on every call.
func Resolve(t Target, s *document.StyleConfig, d document.Defaults, p Property) any {
	if v, ok := StyleValue(s, p); ok {
		return v
	}
	if v, ok := t.Get(p); ok {
		return v
	}
	return DefaultValue(d, p)
}

// ResolveAll resolves the whole property set of the target's kind.
func ResolveAll(t Target, s *document.StyleConfig, d document.Defaults) Values {
	out := make(Values, len(t.Kind().Properties()))
	for _, p := range t.Kind().Properties() {
		out[p] = Resolve(t, s, d, p)
	}
	return out
}

// Binding is the per-item record of which values a style wrote, used to
// undo them on detach without clobbering later manual edits.
type Binding struct {
	applied Values
}

// Applied returns a copy of the shadow map.
func (b *Binding) Applied() Values {
	out := make(Values, len(b.applied))
	for k, v := range b.applied {
		out[k] = v
	}
	return out
}

// Apply binds s to t. Properties the style defines are copied into the
// config; the rest are reset to defaults so nothing from a previous style
// lingers. A nil style detaches.
func (b *Binding) Apply(t Target, s *document.StyleConfig, d document.Defaults) {
	if s == nil {
		b.Detach(t, d)
		return
	}
	b.applied = make(Values)
	for _, p := range t.Kind().Properties() {
		if v, ok := StyleValue(s, p); ok {
			t.Set(p, v)
			b.applied[p] = v
			continue
		}
		t.Set(p, DefaultValue(d, p))
	}
	t.SetStyleRef(s.Name)
}

// Detach reverts every value the style set, unless it was edited since,
// and drops the style reference.
func (b *Binding) Detach(t Target, d document.Defaults) {
	for p, v := range b.applied {
		if cur, ok := t.Get(p); ok && cur == v {
			t.Set(p, DefaultValue(d, p))
		}
	}
	b.applied = nil
	t.SetStyleRef("")
}

// Restore rebuilds the shadow map for a config loaded from disk that already
// references s: every style-defined value the config still carries counts
// as applied.
func (b *Binding) Restore(t Target, s *document.StyleConfig) {
	b.applied = nil
	if s == nil {
		return
	}
	b.applied = make(Values)
	for _, p := range t.Kind().Properties() {
		sv, ok := StyleValue(s, p)
		if !ok {
			continue
		}
		if cur, ok := t.Get(p); ok && cur == sv {
			b.applied[p] = sv
		}
	}
}
