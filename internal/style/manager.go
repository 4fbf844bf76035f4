package style

import (
	"errors"
	"slices"
	"strings"

	"github.com/inamate/infomap/internal/document"
)

var (
	ErrEmptyName     = errors.New("style name is empty")
	ErrStyleExists   = errors.New("style already exists")
	ErrStyleNotFound = errors.New("style not found")
)

// Labels shown by style pickers for unnamed property combinations.
const (
	LabelDefault = "Default"
	LabelCustom  = "Custom"
)

// Manager edits the style collections of one project.
type Manager struct {
	doc *document.Project
}

func NewManager(doc *document.Project) *Manager {
	return &Manager{doc: doc}
}

func (m *Manager) list(k Kind) *[]document.StyleConfig {
	if k == Line {
		return &m.doc.LineStyles
	}
	return &m.doc.TextStyles
}

// Styles returns the collection for k in list order.
func (m *Manager) Styles(k Kind) []document.StyleConfig {
	return *m.list(k)
}

// Lookup finds a style by name; nil when absent.
func (m *Manager) Lookup(k Kind, name string) *document.StyleConfig {
	list := *m.list(k)
	for i := range list {
		if list[i].Name == name {
			return &list[i]
		}
	}
	return nil
}

// Save stores values under name. An existing style is only replaced when
// overwrite is set; it is then mutated in place so its identity and list
// position survive. replaced reports whether an existing style was updated.
func (m *Manager) Save(k Kind, name string, values Values, overwrite bool) (s *document.StyleConfig, replaced bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, ErrEmptyName
	}

	if existing := m.Lookup(k, name); existing != nil {
		if !overwrite {
			return existing, false, ErrStyleExists
		}
		fill(existing, k, values)
		return existing, true, nil
	}

	list := m.list(k)
	*list = append(*list, document.StyleConfig{Name: name})
	s = &(*list)[len(*list)-1]
	fill(s, k, values)
	return s, false, nil
}

func fill(s *document.StyleConfig, k Kind, values Values) {
	for _, p := range k.Properties() {
		SetStyleValue(s, p, values[p])
	}
}

// Delete removes the named style.
func (m *Manager) Delete(k Kind, name string) error {
	list := m.list(k)
	n := len(*list)
	*list = slices.DeleteFunc(*list, func(s document.StyleConfig) bool { return s.Name == name })
	if len(*list) == n {
		return ErrStyleNotFound
	}
	return nil
}

// Match names the property combination in values: LabelDefault when it
// equals the defaults, else the first style (by list order) whose resolved
// values equal it, else LabelCustom.
func Match(k Kind, values Values, d document.Defaults, styles []document.StyleConfig) string {
	equal := func(want func(Property) any) bool {
		for _, p := range k.Properties() {
			if values[p] != want(p) {
				return false
			}
		}
		return true
	}

	if equal(func(p Property) any { return DefaultValue(d, p) }) {
		return LabelDefault
	}
	for i := range styles {
		s := &styles[i]
		if equal(func(p Property) any {
			if v, ok := StyleValue(s, p); ok {
				return v
			}
			return DefaultValue(d, p)
		}) {
			return s.Name
		}
	}
	return LabelCustom
}
