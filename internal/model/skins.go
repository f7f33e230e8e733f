package model

// SkinTable is an append-only list of skin names. Index 0 is always the empty skin.
type SkinTable struct {
	names []string
}

// NewSkinTable returns a table holding only the empty skin.
func NewSkinTable() *SkinTable {
	return &SkinTable{names: []string{""}}
}

// Add returns the index of name, appending it when new.
func (t *SkinTable) Add(name string) int {
	for i, n := range t.names {
		if n == name {
			return i
		}
	}
	t.names = append(t.names, name)
	return len(t.names) - 1
}

// Name returns the skin at idx, or the empty skin for an out-of-range index.
func (t *SkinTable) Name(idx int) string {
	if idx < 0 || idx >= len(t.names) {
		return ""
	}
	return t.names[idx]
}

// Len returns the number of entries including the empty skin.
func (t *SkinTable) Len() int { return len(t.names) }

// Names returns a copy of all entries.
func (t *SkinTable) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Replace installs names as read from a save stream. Index 0 is forced to "".
func (t *SkinTable) Replace(names []string) {
	if len(names) == 0 || names[0] != "" {
		names = append([]string{""}, names...)
	}
	t.names = names
}
