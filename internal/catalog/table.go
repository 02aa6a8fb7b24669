package catalog

type entry[T ~string] struct {
	code  T
	label string
}

// table is an ordered, fixed lookup of wire codes and their Hungarian labels.
type table[T ~string] []entry[T]

func (t table[T]) codes() []T {
	out := make([]T, len(t))
	for i, e := range t {
		out[i] = e.code
	}
	return out
}

func (t table[T]) label(code T) string {
	for _, e := range t {
		if e.code == code {
			return e.label
		}
	}
	return ""
}

func (t table[T]) has(code T) bool {
	for _, e := range t {
		if e.code == code {
			return true
		}
	}
	return false
}

// Entry is the JSON shape used when listing a lookup table.
type Entry struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

func (t table[T]) entries() []Entry {
	out := make([]Entry, len(t))
	for i, e := range t {
		out[i] = Entry{Code: string(e.code), Label: e.label}
	}
	return out
}
