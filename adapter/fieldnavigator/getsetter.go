package fieldnavigator

import "github.com/vinicius-lino-figueiredo/gequery/domain"

// DocField returns a [domain.GetSetter] over key in doc.
func DocField(doc domain.M, key string) domain.GetSetter {
	return docField{doc: doc, key: key}
}

// ListElement returns a [domain.GetSetter] over position i of list. Positions
// out of range are undefined and cannot be written.
func ListElement(list domain.A, i int) domain.GetSetter {
	return listElement{list: list, i: i}
}

// Constant returns a [domain.GetSetter] that always reads v. Writes are
// ignored.
func Constant(v any) domain.GetSetter {
	return constant{v: v}
}

// Undefined returns a [domain.GetSetter] for a missing value.
func Undefined() domain.GetSetter {
	return constant{undefined: true}
}

type docField struct {
	doc domain.M
	key string
}

func (f docField) Get() (any, bool) {
	v, ok := f.doc[f.key]
	return v, ok
}

func (f docField) Set(v any) { f.doc[f.key] = v }

func (f docField) Unset() { delete(f.doc, f.key) }

type listElement struct {
	list domain.A
	i    int
}

func (e listElement) inRange() bool { return e.i >= 0 && e.i < len(e.list) }

func (e listElement) Get() (any, bool) {
	if !e.inRange() {
		return nil, false
	}
	return e.list[e.i], true
}

func (e listElement) Set(v any) {
	if e.inRange() {
		e.list[e.i] = v
	}
}

// Unset keeps the list length, like the server does.
func (e listElement) Unset() { e.Set(nil) }

type constant struct {
	v         any
	undefined bool
}

func (c constant) Get() (any, bool) { return c.v, !c.undefined }

func (constant) Set(any) {}

func (constant) Unset() {}
