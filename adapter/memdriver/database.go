// Package memdriver implements [domain.Collection] over documents kept in
// memory. It follows the server semantics for the supported query and update
// operators, so builders can be used without a running database.
package memdriver

import (
	"context"
	"io"
	"slices"
	"sync"

	"github.com/vinicius-lino-figueiredo/gequery/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/idgenerator"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/persistence"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/storage"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/timegetter"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// Database is a set of named in-memory collections. It is safe for
// concurrent use.
type Database struct {
	mu                    sync.RWMutex
	collections           map[string]*Collection
	comparer              domain.Comparer
	timeGetter            domain.TimeGetter
	idGenerator           domain.IDGenerator
	logger                domain.Logger
	corruptAlertThreshold float64
	persistence           *persistence.Persistence
	storage               *storage.Storage
}

// NewDatabase returns an empty Database.
func NewDatabase(options ...Option) *Database {
	d := &Database{
		collections:           make(map[string]*Collection),
		comparer:              comparer.NewComparer(),
		timeGetter:            timegetter.NewTimeGetter(),
		corruptAlertThreshold: persistence.DefaultCorruptAlertThreshold,
	}
	for _, opt := range options {
		opt(d)
	}
	if d.idGenerator == nil {
		d.idGenerator = idgenerator.NewIDGenerator(idgenerator.WithTimeGetter(d.timeGetter))
	}
	d.persistence = persistence.NewPersistence(
		persistence.WithCorruptAlertThreshold(d.corruptAlertThreshold),
	)
	if d.storage == nil {
		d.storage = storage.NewStorage()
	}
	return d
}

// Collection returns the named collection, creating it if needed. Options are
// only applied when the collection is created.
func (d *Database) Collection(name string, options ...CollectionOption) *Collection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.collection(name, options...)
}

func (d *Database) collection(name string, options ...CollectionOption) *Collection {
	if c, ok := d.collections[name]; ok {
		return c
	}
	c := newCollection(d, name, options...)
	d.collections[name] = c
	return c
}

// CollectionNames returns the names of the existing collections, sorted.
func (d *Database) CollectionNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.collections))
	for name := range d.collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Drop removes the named collection and its documents. It reports whether
// the collection existed.
func (d *Database) Drop(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.collections[name]
	delete(d.collections, name)
	return ok
}

// Dump writes every document to w, one relaxed extended JSON line per
// document, grouped by collection.
func (d *Database) Dump(ctx context.Context, w io.Writer) error {
	var records []persistence.Record
	for _, name := range d.CollectionNames() {
		d.mu.RLock()
		c, ok := d.collections[name]
		d.mu.RUnlock()
		if !ok {
			continue
		}
		for _, doc := range c.snapshot() {
			records = append(records, persistence.Record{Collection: name, Document: doc})
		}
	}
	return d.persistence.Write(ctx, w, records)
}

// Load reads documents written by [Database.Dump]. The documents of every
// collection found in r replace the ones it held, other collections are left
// untouched. When an _id appears more than once, the last document wins.
func (d *Database) Load(ctx context.Context, r io.Reader) error {
	records, err := d.persistence.Read(ctx, r)
	if err != nil {
		return err
	}

	loaded := make(map[string][]domain.M)
	var order []string
	for _, rec := range records {
		if _, ok := loaded[rec.Collection]; !ok {
			order = append(order, rec.Collection)
		}
		loaded[rec.Collection] = append(loaded[rec.Collection], rec.Document)
	}

	for _, name := range order {
		c := d.Collection(name)
		docs, err := c.deduplicate(loaded[name])
		if err != nil {
			return err
		}
		if err := c.replace(docs); err != nil {
			return err
		}
	}
	return nil
}

// SaveFile writes the [Database.Dump] of every collection to filename. The
// previous file is only replaced once the new one is fully on disk.
func (d *Database) SaveFile(ctx context.Context, filename string) error {
	return d.storage.WriteFile(filename, func(w io.Writer) error {
		return d.Dump(ctx, w)
	})
}

// LoadFile calls [Database.Load] with the contents of filename. A file that
// does not exist yet is created empty.
func (d *Database) LoadFile(ctx context.Context, filename string) error {
	f, err := d.storage.OpenFile(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return d.Load(ctx, f)
}

// lookup loads the documents of a sibling collection for population. A
// missing collection has no documents.
func (d *Database) lookup(ctx context.Context, model string, ids []any) ([]domain.M, error) {
	d.mu.RLock()
	c, ok := d.collections[model]
	d.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return c.Find(ctx, domain.M{"_id": domain.M{"$in": domain.A(ids)}})
}
