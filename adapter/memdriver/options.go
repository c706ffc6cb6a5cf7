package memdriver

import (
	"github.com/vinicius-lino-figueiredo/gequery/adapter/population"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/storage"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// Option configures a [Database].
type Option func(*Database)

// WithComparer sets the comparer used to match, sort and detect changes.
func WithComparer(c domain.Comparer) Option {
	return func(d *Database) {
		if c != nil {
			d.comparer = c
		}
	}
}

// WithTimeGetter sets the clock used by $currentDate.
func WithTimeGetter(t domain.TimeGetter) Option {
	return func(d *Database) {
		if t != nil {
			d.timeGetter = t
		}
	}
}

// WithIDGenerator sets the generator of _id values for documents created
// without one.
func WithIDGenerator(g domain.IDGenerator) Option {
	return func(d *Database) {
		if g != nil {
			d.idGenerator = g
		}
	}
}

// WithLogger sets the logger used by every collection of the database.
func WithLogger(l domain.Logger) Option {
	return func(d *Database) {
		d.logger = l
	}
}

// WithCorruptAlertThreshold sets the rate of unreadable lines tolerated by
// [Database.Load].
func WithCorruptAlertThreshold(t float64) Option {
	return func(d *Database) {
		d.corruptAlertThreshold = t
	}
}

// WithStorage sets the storage used by [Database.SaveFile] and
// [Database.LoadFile].
func WithStorage(s *storage.Storage) Option {
	return func(d *Database) {
		d.storage = s
	}
}

// CollectionOption configures a [Collection] when it is created.
type CollectionOption func(*Collection)

// WithReference registers the collection referenced by path, used to populate
// it when the population does not name a model.
func WithReference(path, collection string) CollectionOption {
	return func(c *Collection) {
		c.references = append(c.references, population.WithReference(path, collection))
	}
}
