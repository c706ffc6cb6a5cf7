package mongodriver

import (
	"time"

	"github.com/vinicius-lino-figueiredo/gequery/adapter/population"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// DefaultTimeout is used for connection and server selection unless replaced
// by a [ClientOption].
const DefaultTimeout = 10 * time.Second

// ClientOption configures [Connect].
type ClientOption func(*clientConfig)

type clientConfig struct {
	connectTimeout         time.Duration
	serverSelectionTimeout time.Duration
	collection             []Option
}

// WithConnectTimeout sets how long opening a connection may take.
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.connectTimeout = d
	}
}

// WithServerSelectionTimeout sets how long selecting a server may take.
func WithServerSelectionTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.serverSelectionTimeout = d
	}
}

// WithCollectionOptions sets options applied to every collection returned by
// [Database.Collection].
func WithCollectionOptions(options ...Option) ClientOption {
	return func(c *clientConfig) {
		c.collection = append(c.collection, options...)
	}
}

// Option configures a [Collection].
type Option func(*Collection)

// WithReference registers the collection referenced by path, used to populate
// it when the population does not name a model.
func WithReference(path, collection string) Option {
	return func(c *Collection) {
		c.references = append(c.references, population.WithReference(path, collection))
	}
}

// WithLogger sets the logger used for commands sent to the server.
func WithLogger(l domain.Logger) Option {
	return func(c *Collection) {
		c.logger = l
	}
}
