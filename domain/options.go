package domain

// WithFindProjection specifies which fields to include or exclude from query
// results.
func WithFindProjection(p M) FindOption {
	return func(fo *FindOptions) {
		fo.Projection = p
	}
}

// WithFindPopulate sets the references to resolve on the results.
func WithFindPopulate(p ...Population) FindOption {
	return func(fo *FindOptions) {
		fo.Populate = p
	}
}

// WithFindSkip sets the number of documents to skip in query results.
func WithFindSkip(s int64) FindOption {
	return func(fo *FindOptions) {
		fo.Skip = s
	}
}

// WithFindLimit sets the maximum number of documents to return.
func WithFindLimit(l int64) FindOption {
	return func(fo *FindOptions) {
		fo.Limit = l
	}
}

// WithFindSort specifies the sort order for query results.
func WithFindSort(s D) FindOption {
	return func(fo *FindOptions) {
		fo.Sort = s
	}
}

// FindOption configures query behavior through the functional options pattern.
type FindOption func(*FindOptions)

// FindOptions contains parameters for customizing query execution.
type FindOptions struct {
	// Projection specifies which fields to include or exclude from results.
	Projection M
	// Populate lists references to resolve on the results.
	Populate []Population
	// Skip specifies the number of documents to skip.
	Skip int64
	// Limit specifies the maximum number of documents to return. Zero means
	// no limit.
	Limit int64
	// Sort specifies the sort order for results.
	Sort D
}

// WithPaginateProjection specifies which fields to include or exclude from
// the page documents.
func WithPaginateProjection(p M) PaginateOption {
	return func(po *PaginateOptions) {
		po.Projection = p
	}
}

// WithPaginatePopulate sets the references to resolve on the page documents.
func WithPaginatePopulate(p ...Population) PaginateOption {
	return func(po *PaginateOptions) {
		po.Populate = p
	}
}

// WithPaginateOffset sets the number of documents skipped before the page
// starts.
func WithPaginateOffset(o int64) PaginateOption {
	return func(po *PaginateOptions) {
		po.Offset = o
	}
}

// WithPaginateLimit sets the page size.
func WithPaginateLimit(l int64) PaginateOption {
	return func(po *PaginateOptions) {
		po.Limit = l
	}
}

// WithPaginateSort specifies the sort order of the paginated documents.
func WithPaginateSort(s D) PaginateOption {
	return func(po *PaginateOptions) {
		po.Sort = s
	}
}

// WithPagination enables or disables pagination. When disabled, every
// matching document is returned in a single page.
func WithPagination(p bool) PaginateOption {
	return func(po *PaginateOptions) {
		po.Pagination = p
	}
}

// PaginateOption configures paginated reads through the functional options
// pattern.
type PaginateOption func(*PaginateOptions)

// PaginateOptions contains parameters for customizing paginated reads.
type PaginateOptions struct {
	Projection M
	Populate   []Population
	Offset     int64
	Limit      int64
	Sort       D
	// Pagination disables offset and limit when false.
	Pagination bool
}

// WithUpdateArrayFilters sets the filters that select which array elements
// an update touches.
func WithUpdateArrayFilters(f ...any) UpdateOption {
	return func(uo *UpdateOptions) {
		uo.ArrayFilters = f
	}
}

// WithUpsert enables inserting a document if no matches are found.
func WithUpsert(u bool) UpdateOption {
	return func(uo *UpdateOptions) {
		uo.Upsert = u
	}
}

// UpdateOption configures update behavior through the functional options
// pattern.
type UpdateOption func(*UpdateOptions)

// UpdateOptions contains parameters for customizing update operations. The
// mapstructure tags match the names used with AddUpdateFilter.
type UpdateOptions struct {
	// ArrayFilters select the array elements targeted by $[identifier]
	// paths.
	ArrayFilters []any `mapstructure:"arrayFilters"`
	// Upsert enables inserting a document if no matches are found.
	Upsert bool `mapstructure:"upsert"`
}

// WithPushEach makes $push append every element of the given value, which
// must then be a list, instead of appending the value itself.
func WithPushEach(e bool) PushOption {
	return func(po *PushOptions) {
		po.Each = e
	}
}

// WithPushSort re-sorts the array after the elements are pushed.
func WithPushSort(s D) PushOption {
	return func(po *PushOptions) {
		po.Sort = s
	}
}

// PushOption configures $push fragments through the functional options
// pattern.
type PushOption func(*PushOptions)

// PushOptions contains parameters for customizing $push fragments.
type PushOptions struct {
	Each bool
	Sort D
}
