// Package index contains the unique _id index of in-memory collections.
package index

import (
	"errors"

	"github.com/vinicius-lino-figueiredo/bst"
	"github.com/vinicius-lino-figueiredo/bst/adapter/avl"

	"github.com/vinicius-lino-figueiredo/gequery/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

const idField = "_id"

// Index maps _id values to the documents holding them. It is not safe for
// concurrent use.
type Index struct {
	collection string
	comparer   domain.Comparer
	// Exported to allow testing.
	Tree        bst.BST[any, domain.M]
	bstComparer bst.Comparer[any, domain.M]
}

// NewIndex returns an empty Index.
func NewIndex(options ...Option) *Index {
	i := &Index{comparer: comparer.NewComparer()}
	for _, opt := range options {
		opt(i)
	}
	i.bstComparer = NewBSTComparer(i.comparer)
	i.Tree = avl.NewBST(true, 8, i.bstComparer)
	return i
}

// Reset replaces the indexed documents with docs.
func (i *Index) Reset(docs ...domain.M) error {
	i.Tree = avl.NewBST(true, 8, i.bstComparer)
	return i.Insert(docs...)
}

// Insert indexes docs. If any of them cannot be indexed, none is.
func (i *Index) Insert(docs ...domain.M) error {
	inserted := make([]domain.M, 0, len(docs))
	var err error
	for _, d := range docs {
		if err = i.Tree.Insert(d[idField], d); err != nil {
			if e := new(bst.ErrUniqueViolated); errors.As(err, e) {
				err = domain.ErrDuplicateKey{Collection: i.collection, ID: d[idField]}
			}
			break
		}
		inserted = append(inserted, d)
	}
	if err != nil {
		if rbErr := i.Remove(inserted...); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return nil
}

// Remove stops indexing docs.
func (i *Index) Remove(docs ...domain.M) error {
	errs := make([]error, 0, len(docs))
	for _, d := range docs {
		if err := i.Tree.Delete(d[idField], &d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Update replaces the indexed version of a document. Both versions must have
// the same _id.
func (i *Index) Update(prev, next domain.M) error {
	if err := i.Remove(prev); err != nil {
		return err
	}
	if err := i.Insert(next); err != nil {
		return errors.Join(err, i.Insert(prev))
	}
	return nil
}

// Get returns the document indexed under id.
func (i *Index) Get(id any) (domain.M, bool, error) {
	found, err := i.Tree.Search(id)
	if err != nil {
		return nil, false, err
	}
	if found == nil || len(found.Values()) == 0 {
		return nil, false, nil
	}
	return found.Values()[0], true, nil
}
