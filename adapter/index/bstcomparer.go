package index

import (
	"github.com/vinicius-lino-figueiredo/bst"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

type bstComparer struct {
	comparer domain.Comparer
}

// NewBSTComparer returns a [bst.Comparer] ordering keys with comparer and
// identifying stored documents by deep equality.
func NewBSTComparer(comparer domain.Comparer) bst.Comparer[any, domain.M] {
	return &bstComparer{
		comparer: comparer,
	}
}

// CompareKeys implements bst.Comparer.
func (bc *bstComparer) CompareKeys(a any, b any) (int, error) {
	return bc.comparer.Compare(a, b)
}

// CompareValues implements bst.Comparer.
func (bc *bstComparer) CompareValues(a domain.M, b domain.M) (bool, error) {
	c, err := bc.comparer.Compare(a, b)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}
