package service

import (
	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/apperr"
	"github.com/tmsiti/backend/internal/hierarchy"
)

// checkParent validates a proposed parent for the existing node id against
// the current node set.
func checkParent[T hierarchy.Node](nodes []T, id int64, parent *int64, kind string) error {
	if parent == nil {
		return nil
	}
	parentOf := hierarchy.ParentLookup(nodes)
	if _, ok := parentOf(*parent); !ok {
		return apperr.Validation("parent " + kind + " not found")
	}
	if hierarchy.WouldCycle(id, parent, parentOf) {
		return apperr.Validation("parent would create a cycle")
	}
	return nil
}

// forest resolves nodes into ordered trees and reports truncated cycles.
func forest[T hierarchy.Node](nodes []T, kind string, log *zap.Logger) []*hierarchy.Tree[T] {
	r := hierarchy.NewResolver(nodes)
	trees := r.Forest()
	if c := r.Cycles(); len(c) > 0 {
		log.Warn("cycle in stored tree", zap.String("tree", kind), zap.Int64s("at", c))
	}
	return trees
}

// subtree resolves the tree rooted at id.
func subtree[T hierarchy.Node](nodes []T, id int64, kind string, log *zap.Logger) (*hierarchy.Tree[T], bool) {
	r := hierarchy.NewResolver(nodes)
	t, ok := r.Subtree(id)
	if c := r.Cycles(); len(c) > 0 {
		log.Warn("cycle in stored tree", zap.String("tree", kind), zap.Int64s("at", c))
	}
	return t, ok
}
