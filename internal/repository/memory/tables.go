package memory

import (
	"github.com/jwalitptl/vetclinic/internal/model"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

type row[T any] interface {
	Meta() *model.Base
	Clone() T
}

func insertRow[T row[T]](s *Store, table map[int64]T, e T) int64 {
	id := s.stamp(e.Meta())
	table[id] = e.Clone()
	return id
}

func getRow[T row[T]](table map[int64]T, id int64, name string) (T, error) {
	e, ok := table[id]
	if !ok {
		var zero T
		return zero, apperrors.NotFound(name, nil)
	}
	return e.Clone(), nil
}

func updateRow[T row[T]](s *Store, table map[int64]T, e T) bool {
	stored, ok := table[e.Meta().ID]
	if !ok || !s.bump(stored.Meta(), e.Meta()) {
		return false
	}
	table[e.Meta().ID] = e.Clone()
	return true
}

func deleteRow[T any](table map[int64]T, id int64) bool {
	if _, ok := table[id]; !ok {
		return false
	}
	delete(table, id)
	return true
}
