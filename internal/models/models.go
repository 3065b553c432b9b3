package models

import "time"

// Model is implemented by every persisted entity.
type Model interface {
	ID() string
	Sequence() int
	CreatedAt() time.Time
	UpdatedAt() time.Time
	DeletedAt() *time.Time // nil unless soft deleted
	Validate() error
}

// Repository is the data access contract for one [Model] type.
//
// Delete is a soft delete. List criteria keys are defined by each implementation
// and soft-deleted rows are never returned.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}

var _ Model = (*ActionRecord)(nil)
