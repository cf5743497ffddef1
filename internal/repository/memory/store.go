// Package memory provides in-process category, expense and statement stores.
// They back dry-run imports and tests.
package memory

import (
	"errors"
	"sync"

	"expense-ingest/internal/models"

	"github.com/google/uuid"
)

var ErrDuplicateCategory = errors.New("category already exists for owner")

type categoryKey struct {
	ownerID int64
	name    string
}

// Store keeps all data behind one mutex; every view below locks it, which
// makes find-or-create atomic.
type Store struct {
	mu         sync.Mutex
	categories map[uuid.UUID]*models.Category
	byName     map[categoryKey]uuid.UUID
	expenses   []*models.Expense
	statements []*models.Statement
}

func NewStore() *Store {
	return &Store{
		categories: make(map[uuid.UUID]*models.Category),
		byName:     make(map[categoryKey]uuid.UUID),
	}
}

func (s *Store) Categories() *Categories { return &Categories{s: s} }
func (s *Store) Expenses() *Expenses     { return &Expenses{s: s} }
func (s *Store) Statements() *Statements { return &Statements{s: s} }
