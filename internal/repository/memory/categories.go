package memory

import (
	"context"
	"sort"
	"time"

	"expense-ingest/internal/models"

	"github.com/google/uuid"
)

type Categories struct {
	s *Store
}

func (c *Categories) FindByNameAndOwner(_ context.Context, ownerID int64, name string) (*models.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	id, ok := c.s.byName[categoryKey{ownerID, name}]
	if !ok {
		return nil, nil
	}
	cat := *c.s.categories[id]
	return &cat, nil
}

func (c *Categories) GetByID(_ context.Context, ownerID int64, id uuid.UUID) (*models.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	stored, ok := c.s.categories[id]
	if !ok || stored.OwnerID != ownerID {
		return nil, nil
	}
	cat := *stored
	return &cat, nil
}

func (c *Categories) Create(_ context.Context, cat *models.Category) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if _, ok := c.s.byName[categoryKey{cat.OwnerID, cat.Name}]; ok {
		return ErrDuplicateCategory
	}
	c.insert(cat)
	return nil
}

func (c *Categories) FindOrCreate(_ context.Context, ownerID int64, name string) (*models.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if id, ok := c.s.byName[categoryKey{ownerID, name}]; ok {
		cat := *c.s.categories[id]
		return &cat, nil
	}

	cat := &models.Category{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: time.Now(),
	}
	c.insert(cat)
	out := *cat
	return &out, nil
}

// List returns the owner's categories ordered by name.
func (c *Categories) List(ownerID int64) []*models.Category {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	var out []*models.Category
	for _, stored := range c.s.categories {
		if stored.OwnerID == ownerID {
			cat := *stored
			out = append(out, &cat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *Categories) insert(cat *models.Category) {
	stored := *cat
	c.s.categories[stored.ID] = &stored
	c.s.byName[categoryKey{stored.OwnerID, stored.Name}] = stored.ID
}
