package tenant

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
	"gorm.io/gorm"
)

var ErrUnknownBusiness = errors.New("business not found")

// Registry caches businesses by slug. Tenants are created rarely and read on
// every scoped request.
type Registry struct {
	mu         sync.RWMutex
	businesses map[string]*models.Business
}

func NewRegistry() *Registry {
	return &Registry{
		businesses: make(map[string]*models.Business),
	}
}

// Load fills a new registry with every business in db.
func Load(db *gorm.DB) (*Registry, error) {
	var rows []models.Business
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load businesses: %w", err)
	}

	registry := NewRegistry()
	for i := range rows {
		registry.Register(&rows[i])
	}
	return registry, nil
}

func (r *Registry) Register(b *models.Business) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.businesses[b.Slug] = b
}

func (r *Registry) Get(slug string) *models.Business {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.businesses[slug]
}

func (r *Registry) Exists(slug string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.businesses[slug]
	return ok
}

// All returns the cached businesses ordered by id.
func (r *Registry) All() []*models.Business {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*models.Business, 0, len(r.businesses))
	for _, b := range r.businesses {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Lookup returns the business for slug, falling back to db on a cache miss.
func (r *Registry) Lookup(db *gorm.DB, slug string) (*models.Business, error) {
	if b := r.Get(slug); b != nil {
		return b, nil
	}

	var b models.Business
	if err := db.Where("slug = ?", slug).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownBusiness
		}
		return nil, fmt.Errorf("failed to load business %q: %w", slug, err)
	}
	r.Register(&b)
	return &b, nil
}
