package service

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/taskforge-app/taskforge-backend/internal/tracker/domain"
)

// ProjectStore is the persistence surface for projects.
type ProjectStore interface {
	Create(ctx context.Context, key, name string) (*domain.Project, error)
	FindByID(ctx context.Context, id string) (*domain.Project, error)
	Exists(ctx context.Context, id string) (bool, error)
}

var projectKeyPattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// ProjectService creates and resolves projects. Creation seeds the
// default state definitions for every item type in one transaction,
// so a fresh project always satisfies the initial-state invariant.
type ProjectService struct {
	projects ProjectStore
}

func NewProjectService(projects ProjectStore) *ProjectService {
	return &ProjectService{projects: projects}
}

// Create validates the key and creates the project with its seeded
// states. The key is the allocator namespace and never changes.
func (s *ProjectService) Create(ctx context.Context, key, name string) (*domain.Project, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if !projectKeyPattern.MatchString(key) {
		return nil, domain.Invalid("key", "must be uppercase alphanumeric")
	}
	if strings.TrimSpace(name) == "" {
		return nil, domain.Invalid("name", "must not be empty")
	}

	p, err := s.projects.Create(ctx, key, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	log.Printf("[tracker] project created key=%s id=%s", p.Key, p.ID)
	return p, nil
}

// Get returns the project or domain.ErrNotFound.
func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	return s.projects.FindByID(ctx, id)
}
