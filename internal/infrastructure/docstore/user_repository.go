package docstore

import (
	"context"
	"errors"

	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
)

// UserRepository implementa repository.UserRepository sobre la colección users.
type UserRepository struct {
	q Querier
}

// NewUserRepository construye el repositorio.
func NewUserRepository(q Querier) *UserRepository {
	return &UserRepository{q: q}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func userFields(u *entity.User) repository.Fields {
	return repository.Fields{
		"username":     u.Username,
		"email":        u.Email,
		"passwordHash": u.PasswordHash,
		"name":         u.Name,
		"role":         u.Role,
		"branchId":     u.BranchID,
		"status":       u.Status,
		"createdAt":    u.CreatedAt.UTC(),
		"updatedAt":    u.UpdatedAt.UTC(),
	}
}

func userFromDoc(doc repository.Document) *entity.User {
	f := doc.Fields
	return &entity.User{
		ID:           doc.ID,
		Username:     str(f, "username"),
		Email:        str(f, "email"),
		PasswordHash: str(f, "passwordHash"),
		Name:         str(f, "name"),
		Role:         str(f, "role"),
		BranchID:     str(f, "branchId"),
		Status:       str(f, "status"),
		CreatedAt:    timeOf(f, "createdAt"),
		UpdatedAt:    timeOf(f, "updatedAt"),
	}
}

// Create inserta el usuario. Con ID explícito (uid de Firebase) se usa ese ID.
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.ID != "" {
		return r.q.Set(ctx, repository.CollectionUsers, u.ID, userFields(u))
	}
	id, err := r.q.Create(ctx, repository.CollectionUsers, userFields(u))
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// GetByID retorna (nil, nil) si no existe.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.q.Get(ctx, repository.CollectionUsers, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return userFromDoc(doc), nil
}

// GetByUsername retorna (nil, nil) si no existe.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	docs, err := r.q.Query(ctx, repository.CollectionUsers, repository.Eq("username", username))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return userFromDoc(docs[0]), nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	return r.q.Update(ctx, repository.CollectionUsers, u.ID, userFields(u))
}
