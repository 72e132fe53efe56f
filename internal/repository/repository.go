// Package repository decouples application logic from the storage technology.
// Every method delegates unchanged to the underlying DAO.
package repository

import (
	"context"

	"github.com/hpungsan/wishlist/internal/dao"
	"github.com/hpungsan/wishlist/internal/wish"
)

// Repository is a pass-through façade over a dao.DAO.
type Repository struct {
	dao dao.DAO
}

// New creates a Repository backed by d.
func New(d dao.DAO) *Repository {
	return &Repository{dao: d}
}

// AddWish inserts w.
func (r *Repository) AddWish(ctx context.Context, w wish.Wish) (dao.WriteResult, error) {
	return r.dao.Insert(ctx, w)
}

// Wishes returns the live sequence of all wishes.
func (r *Repository) Wishes(ctx context.Context) <-chan []wish.Wish {
	return r.dao.ListAll(ctx)
}

// WishByID returns the live sequence of a single wish.
func (r *Repository) WishByID(ctx context.Context, id int64) <-chan wish.Wish {
	return r.dao.GetByID(ctx, id)
}

// UpdateWish overwrites the wish matching w.ID.
func (r *Repository) UpdateWish(ctx context.Context, w wish.Wish) (dao.WriteResult, error) {
	return r.dao.Update(ctx, w)
}

// DeleteWish removes the wish matching w.ID.
func (r *Repository) DeleteWish(ctx context.Context, w wish.Wish) (dao.WriteResult, error) {
	return r.dao.Delete(ctx, w)
}
