package memory

import (
	"context"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
)

func userOf(o interface{}) *model.User { return o.(*model.User) }

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Privileges = append([]model.Privilege(nil), u.Privileges...)
	if u.Role != nil {
		role := *u.Role
		c.Role = &role
	}
	return &c
}

type userRepo struct {
	unit
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.find("email", email)
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.find("id", id)
}

func (r *userRepo) find(idx string, arg interface{}) (*model.User, error) {
	var user *model.User
	err := r.read(func(txn *memdb.Txn) error {
		raw, err := first(txn, tableUsers, idx, arg)
		if err != nil {
			return err
		}
		if userOf(raw).IsDeleted() {
			return repository.ErrNotFound
		}
		user = cloneUser(userOf(raw))
		return nil
	})
	return user, err
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.write(func(txn *memdb.Txn) error {
		user.Touch(r.now())
		if raw, _ := txn.First(tableUsers, "email", user.Email); raw != nil {
			return repository.ErrConflict
		}
		return txn.Insert(tableUsers, cloneUser(user))
	})
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.write(func(txn *memdb.Txn) error {
		raw, err := first(txn, tableUsers, "id", user.ID)
		if err != nil {
			return err
		}
		if existing := userOf(raw); existing.Email != user.Email {
			if other, _ := txn.First(tableUsers, "email", user.Email); other != nil {
				return repository.ErrConflict
			}
		}
		user.UpdatedAt = r.now()
		return txn.Insert(tableUsers, cloneUser(user))
	})
}

func (r *userRepo) modify(id uuid.UUID, fn func(u *model.User)) error {
	return r.write(func(txn *memdb.Txn) error {
		raw, err := first(txn, tableUsers, "id", id)
		if err != nil {
			return err
		}
		u := cloneUser(userOf(raw))
		fn(u)
		u.UpdatedAt = r.now()
		return txn.Insert(tableUsers, u)
	})
}

func (r *userRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	return r.modify(userID, func(u *model.User) { u.Password = hashedPassword })
}

func (r *userRepo) UpdateTokenVersion(ctx context.Context, userID uuid.UUID, version string) error {
	return r.modify(userID, func(u *model.User) { u.TokenVersion = version })
}

func (r *userRepo) UpdateLastSeen(ctx context.Context, userID uuid.UUID) error {
	return r.modify(userID, func(u *model.User) {
		now := r.now()
		u.LastSeenAt = &now
	})
}
