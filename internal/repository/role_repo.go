package repository

import (
	"errors"

	"go-pos-ws/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindByCode(code string) (*model.Role, error)
	SeedDefaults() error
	// AssignPrivileges replaces the role's privileges only when it has none,
	// so operator edits survive restarts.
	AssignPrivileges(role *model.Role, privileges []model.Privilege) (bool, error)
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindByCode(code string) (*model.Role, error) {
	var role model.Role
	if err := r.db.Preload("Privileges").Where("code = ?", code).First(&role).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *roleRepo) SeedDefaults() error {
	for _, defaultRole := range model.DefaultRoles {
		var existingRole model.Role
		err := r.db.Where("code = ?", defaultRole.Code).First(&existingRole).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := r.db.Create(&defaultRole).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}

func (r *roleRepo) AssignPrivileges(role *model.Role, privileges []model.Privilege) (bool, error) {
	if len(role.Privileges) > 0 {
		return false, nil
	}
	if err := r.db.Model(role).Association("Privileges").Replace(privileges); err != nil {
		return false, err
	}
	return true, nil
}
