package database

import (
	"context"
	"errors"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/repository/memory"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "admin123"
)

// Seed creates default privileges, roles, and the admin user if they
// don't exist.
func Seed(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	userRepo := repository.NewUserRepo(db)

	// 1. Seed privileges first
	if err := privilegeRepo.SeedDefaults(); err != nil {
		return err
	}

	// 2. Seed roles
	if err := roleRepo.SeedDefaults(); err != nil {
		return err
	}

	// 3. Assign privileges to roles
	var masterRole *model.Role
	for _, def := range model.DefaultRoles {
		role, err := roleRepo.FindByCode(def.Code)
		if err != nil {
			return err
		}
		privileges, err := privilegeRepo.FindByCodes(model.DefaultRolePrivileges(def.Code))
		if err != nil {
			return err
		}
		if ok, err := roleRepo.AssignPrivileges(role, privileges); err != nil {
			return err
		} else if ok {
			log.Info("role privileges assigned", zap.String("role", role.Code), zap.Int("privileges", len(privileges)))
		}
		if role.Code == model.RoleMasterAdmin {
			masterRole = role
		}
	}
	allPrivileges, err := privilegeRepo.FindAll()
	if err != nil {
		return err
	}

	// 4. Create default admin user with MASTER_ADMIN role
	if _, err := userRepo.FindByEmail(ctx, defaultAdminEmail); !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	admin := &model.User{
		Email:      defaultAdminEmail,
		FullName:   "Master Administrator",
		RoleID:     &masterRole.ID,
		IsStaff:    true,
		IsActive:   true,
		Privileges: allPrivileges,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"
	if err := admin.SetPassword(defaultAdminPassword); err != nil {
		return err
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		return err
	}
	log.Info("admin user created", zap.String("email", defaultAdminEmail), zap.String("role", model.RoleMasterAdmin))
	return nil
}

// SeedMemory gives the in-memory store the same admin account.
func SeedMemory(ctx context.Context, store *memory.Store, log *zap.Logger) error {
	role, _ := model.RoleByCode(model.RoleMasterAdmin)
	admin := &model.User{
		Email:      defaultAdminEmail,
		FullName:   "Master Administrator",
		Role:       &role,
		IsStaff:    true,
		IsActive:   true,
		Privileges: model.DefaultPrivileges,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"
	if err := admin.SetPassword(defaultAdminPassword); err != nil {
		return err
	}
	if err := store.Users().Create(ctx, admin); err != nil && !errors.Is(err, repository.ErrConflict) {
		return err
	}
	log.Info("admin user created", zap.String("email", defaultAdminEmail), zap.String("role", role.Code))
	return nil
}
