package roles

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a roles repository bound to the provided DB.
func NewRepository(db *gorm.DB) uow.RoleRepository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) uow.RoleRepository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, role *models.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).First(&role, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *repository) FindByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *repository) List(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.WithContext(ctx).Order("name asc").Find(&roles).Error
	return roles, err
}

// UpdatePermissions replaces the permission set, bumps the version so
// previously issued tokens can be rejected, and records the acting admin.
func (r *repository) UpdatePermissions(ctx context.Context, id uuid.UUID, permissions []string, actor uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Role{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"permissions": pq.StringArray(permissions),
			"version":     gorm.Expr("version + 1"),
			"updated_by":  actor,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
