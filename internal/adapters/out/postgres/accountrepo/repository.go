// Package accountrepo persists users and their customer records.
package accountrepo

import (
	"context"
	"errors"
	"time"

	"quickdrop/internal/core/domain/model/customer"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/user"
	"quickdrop/internal/pkg/dberrs"
	"quickdrop/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username  string    `gorm:"type:varchar(50);not null;uniqueIndex:uq_users_username"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_users_email"`
	Phone     string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_users_phone"`
	Role      string    `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (UserDTO) TableName() string {
	return "users"
}

type CustomerDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_customers_user_id"`
	CreatedAt time.Time `gorm:"not null"`
}

func (CustomerDTO) TableName() string {
	return "customers"
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Add reports a taken username, email or phone as a validation error on that field.
func (r *GormUserRepository) Add(ctx context.Context, aggregate *user.User) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := UserDTO{
		ID:        aggregate.ID().Bytes(),
		Username:  aggregate.Username(),
		Email:     aggregate.Email(),
		Phone:     aggregate.Phone(),
		Role:      string(aggregate.Role()),
		CreatedAt: aggregate.CreatedAt(),
	}
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return dberrs.Classify("add user", err)
	}
	return nil
}

func (r *GormUserRepository) Get(ctx context.Context, id kernel.UUID) (*user.User, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto UserDTO
	if err := r.db.WithContext(ctx).Where("id = ?", id.Bytes()).Take(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("user", id.String())
		}
		return nil, dberrs.Classify("load user", err)
	}

	return user.NewUser(id, dto.Username, dto.Email, dto.Phone, user.Role(dto.Role), dto.CreatedAt)
}

type GormCustomerRepository struct {
	db *gorm.DB
}

func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) Add(ctx context.Context, aggregate *customer.Customer) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := CustomerDTO{
		ID:        aggregate.ID().Bytes(),
		UserID:    aggregate.UserID().Bytes(),
		CreatedAt: aggregate.CreatedAt(),
	}
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return dberrs.Classify("add customer", err)
	}
	return nil
}

func (r *GormCustomerRepository) Get(ctx context.Context, id kernel.UUID) (*customer.Customer, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto CustomerDTO
	if err := r.db.WithContext(ctx).Where("id = ?", id.Bytes()).Take(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("customer", id.String())
		}
		return nil, dberrs.Classify("load customer", err)
	}

	userID, err := kernel.UUIDFromBytes(dto.UserID[:])
	if err != nil {
		return nil, err
	}
	return customer.NewCustomer(id, userID, dto.CreatedAt)
}
