package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eventgate/internal/errs"
	"eventgate/internal/infrastructure/persistence/sqlite/model"
	"eventgate/internal/ports"
)

type UserRepository struct {
	db *gorm.DB
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user ports.User) (ports.User, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.User{}, err
	}

	row := model.User{
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       strings.ToLower(strings.TrimSpace(user.Email)),
		Gender:      user.Gender,
		DateOfBirth: user.DateOfBirth,
		Attributes:  user.Attributes,
		IsCreator:   user.IsCreator,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return ports.User{}, errs.Wrap(result.Error, "insert user")
	}
	if result.RowsAffected == 0 {
		return ports.User{}, ports.ErrAlreadyExists
	}
	return mapUser(row), nil
}

func (r *UserRepository) GetUser(ctx context.Context, userID uint64) (ports.User, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.User{}, err
	}

	var row model.User
	if err := db.Where("user_id = ?", userID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.User{}, ports.ErrNotFound
		}
		return ports.User{}, errs.Wrap(err, "query user")
	}
	return mapUser(row), nil
}

func mapUser(row model.User) ports.User {
	return ports.User{
		UserID:      row.UserID,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		Email:       row.Email,
		Gender:      row.Gender,
		DateOfBirth: row.DateOfBirth,
		Attributes:  row.Attributes,
		IsCreator:   row.IsCreator,
	}
}
