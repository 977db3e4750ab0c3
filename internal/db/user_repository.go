package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/terraincognita07/comoestou/internal/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type UserRepository struct {
	database *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{database: database}
}

func (repo *UserRepository) FindByUID(uid string) (models.User, error) {
	var user models.User
	if err := repo.database.Where("uid = ?", uid).First(&user).Error; err != nil {
		return models.User{}, translateNotFound(err)
	}
	return user, nil
}

func (repo *UserRepository) FindByNormalizedEmail(email string) (models.User, error) {
	var user models.User
	if err := repo.database.Where("lower(trim(email)) = ?", email).First(&user).Error; err != nil {
		return models.User{}, translateNotFound(err)
	}
	return user, nil
}

func (repo *UserRepository) FindByGoogleSubject(subject string) (models.User, error) {
	var user models.User
	if err := repo.database.Where("google_subject = ?", subject).First(&user).Error; err != nil {
		return models.User{}, translateNotFound(err)
	}
	return user, nil
}

func (repo *UserRepository) ExistsByNormalizedEmail(email string) (bool, error) {
	var matched int64
	if err := repo.database.Model(&models.User{}).
		Where("lower(trim(email)) = ?", email).
		Count(&matched).Error; err != nil {
		return false, err
	}
	return matched > 0, nil
}

// Create inserts user. A write rejected because another account holds the
// same normalized email reports ErrEmailTaken.
func (repo *UserRepository) Create(user *models.User) error {
	err := repo.database.Create(user).Error
	if err == nil {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(user.Email))
	if taken, lookupErr := repo.ExistsByNormalizedEmail(email); lookupErr == nil && taken {
		return fmt.Errorf("%w: %w", ErrEmailTaken, err)
	}
	return err
}

func (repo *UserRepository) Save(user *models.User) error {
	return repo.database.Save(user).Error
}

func (repo *UserRepository) UpdatePasswordHash(uid string, passwordHash string) error {
	result := repo.database.Model(&models.User{}).Where("uid = ?", uid).Update("password_hash", passwordHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (repo *UserRepository) LinkGoogleSubject(uid string, subject string) error {
	return repo.database.Model(&models.User{}).Where("uid = ?", uid).Update("google_subject", subject).Error
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
