package store

import (
	"context"
	"time"

	"auth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStore struct{ db *gorm.DB }

func (s *Store) Users() *UserStore { return &UserStore{db: s.DB} }

// Create inserts usr. A taken email surfaces as ErrDuplicate.
func (u *UserStore) Create(ctx context.Context, usr *domain.User) error {
	if usr.ID == uuid.Nil {
		usr.ID = uuid.New()
	}
	now := time.Now().UTC()
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = now
	}
	usr.UpdatedAt = now
	return translate(u.db.WithContext(ctx).Create(usr).Error)
}

func (u *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Save persists the mutable fields of usr: password credential, verified
// flag, last login and profile picture.
func (u *UserStore) Save(ctx context.Context, usr *domain.User) error {
	usr.UpdatedAt = time.Now().UTC()
	tx := u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", usr.ID).
		Updates(map[string]any{
			"password_algo":   usr.Password.Algo,
			"password_hash":   usr.Password.Hash,
			"password_salt":   usr.Password.Salt,
			"password_params": usr.Password.ParamsJSON,
			"password_ver":    usr.Password.PasswordVer,
			"email_verified":  usr.EmailVerified,
			"last_login":      usr.LastLogin,
			"profile_picture": usr.ProfilePicture,
			"name":            usr.Name,
			"updated_at":      usr.UpdatedAt,
		})
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
