package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"equipment-visualizer-backend/internal/model"
	"equipment-visualizer-backend/internal/parse"
)

var (
	// ErrNotFound is returned when a record does not exist or belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned by CreateUser for a duplicate username.
	ErrUsernameTaken = errors.New("username already exists")
)

// Store defines the interface for all database operations.
type Store interface {
	CreateUser(ctx context.Context, user *model.User) error
	UserByUsername(ctx context.Context, username string) (*model.User, error)
	UserByID(ctx context.Context, id uint) (*model.User, error)
	DeleteUser(ctx context.Context, id uint) error

	TokenForUser(ctx context.Context, userID uint) (*model.AuthToken, error)
	UserByToken(ctx context.Context, key string) (*model.User, error)
	DeleteToken(ctx context.Context, key string) error

	CreateUpload(ctx context.Context, upload *model.Upload, rows []parse.Row) error
	PruneUploads(ctx context.Context, userID uint, keep int) (int, error)
	RecentUploads(ctx context.Context, userID uint, limit int) ([]UploadSummary, error)
	UploadForUser(ctx context.Context, userID, uploadID uint) (*model.Upload, error)
	LatestUpload(ctx context.Context, userID uint) (*model.Upload, error)
	EquipmentForUpload(ctx context.Context, uploadID uint, limit int) ([]model.Equipment, error)

	EquipmentStats(ctx context.Context, userID uint) (Stats, error)
	TypeDistribution(ctx context.Context, userID uint) (map[model.EquipmentType]int64, error)

	ListEquipment(ctx context.Context, userID uint, filter EquipmentFilter) ([]model.Equipment, error)
	EquipmentForUser(ctx context.Context, userID, id uint) (*model.Equipment, error)
	CreateEquipment(ctx context.Context, userID uint, eq *model.Equipment) error
	UpdateEquipment(ctx context.Context, userID uint, eq *model.Equipment) error
	DeleteEquipment(ctx context.Context, userID, id uint) error

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// userUploads is a subquery selecting the ids of every upload owned by userID.
func userUploads(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&model.Upload{}).Select("id").Where("user_id = ?", userID)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
