package schema

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ram/internal/errs"
)

// KeySchemaVersion is the project_meta key holding the applied schema version.
const KeySchemaVersion = "schema_version"

// ProjectMeta is a key/value row describing the store itself rather than
// reporting data.
type ProjectMeta struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Key       string    `gorm:"column:key;type:text;uniqueIndex;not null"`
	Value     string    `gorm:"column:value;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (ProjectMeta) TableName() string {
	return "project_meta"
}

// PutMeta inserts key or overwrites its value.
func PutMeta(ctx context.Context, db *gorm.DB, key, value string) error {
	row := ProjectMeta{Key: key, Value: value}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return errs.Wrapf(err, "put project meta %q", key)
	}
	return nil
}

// GetMeta returns the value of key; found is false when the row is absent.
func GetMeta(ctx context.Context, db *gorm.DB, key string) (value string, found bool, err error) {
	var row ProjectMeta
	err = db.WithContext(ctx).Where("key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Wrapf(err, "get project meta %q", key)
	}
	return row.Value, true, nil
}
