package repositories

import "errors"

// Sentinel errors shared by all repositories. Implementations translate
// driver-specific conditions (mongo.ErrNoDocuments, duplicate key errors,
// gorm.ErrRecordNotFound) into these so callers never import a driver.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)
