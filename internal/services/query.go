package services

import (
	"errors"

	"gorm.io/gorm"
)

// takeOne runs q into dst and reports whether a row was found.
func takeOne(q *gorm.DB, dst any) (bool, error) {
	err := q.Take(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func coursesByName(db *gorm.DB) *gorm.DB {
	return db.Order("courses.name ASC")
}
