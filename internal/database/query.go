package database

import (
	"errors"

	"gorm.io/gorm"
)

type Query[T any] struct {
	db    *gorm.DB
	limit int
	order string
}

func (q *Query[T]) get(tx *gorm.DB) ([]*T, error) {
	res := make([]*T, 0)

	if q.order != "" {
		tx = tx.Order(q.order)
	}

	if q.limit > 0 {
		tx = tx.Limit(q.limit)
	}

	err := tx.Find(&res).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return res, nil
	}

	return res, err
}

func (q *Query[T]) count(tx *gorm.DB) (int64, error) {
	var n int64

	err := tx.Count(&n).Error

	return n, err
}
