package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// 外部キー違反（存在しない商品・ユーザーを参照した）
	ErrInvalidReference = errors.New("invalid reference")

	// 一意制約違反
	ErrDuplicate = errors.New("duplicate")
)
