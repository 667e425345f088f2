// Package repository хранит сериализованное состояние досок в PostgreSQL или SQLite.
package repository

import (
	"errors"
	"time"
)

var (
	// ErrBoardNotFound возвращается, если доска не найдена.
	ErrBoardNotFound = errors.New("board not found")
	// ErrBoardExists возвращается при попытке создать доску с уже занятым идентификатором.
	ErrBoardExists = errors.New("board already exists")
)

// Board описывает сохранённую доску.
type Board struct {
	ID        string
	State     []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}
