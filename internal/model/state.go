// Package model содержит доменные сущности трекера целей и займов.
package model

// CurrentVersion задаёт текущую версию схемы сохранённого состояния.
const CurrentVersion = 2

// State содержит сохраняемое состояние доски: коллекции целей и займов с версией схемы.
type State struct {
	Version int    `json:"version"`
	Goals   []Goal `json:"goals"`
	Loans   []Loan `json:"loans"`
}

// NewState возвращает пустое состояние текущей версии.
func NewState() State {
	return State{
		Version: CurrentVersion,
		Goals:   []Goal{},
		Loans:   []Loan{},
	}
}
