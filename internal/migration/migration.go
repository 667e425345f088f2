// Package migration обновляет сохранённое состояние старых версий схемы до текущей.
//
// Каждый шаг работает с разобранным JSON-документом, идемпотентен и не падает на
// некорректных, но разбираемых данных: недостающие и испорченные поля заполняются
// значениями по умолчанию. Ошибка возвращается только для входа, который не является JSON.
package migration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/eltiw/internal/model"
)

// ErrMigrationFailed возвращается для неразбираемого состояния. Вызывающий должен
// перейти на пустое состояние.
var ErrMigrationFailed = errors.New("migration failed")

// step переводит документ с версии i на i+1.
type step func(doc map[string]any, m *Migrator)

var steps = []step{
	backfillDefaults,
	normalizeRecords,
}

// Migrator выполняет цепочку шагов миграции.
type Migrator struct {
	now   func() time.Time
	newID func() string
}

// Option настраивает Migrator.
type Option func(*Migrator)

// WithClock задаёт время, которым заполняются отсутствующие отметки времени.
func WithClock(now func() time.Time) Option {
	return func(m *Migrator) {
		m.now = now
	}
}

// WithIDGenerator задаёт генератор идентификаторов для записей без id.
func WithIDGenerator(newID func() string) Option {
	return func(m *Migrator) {
		m.newID = newID
	}
}

// New создаёт Migrator.
func New(opts ...Option) *Migrator {
	m := &Migrator{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Migrate разбирает состояние, определяет его версию по полю version (отсутствующая или
// нечисловая версия считается нулевой) и доводит до текущей. Возвращает исходную версию.
func (m *Migrator) Migrate(raw []byte) (model.State, int, error) {
	doc, version, err := parse(raw)
	if err != nil {
		return model.State{}, 0, err
	}
	state, err := m.run(doc, version)
	return state, version, err
}

// MigrateFrom доводит состояние до текущей версии, начиная с fromVersion.
func (m *Migrator) MigrateFrom(raw []byte, fromVersion int) (model.State, error) {
	doc, _, err := parse(raw)
	if err != nil {
		return model.State{}, err
	}
	return m.run(doc, fromVersion)
}

// Migrate вызывает Migrator.Migrate с системными часами и UUID-идентификаторами.
func Migrate(raw []byte) (model.State, int, error) {
	return New().Migrate(raw)
}

func (m *Migrator) run(doc map[string]any, version int) (model.State, error) {
	if version < 0 {
		version = 0
	}
	for v := version; v < model.CurrentVersion && v < len(steps); v++ {
		steps[v](doc, m)
	}
	doc["version"] = model.CurrentVersion

	data, err := json.Marshal(doc)
	if err != nil {
		return model.State{}, fmt.Errorf("%w: encode document: %v", ErrMigrationFailed, err)
	}

	var state model.State
	if err := json.Unmarshal(data, &state); err != nil {
		return model.State{}, fmt.Errorf("%w: decode state: %v", ErrMigrationFailed, err)
	}
	if state.Goals == nil {
		state.Goals = []model.Goal{}
	}
	if state.Loans == nil {
		state.Loans = []model.Loan{}
	}
	state.Version = model.CurrentVersion
	return state, nil
}

// parse принимает объект состояния или голый массив целей (самый старый формат).
func parse(raw []byte) (map[string]any, int, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}

	switch doc := v.(type) {
	case []any:
		return map[string]any{"goals": doc}, 0, nil
	case map[string]any:
		version := 0
		if n, ok := doc["version"].(json.Number); ok {
			if i, err := n.Int64(); err == nil && i > 0 {
				version = int(min(i, int64(model.CurrentVersion)))
			}
		}
		return doc, version, nil
	default:
		return nil, 0, fmt.Errorf("%w: unexpected state type %T", ErrMigrationFailed, v)
	}
}
