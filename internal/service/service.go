// Package service реализует бизнес-логику досок: загрузка, миграция, команда, сохранение.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/eltiw/internal/engine"
	"github.com/mmeshcher/eltiw/internal/migration"
	"github.com/mmeshcher/eltiw/internal/model"
	"github.com/mmeshcher/eltiw/internal/notify"
	"github.com/mmeshcher/eltiw/internal/repository"
	"github.com/mmeshcher/eltiw/internal/sample"
	"github.com/mmeshcher/eltiw/internal/validation"
)

// DashboardUrgentLimit ограничивает число срочных целей на дашборде.
const DashboardUrgentLimit = 3

// ErrRecordNotFound возвращается, если цель или займ с таким идентификатором отсутствует.
var ErrRecordNotFound = errors.New("record not found")

// errUnchanged прерывает update без сохранения и без ошибки для вызывающего.
var errUnchanged = errors.New("state unchanged")

// Repository описывает контракт хранилища досок, используемый сервисом.
type Repository interface {
	Close() error
	CreateBoard(ctx context.Context, id string, state []byte) error
	LoadBoard(ctx context.Context, id string) (*repository.Board, error)
	SaveBoard(ctx context.Context, id string, state []byte) error
	DeleteBoard(ctx context.Context, id string) error
}

// Codec описывает сериализацию состояния.
type Codec interface {
	Encode(state model.State) ([]byte, error)
	Decode(blob []byte) (model.State, error)
	EncodeSlug(state model.State) (string, error)
	DecodeSlug(slug string) (model.State, error)
}

// Notifier отправляет снимок целей по почте.
type Notifier interface {
	SendSnapshot(ctx context.Context, s notify.Snapshot) (string, error)
}

// Service содержит бизнес-логику досок. Запись в одну доску сериализуется мьютексом доски.
type Service struct {
	repo      Repository
	codec     Codec
	notifier  Notifier
	engine    *engine.Engine
	logger    *zap.Logger
	publicURL string
	newID     func() string

	mu    sync.Mutex
	locks map[string]*boardMutex
}

// Option настраивает сервис.
type Option func(*Service)

// WithNotifier задаёт отправителя писем.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithEngine задаёт движок команд.
func WithEngine(e *engine.Engine) Option {
	return func(s *Service) { s.engine = e }
}

// WithLogger задаёт логгер.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithPublicURL задаёт адрес приложения для ссылок «поделиться».
func WithPublicURL(u string) Option {
	return func(s *Service) { s.publicURL = strings.TrimRight(u, "/") }
}

// WithBoardIDGenerator задаёт генератор идентификаторов досок.
func WithBoardIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService создаёт сервис с указанным хранилищем и кодеком.
func NewService(repo Repository, codec Codec, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		codec:  codec,
		engine: engine.New(),
		logger: zap.NewNop(),
		newID:  uuid.NewString,
		locks:  make(map[string]*boardMutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Now возвращает текущее время движка.
func (s *Service) Now() time.Time {
	return s.engine.Now()
}

// boardMutex хранит мьютекс доски и число запросов, которые его держат или ждут.
type boardMutex struct {
	sync.Mutex
	refs int
}

// lockBoard захватывает мьютекс доски и возвращает функцию освобождения.
// Запись в карте живёт, пока мьютексом кто-то пользуется.
func (s *Service) lockBoard(id string) (unlock func()) {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &boardMutex{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// CreateBoard создаёт пустую доску и возвращает её идентификатор.
func (s *Service) CreateBoard(ctx context.Context) (string, error) {
	return s.createBoard(ctx, model.NewState())
}

func (s *Service) createBoard(ctx context.Context, state model.State) (string, error) {
	blob, err := s.codec.Encode(state)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}

	id := s.newID()
	if err := s.repo.CreateBoard(ctx, id, blob); err != nil {
		return "", fmt.Errorf("create board: %w", err)
	}
	return id, nil
}

// DeleteBoard удаляет доску целиком.
func (s *Service) DeleteBoard(ctx context.Context, boardID string) error {
	defer s.lockBoard(boardID)()

	return s.repo.DeleteBoard(ctx, boardID)
}

// State возвращает снимок состояния доски.
func (s *Service) State(ctx context.Context, boardID string) (model.State, error) {
	return s.load(ctx, boardID)
}

// load читает доску и доводит её до текущей схемы. Непереносимое состояние заменяется пустым.
func (s *Service) load(ctx context.Context, boardID string) (model.State, error) {
	b, err := s.repo.LoadBoard(ctx, boardID)
	if err != nil {
		return model.State{}, err
	}

	state, err := s.codec.Decode(b.State)
	if err != nil {
		if errors.Is(err, migration.ErrMigrationFailed) {
			s.logger.Warn("board state reset after failed migration",
				zap.String("board", boardID), zap.Error(err))
			return model.NewState(), nil
		}
		return model.State{}, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}

// update выполняет команду над доской под её мьютексом и сохраняет результат.
func (s *Service) update(ctx context.Context, boardID string, fn func(model.State) (model.State, error)) (model.State, error) {
	defer s.lockBoard(boardID)()

	state, err := s.load(ctx, boardID)
	if err != nil {
		return model.State{}, err
	}

	next, err := fn(state)
	if errors.Is(err, errUnchanged) {
		return state, nil
	}
	if err != nil {
		return model.State{}, err
	}

	blob, err := s.codec.Encode(next)
	if err != nil {
		return model.State{}, fmt.Errorf("encode state: %w", err)
	}
	if err := s.repo.SaveBoard(ctx, boardID, blob); err != nil {
		return model.State{}, fmt.Errorf("save board: %w", err)
	}
	return next, nil
}

// LoadSampleData заполняет демонстрационными записями пустые коллекции доски.
func (s *Service) LoadSampleData(ctx context.Context, boardID string) (model.State, error) {
	return s.update(ctx, boardID, func(st model.State) (model.State, error) {
		now := s.engine.Now()
		if len(st.Goals) == 0 {
			st.Goals = sample.Goals(now)
		}
		if len(st.Loans) == 0 {
			st.Loans = sample.Loans(now)
		}
		return st, nil
	})
}

// ClearData удаляет все цели и займы доски.
func (s *Service) ClearData(ctx context.Context, boardID string) (model.State, error) {
	return s.update(ctx, boardID, func(st model.State) (model.State, error) {
		st.Goals = s.engine.ClearGoals()
		st.Loans = s.engine.ClearLoans()
		return st, nil
	})
}

// Share описывает ссылку на снимок доски.
type Share struct {
	Slug      string `json:"slug"`
	URL       string `json:"url"`
	GoalCount int    `json:"goalCount"`
}

// ShareLink кодирует состояние доски в ссылку.
func (s *Service) ShareLink(ctx context.Context, boardID string) (Share, error) {
	state, err := s.load(ctx, boardID)
	if err != nil {
		return Share{}, err
	}
	return s.share(state)
}

func (s *Service) share(state model.State) (Share, error) {
	slug, err := s.codec.EncodeSlug(state)
	if err != nil {
		return Share{}, fmt.Errorf("encode slug: %w", err)
	}
	return Share{
		Slug:      slug,
		URL:       s.publicURL + "/#" + slug,
		GoalCount: len(state.Goals),
	}, nil
}

// ImportSlug создаёт новую доску из ссылки и возвращает её идентификатор.
func (s *Service) ImportSlug(ctx context.Context, slug string) (string, model.State, error) {
	state, err := s.codec.DecodeSlug(strings.TrimSpace(slug))
	if err != nil {
		return "", model.State{}, fmt.Errorf("decode slug: %w", err)
	}

	id, err := s.createBoard(ctx, state)
	if err != nil {
		return "", model.State{}, err
	}
	return id, state, nil
}

// SendSnapshot отправляет ссылку на доску на указанный адрес.
func (s *Service) SendSnapshot(ctx context.Context, boardID, recipient, message string) (string, error) {
	if s.notifier == nil {
		return "", notify.ErrNotConfigured
	}

	addr, err := mail.ParseAddress(strings.TrimSpace(recipient))
	if err != nil {
		return "", &validation.ValidationError{Field: "email", Message: "must be a valid address"}
	}

	link, err := s.ShareLink(ctx, boardID)
	if err != nil {
		return "", err
	}

	id, err := s.notifier.SendSnapshot(ctx, notify.Snapshot{
		Recipient: addr.Address,
		ShareURL:  link.URL,
		GoalCount: link.GoalCount,
		Message:   strings.TrimSpace(message),
	})
	if err != nil {
		return "", fmt.Errorf("send snapshot: %w", err)
	}
	return id, nil
}
