// Package statecodec сериализует состояние доски для хранения и ссылок: JSON,
// необязательное сжатие gzip и необязательное шифрование XChaCha20-Poly1305.
package statecodec

import (
	"bytes"
	"compress/gzip"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"github.com/mmeshcher/eltiw/internal/migration"
	"github.com/mmeshcher/eltiw/internal/model"
)

const (
	formatVersion byte = 1

	flagCompressed byte = 1 << 0
	flagEncrypted  byte = 1 << 1

	headerSize = 2
	saltSize   = 16

	// MaxStateSize ограничивает размер распакованного состояния.
	MaxStateSize = 8 << 20

	// maxCachedKeys ограничивает число закэшированных шифров для чужих солей.
	maxCachedKeys = 4

	// Параметры scrypt для ключа из пароля.
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var (
	// ErrPassphraseRequired возвращается при чтении зашифрованного состояния без пароля.
	ErrPassphraseRequired = errors.New("state is encrypted: passphrase required")
	// ErrDecrypt возвращается, если состояние не удалось расшифровать (неверный пароль или повреждение).
	ErrDecrypt = errors.New("decrypt state")
	// ErrCorrupted возвращается для блоба с неизвестным заголовком.
	ErrCorrupted = errors.New("corrupted state blob")
)

// Options задаёт режимы кодирования.
type Options struct {
	Compress   bool
	Passphrase string
}

// Codec кодирует и декодирует состояние. Безопасен для конкурентного использования.
type Codec struct {
	compress   bool
	passphrase []byte
	salt       []byte
	migrator   *migration.Migrator

	mu   sync.Mutex
	keys map[string]cipher.AEAD
}

// New создаёт кодек. При непустом пароле ключ выводится сразу, чтобы Encode не платил за scrypt.
func New(opts Options, migrator *migration.Migrator) (*Codec, error) {
	if migrator == nil {
		migrator = migration.New()
	}
	c := &Codec{
		compress: opts.Compress,
		migrator: migrator,
		keys:     make(map[string]cipher.AEAD),
	}

	if opts.Passphrase != "" {
		c.passphrase = []byte(opts.Passphrase)
		c.salt = make([]byte, saltSize)
		if _, err := rand.Read(c.salt); err != nil {
			return nil, fmt.Errorf("generate salt: %w", err)
		}
		if _, err := c.aead(c.salt); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Encrypted сообщает, шифрует ли кодек новые блобы.
func (c *Codec) Encrypted() bool {
	return c.passphrase != nil
}

// Encode сериализует состояние в блоб с заголовком.
func (c *Codec) Encode(state model.State) ([]byte, error) {
	state.Version = model.CurrentVersion
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}

	var flags byte
	if c.compress {
		payload, err = gzipBytes(payload)
		if err != nil {
			return nil, err
		}
		flags |= flagCompressed
	}

	if c.Encrypted() {
		payload, err = c.seal(payload)
		if err != nil {
			return nil, err
		}
		flags |= flagEncrypted
	}

	out := make([]byte, 0, headerSize+len(payload))
	out = append(out, formatVersion, flags)
	return append(out, payload...), nil
}

// Decode восстанавливает состояние из блоба и доводит его до текущей версии схемы.
// Блоб без заголовка, начинающийся с JSON-объекта или массива, принимается как
// незашифрованное состояние старого формата.
func (c *Codec) Decode(blob []byte) (model.State, error) {
	payload, err := c.open(blob)
	if err != nil {
		return model.State{}, err
	}
	state, _, err := c.migrator.Migrate(payload)
	if err != nil {
		return model.State{}, err
	}
	return state, nil
}

// EncodeSlug кодирует состояние в строку, пригодную для фрагмента URL.
func (c *Codec) EncodeSlug(state model.State) (string, error) {
	blob, err := c.Encode(state)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(blob), nil
}

// DecodeSlug восстанавливает состояние из строки фрагмента URL. Содержимое ссылки
// не доверенное, поэтому оно проходит полную миграцию с проверкой записей.
func (c *Codec) DecodeSlug(slug string) (model.State, error) {
	blob, err := base64.RawURLEncoding.DecodeString(slug)
	if err != nil {
		return model.State{}, fmt.Errorf("%w: decode slug: %v", ErrCorrupted, err)
	}
	payload, err := c.open(blob)
	if err != nil {
		return model.State{}, err
	}
	return c.migrator.Import(payload)
}

func (c *Codec) open(blob []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		if len(trimmed) > MaxStateSize {
			return nil, fmt.Errorf("%w: state exceeds %d bytes", ErrCorrupted, MaxStateSize)
		}
		return trimmed, nil
	}
	if len(blob) < headerSize || blob[0] != formatVersion {
		return nil, ErrCorrupted
	}
	if len(blob) > MaxStateSize {
		return nil, fmt.Errorf("%w: blob exceeds %d bytes", ErrCorrupted, MaxStateSize)
	}

	flags := blob[1]
	payload := blob[headerSize:]

	var err error
	if flags&flagEncrypted != 0 {
		payload, err = c.unseal(payload)
		if err != nil {
			return nil, err
		}
	}
	if flags&flagCompressed != 0 {
		payload, err = gunzipBytes(payload)
		if err != nil {
			return nil, err
		}
	}
	return payload, nil
}

// seal: salt | nonce | ciphertext.
func (c *Codec) seal(plain []byte) ([]byte, error) {
	aead, err := c.aead(c.salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize(), saltSize+aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := append([]byte{}, c.salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plain, nil), nil
}

func (c *Codec) unseal(payload []byte) ([]byte, error) {
	if !c.Encrypted() {
		return nil, ErrPassphraseRequired
	}
	if len(payload) < saltSize+chacha20poly1305.NonceSizeX {
		return nil, ErrCorrupted
	}

	salt := payload[:saltSize]
	aead, err := c.aead(salt)
	if err != nil {
		return nil, err
	}

	nonce := payload[saltSize : saltSize+aead.NonceSize()]
	plain, err := aead.Open(nil, nonce, payload[saltSize+aead.NonceSize():], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plain, nil
}

// aead возвращает шифр для соли. Шифр собственной соли хранится всегда, для чужих
// солей кэш ограничен maxCachedKeys записями.
func (c *Codec) aead(salt []byte) (cipher.AEAD, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if a, ok := c.keys[string(salt)]; ok {
		return a, nil
	}

	key, err := scrypt.Key(c.passphrase, salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	a, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	if len(c.keys) >= maxCachedKeys {
		for k := range c.keys {
			if k != string(c.salt) {
				delete(c.keys, k)
				break
			}
		}
	}
	c.keys[string(salt)] = a
	return a, nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("compress state: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

func gunzipBytes(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, MaxStateSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if len(out) > MaxStateSize {
		return nil, fmt.Errorf("%w: state exceeds %d bytes", ErrCorrupted, MaxStateSize)
	}
	return out, nil
}
