package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

const (
	configDirName  = "wincom"
	configFileName = "config.enc"
	saltSize       = 16
	nonceSize      = 12
)

// Options holds the persisted plugin settings.
type Options struct {
	// Keywords trigger the plugin when they prefix a launcher query.
	Keywords []string `json:"keywords"`
	// RefreshSeconds is the tray agent's window list refresh interval.
	RefreshSeconds int `json:"refreshSeconds"`
	// IncludeMinimize adds minimize rows to search results.
	IncludeMinimize bool `json:"includeMinimize"`
	// MaxResults caps search output. Zero means unlimited.
	MaxResults int `json:"maxResults"`
}

// Config represents the persisted configuration file.
type Config struct {
	Options Options `json:"options"`
}

// DefaultOptions returns the settings used when no configuration exists.
func DefaultOptions() Options {
	return Options{
		Keywords:        []string{"w", "win", "window"},
		RefreshSeconds:  10,
		IncludeMinimize: true,
	}
}

// Normalize fills invalid fields with their defaults.
func (o *Options) Normalize() {
	defaults := DefaultOptions()
	if len(o.Keywords) == 0 {
		o.Keywords = defaults.Keywords
	}
	if o.RefreshSeconds <= 0 {
		o.RefreshSeconds = defaults.RefreshSeconds
	}
	if o.MaxResults < 0 {
		o.MaxResults = 0
	}
}

// Path returns the resolved configuration file path.
func Path() (string, error) {
	if custom := os.Getenv("WINCOM_CONFIG_PATH"); custom != "" {
		if err := os.MkdirAll(filepath.Dir(custom), 0o700); err != nil {
			return "", fmt.Errorf("ensure custom config directory: %w", err)
		}
		return custom, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine user config dir: %w", err)
	}

	dir := filepath.Join(base, configDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("ensure config directory: %w", err)
	}

	return filepath.Join(dir, configFileName), nil
}

// Load retrieves the encrypted configuration using the provided passphrase.
// A missing file yields defaults rather than an error.
func Load(passphrase string) (*Config, error) {
	if passphrase == "" {
		return nil, errors.New("missing passphrase for configuration decryption")
	}

	path, err := Path()
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{Options: DefaultOptions()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	data, err := decrypt(raw, passphrase)
	if err != nil {
		return nil, fmt.Errorf("decrypt config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Options.Normalize()
	return &cfg, nil
}

// Save persists the configuration encrypted with the provided passphrase.
func Save(cfg *Config, passphrase string) error {
	if passphrase == "" {
		return errors.New("missing passphrase for configuration encryption")
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	data, err := encrypt(raw, passphrase)
	if err != nil {
		return fmt.Errorf("encrypt config: %w", err)
	}

	path, err := Path()
	if err != nil {
		return err
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return fmt.Errorf("write encrypted config: %w", err)
	}

	return os.Rename(tempFile, path)
}

func encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, saltSize+nonceSize+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

func decrypt(ciphertext []byte, passphrase string) ([]byte, error) {
	if len(ciphertext) < saltSize+nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	salt := ciphertext[:saltSize]
	nonce := ciphertext[saltSize : saltSize+nonceSize]
	payload := ciphertext[saltSize+nonceSize:]

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return gcm.Open(nil, nonce, payload, nil)
}

func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	const (
		keyLength = 32
		n         = 1 << 15
		r         = 8
		p         = 1
	)

	key, err := scrypt.Key([]byte(passphrase), salt, n, r, p, keyLength)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}
