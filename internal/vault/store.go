package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spool/internal/shared"
)

// Store is the encrypted mapping of account identifiers to secrets.
//
// All methods are safe for concurrent use; one mutex serializes the map and the file.
type Store struct {
	path     string
	cipher   *Cipher
	logger   *log.Logger
	mu       sync.Mutex
	accounts map[string]string
}

// New creates an empty Store persisted at path. Call [Store.Load] to read existing entries.
func New(path string, c *Cipher, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{
		path:     path,
		cipher:   c,
		logger:   logger.With("store", path),
		accounts: make(map[string]string),
	}
}

// Open creates a Store and loads it from path.
func Open(path string, c *Cipher, logger *log.Logger) (*Store, error) {
	s := New(path, c, logger)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the store file location.
func (s *Store) Path() string { return s.path }

// Load replaces the in-memory map with the decrypted contents of the store file.
//
// A missing file yields an empty store. The map is only replaced when every entry decrypts.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.accounts = make(map[string]string)
		s.logger.Debug("store file not found, starting empty")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read store: %w", err)
	}

	var encrypted map[string]string
	if err := json.Unmarshal(data, &encrypted); err != nil {
		return fmt.Errorf("%w: store is not a JSON object: %v", shared.ErrDecryption, err)
	}

	accounts := make(map[string]string, len(encrypted))
	for id, token := range encrypted {
		secret, err := s.cipher.Decrypt(token)
		if err != nil {
			return fmt.Errorf("account %q: %w", id, err)
		}
		accounts[id] = secret
	}

	s.accounts = accounts
	s.logger.Debug("store loaded", "accounts", len(accounts))
	return nil
}

// Save encrypts every secret and atomically replaces the store file.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

func (s *Store) save() error {
	encrypted := make(map[string]string, len(s.accounts))
	for id, secret := range s.accounts {
		token, err := s.cipher.Encrypt(secret)
		if err != nil {
			return fmt.Errorf("account %q: %w", id, err)
		}
		encrypted[id] = token
	}

	data, err := json.MarshalIndent(encrypted, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	if err := shared.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}

	s.logger.Debug("store saved", "accounts", len(encrypted))
	return nil
}

// AddAccount inserts or overwrites the secret for id and persists the whole store.
//
// If persisting fails the previous in-memory value is restored.
func (s *Store) AddAccount(id, secret string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: account id is empty", shared.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.accounts[id]
	s.accounts[id] = secret

	if err := s.save(); err != nil {
		if existed {
			s.accounts[id] = prev
		} else {
			delete(s.accounts, id)
		}
		return err
	}

	s.logger.Info("account stored", "account", id, "replaced", existed)
	return nil
}

// RemoveAccount deletes id and persists the whole store.
func (s *Store) RemoveAccount(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrAccountNotFound, id)
	}
	delete(s.accounts, id)

	if err := s.save(); err != nil {
		s.accounts[id] = prev
		return err
	}

	s.logger.Info("account removed", "account", id)
	return nil
}

// Secret returns the secret stored for id.
func (s *Store) Secret(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	secret, ok := s.accounts[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", shared.ErrAccountNotFound, id)
	}
	return secret, nil
}

// Has reports whether id is in the store.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[id]
	return ok
}

// Accounts returns the stored account identifiers in sorted order.
func (s *Store) Accounts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of stored accounts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}
