package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/zalando/go-keyring"
)

// SecretStore abstracts the OS keyring so tests can swap it out.
type SecretStore interface {
	Get(service, user string) (string, error)
	Set(service, user, secret string) error
}

// KeyringStore implements SecretStore on top of the OS keyring.
type KeyringStore struct{}

// Get returns the secret stored for service/user.
func (KeyringStore) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

// Set stores secret for service/user.
func (KeyringStore) Set(service, user, secret string) error {
	return keyring.Set(service, user, secret)
}

// ResolveToken fills BotToken from the store when neither the file nor the
// environment provided one. Headless hosts often have no keyring at all, so
// any lookup failure is reported as ErrTokenMissing.
func (s *Settings) ResolveToken(store SecretStore) error {
	if s.BotToken != "" {
		return nil
	}

	token, err := store.Get(KeyringService, KeyringUserToken)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		slog.Debug(MsgKeyringDown, LogKeyComponent, CompConfig, LogKeyError, err)
	}
	if err != nil || token == "" {
		return errors.New(ErrTokenMissing)
	}

	s.BotToken = token
	slog.Info(MsgTokenKeyring, LogKeyComponent, CompConfig)
	return nil
}

// StoreToken reads the first non-empty line from r and saves it in the store.
func StoreToken(store SecretStore, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	token := ""
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			token = line
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s: %w", ErrKeyringSet, err)
	}
	if token == "" {
		return errors.New(ErrTokenEmptyInput)
	}

	if err := store.Set(KeyringService, KeyringUserToken, token); err != nil {
		return fmt.Errorf("%s: %w", ErrKeyringSet, err)
	}
	slog.Info(MsgTokenStored, LogKeyComponent, CompConfig)
	return nil
}
