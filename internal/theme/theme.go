package theme

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DoyleJ11/siege-picker/internal/kv"
)

var ErrUnknownTheme = errors.New("unknown theme")

type Theme string

const (
	Dark  Theme = "dark"
	Light Theme = "light"
)

const (
	storageKey = "theme"
	Default    = Dark
)

func Parse(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case Dark, Light:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, s)
	}
}

type Store struct {
	kv  kv.Store
	key string
}

func NewStore(backend kv.Store, profile string) *Store {
	return &Store{kv: backend, key: kv.ProfileKey(profile, storageKey)}
}

// Get returns the saved theme, or Default when nothing valid is saved.
func (s *Store) Get(ctx context.Context) (Theme, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, kv.ErrNotFound) {
		return Default, nil
	}
	if err != nil {
		return "", err
	}
	t, err := Parse(string(raw))
	if err != nil {
		return Default, nil
	}
	return t, nil
}

// Set saves t in its canonical lower-case form.
func (s *Store) Set(ctx context.Context, t Theme) error {
	canon, err := Parse(string(t))
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, s.key, []byte(canon))
}
