package stash

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Mirrored writes to a primary store and any number of mirrors. Reads come
// from the primary and fall back to the mirrors in order.
type Mirrored struct {
	primary Store
	mirrors []Store
	logger  *zap.Logger
}

// NewMirrored wraps primary with mirrors.
func NewMirrored(logger *zap.Logger, primary Store, mirrors ...Store) *Mirrored {
	return &Mirrored{primary: primary, mirrors: mirrors, logger: logger}
}

func (m *Mirrored) Name() string {
	names := []string{m.primary.Name()}
	for _, s := range m.mirrors {
		names = append(names, s.Name())
	}
	return strings.Join(names, "+")
}

// Save returns only the primary's error; mirror failures are logged.
func (m *Mirrored) Save(ctx context.Context, entries []Entry) error {
	err := m.primary.Save(ctx, entries)
	for _, s := range m.mirrors {
		if mErr := s.Save(ctx, entries); mErr != nil {
			m.logger.Warn("snapshot mirror save failed",
				zap.String("store", s.Name()), zap.Error(mErr))
		}
	}
	return err
}

func (m *Mirrored) Load(ctx context.Context) ([]Entry, error) {
	entries, err := m.primary.Load(ctx)
	if err == nil {
		return entries, nil
	}
	if !errors.Is(err, ErrNoSnapshot) {
		m.logger.Warn("snapshot primary load failed",
			zap.String("store", m.primary.Name()), zap.Error(err))
	}
	for _, s := range m.mirrors {
		mEntries, mErr := s.Load(ctx)
		if mErr == nil {
			m.logger.Info("snapshot loaded from mirror", zap.String("store", s.Name()))
			return mEntries, nil
		}
		if !errors.Is(mErr, ErrNoSnapshot) {
			m.logger.Warn("snapshot mirror load failed",
				zap.String("store", s.Name()), zap.Error(mErr))
		}
	}
	return nil, err
}
