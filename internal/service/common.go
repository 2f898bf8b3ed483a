package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"surveillance/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListParams is the pagination window shared by list operations.
type ListParams struct {
	Page  int
	Limit int
}

func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid %s id", what)
	}
	return id, nil
}

// parseOptionalID returns nil for an empty or absent value.
func parseOptionalID(raw *string, what string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := parseID(*raw, what)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// lookupErr converts a repository lookup failure into NotFound or a wrapped internal error.
func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("%s not found", what)
	}
	return fmt.Errorf("failed to load %s: %w", strings.ToLower(what), err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// writeErr maps unique-key violations to Conflict.
func writeErr(err error, action, conflictMsg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("%s", conflictMsg)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
