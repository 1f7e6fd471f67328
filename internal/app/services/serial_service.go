package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/qbankhq/qbank/internal/pkg/apperrors"
)

// prefixKeyPattern is the shape of a dated serial prefix:
// {year}-{MMDD}-{S1|S2}
var prefixKeyPattern = regexp.MustCompile(`^\d{4}-\d{4}-S[12]$`)

// serialStore is the subset of the question repository the allocator needs
type serialStore interface {
	ListSerialsByPrefix(ctx context.Context, prefix string) ([]string, error)
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

// SerialService allocates question serials
type SerialService interface {
	Allocate(ctx context.Context, prefixKey string) (string, error)
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type serialServiceImpl struct {
	store serialStore
}

// NewSerialService creates a new serial service instance
func NewSerialService(store serialStore) SerialService {
	return &serialServiceImpl{store: store}
}

// Allocate finds the lowest unused sequence number under the prefix and
// returns the formatted serial. Allocation takes no lock; the insert
// layer's uniqueness constraint catches the rare concurrent collision.
func (s *serialServiceImpl) Allocate(ctx context.Context, prefixKey string) (string, error) {
	if !prefixKeyPattern.MatchString(prefixKey) {
		return "", fmt.Errorf("%w: prefix must look like 2024-0127-S1", apperrors.ErrValidationFailed)
	}

	existing, err := s.store.ListSerialsByPrefix(ctx, prefixKey)
	if err != nil {
		return "", fmt.Errorf("failed to list serials: %w", err)
	}

	return nextSerial(prefixKey, existing), nil
}

// CountByPrefix counts existing serials under a prefix, case-insensitively
func (s *serialServiceImpl) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	if strings.TrimSpace(prefix) == "" {
		return 0, fmt.Errorf("%w: prefix cannot be empty", apperrors.ErrValidationFailed)
	}

	return s.store.CountByPrefix(ctx, prefix)
}

// nextSerial computes the first-fit serial for a prefix given the serials
// already taken. Gaps left by deletions are refilled before the sequence
// grows; an empty set yields {prefix}-001.
func nextSerial(prefix string, existing []string) string {
	taken := make(map[int]bool, len(existing))
	for _, serial := range existing {
		suffix := strings.TrimPrefix(serial, prefix+"-")
		if suffix == serial {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil || n <= 0 {
			continue
		}
		taken[n] = true
	}

	n := 1
	for taken[n] {
		n++
	}

	return fmt.Sprintf("%s-%03d", prefix, n)
}
