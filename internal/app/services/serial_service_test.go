package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qbankhq/qbank/internal/pkg/apperrors"
)

type fakeSerialStore struct {
	serials []string
	count   int64
	err     error
}

func (f *fakeSerialStore) ListSerialsByPrefix(_ context.Context, _ string) ([]string, error) {
	return f.serials, f.err
}

func (f *fakeSerialStore) CountByPrefix(_ context.Context, _ string) (int64, error) {
	return f.count, f.err
}

func TestNextSerial(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		existing []string
		want     string
	}{
		{"empty set starts at 001", "2024-0127-S1", nil, "2024-0127-S1-001"},
		{"appends after contiguous run", "2024-0127-S1",
			[]string{"2024-0127-S1-001", "2024-0127-S1-002"}, "2024-0127-S1-003"},
		{"fills gap left by deletion", "2024-0127-S1",
			[]string{"2024-0127-S1-001", "2024-0127-S1-003"}, "2024-0127-S1-002"},
		{"gap at the start", "2024-0127-S2",
			[]string{"2024-0127-S2-002", "2024-0127-S2-003"}, "2024-0127-S2-001"},
		{"ignores foreign prefixes", "2024-0127-S1",
			[]string{"2023-0127-S1-001"}, "2024-0127-S1-001"},
		{"ignores malformed suffixes", "2024-0127-S1",
			[]string{"2024-0127-S1-abc", "2024-0127-S1-001"}, "2024-0127-S1-002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextSerial(tt.prefix, tt.existing))
		})
	}
}

func TestNextSerialGrowsPastThreeDigits(t *testing.T) {
	var existing []string
	for i := 1; i <= 999; i++ {
		existing = append(existing, fmt.Sprintf("2024-0127-S1-%03d", i))
	}

	assert.Equal(t, "2024-0127-S1-1000", nextSerial("2024-0127-S1", existing))
}

func TestAllocateValidatesPrefix(t *testing.T) {
	svc := NewSerialService(&fakeSerialStore{})

	for _, prefix := range []string{"", "2024", "2024-0127", "2024-0127-S3", "24-0127-S1", "2024-0127-s1"} {
		_, err := svc.Allocate(context.Background(), prefix)
		assert.True(t, errors.Is(err, apperrors.ErrValidationFailed), "prefix %q", prefix)
	}
}

func TestAllocateFirstFit(t *testing.T) {
	store := &fakeSerialStore{serials: []string{"2024-0127-S1-001", "2024-0127-S1-003"}}
	svc := NewSerialService(store)

	serial, err := svc.Allocate(context.Background(), "2024-0127-S1")
	require.NoError(t, err)
	assert.Equal(t, "2024-0127-S1-002", serial)
}

func TestCountByPrefix(t *testing.T) {
	svc := NewSerialService(&fakeSerialStore{count: 7})

	count, err := svc.CountByPrefix(context.Background(), "2024-0127")
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)

	_, err = svc.CountByPrefix(context.Background(), "   ")
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
}
