package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", NewNotFoundError(KindContract, "c1"), IsNotFound},
		{"no draft", NewNoDraftError(KindRate, "r1", "r2"), IsNoDraft},
		{"already unlocked", NewAlreadyUnlockedError(KindRate, "r1"), IsAlreadyUnlocked},
		{"unsubmitted", NewUnsubmittedDependencyError("r1"), IsUnsubmittedDependency},
		{"programming", NewProgrammingError("bad link %s", "l1"), IsProgrammingError},
		{"invalid", NewInvalidArgumentError("missing reason"), IsInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			wrapped := fmt.Errorf("submit: %w", tt.err)
			assert.True(t, tt.check(wrapped), "helpers must see through wrapping")
		})
	}

	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsNoDraft(NewNotFoundError(KindContract, "c1")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestErrorMessage(t *testing.T) {
	err := NewNoDraftError(KindRate, "r1", "r2")
	assert.Equal(t, "NO_DRAFT: no draft revision to submit (rate r1, r2)", err.Error())

	err = NewInvalidArgumentError("reason is required")
	assert.Equal(t, "INVALID_ARGUMENT: reason is required", err.Error())
}

func TestNames(t *testing.T) {
	assert.Equal(t, "MCR-MN-0003-MSHO-PMAP", ContractName("mn", 3, []string{"pmap", "msho"}))
	assert.Equal(t, "MCR-FL-0012", ContractName("FL", 12, nil))
	assert.Equal(t, "RATE-MN-0001", RateName("MN", 1))
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, StatusDraft, DeriveStatus(false, false, false))
	assert.Equal(t, StatusSubmitted, DeriveStatus(true, false, true))
	assert.Equal(t, StatusUnlocked, DeriveStatus(false, true, true))
	assert.Equal(t, StatusResubmitted, DeriveStatus(true, true, true))
}

func TestLinkValidAt(t *testing.T) {
	until := int64(5)
	l := Link{ValidAfterSeq: 2, ValidUntilSeq: &until}
	assert.False(t, l.ValidAt(1))
	assert.True(t, l.ValidAt(2))
	assert.True(t, l.ValidAt(4))
	assert.False(t, l.ValidAt(5))

	open := Link{ValidAfterSeq: 2}
	assert.True(t, open.ValidAt(100))

	removal := Link{ValidAfterSeq: 2, IsRemoval: true}
	assert.False(t, removal.ValidAt(3))
}

func TestKind(t *testing.T) {
	assert.True(t, KindContract.Valid())
	assert.False(t, Kind("OTHER").Valid())
	assert.Equal(t, KindRate, KindContract.Other())
	assert.Equal(t, KindContract, KindRate.Other())
}
