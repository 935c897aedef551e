package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireOwner(t *testing.T) {
	tests := []struct {
		name   string
		owner  int64
		caller int64
		want   Access
	}{
		{name: "owner", owner: 42, caller: 42, want: AccessGranted},
		{name: "stranger", owner: 42, caller: 7, want: AccessNotOwner},
		{name: "no owner configured", owner: -1, caller: -1, want: AccessNotOwner},
		{name: "zero owner", owner: 0, caller: 0, want: AccessNotOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RequireOwner(tt.owner, tt.caller)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want == AccessGranted, got.Granted())
		})
	}
}

type stubChecker struct {
	known map[int64]bool
	err   error
}

func (s stubChecker) IsKnown(_ context.Context, id int64) (bool, error) {
	return s.known[id], s.err
}

func TestRequireKnownUser(t *testing.T) {
	ctx := context.Background()
	users := stubChecker{known: map[int64]bool{5: true}}

	assert.Equal(t, AccessGranted, RequireKnownUser(ctx, users, 5))
	assert.Equal(t, AccessUnknownUser, RequireKnownUser(ctx, users, 6))
	assert.Equal(t, AccessUnavailable, RequireKnownUser(ctx, stubChecker{err: errors.New("db is gone")}, 5))
}

func TestAccessMessage(t *testing.T) {
	assert.Empty(t, AccessGranted.Message())
	for _, a := range []Access{AccessNotOwner, AccessUnknownUser, AccessUnavailable} {
		assert.NotEmpty(t, a.Message())
	}
}
