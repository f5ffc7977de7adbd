package sales

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateLockKeysOverlapWithinTolerance(t *testing.T) {
	keys := duplicateLockKeys(dec("10.00"))
	assert.Equal(t, []string{"sales:dup:999", "sales:dup:1000", "sales:dup:1001"}, keys)

	tests := []struct {
		a, b  string
		share bool
	}{
		{a: "10.00", b: "10.01", share: true},
		{a: "10.01", b: "10.00", share: true},
		{a: "10.00", b: "10.00", share: true},
		{a: "10.00", b: "9.99", share: true},
		{a: "10.00", b: "10.03", share: false},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			shared := false
			for _, ka := range duplicateLockKeys(dec(tt.a)) {
				for _, kb := range duplicateLockKeys(dec(tt.b)) {
					if ka == kb {
						shared = true
					}
				}
			}
			assert.Equal(t, tt.share, shared)
		})
	}
}

type failingLocker struct {
	failOn   string
	obtained []string
	released []string
}

func (l *failingLocker) Obtain(_ context.Context, key string) (func(), error) {
	if key == l.failOn {
		return nil, errors.New("busy")
	}
	l.obtained = append(l.obtained, key)
	return func() { l.released = append(l.released, key) }, nil
}

func TestObtainDuplicateLocksReleasesHeldKeysOnFailure(t *testing.T) {
	locker := &failingLocker{failOn: "sales:dup:1001"}
	s := &Service{locker: locker}

	release, err := s.obtainDuplicateLocks(context.Background(), dec("10.00"))
	require.Error(t, err)
	assert.Nil(t, release)
	assert.Equal(t, []string{"sales:dup:999", "sales:dup:1000"}, locker.obtained)
	assert.Equal(t, []string{"sales:dup:1000", "sales:dup:999"}, locker.released)
}

func TestObtainDuplicateLocksReleasesInReverse(t *testing.T) {
	locker := &failingLocker{}
	s := &Service{locker: locker}

	release, err := s.obtainDuplicateLocks(context.Background(), dec("10.00"))
	require.NoError(t, err)
	assert.Empty(t, locker.released)
	release()
	assert.Equal(t, []string{"sales:dup:1001", "sales:dup:1000", "sales:dup:999"}, locker.released)
}
