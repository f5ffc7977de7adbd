package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"-1.005", "-1.01"},
		{"66.666", "66.67"},
		{"10", "10"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.True(t, Round2(MustMoney(tt.in)).Equal(MustMoney(tt.want)))
		})
	}
}

func TestPercentOf(t *testing.T) {
	assert.True(t, PercentOf(MustMoney("150"), MustMoney("10")).Equal(MustMoney("15")))
	assert.True(t, PercentOf(MustMoney("33.33"), MustMoney("7")).Equal(MustMoney("2.33")))
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(13500), Cents(MustMoney("135")))
	assert.Equal(t, int64(6667), Cents(MustMoney("66.666")))
}

func TestMaxZeroAndSum(t *testing.T) {
	assert.True(t, MaxZero(MustMoney("-3")).IsZero())
	assert.True(t, Sum(MustMoney("1.10"), MustMoney("2.20")).Equal(MustMoney("3.30")))
}
