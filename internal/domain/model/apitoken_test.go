package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenDigest(t *testing.T) {
	// sha256("test-token")
	want := "4c5dc9b7708905f77f5e5d16316b5dfb425e68cb326dcd55a860e90a7707031e"

	got := TokenDigest("test-token")

	assert.Equal(t, want, got)
	assert.Len(t, got, TokenDigestLength)
	assert.NotEqual(t, got, TokenDigest("Test-token"), "digest must be case sensitive")
}

func TestIsTokenDigest(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "computed digest", in: TokenDigest("anything"), want: true},
		{name: "empty", in: "", want: false},
		{name: "too short", in: "abc123", want: false},
		{name: "uppercase hex", in: "4C5DC9B7708905F77F5E5D16316B5DFB425E68CB326DCD55A860E90A7707031E", want: false},
		{name: "non hex", in: "zz5dc9b7708905f77f5e5d16316b5dfb425e68cb326dcd55a860e90a7707031e", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTokenDigest(tc.in))
		})
	}
}
