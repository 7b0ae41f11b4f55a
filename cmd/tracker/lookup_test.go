package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRiotID(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		tag     string
		wantErr bool
	}{
		{in: "Kira#EUW", name: "Kira", tag: "EUW"},
		{in: "Team #1#0001", name: "Team #1", tag: "0001"},
		{in: "Kira", wantErr: true},
		{in: "#EUW", wantErr: true},
		{in: "Kira#", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, tag, err := splitRiotID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.tag, tag)
		})
	}
}
