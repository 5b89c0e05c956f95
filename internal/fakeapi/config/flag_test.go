package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-a", "127.0.0.1:9090", "-s", "secret", "-t", "2", "-r", "30", "-p", "JWT", "-b", "4", "-l", "debug"},
			expected: &Config{
				ListenAddr:                   "127.0.0.1:9090",
				SecretKey:                    "secret",
				AccessTokenValidityDuration:  2 * time.Minute,
				RefreshTokenValidityDuration: 30 * time.Minute,
				AuthScheme:                   "JWT",
				BcryptCost:                   4,
				LogLevel:                     "debug",
			},
		},
		{
			name: "unvisited durations keep sub-minute values",
			args: []string{"cmd", "-a", ":1"},
			expected: &Config{
				ListenAddr:                   ":1",
				AccessTokenValidityDuration:  30 * time.Second,
				RefreshTokenValidityDuration: 90 * time.Second,
			},
		},
		{
			name:        "bad int",
			args:        []string{"cmd", "-t", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{
				AccessTokenValidityDuration:  30 * time.Second,
				RefreshTokenValidityDuration: 90 * time.Second,
			}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
