package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"canvamcp/internal/config"
	pkgoauth "canvamcp/pkg/oauth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenInfoFor(t *testing.T) {
	cfg := config.GetDefaultConfig()

	expiry := time.Now().Add(time.Hour).UnixMilli()
	info, err := tokenInfoFor(cfg, "abcdef", expiry)
	require.NoError(t, err)
	assert.True(t, info.HasAccessToken)
	assert.False(t, info.IsExpired)
	assert.Equal(t, expiry, info.TokenExpiry)
	assert.Greater(t, info.TimeUntilExpirySeconds, int64(3500))

	info, err = tokenInfoFor(cfg, "", 0)
	require.NoError(t, err)
	assert.False(t, info.HasAccessToken)
	assert.False(t, info.IsExpired)

	cfg.Server.URL = "ftp://example.com"
	_, err = tokenInfoFor(cfg, "abcdef", expiry)
	assert.Error(t, err)
}

func TestRenderTokenInfo(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		info     pkgoauth.TokenInfo
		contains []string
	}{
		{
			name:     "valid token",
			info:     pkgoauth.ComputeTokenInfo("abcdef", now.Add(2*time.Hour), now),
			contains: []string{"Present (6 characters)", "Valid", "Token is valid."},
		},
		{
			name:     "expired token",
			info:     pkgoauth.ComputeTokenInfo("abc", now.Add(-time.Minute), now),
			contains: []string{"Expired", "Token expired"},
		},
		{
			name:     "no token",
			info:     pkgoauth.ComputeTokenInfo("", time.Time{}, now),
			contains: []string{"Not present", "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			renderTokenInfo(&buf, tt.info)
			out := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output should contain %q, got:\n%s", want, out)
				}
			}
		})
	}
}
