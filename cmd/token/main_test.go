package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postboard/service/internal/auth"
)

func TestTokenCommand(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "cli-secret")

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--user-id", "user-7", "--username", "ananda", "--ttl", "1h"})
	require.NoError(t, cmd.Execute())

	claims, err := auth.ParseToken("cli-secret", strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "user-7", claims.UserID)
	assert.Equal(t, "ananda", claims.Username)
}

func TestTokenCommand_RequiresUserID(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(nil)
	assert.Error(t, cmd.Execute())
}

func TestTokenCommand_RefusesProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--user-id", "user-7"})
	assert.Error(t, cmd.Execute())
}
