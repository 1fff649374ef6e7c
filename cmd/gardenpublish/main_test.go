package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommand_RegistersSubcommands(t *testing.T) {
	cmd := newCommand()

	names := make([]string, 0, len(cmd.Commands))
	for _, sub := range cmd.Commands {
		names = append(names, sub.Name)
		require.NotNil(t, sub.Action, sub.Name)
	}

	assert.ElementsMatch(t, []string{
		"status", "publish", "delete", "url", "mark",
		"template", "history", "themes", "login", "serve", "watch",
	}, names)
}
