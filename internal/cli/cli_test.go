package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subcommandNames(cmd *cobra.Command) []string {
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	return names
}

func TestRootCmd_Structure(t *testing.T) {
	assert.Equal(t, "gitquest", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := subcommandNames(rootCmd)

	for _, expected := range []string{
		"sync", "profile", "history", "badges", "challenges", "leaderboard",
		"grant", "verify", "recover", "ratelimit", "codestats", "cache", "auth", "daemon",
	} {
		assert.Contains(t, names, expected, "Missing subcommand: %s", expected)
	}
}

func TestNestedSubcommands(t *testing.T) {
	assert.ElementsMatch(t, []string{"scan", "show"}, subcommandNames(codeStatsCmd))
	assert.ElementsMatch(t, []string{"ls", "sweep"}, subcommandNames(cacheCmd))
	assert.ElementsMatch(t, []string{"reset"}, subcommandNames(authCmd))
}

func TestAliases(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"s"})
	require.NoError(t, err)
	assert.Same(t, syncCmd, cmd)

	cmd, _, err = rootCmd.Find([]string{"lb"})
	require.NoError(t, err)
	assert.Same(t, leaderboardCmd, cmd)
}

func TestFlags(t *testing.T) {
	tests := []struct {
		cmd  *cobra.Command
		flag string
	}{
		{syncCmd, "json"},
		{profileCmd, "json"},
		{historyCmd, "limit"},
		{badgesCmd, "all"},
		{challengesCmd, "generate"},
		{grantCmd, "reason"},
		{verifyCmd, "json"},
		{codeStatsScanCmd, "author"},
		{codeStatsScanCmd, "days"},
		{codeStatsShowCmd, "user"},
		{daemonCmd, "addr"},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.Name()+"/"+tt.flag, func(t *testing.T) {
			assert.NotNil(t, tt.cmd.Flag(tt.flag))
		})
	}
}

func TestArgs(t *testing.T) {
	assert.Error(t, grantCmd.Args(grantCmd, []string{"octocat"}))
	assert.NoError(t, grantCmd.Args(grantCmd, []string{"octocat", "10"}))
	assert.Error(t, verifyCmd.Args(verifyCmd, []string{"a", "b"}))
	assert.Error(t, daemonCmd.Args(daemonCmd, []string{"extra"}))
}
