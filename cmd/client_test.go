package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msgsync/config"
	"msgsync/server"
	"msgsync/storage"
)

func TestClientCommandListsAndQuits(t *testing.T) {
	t.Setenv(config.EnvDataDir, t.TempDir())

	store, _, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()
	_, err = store.CreateMessage("Never odd or even")
	require.NoError(t, err)

	handler, err := server.New(store, server.Options{})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader("quit\n"))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"client", "--env-file", "", "--api", srv.URL + server.APIRoot, "--placeholder", "Type here"})
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	output := out.String()
	assert.Contains(t, output, "API Root:        "+srv.URL+server.APIRoot)
	assert.Contains(t, output, "Never odd or even")
	assert.Contains(t, output, "> (Type here)")
}
