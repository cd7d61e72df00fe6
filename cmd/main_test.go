// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"codeberg.org/forgeflux/starchart/modules/setting"
	"codeberg.org/forgeflux/starchart/modules/test"
	"codeberg.org/forgeflux/starchart/services/federate"
	"codeberg.org/forgeflux/starchart/services/verification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	mu      sync.Mutex
	records map[string][]string
}

func (r *fakeResolver) LookupTXT(_ context.Context, name string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if records, ok := r.records[name]; ok {
		return records, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
}

type cliEnv struct {
	t        *testing.T
	dir      string
	config   string
	resolver *fakeResolver
}

func newCliEnv(t *testing.T, secret string) *cliEnv {
	t.Cleanup(test.MockProtect(&setting.Database))
	t.Cleanup(test.MockProtect(&setting.Verification))
	t.Cleanup(test.MockProtect(&setting.Federation))
	t.Cleanup(test.MockProtect(&setting.AppDataPath))

	dir := t.TempDir()
	config := filepath.Join(dir, "app.ini")
	require.NoError(t, os.WriteFile(config, []byte(fmt.Sprintf(`
[server]
APP_DATA_PATH = %[1]s

[database]
DB_TYPE = bolt

[verification]
SECRET = %[2]s

[log]
LEVEL = warn
`, dir, secret)), 0o600))
	return &cliEnv{t: t, dir: dir, config: config, resolver: &fakeResolver{records: map[string][]string{}}}
}

func (e *cliEnv) run(args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	ctx := context.Background()
	ctx = ContextSetNoExit(ctx, true)
	ctx = ContextSetStdout(ctx, &stdout)
	ctx = ContextSetStderr(ctx, &stderr)
	ctx = ContextSetResolver(ctx, e.resolver)

	app := NewMainApp(ctx, "test")
	err := RunMainApp(ctx, app, append([]string{"starchart", "--config", e.config}, args...)...)
	return stdout.String(), err
}

var valueRegexp = regexp.MustCompile(`value: (\S+)`)

func TestChallengeLifecycle(t *testing.T) {
	env := newCliEnv(t, "0123456789abcdef0123")

	out, err := env.run("migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Store ready")

	out, err = env.run("challenge", "request", "https://git.example.org/explore")
	require.NoError(t, err)
	assert.Contains(t, out, "_starchart-challenge.git.example.org")
	match := valueRegexp.FindStringSubmatch(out)
	require.Len(t, match, 2)
	value := match[1]
	assert.Len(t, value, verification.ValueLength)

	out, err = env.run("challenge", "show", "https://git.example.org")
	require.NoError(t, err)
	assert.Contains(t, out, value)

	_, err = env.run("challenge", "verify", "https://git.example.org")
	assert.True(t, verification.IsErrChallengeNotVerified(err), "%v", err)

	env.resolver.records["_starchart-challenge.git.example.org"] = []string{value}
	out, err = env.run("challenge", "verify", "--type", "gitea", "https://git.example.org")
	require.NoError(t, err)
	assert.Contains(t, out, "registered as gitea forge")

	_, err = env.run("challenge", "show", "https://git.example.org")
	assert.ErrorContains(t, err, "no challenge was requested")

	out, err = env.run("forge", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "https://git.example.org")

	textfile := filepath.Join(env.dir, "starchart.prom")
	out, err = env.run("--metrics-textfile", textfile, "export", "bundle", "--rebuild")
	require.NoError(t, err)
	bundlePath := strings.TrimSpace(out)
	snapshot, err := federate.ReadBundle(bundlePath)
	require.NoError(t, err)
	require.Len(t, snapshot.Instances, 1)
	assert.Equal(t, "https://git.example.org", snapshot.Instances[0].Hostname)
	metrics, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "starchart_bundles_written_total 1")

	_, err = env.run("forge", "delete", "https://git.example.org")
	require.NoError(t, err)
	out, err = env.run("forge", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "https://git.example.org")
}

func TestChallengeAbandon(t *testing.T) {
	env := newCliEnv(t, "0123456789abcdef0123")

	_, err := env.run("challenge", "request", "https://git.example.org")
	require.NoError(t, err)
	_, err = env.run("challenge", "abandon", "https://git.example.org")
	require.NoError(t, err)
	_, err = env.run("challenge", "show", "https://git.example.org")
	assert.Error(t, err)
}

func TestChallengeRequiresSecret(t *testing.T) {
	env := newCliEnv(t, "")
	setting.Verification.Secret = ""

	_, err := env.run("challenge", "request", "https://git.example.org")
	assert.ErrorContains(t, err, "SECRET is not set")
}

func TestChallengeArguments(t *testing.T) {
	env := newCliEnv(t, "0123456789abcdef0123")

	_, err := env.run("challenge", "request")
	assert.ErrorContains(t, err, "expected exactly one forge URL")

	_, err = env.run("challenge", "verify", "--type", "sourcehut", "https://git.example.org")
	assert.ErrorContains(t, err, "unsupported forge type")

	nodeinfo := filepath.Join(env.dir, "nodeinfo.json")
	require.NoError(t, os.WriteFile(nodeinfo, []byte(`{"version":"2.1","software":{"name":"forgejo","version":"9.0.0"}}`), 0o600))
	_, err = env.run("challenge", "verify", "--type", "gitea", "--nodeinfo", nodeinfo, "https://git.example.org")
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestGenerateSecret(t *testing.T) {
	env := newCliEnv(t, "")
	out, err := env.run("generate", "secret")
	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(out), 64)
}
