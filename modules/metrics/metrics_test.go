// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ChallengesIssued.Inc()
	m.ChallengesIssued.Inc()
	m.Verifications.WithLabelValues(ResultMismatch).Inc()

	assert.InDelta(t, 2, testutil.ToFloat64(m.ChallengesIssued), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Verifications.WithLabelValues(ResultMismatch)), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.Verifications.WithLabelValues(ResultVerified)), 0)
}

func TestIndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.BundlesWritten.Inc()
	assert.InDelta(t, 0, testutil.ToFloat64(b.BundlesWritten), 0)
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ForgesCreated.Inc()

	path := filepath.Join(t.TempDir(), "starchart.prom")
	require.NoError(t, m.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "starchart_forges_created_total 1")
}
