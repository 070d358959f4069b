package suitejson_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rlch/suitejson"
)

type fakeRun struct {
	root    any
	stats   any
	version string
	results *suitejson.Envelope
}

func (r *fakeRun) RootSuite() any { return r.root }

func (r *fakeRun) Stats() any { return r.stats }

func (r *fakeRun) HostVersion() string { return r.version }

func (r *fakeRun) SetTestResults(env *suitejson.Envelope) { r.results = env }

func TestReporterWritesOnce(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	run := &fakeRun{root: sampleRoot(), stats: sampleStats, version: "2.1.0"}
	r := suitejson.NewReporter(suitejson.Options{IncludeStats: true}, &buf, suitejson.WithLogger(zaptest.NewLogger(t)))

	require.NoError(t, r.OnEnd(run))
	require.NotNil(t, run.results)

	want, err := run.results.Encode(suitejson.Options{})
	require.NoError(t, err)
	assert.Equal(t, string(want), buf.String())

	written := buf.Len()

	require.ErrorIs(t, r.OnEnd(run), suitejson.ErrAlreadyReported)
	assert.Equal(t, written, buf.Len())
}

func TestReporterSink(t *testing.T) {
	t.Parallel()

	var (
		buf  bytes.Buffer
		sunk []string
	)

	opts := suitejson.ParseOptions(map[string]any{"stats": "off", "space": 0})
	run := &fakeRun{root: sampleRoot(), stats: sampleStats, version: "1.0.0"}

	opts.Sink = func(text string) { sunk = append(sunk, text) }

	require.NoError(t, suitejson.NewReporter(opts, &buf).OnEnd(run))

	assert.Empty(t, buf.String())
	require.Len(t, sunk, 1)
	assert.NotContains(t, sunk[0], `"stats"`)
	assert.Nil(t, run.results.Stats)
}

func TestReporterContractError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	run := &fakeRun{root: map[string]any{"title": "no accessors"}, version: "2.1.0"}

	err := suitejson.NewReporter(suitejson.DefaultOptions(), &buf).OnEnd(run)
	require.ErrorIs(t, err, suitejson.ErrContract)
	assert.Empty(t, buf.String())
	assert.Nil(t, run.results)
}
