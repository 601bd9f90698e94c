package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditfile/internal/exporter"
	"creditfile/internal/features"
	"creditfile/internal/services"
	"creditfile/internal/shared/testutil"
	api "creditfile/pkg/contracts/api/v1"
)

func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(ctx, &cli{}, args, &stdout, &stderr)
	return stdout.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, context.Background(), "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "creditfile v"), out)
}

func TestFeaturesCommand(t *testing.T) {
	out, err := execute(t, context.Background(), "features")
	require.NoError(t, err)
	assert.Equal(t, features.ModelFeatures(), strings.Fields(out))

	out, err = execute(t, context.Background(), "features", "--json")
	require.NoError(t, err)
	var list api.FeatureListResponse
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Equal(t, len(features.ModelFeatures()), list.Count)
}

func TestScoreCommand(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "results")
	testutil.SampleReport().SaveWorkbook(t, in, "juan.xlsx")
	testutil.SampleReport().SaveWorkbook(t, in, "pedro.xlsx")
	require.NoError(t, os.WriteFile(filepath.Join(in, "~$juan.xlsx"), []byte("lock"), 0644))

	stdout, err := execute(t, context.Background(), "score", in, "--out", out, "--workers", "2", "--score")
	require.NoError(t, err)
	assert.Contains(t, stdout, "juan.xlsx")
	assert.Contains(t, stdout, "pedro.xlsx")
	assert.Contains(t, stdout, "2 reports: 2 scored")

	assert.FileExists(t, filepath.Join(out, "juan.json"))
	assert.FileExists(t, filepath.Join(out, "pedro.json"))

	data, err := os.ReadFile(filepath.Join(out, "juan.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"score_model": "baseline-linear"`)

	data, err = os.ReadFile(filepath.Join(out, exporter.FeaturesFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
}

func TestScoreCommandWithoutScoring(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	path := testutil.SampleReport().SaveWorkbook(t, in, "juan.xlsx")

	stdout, err := execute(t, context.Background(), "score", path, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 reports: 0 scored")

	data, err := os.ReadFile(filepath.Join(out, "juan.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "credit_score")
}

func TestScoreCommandModelFlag(t *testing.T) {
	in := t.TempDir()
	path := testutil.SampleReport().SaveWorkbook(t, in, "juan.xlsx")

	_, err := execute(t, context.Background(), "score", path, "--out", t.TempDir(),
		"--model", filepath.Join(in, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to load model")

	stdout, err := execute(t, context.Background(), "score", path, "--out", t.TempDir(),
		"--model", filepath.Join(in, "missing.yaml"), "--score=false")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 reports: 0 scored")
}

func TestScoreCommandShowRecord(t *testing.T) {
	path := testutil.SampleReport().SaveWorkbook(t, t.TempDir(), "juan.xlsx")

	stdout, err := execute(t, context.Background(), "score", path, "--out", t.TempDir(), "--show-record")
	require.NoError(t, err)
	assert.Contains(t, stdout, "DATA VALIDATION: juan.xlsx\n")
	assert.Contains(t, stdout, "\npersonal_data\n")
	assert.Contains(t, stdout, "    name: Juan Dela Cruz\n")
	assert.Contains(t, stdout, "    dependent_ages: [5, 8 mo, 90]\n")
	assert.Contains(t, stdout, "\nincome_analysis\n    income\n")
	assert.Contains(t, stdout, "MISSING DATA\n")
	assert.Contains(t, stdout, "    personal_data: [present_address, parents_address]\n")
	assert.Contains(t, stdout, "    income_analysis.summary: [monthly_amortization]\n")
	assert.NotContains(t, stdout, "credit_score:")

	// the summary table still follows the records
	assert.Less(t, strings.Index(stdout, "MISSING DATA"), strings.Index(stdout, "FILE"))
}

func TestLogFileClosedOnFailure(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs", "creditfile.log")
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(
		"logging:\n  output: file\n  file_path: %s\n", logPath)), 0644))

	c := &cli{}
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), c, []string{"score", t.TempDir(), "--config", cfgPath}, &stdout, &stderr)
	require.ErrorIs(t, err, services.ErrNoReportsFound)

	assert.Nil(t, c.logFile, "log file left open after a failed command")
	assert.FileExists(t, logPath)
}

func TestScoreCommandFailures(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	testutil.SampleReport().SaveWorkbook(t, in, "juan.xlsx")
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.xlsx"), []byte("not a workbook"), 0644))

	stdout, err := execute(t, context.Background(), "score", in, "--out", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 reports failed")
	assert.Contains(t, stdout, "failed:")
	assert.FileExists(t, filepath.Join(out, "juan.json"))
	assert.NoFileExists(t, filepath.Join(out, "broken.json"))

	_, err = execute(t, context.Background(), "score", t.TempDir(), "--out", out)
	assert.ErrorIs(t, err, services.ErrNoReportsFound)

	_, err = execute(t, context.Background(), "score", filepath.Join(in, "missing.xlsx"))
	assert.Error(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := execute(t, context.Background(), "features", "--log-level", "loud")
	assert.Error(t, err)
}

func TestWatchCommand(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	archive := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := execute(t, ctx, "watch", "--in", in, "--out", out, "--archive", archive, "--settle", "50ms")
		done <- err
	}()

	// the watcher needs a moment to register the directory
	time.Sleep(200 * time.Millisecond)
	testutil.SampleReport().SaveWorkbook(t, in, "juan.xlsx")

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(archive, "juan.xlsx"))
		return err == nil
	}, 10*time.Second, 20*time.Millisecond)

	assert.FileExists(t, filepath.Join(out, "juan.json"))
	assert.FileExists(t, filepath.Join(out, exporter.FeaturesFile))
	assert.NoFileExists(t, filepath.Join(in, "juan.xlsx"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
