package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/imgscrape/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_GenerateReport(t *testing.T) {
	outputDir := t.TempDir()
	reporter := NewReporter(outputDir)

	stats := models.NewRunStats(3)
	stats.Found = 2
	stats.RecordFailure(models.FailurePreviewTimeout)

	report := &models.RunReport{
		RunID:  "run-1",
		Query:  "red panda",
		Folder: filepath.Join(outputDir, "red_panda"),
		Stats:  stats,
	}

	path, err := reporter.GenerateReport(report)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outputDir, "reports", "red_panda_run-1.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded models.RunReport
	require.NoError(t, decoded.FromJSON(data))
	assert.Equal(t, 2, decoded.Stats.Found)
	assert.Equal(t, 1, decoded.Stats.Failures[models.FailurePreviewTimeout])

	// 报告不能写进图片目录
	_, err = os.Stat(report.Folder)
	assert.True(t, os.IsNotExist(err))
}

func TestNewProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, 2, "Fetching images")

	require.NoError(t, bar.Add(1))
	require.NoError(t, bar.Add(1))
	require.NoError(t, bar.Close())

	assert.Contains(t, buf.String(), "Fetching images")
	assert.Contains(t, buf.String(), "2/2")
}
