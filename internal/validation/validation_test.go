package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditfile/internal/dataprocessing"
	"creditfile/internal/normalize"
	"creditfile/internal/shared/testutil"
	"creditfile/pkg/contracts/domain"
)

func TestMissingFieldsSampleReport(t *testing.T) {
	g := dataprocessing.NewGrid(testutil.SampleReport().Rows())
	rec := normalize.Normalize(dataprocessing.ParseReport(g, dataprocessing.FileDetails{Filename: "juan.xlsx"}))

	missing := MissingFields(&rec)

	assert.Equal(t, map[string][]string{
		"personal_data":           {"present_address", "parents_address"},
		"income_analysis.summary": {"monthly_amortization"},
	}, missing)
	assert.Equal(t, []string{"income_analysis.summary", "personal_data"}, Sections(missing))
}

func TestMissingFieldsEmptyRecord(t *testing.T) {
	missing := MissingFields(&domain.NormalizedRecord{})

	require.Len(t, missing, len(EssentialFields))
	for _, req := range EssentialFields {
		assert.Equal(t, req.Fields, missing[req.Section], req.Section)
	}
}

func TestMissingFieldsDependentAges(t *testing.T) {
	reqs := []Requirement{{Section: "personal_data", Fields: []string{"dependent_ages"}}}

	var rec domain.NormalizedRecord
	rec.PersonalData.Set("dependent_ages", domain.List([]string{"", ""}))
	assert.Equal(t, map[string][]string{"personal_data": {"dependent_ages"}}, Check(&rec, reqs))

	rec.PersonalData.Set("dependent_ages", domain.List([]string{"", "7"}))
	assert.Empty(t, Check(&rec, reqs))
}

func TestCheckWorkbookName(t *testing.T) {
	assert.NoError(t, CheckWorkbookName("reports/juan.xlsx"))
	assert.NoError(t, CheckWorkbookName("JUAN.XLSX"))
	assert.ErrorIs(t, CheckWorkbookName("juan.xls"), ErrNotWorkbook)
	assert.ErrorIs(t, CheckWorkbookName("notes.txt"), ErrNotWorkbook)
	assert.ErrorIs(t, CheckWorkbookName("~$juan.xlsx"), ErrLockFile)
}

func TestFileValidator(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	v := NewFileValidator(logger)
	dir := t.TempDir()

	t.Run("empty input directory", func(t *testing.T) {
		require.NoError(t, v.ValidateInputDirectory(dir))
		testutil.AssertLogContains(t, handler, slog.LevelWarn, "No workbooks found")
	})

	t.Run("missing input directory", func(t *testing.T) {
		assert.Error(t, v.ValidateInputDirectory(filepath.Join(dir, "nope")))
	})

	t.Run("input path is a file", func(t *testing.T) {
		path := filepath.Join(dir, "plain.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		assert.Error(t, v.ValidateInputDirectory(path))
	})

	t.Run("counts workbooks", func(t *testing.T) {
		testutil.SampleReport().SaveWorkbook(t, dir, "juan.xlsx")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "~$juan.xlsx"), []byte("lock"), 0o644))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.xlsx"), 0o755))

		n, err := v.CountWorkbooks(dir)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		require.NoError(t, v.ValidateInputDirectory(dir))
		testutil.AssertLogAttr(t, handler, "files_found", int64(1))
	})

	t.Run("workbook", func(t *testing.T) {
		assert.NoError(t, v.ValidateWorkbook(filepath.Join(dir, "juan.xlsx")))
		assert.ErrorIs(t, v.ValidateWorkbook(filepath.Join(dir, "~$juan.xlsx")), ErrLockFile)
		assert.Error(t, v.ValidateWorkbook(filepath.Join(dir, "archive.xlsx")))
		assert.Error(t, v.ValidateWorkbook(filepath.Join(dir, "gone.xlsx")))
	})

	t.Run("output directory", func(t *testing.T) {
		out := filepath.Join(dir, "out", "nested")
		require.NoError(t, v.ValidateOutputDirectory(out))
		assert.DirExists(t, out)

		entries, err := os.ReadDir(out)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	testutil.AssertLogAttr(t, handler, "component", "file_validator")
}
