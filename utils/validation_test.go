package utils

import (
	"os"
	"path/filepath"
	"testing"

	"sales-dashboard/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"sales.csv", "sales.csv"},
		{"../../etc/passwd", "passwd"},
		{"  report 2024.xlsx ", "report 2024.xlsx"},
		{"sa<l>es$.csv", "sales.csv"},
		{"..", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), tt.in)
	}
}

func TestValidateUpload(t *testing.T) {
	name, err := ValidateUpload("Q1 Sales.CSV", 100, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "Q1 Sales.CSV", name)

	_, err = ValidateUpload("data.xls", 100, 0)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedFile))

	_, err = ValidateUpload("data.txt", 100, 0)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedFile))

	_, err = ValidateUpload("data.csv", 2<<20, 1<<20)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "maximum size is 1 MB")

	_, err = ValidateUpload("data.csv", 0, 0)
	assert.True(t, errors.IsInvalidInput(err))

	_, err = ValidateUpload("$$$", 10, 0)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestVerifyFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	assert.True(t, VerifyFileExists(path))
	assert.False(t, VerifyFileExists(dir))
	assert.False(t, VerifyFileExists(filepath.Join(dir, "missing.csv")))
}

func TestGenerateRequestID(t *testing.T) {
	assert.NotEqual(t, GenerateRequestID(), GenerateRequestID())
	assert.Len(t, GenerateRequestID(), 36)
}
