package localization_test

import (
	"os"
	"path/filepath"
	"testing"

	"civicreport/backend/internal/localization"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ResolvesBuiltinLanguages(t *testing.T) {
	l := localization.Default()

	assert.True(t, l.Has("en"))
	assert.True(t, l.Has("it"))
	assert.Equal(t, "resolved", l.GetString("en", "status.RESOLVED"))
	assert.Equal(t, "risolta", l.GetString("it", "status.RESOLVED"))
}

func TestGetString_Fallbacks(t *testing.T) {
	l := localization.Default()

	tests := []struct {
		name string
		lang string
		key  string
		want string
	}{
		{"unknown language falls back to english", "de", "status.IN_PROGRESS", "in progress"},
		{"unknown key returns the key", "it", "no.such.key", "no.such.key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.GetString(tt.lang, tt.key))
		})
	}
}

func TestFormat(t *testing.T) {
	l := localization.Default()

	assert.Equal(t, "Update on your report #7", l.Format("en", "notify.status.subject", 7))
}

func TestNewLocalizer_FromDirectory(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{"hello":"Hello"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fr.json"), []byte(`{"hello":"Bonjour"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0o600))

	// Act
	l, err := localization.NewLocalizer(dir)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", l.GetString("fr", "hello"))
	assert.False(t, l.Has("notes"))
}

func TestNewLocalizer_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{`), 0o600))

	_, err := localization.NewLocalizer(dir)

	assert.Error(t, err)
}

func TestNewLocalizer_MissingDirectory(t *testing.T) {
	_, err := localization.NewLocalizer(filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, err)
}
