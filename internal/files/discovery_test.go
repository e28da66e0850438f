package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestDiscovery_FindSessionFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"vaca_12.csv", "Vaca_3.XLSX", "notes.txt", "~$Vaca_3.xlsx", "a.csv"} {
		touch(t, dir, name)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755))

	files, err := NewDiscovery("").FindSessionFiles(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Vaca_3.XLSX", "a.csv", "vaca_12.csv"}, names)
	assert.Equal(t, "Vaca_3", files[0].Stem())
	assert.Equal(t, ".xlsx", files[0].Ext())
}

func TestDiscovery_RelativeToBase(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "raw"), 0o755))
	touch(t, filepath.Join(base, "raw"), "1.csv")

	files, err := NewDiscovery(base).FindSessionFiles("raw")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(base, "raw", "1.csv"), files[0].Path)

	_, err = NewDiscovery(base).FindSessionFiles("missing")
	assert.Error(t, err)
}

func TestHasExtension(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.csv", true},
		{"a.CSV", true},
		{"a.xlsx", true},
		{"a.xls", false},
		{"csv", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasExtension(tt.name, SessionExtensions...))
		})
	}
}

func TestDiscovery_FindHorizonModels(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, HorizonModelName("t1"))
	touch(t, dir, HorizonModelName("next3"))

	found := NewDiscovery("").FindHorizonModels(dir, []string{"t1", "t2", "t3", "next3"})
	assert.Equal(t, map[string]string{
		"t1":    filepath.Join(dir, "C2_t1_F1.json"),
		"next3": filepath.Join(dir, "C2_next3_F1.json"),
	}, found)
}

func TestManager_WriteFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out")
	m := NewManager(root)

	path, err := m.WriteFile("nested/report.json", []byte(`{"ok":true}`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "nested", "report.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))

	entries, err := os.ReadDir(filepath.Join(root, "nested"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not remain")
}
