package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modpkg/modpkg/internal/model"
)

const sampleManifest = `
[package]
name = "skyblock-pack"
version = "1.0.0"

[requirements]
minecraft = "1.12.2"

[dependencies]
mouse-tweaks = "curse:60089"
jei = "latest"
optifine = "https://example.com/OptiFine.jar"
placeholder = "none"

[dev.dependencies]
debug-tools = "1.0.0"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	m, err := Load(writeFile(t, "minepkg.toml", sampleManifest))
	require.NoError(t, err)

	assert.Equal(t, "skyblock-pack", m.Package.Name)
	assert.Equal(t, "1.12.2", m.Requirements.Minecraft)
	assert.Len(t, m.Dependencies, 4)
	assert.Equal(t, "1.0.0", m.Dev.Dependencies["debug-tools"])
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.toml", "[package\nname="))
	assert.Error(t, err)
}

func TestInterpretedDependencies(t *testing.T) {
	m, err := Load(writeFile(t, "minepkg.toml", sampleManifest))
	require.NoError(t, err)

	deps := m.InterpretedDependencies()
	require.Len(t, deps, 4)

	want := []InterpretedDependency{
		{Provider: ProviderMinepkg, Name: "jei", Source: "latest"},
		{Provider: ProviderCurse, Name: "mouse-tweaks", Source: "60089"},
		{Provider: ProviderHTTPS, Name: "optifine", Source: "https://example.com/OptiFine.jar"},
		{Provider: ProviderDummy, Name: "placeholder", Source: "none"},
	}
	for i, dep := range deps {
		assert.Equal(t, want[i], *dep)
	}

	dev := m.InterpretedDevDependencies()
	require.Len(t, dev, 1)
	assert.True(t, dev[0].IsDev)
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		source   string
		provider string
		want     string
	}{
		{"1.2.3", ProviderMinepkg, "1.2.3"},
		{"https://x.io/a.jar", ProviderHTTPS, "https://x.io/a.jar"},
		{"none", ProviderDummy, "none"},
		{"curse:238222", "curse", "238222"},
		{"git:a:b", "git", "a:b"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			dep := Interpret("name", tt.source)
			assert.Equal(t, tt.provider, dep.Provider)
			assert.Equal(t, tt.want, dep.Source)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	m := New("pack", "1.16.5")
	m.AddDependency("jei", "latest")
	m.AddDependency("jei", "7.6.1")

	path := filepath.Join(t.TempDir(), "minepkg.toml")
	require.NoError(t, m.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pack", loaded.Package.Name)
	assert.Equal(t, "1.16.5", loaded.Requirements.Minecraft)
	assert.Equal(t, map[string]string{"jei": "7.6.1"}, loaded.Dependencies)
}

func TestLockFile(t *testing.T) {
	records := []*model.ModRecord{
		{ModID: "b", DisplayName: "Bee", FileName: "bee", DownloadURL: "https://x/bee.jar"},
		{ModID: "a", DisplayName: "Ay", FileName: "ay.jar", DownloadURL: "https://x/ay.jar"},
	}
	lock := NewLockFile(model.MustParsePlatformVersion("1.12.2"), records)

	require.Len(t, lock.Mods, 2)
	assert.Equal(t, "a", lock.Mods[0].ID)
	assert.Equal(t, "bee.jar", lock.Mods[1].File)

	content, err := lock.Content()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(content, lockHeader))
	assert.Contains(t, content, `platform = "1.12.2"`)
	assert.Contains(t, content, "[[mod]]")

	path := filepath.Join(t.TempDir(), "modpkg-lock.toml")
	require.NoError(t, lock.Write(path))

	loaded, err := LoadLockFile(path)
	require.NoError(t, err)
	assert.Equal(t, lock.Mods, loaded.Mods)
	assert.True(t, lock.Generated.Equal(loaded.Generated))

	recs := loaded.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "ay.jar", recs[0].DiskName())
}
