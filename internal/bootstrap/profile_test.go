package bootstrap

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anselale/Salience/internal/config"
)

func testProfile() Profile {
	return Profile{
		Name:        "stable",
		VenvPath:    "venv",
		Package:     "agentforge",
		TestsDir:    "tests",
		StepTimeout: time.Minute,
	}
}

func TestProfiles(t *testing.T) {
	cfg := config.BootstrapConfig{
		VenvPath: "venv",
		Package:  "agentforge",
		TestsDir: "tests",
	}
	profiles := Profiles(cfg, time.Minute)

	require.Contains(t, profiles, "stable")
	require.Contains(t, profiles, "test-index")

	assert.Empty(t, profiles["stable"].ExtraIndexURL)
	assert.Equal(t, "https://test.pypi.org/simple/", profiles["test-index"].ExtraIndexURL)

	t.Run("configured index wins", func(t *testing.T) {
		cfg.ExtraIndexURL = "https://mirror.example/simple/"
		profiles := Profiles(cfg, time.Minute)
		assert.Equal(t, "https://mirror.example/simple/", profiles["test-index"].ExtraIndexURL)
	})
}

func TestSteps(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("binary paths differ on windows")
	}

	t.Run("upgrade then test discovery, in order", func(t *testing.T) {
		steps := testProfile().Steps()
		require.Len(t, steps, 2)

		assert.Equal(t, "upgrade agentforge", steps[0].Name)
		assert.Equal(t, filepath.Join("venv", "bin", "pip"), steps[0].Binary)
		assert.Equal(t, []string{"install", "--upgrade", "agentforge"}, steps[0].Args)

		assert.Equal(t, "discover tests", steps[1].Name)
		assert.Equal(t, filepath.Join("venv", "bin", "python"), steps[1].Binary)
		assert.Equal(t, []string{"-m", "unittest", "discover", "-s", "tests"}, steps[1].Args)
	})

	t.Run("extra index flag threads into the install", func(t *testing.T) {
		p := testProfile()
		p.ExtraIndexURL = "https://test.pypi.org/simple/"

		steps := p.Steps()
		assert.Equal(t,
			[]string{"install", "--upgrade", "--extra-index-url", "https://test.pypi.org/simple/", "agentforge"},
			steps[0].Args)
	})
}

func TestEnviron(t *testing.T) {
	p := testProfile()
	base := []string{
		"PATH=/usr/bin:/bin",
		"PYTHONHOME=/opt/python",
		"HOME=/home/u",
	}

	env := p.Environ(base)

	venvAbs, err := filepath.Abs("venv")
	require.NoError(t, err)
	binDir := filepath.Join(venvAbs, binDirName())

	var path, virtualEnv string
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			path = kv
		}
		if strings.HasPrefix(kv, "VIRTUAL_ENV=") {
			virtualEnv = kv
		}
		assert.False(t, strings.HasPrefix(kv, "PYTHONHOME="), "PYTHONHOME must be dropped on activation")
	}

	assert.Equal(t, "VIRTUAL_ENV="+venvAbs, virtualEnv)
	assert.True(t, strings.HasPrefix(path, "PATH="+binDir+string(filepath.ListSeparator)),
		"venv bin dir must be first on PATH, got %s", path)
	assert.Contains(t, env, "HOME=/home/u")
}

func TestEnvironMatchesPathCaseInsensitively(t *testing.T) {
	p := testProfile()

	env := p.Environ([]string{"Path=C:\\Windows\\system32"})

	venvAbs, err := filepath.Abs("venv")
	require.NoError(t, err)
	binDir := filepath.Join(venvAbs, binDirName())

	var paths []string
	for _, kv := range env {
		if strings.EqualFold(kv[:strings.IndexByte(kv, '=')], "PATH") {
			paths = append(paths, kv)
		}
	}
	require.Len(t, paths, 1, "a single PATH entry must survive activation")
	assert.True(t, strings.HasPrefix(paths[0], "PATH="+binDir+string(filepath.ListSeparator)))
	assert.Contains(t, paths[0], "C:\\Windows\\system32")
}
