package bootstrap

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/anselale/Salience/internal/config"
)

// Profile is one setup variant. The original repository carried three
// near-duplicate scripts; they differed only in the extra package index, so
// they collapse to profiles over shared configuration.
type Profile struct {
	Name          string
	VenvPath      string
	Package       string
	TestsDir      string
	ExtraIndexURL string
	StepTimeout   time.Duration
}

// Step is one subprocess in the sequence.
type Step struct {
	Name   string
	Binary string
	Args   []string
}

// Profiles builds the named setup profiles from config.
func Profiles(cfg config.BootstrapConfig, stepTimeout time.Duration) map[string]Profile {
	base := Profile{
		VenvPath:    cfg.VenvPath,
		Package:     cfg.Package,
		TestsDir:    cfg.TestsDir,
		StepTimeout: stepTimeout,
	}

	stable := base
	stable.Name = "stable"

	testIndex := base
	testIndex.Name = "test-index"
	testIndex.ExtraIndexURL = cfg.ExtraIndexURL
	if testIndex.ExtraIndexURL == "" {
		testIndex.ExtraIndexURL = "https://test.pypi.org/simple/"
	}

	return map[string]Profile{
		stable.Name:    stable,
		testIndex.Name: testIndex,
	}
}

// Steps returns the subprocess sequence: upgrade the package, then run
// test discovery. Environment activation and deactivation bracket the
// sequence and are environment construction, not subprocesses.
func (p Profile) Steps() []Step {
	installArgs := []string{"install", "--upgrade"}
	if p.ExtraIndexURL != "" {
		installArgs = append(installArgs, "--extra-index-url", p.ExtraIndexURL)
	}
	installArgs = append(installArgs, p.Package)

	return []Step{
		{
			Name:   "upgrade " + p.Package,
			Binary: p.venvBinary("pip"),
			Args:   installArgs,
		},
		{
			Name:   "discover tests",
			Binary: p.venvBinary("python"),
			Args:   []string{"-m", "unittest", "discover", "-s", p.TestsDir},
		},
	}
}

// Environ returns the base environment with the virtual environment
// activated: VIRTUAL_ENV set, the venv bin directory prepended to PATH and
// PYTHONHOME dropped. This is what the activation script itself does.
func (p Profile) Environ(base []string) []string {
	venvAbs, err := filepath.Abs(p.VenvPath)
	if err != nil {
		venvAbs = p.VenvPath
	}
	binDir := filepath.Join(venvAbs, binDirName())

	env := make([]string, 0, len(base)+2)
	env = append(env, "VIRTUAL_ENV="+venvAbs)
	for _, kv := range base {
		key, value := kv, ""
		if i := strings.IndexByte(kv, '='); i >= 0 {
			key, value = kv[:i], kv[i+1:]
		}
		switch {
		case strings.EqualFold(key, "PYTHONHOME"):
			// dropped on activation
		case strings.EqualFold(key, "PATH"):
			// Windows spells it Path
			env = append(env, "PATH="+binDir+string(os.PathListSeparator)+value)
		case strings.EqualFold(key, "VIRTUAL_ENV"):
			// already set above
		default:
			env = append(env, kv)
		}
	}
	return env
}

// venvBinary resolves a tool inside the virtual environment.
func (p Profile) venvBinary(tool string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(p.VenvPath, "Scripts", tool+".exe")
	}
	return filepath.Join(p.VenvPath, "bin", tool)
}

func binDirName() string {
	if runtime.GOOS == "windows" {
		return "Scripts"
	}
	return "bin"
}
