package utils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// AppDirName names the per-user directories of countryserve.
const AppDirName = "countryserve"

// PathResolver resolves user supplied file paths against the places the
// binary is usually run from.
type PathResolver struct {
	executableDir string
	workingDir    string
	dataDir       string
}

// NewPathResolver creates a resolver rooted at the running executable.
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	pr := &PathResolver{
		executableDir: filepath.Dir(execPath),
		workingDir:    cwd,
		dataDir:       dataDir(homeDir),
	}
	log.Debugf("PathResolver initialized: execDir=%s, cwd=%s, dataDir=%s", pr.executableDir, pr.workingDir, pr.dataDir)
	return pr, nil
}

// dataDir returns the platform data directory for catalog snapshots.
func dataDir(homeDir string) string {
	switch runtime.GOOS {
	case "linux":
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, AppDirName)
		}
		return filepath.Join(homeDir, ".local", "share", AppDirName)
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", AppDirName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppDirName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", AppDirName)
	default:
		return filepath.Join(homeDir, "."+AppDirName)
	}
}

// Candidates lists where a file named by the user may live, in lookup order:
// 1. the path itself when absolute
// 2. relative to the working directory
// 3. relative to the executable
// 4. inside the data directory
func (pr *PathResolver) Candidates(userPath string) []string {
	if filepath.IsAbs(userPath) {
		return []string{userPath}
	}
	return []string{
		filepath.Join(pr.workingDir, userPath),
		filepath.Join(pr.executableDir, userPath),
		filepath.Join(pr.dataDir, userPath),
	}
}

// ResolveFile returns the first existing candidate for userPath. When none
// exists it returns the working directory candidate with os.ErrNotExist.
func (pr *PathResolver) ResolveFile(userPath string) (string, error) {
	candidates := pr.Candidates(userPath)
	for _, path := range candidates {
		if stat, err := os.Stat(path); err == nil && !stat.IsDir() {
			log.Debugf("Resolved %s to %s", userPath, path)
			return path, nil
		}
		log.Debugf("File candidate not found: %s", path)
	}
	return candidates[0], os.ErrNotExist
}
