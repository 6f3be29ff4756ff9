package backend

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the file describing how to run a vendored engine tree.
const ManifestFile = "engine.yaml"

// Manifest is the on-disk description of a vendored engine:
//
//	command: ./bin/xagent
//	args: ["--json"]
//	env:
//	  XAGENT_LOG: quiet
//	workdir: .
type Manifest struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
	WorkDir string            `yaml:"workdir"`
}

// LoadManifest reads dir/engine.yaml. Without a manifest, an executable file
// named pkg inside dir is used as the command. Relative paths resolve
// against dir.
func LoadManifest(dir, pkg string) (Command, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	switch {
	case err == nil:
		var m Manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return Command{}, fmt.Errorf("parse %s: %w", filepath.Join(dir, ManifestFile), err)
		}
		if m.Command == "" {
			return Command{}, fmt.Errorf("%s: command is required", filepath.Join(dir, ManifestFile))
		}
		return Command{
			Path:    resolveCommand(dir, m.Command),
			Args:    m.Args,
			Env:     m.Env,
			WorkDir: resolveDir(dir, m.WorkDir),
		}, nil
	case errors.Is(err, fs.ErrNotExist):
		exe := filepath.Join(dir, pkg)
		if !isExecutable(exe) {
			return Command{}, fmt.Errorf("no %s or executable %q in %s", ManifestFile, pkg, dir)
		}
		return Command{Path: exe, WorkDir: dir}, nil
	default:
		return Command{}, fmt.Errorf("read manifest: %w", err)
	}
}

// resolveCommand keeps bare names (looked up on PATH by exec) and anchors
// relative paths at dir.
func resolveCommand(dir, command string) string {
	if filepath.IsAbs(command) || filepath.Base(command) == command {
		return command
	}
	return filepath.Join(dir, command)
}

func resolveDir(dir, workdir string) string {
	switch {
	case workdir == "":
		return dir
	case filepath.IsAbs(workdir):
		return workdir
	default:
		return filepath.Join(dir, workdir)
	}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Mode().Perm()&0o111 != 0
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
