// Package install owns every filesystem write outside the working
// directory. Keeping the privileged operations behind one small type
// lets the rest of the pipeline run and be tested without elevated
// rights.
package install

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var (
	// ErrPermissionDenied is returned when a system write needs
	// elevated privilege the process does not have.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInstall covers all other failures while placing files.
	ErrInstall = errors.New("install failed")
)

// Default system locations on Unix.
const (
	DefaultRoot   = "/usr/local/lib/zig"
	DefaultBinDir = "/usr/local/bin"
)

// System performs installs into the system root and binary directory.
// Installs are not transactional: a failure between Install and Link
// leaves a copied tree without an updated symlink.
type System struct {
	// Root holds version-suffixed toolchain directories.
	Root string
	// BinDir receives the stable symlink and companion binaries.
	BinDir string
}

// NewSystem returns a System with defaults applied for empty fields.
func NewSystem(root, binDir string) System {
	if root == "" {
		root = DefaultRoot
	}
	if binDir == "" {
		binDir = DefaultBinDir
	}
	return System{Root: root, BinDir: binDir}
}

// Install copies the extracted payload directory under Root and
// returns the installed path. An existing directory of the same name
// (a re-install of the same build) is replaced.
func (s System) Install(payloadDir string) (string, error) {
	target := filepath.Join(s.Root, filepath.Base(payloadDir))

	if err := os.MkdirAll(s.Root, 0755); err != nil {
		return "", classify(err, "failed to create install root")
	}
	if err := os.RemoveAll(target); err != nil {
		return "", classify(err, "failed to remove previous install")
	}
	if err := copyTree(payloadDir, target); err != nil {
		return "", err
	}
	return target, nil
}

// Link creates or overwrites the stable symlink BinDir/name pointing
// at the binary of the same name inside installedDir, so the symlink
// survives version-suffixed directory renames across upgrades.
func (s System) Link(installedDir, name string) (string, error) {
	linkPath := filepath.Join(s.BinDir, name)
	target := filepath.Join(installedDir, name)

	if _, err := os.Stat(target); err != nil {
		return "", errors.Wrapf(ErrInstall, "binary %s missing from installed payload: %v", name, err)
	}

	if err := os.MkdirAll(s.BinDir, 0755); err != nil {
		return "", classify(err, "failed to create binary directory")
	}
	if err := os.Remove(linkPath); err != nil && !os.IsNotExist(err) {
		return "", classify(err, "failed to remove existing symlink")
	}
	if err := os.Symlink(target, linkPath); err != nil {
		return "", classify(err, "failed to create symlink")
	}
	return linkPath, nil
}

// InstallBinary places a single executable into BinDir under name,
// replacing any existing file atomically. Used for companion binaries
// that ship as one file rather than a payload tree.
func (s System) InstallBinary(sourcePath, name string) (string, error) {
	targetPath := filepath.Join(s.BinDir, name)

	if err := os.MkdirAll(s.BinDir, 0755); err != nil {
		return "", classify(err, "failed to create binary directory")
	}

	source, err := os.Open(sourcePath)
	if err != nil {
		return "", errors.Wrapf(ErrInstall, "failed to open source binary: %v", err)
	}
	defer source.Close()

	tmpFile, err := os.CreateTemp(s.BinDir, "."+name+"-*")
	if err != nil {
		return "", classify(err, "failed to create temporary file")
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, source); err != nil {
		tmpFile.Close()
		return "", classify(err, "failed to copy binary")
	}
	if err := tmpFile.Chmod(0755); err != nil {
		tmpFile.Close()
		return "", classify(err, "failed to set permissions")
	}
	if err := tmpFile.Close(); err != nil {
		return "", classify(err, "failed to close temporary file")
	}

	if err := os.Rename(tmpPath, targetPath); err != nil {
		return "", classify(err, "failed to install binary")
	}

	success = true
	return targetPath, nil
}

// copyTree copies src recursively to dst, preserving file modes and
// recreating relative symlinks.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return classify(err, "failed to walk payload")
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return classify(err, "failed to resolve payload path")
		}
		target := filepath.Join(dst, rel)

		switch {
		case info.IsDir():
			if err := os.MkdirAll(target, info.Mode().Perm()); err != nil {
				return classify(err, "failed to create directory")
			}
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return classify(err, "failed to read symlink")
			}
			if err := os.Symlink(link, target); err != nil {
				return classify(err, "failed to copy symlink")
			}
		default:
			if err := copyFile(path, target, info.Mode().Perm()); err != nil {
				return err
			}
		}
		return nil
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return classify(err, "failed to open file")
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return classify(err, "failed to create file")
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return classify(err, "failed to copy file")
	}
	if err := out.Close(); err != nil {
		return classify(err, "failed to close file")
	}
	return nil
}

// classify maps permission failures to ErrPermissionDenied and
// everything else to ErrInstall, keeping context from the call site.
func classify(err error, msg string) error {
	if os.IsPermission(err) {
		return errors.Wrapf(ErrPermissionDenied, "%s: %v", msg, err)
	}
	return errors.Wrapf(ErrInstall, "%s: %v", msg, err)
}
