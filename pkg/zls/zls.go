// Package zls builds and installs the Zig Language Server against a
// freshly installed compiler. The whole step is best-effort: failures
// surface as warnings on the Result, never as errors, so a broken ZLS
// build can not fail a successful compiler install.
package zls

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	git "github.com/go-git/go-git/v5"
	"github.com/zig-tools/zigup/pkg/install"
)

// RepoURL is the upstream ZLS repository. Var so tests can point it
// at a local fixture repo.
var RepoURL = "https://github.com/zigtools/zls"

// BinaryName is the executable ZLS's build emits.
const BinaryName = "zls"

// outputDir is zig's conventional build output location, relative to
// the project root.
var outputDir = filepath.Join("zig-out", "bin")

// Result reports the companion step's outcome. Warnings carry
// everything that went wrong; Installed and Path are only set when
// the binary landed in the system bin directory.
type Result struct {
	Installed bool
	Path      string
	Version   string
	Warnings  []string
}

func (r *Result) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Build clones ZLS into workDir, compiles it with zigBin, and places
// the produced binary via sys. It never returns an error: inspect
// Result.Warnings for anything that went wrong.
func Build(ctx context.Context, workDir, zigBin string, sys install.System) Result {
	var res Result

	if _, err := os.Stat(zigBin); err != nil {
		res.warnf("zig binary not found at %s, skipping ZLS build: %v", zigBin, err)
		return res
	}

	cloneDir := filepath.Join(workDir, "zls")
	log.Infof("cloning %s", RepoURL)
	_, err := git.PlainCloneContext(ctx, cloneDir, false, &git.CloneOptions{
		URL:          RepoURL,
		Depth:        1,
		SingleBranch: true,
	})
	if err != nil {
		res.warnf("failed to clone ZLS repository: %v", err)
		return res
	}

	log.Info("building ZLS (this may take a while)")
	cmd := exec.CommandContext(ctx, zigBin, "build", "-Doptimize=ReleaseSafe")
	cmd.Dir = cloneDir
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		res.warnf("ZLS build failed: %v\n%s", err, strings.TrimSpace(output.String()))
		return res
	}

	built := filepath.Join(cloneDir, outputDir, BinaryName)
	if _, err := os.Stat(built); err != nil {
		res.warnf("ZLS build produced no %s binary under %s", BinaryName, outputDir)
		return res
	}

	installed, err := sys.InstallBinary(built, BinaryName)
	if err != nil {
		res.warnf("failed to install ZLS binary: %v", err)
		return res
	}

	res.Installed = true
	res.Path = installed
	res.Version = capturedVersion(ctx, installed)
	return res
}

// capturedVersion runs the installed binary's --version for the final
// report. Failure is ignored; the install already succeeded.
func capturedVersion(ctx context.Context, bin string) string {
	out, err := exec.CommandContext(ctx, bin, "--version").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
