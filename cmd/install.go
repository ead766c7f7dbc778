package cmd

import (
	"context"
	"os/exec"
	"strings"

	"github.com/apex/log"
	"github.com/spf13/cobra"
	"github.com/zig-tools/zigup/pkg/archive"
	"github.com/zig-tools/zigup/pkg/fetch"
	"github.com/zig-tools/zigup/pkg/httpclient"
	"github.com/zig-tools/zigup/pkg/index"
	"github.com/zig-tools/zigup/pkg/install"
	"github.com/zig-tools/zigup/pkg/platform"
	"github.com/zig-tools/zigup/pkg/workdir"
	"github.com/zig-tools/zigup/pkg/zls"
)

var (
	// Flags for install command
	installIndexURL string
	installRoot     string
	installBinDir   string
	installSkipZLS  bool
	installDryRun   bool
)

// InstallCommand represents the install command
var InstallCommand = &cobra.Command{
	Use:   "install",
	Short: "Download and install the latest Zig master build",
	Long: `Download the current master build for this machine's platform, extract it,
place it under the system toolchain directory and update the stable "zig" symlink.
Afterwards ZLS is built from source with the new compiler unless --skip-zls is set.`,
	Example: `  # Install the latest master build
  zigup install

  # Install into a user-writable prefix
  zigup install --install-root=$HOME/.local/lib/zig --bin-dir=$HOME/.local/bin

  # Resolve the download URL without installing
  zigup install --dry-run`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func init() {
	addInstallFlags(InstallCommand)
}

// addInstallFlags registers the install flags on cmd. The root command
// takes the same set so bare "zigup" installs with identical behavior.
func addInstallFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&installIndexURL, "index-url", "", "Release index URL (default: "+index.DefaultURL+")")
	cmd.Flags().StringVar(&installRoot, "install-root", "", "Toolchain directory (default: "+install.DefaultRoot+")")
	cmd.Flags().StringVarP(&installBinDir, "bin-dir", "b", "", "Binary directory for the zig symlink (default: "+install.DefaultBinDir+")")
	cmd.Flags().BoolVar(&installSkipZLS, "skip-zls", false, "Skip the ZLS companion build")
	cmd.Flags().BoolVarP(&installDryRun, "dry-run", "n", false, "Resolve the artifact URL without downloading")
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := resolveSettings()
	if err != nil {
		return err
	}

	// 1. Resolve the platform key for this machine.
	key, err := platform.Resolve()
	if err != nil {
		return err
	}
	log.Infof("platform: %s", key)

	// 2. Fetch the release index and look up the master artifact.
	client := httpclient.New()
	ix, err := index.Fetch(ctx, client, st.indexURL)
	if err != nil {
		return err
	}

	art, err := ix.Artifact(index.MasterChannel, key)
	if err != nil {
		return err
	}
	if v := ix.Version(index.MasterChannel); v != "" {
		log.Infof("master build: %s", v)
	}
	log.Infof("artifact: %s", art.Tarball)

	if installDryRun {
		log.Info("dry run, not downloading")
		return nil
	}

	// 3. Scratch space for the download and extraction. Removed on
	// every exit path; interrupts cancel ctx, the pipeline returns,
	// and this defer runs.
	wd, err := workdir.New("zigup-*")
	if err != nil {
		return err
	}
	defer wd.Close()

	archivePath, err := fetch.Download(ctx, client, art.Tarball, wd.Path(), !quiet)
	if err != nil {
		return err
	}

	// 4. Extract and locate the payload directory.
	if err := archive.Extract(archivePath, wd.Path()); err != nil {
		return err
	}
	payload, err := archive.FindPayload(wd.Path(), key)
	if err != nil {
		return err
	}

	// 5. Privileged placement: copy the tree, update the symlink.
	installed, err := st.system.Install(payload)
	if err != nil {
		return err
	}
	zigLink, err := st.system.Link(installed, "zig")
	if err != nil {
		return err
	}
	log.Infof("installed %s -> %s", zigLink, installed)

	if v := zigVersion(ctx, zigLink); v != "" {
		log.Infof("zig version: %s", v)
	}

	// 6. Companion step: warnings only, never fatal.
	if st.skipZLS {
		return nil
	}
	res := zls.Build(ctx, wd.Path(), zigLink, st.system)
	for _, w := range res.Warnings {
		log.Warn(w)
	}
	if res.Installed {
		log.Infof("installed %s (%s)", res.Path, res.Version)
	} else if len(res.Warnings) > 0 {
		log.Warn("ZLS was not installed; build it manually from https://github.com/zigtools/zls")
	}

	return nil
}

// zigVersion asks the freshly linked compiler for its version string.
func zigVersion(ctx context.Context, zigBin string) string {
	out, err := exec.CommandContext(ctx, zigBin, "version").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
