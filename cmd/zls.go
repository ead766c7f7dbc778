package cmd

import (
	"os/exec"
	"path/filepath"

	"github.com/apex/log"
	"github.com/spf13/cobra"
	"github.com/zig-tools/zigup/pkg/workdir"
	"github.com/zig-tools/zigup/pkg/zls"
)

// ZLSCommand represents the zls command
var ZLSCommand = &cobra.Command{
	Use:   "zls",
	Short: "Build and install ZLS against the installed compiler",
	Long: `Build the Zig Language Server from source using the zig binary already on this
system and place it in the binary directory. Useful after a manual compiler
install or when a previous ZLS build failed.`,
	Args: cobra.NoArgs,
	RunE: runZLS,
}

func runZLS(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := resolveSettings()
	if err != nil {
		return err
	}

	// Prefer the managed symlink; fall back to whatever zig is on PATH.
	zigBin := filepath.Join(st.system.BinDir, "zig")
	if path, err := exec.LookPath(zigBin); err != nil {
		if path, err = exec.LookPath("zig"); err != nil {
			log.Warn("no zig binary found; run \"zigup install\" first")
			return nil
		}
		zigBin = path
	} else {
		zigBin = path
	}
	log.Debugf("building ZLS with %s", zigBin)

	wd, err := workdir.New("zigup-zls-*")
	if err != nil {
		return err
	}
	defer wd.Close()

	res := zls.Build(ctx, wd.Path(), zigBin, st.system)
	for _, w := range res.Warnings {
		log.Warn(w)
	}
	if res.Installed {
		log.Infof("installed %s (%s)", res.Path, res.Version)
	}

	// Companion failures are warnings by contract, even when zls is
	// the only thing the user asked for.
	return nil
}
