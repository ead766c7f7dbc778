package platform

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnsupported is returned when the host architecture has no
// corresponding Zig release build.
var ErrUnsupported = errors.New("unsupported platform")

// Key identifies a release build variant as published in the download
// index, e.g. "x86_64-linux" or "aarch64-macos".
type Key struct {
	Arch string
	OS   string
}

// String renders the key in the index's "<arch>-<os>" form.
func (k Key) String() string {
	return k.Arch + "-" + k.OS
}

// Resolve maps the running machine to its release platform key.
func Resolve() (Key, error) {
	return ResolveFrom(runtime.GOARCH, hostOS())
}

// ResolveFrom maps raw architecture and kernel-name strings to a
// platform key. It accepts both uname-style spellings (x86_64,
// aarch64, armv7l) and Go-style ones (amd64, arm64, arm) so the same
// table serves the production path and injected test inputs. Any
// other architecture fails with ErrUnsupported.
func ResolveFrom(rawArch, rawOS string) (Key, error) {
	var arch string
	switch rawArch {
	case "x86_64", "amd64":
		arch = "x86_64"
	case "aarch64", "arm64":
		arch = "aarch64"
	case "armv7l", "arm":
		arch = "armv7a"
	default:
		return Key{}, fmt.Errorf("%w: architecture %q", ErrUnsupported, rawArch)
	}

	return Key{Arch: arch, OS: strings.ToLower(rawOS)}, nil
}

// hostOS returns the index's OS tag for the current system. The index
// names Darwin builds "macos" rather than Go's "darwin".
func hostOS() string {
	if runtime.GOOS == "darwin" {
		return "macos"
	}
	return runtime.GOOS
}
