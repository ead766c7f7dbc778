package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
	"github.com/zig-tools/zigup/pkg/platform"
)

// ErrPayloadNotFound is returned when extraction produced no
// directory matching the expected payload naming convention.
var ErrPayloadNotFound = errors.New("payload directory not found")

// payloadPrefix is the naming convention for extracted toolchain
// directories: zig-<arch>-<os>-<version-suffix>.
const payloadPrefix = "zig"

// Format represents the archive format
type Format string

const (
	FormatTarXz Format = "tar.xz"
	FormatTarGz Format = "tar.gz"
	FormatTar   Format = "tar"
	FormatZip   Format = "zip"
)

// DetectFormat detects the archive format based on the filename
func DetectFormat(filename string) (Format, error) {
	lower := strings.ToLower(filename)

	switch {
	case strings.HasSuffix(lower, ".tar.xz") || strings.HasSuffix(lower, ".txz"):
		return FormatTarXz, nil
	case strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz, nil
	case strings.HasSuffix(lower, ".tar"):
		return FormatTar, nil
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip, nil
	}

	return "", fmt.Errorf("unsupported archive format: %s", filepath.Base(filename))
}

// Extract extracts an archive to the destination directory. Master
// builds ship as tar.xz; the other formats cover stable releases and
// Windows zips.
func Extract(archivePath, destDir string) error {
	format, err := DetectFormat(archivePath)
	if err != nil {
		return err
	}

	switch format {
	case FormatTarXz:
		return extractTarXz(archivePath, destDir)
	case FormatTarGz:
		return extractTarGz(archivePath, destDir)
	case FormatTar:
		return extractTar(archivePath, destDir)
	case FormatZip:
		return extractZip(archivePath, destDir)
	default:
		return fmt.Errorf("unsupported archive format: %s", format)
	}
}

// FindPayload scans dir's immediate children for the extracted
// toolchain directory named zig-<arch>-<os>-*. Exactly one match is
// the expected case. With multiple matches the lexicographically
// greatest name wins, which favors the highest version suffix; zero
// matches fails with ErrPayloadNotFound.
func FindPayload(dir string, key platform.Key) (string, error) {
	prefix := payloadPrefix + "-" + key.String() + "-"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrap(err, "failed to read extraction directory")
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			matches = append(matches, entry.Name())
		}
	}

	if len(matches) == 0 {
		return "", errors.Wrapf(ErrPayloadNotFound, "no directory matching %s* under %s", prefix, dir)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return filepath.Join(dir, matches[0]), nil
}

// extractTarXz extracts a tar.xz archive
func extractTarXz(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrap(err, "failed to open archive")
	}
	defer file.Close()

	xzReader, err := xz.NewReader(file)
	if err != nil {
		return errors.Wrap(err, "failed to create xz reader")
	}

	return extractTarReader(xzReader, destDir)
}

// extractTarGz extracts a tar.gz archive
func extractTarGz(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrap(err, "failed to open archive")
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return errors.Wrap(err, "failed to create gzip reader")
	}
	defer gzReader.Close()

	return extractTarReader(gzReader, destDir)
}

// extractTar extracts a plain tar archive
func extractTar(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrap(err, "failed to open archive")
	}
	defer file.Close()

	return extractTarReader(file, destDir)
}

// extractTarReader extracts from a tar reader
func extractTarReader(r io.Reader, destDir string) error {
	tarReader := tar.NewReader(r)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "failed to read tar header")
		}

		target := filepath.Join(destDir, header.Name)

		// Ensure the target path is within destDir
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("invalid path in archive: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)); err != nil {
				return errors.Wrap(err, "failed to create directory")
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return errors.Wrap(err, "failed to create parent directory")
			}

			file, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return errors.Wrap(err, "failed to create file")
			}

			if _, err := io.Copy(file, tarReader); err != nil {
				file.Close()
				return errors.Wrap(err, "failed to extract file")
			}

			file.Close()
		case tar.TypeSymlink:
			// Toolchain trees carry relative symlinks (e.g. doc
			// links). The link target gets the same containment check
			// as entry names: it must stay inside destDir.
			if !linknameWithin(destDir, target, header.Linkname) {
				return fmt.Errorf("invalid link target in archive: %s -> %s", header.Name, header.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return errors.Wrap(err, "failed to create parent directory")
			}
			if err := os.Symlink(header.Linkname, target); err != nil && !os.IsExist(err) {
				return errors.Wrap(err, "failed to create symlink")
			}
		}
	}

	return nil
}

// linknameWithin reports whether a symlink at target pointing to
// linkname resolves inside destDir. Absolute linknames are rejected
// outright.
func linknameWithin(destDir, target, linkname string) bool {
	if filepath.IsAbs(linkname) {
		return false
	}
	resolved := filepath.Join(filepath.Dir(target), linkname)
	return strings.HasPrefix(resolved, filepath.Clean(destDir)+string(os.PathSeparator))
}

// extractZip extracts a zip archive
func extractZip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrap(err, "failed to open zip archive")
	}
	defer reader.Close()

	for _, file := range reader.File {
		target := filepath.Join(destDir, file.Name)

		// Ensure the target path is within destDir
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("invalid path in archive: %s", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, file.Mode()); err != nil {
				return errors.Wrap(err, "failed to create directory")
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return errors.Wrap(err, "failed to create parent directory")
		}

		if err := extractZipFile(file, target); err != nil {
			return err
		}
	}

	return nil
}

func extractZipFile(file *zip.File, target string) error {
	fileReader, err := file.Open()
	if err != nil {
		return errors.Wrap(err, "failed to open file in archive")
	}
	defer fileReader.Close()

	targetFile, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, file.Mode())
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer targetFile.Close()

	if _, err := io.Copy(targetFile, fileReader); err != nil {
		return errors.Wrap(err, "failed to extract file")
	}

	return nil
}
