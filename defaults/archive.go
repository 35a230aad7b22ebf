package defaults

import (
	"archive/zip"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/callbridge/callbridge/core"
)

// getMD5 returns the hex md5 digest of a file. The digest algorithm is part
// of the frontend contract.
func (s *set) getMD5(ctx *core.MessageContext) (string, error) {
	path := ctx.Arg(0)
	if !isFile(path) {
		return "", fmt.Errorf("requested file does not exist")
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("while reading file: %v", err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("while reading file: %v", err)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// unzip extracts an archive into an existing destination directory,
// emitting one progress event per entry.
func (s *set) unzip(ctx *core.MessageContext) (string, error) {
	archivePath := ctx.Arg(0)
	destination := ctx.Arg(1)

	if !isFile(archivePath) {
		return "", fmt.Errorf("file %s does not exist", archivePath)
	}
	if !isDir(destination) {
		return "", fmt.Errorf("path %s is not a directory", destination)
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("could not parse zip file")
	}
	defer reader.Close()

	count := len(reader.File)
	for i, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		ctx.SendProgress(core.NewProgress("Extracting", entry.Name, float64(i)/float64(count)*100))

		if err := extractEntry(entry, destination); err != nil {
			return "", err
		}
	}

	return "unzip succeeded", nil
}

func extractEntry(entry *zip.File, destination string) error {
	path := filepath.Join(destination, filepath.FromSlash(entry.Name))

	// Reject entries that escape the destination directory.
	if rel, err := filepath.Rel(destination, path); err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("archive entry %s escapes destination", entry.Name)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create directory: %v", err)
	}

	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("could not read archive entry %s: %v", entry.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create file %s: %v", path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("could not extract %s: %v", entry.Name, err)
	}

	return nil
}
