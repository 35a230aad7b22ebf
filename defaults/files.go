package defaults

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/callbridge/callbridge/core"
)

// DirTree is the recursive payload of list_all_files.
type DirTree struct {
	Name  string     `json:"name"`
	Files []string   `json:"files"`
	Dirs  []*DirTree `json:"dirs"`
}

// PathEntry is one row of the list_dir payload. Kind is 0 for files and 1
// for directories, per the frontend contract.
type PathEntry struct {
	Path string `json:"path"`
	Kind int    `json:"kind"`
}

// PathList is the payload of list_dir.
type PathList struct {
	List []PathEntry `json:"list"`
}

func (s *set) readFile(ctx *core.MessageContext) (string, error) {
	path := ctx.Arg(0)
	if !isFile(path) {
		return "", fmt.Errorf("requested file does not exist")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("while reading file: %v", err)
	}
	return string(data), nil
}

func (s *set) writeFile(ctx *core.MessageContext) (string, error) {
	path := ctx.Arg(0)
	if err := os.WriteFile(path, []byte(ctx.Arg(1)), 0o644); err != nil {
		return "", fmt.Errorf("could not write file: %v", err)
	}
	return "the file was written successfully", nil
}

func (s *set) deleteFile(ctx *core.MessageContext) (string, error) {
	path := ctx.Arg(0)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("requested file already does not exist")
	}
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("could not delete file: %v", err)
	}
	return "the file was removed successfully", nil
}

func (s *set) fileExists(ctx *core.MessageContext) (string, error) {
	return fmt.Sprintf("%t", isFile(ctx.Arg(0))), nil
}

func (s *set) dirExists(ctx *core.MessageContext) (string, error) {
	return fmt.Sprintf("%t", isDir(ctx.Arg(0))), nil
}

func (s *set) mkdir(ctx *core.MessageContext) (string, error) {
	if err := os.MkdirAll(ctx.Arg(0), 0o755); err != nil {
		return "", fmt.Errorf("could not create directory: %v", err)
	}
	return "the directory was created successfully", nil
}

func (s *set) listDir(ctx *core.MessageContext) (string, error) {
	path := ctx.Arg(0)
	if !isDir(path) {
		return "", fmt.Errorf("path %s is not a directory", path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("while listing directory: %v", err)
	}

	list := PathList{List: make([]PathEntry, 0, len(entries))}
	for _, entry := range entries {
		kind := 0
		if entry.IsDir() {
			kind = 1
		}
		list.List = append(list.List, PathEntry{Path: filepath.Join(path, entry.Name()), Kind: kind})
	}

	return marshalPayload(list)
}

func (s *set) listAllFiles(ctx *core.MessageContext) (string, error) {
	path := ctx.Arg(0)
	if !isDir(path) {
		return "", fmt.Errorf("path %s is not a directory", path)
	}

	tree := &DirTree{Name: path, Files: []string{}, Dirs: []*DirTree{}}
	if err := readDirAll(path, tree); err != nil {
		return "", err
	}

	return marshalPayload(tree)
}

// readDirAll fills tree with the directory's files and recursed subtrees.
func readDirAll(dir string, tree *DirTree) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("while listing directory: %v", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			tree.Files = append(tree.Files, entry.Name())
			continue
		}
		subtree := &DirTree{Name: entry.Name(), Files: []string{}, Dirs: []*DirTree{}}
		if err := readDirAll(filepath.Join(dir, entry.Name()), subtree); err != nil {
			return err
		}
		tree.Dirs = append(tree.Dirs, subtree)
	}

	return nil
}

func marshalPayload(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("could not serialize payload: %v", err)
	}
	return string(data), nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
