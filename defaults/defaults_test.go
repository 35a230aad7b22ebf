package defaults

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callbridge/callbridge/core"
	"github.com/callbridge/callbridge/engine"
	"github.com/callbridge/callbridge/transport"
)

// newCtx builds a message context over a recording session so tests can
// inspect emitted progress.
func newCtx(op string, args ...string) (*core.MessageContext, *transport.InMemory) {
	session := transport.NewInMemory(1)
	call := core.Call{ID: "c1", Operation: op, Args: args}
	return core.NewMessageContext(call, session, func() {}, nil), session
}

func progressTitles(session *transport.InMemory) []string {
	var titles []string
	for _, out := range session.Sent() {
		if out.Progress != nil {
			titles = append(titles, out.Progress.Title)
		}
	}
	return titles
}

// -------------------- Registration --------------------

func TestRegister_OperationSet(t *testing.T) {
	eng := Register(engine.New(transport.NewInMemory(1)))

	want := []string{
		"delete_file", "dir_exists", "download_file", "exit_application",
		"exit_session", "file_exists", "get_md5", "get_request",
		"list_all_files", "list_dir", "log", "mkdir", "ping", "read_file",
		"unzip", "write_file",
	}
	assert.Equal(t, want, eng.Operations())
}

func TestRegister_ArityEnforced(t *testing.T) {
	eng := Register(engine.New(transport.NewInMemory(1)))

	resp := eng.Dispatch(core.Call{ID: "c1", Operation: "read_file"})
	assert.False(t, resp.Accepted())
	assert.Equal(t, "expected 1 arguments, got 0", resp.Message)
}

// -------------------- Basics --------------------

func TestPing(t *testing.T) {
	s := &set{}
	ctx, _ := newCtx("ping")

	out, err := s.ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pong", out)
}

func TestFrontendLog(t *testing.T) {
	s := &set{}

	ctx, _ := newCtx("log", "frontend booted")
	out, err := s.frontendLog(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	// A bare call is fine too; the operation carries no arity.
	ctx, _ = newCtx("log")
	out, err = s.frontendLog(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

// -------------------- Files --------------------

func TestWriteReadDeleteFile(t *testing.T) {
	s := &set{}
	path := filepath.Join(t.TempDir(), "notes.txt")

	ctx, _ := newCtx("write_file", path, "hello world")
	out, err := s.writeFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "the file was written successfully", out)

	ctx, _ = newCtx("read_file", path)
	out, err = s.readFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)

	ctx, _ = newCtx("delete_file", path)
	out, err = s.deleteFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "the file was removed successfully", out)
	assert.NoFileExists(t, path)
}

func TestReadFile_Missing(t *testing.T) {
	s := &set{}
	ctx, _ := newCtx("read_file", filepath.Join(t.TempDir(), "absent.txt"))

	_, err := s.readFile(ctx)
	require.EqualError(t, err, "requested file does not exist")
}

func TestDeleteFile_Missing(t *testing.T) {
	s := &set{}
	ctx, _ := newCtx("delete_file", filepath.Join(t.TempDir(), "absent.txt"))

	_, err := s.deleteFile(ctx)
	require.EqualError(t, err, "requested file already does not exist")
}

func TestFileAndDirExists(t *testing.T) {
	s := &set{}
	dir := t.TempDir()
	path := filepath.Join(dir, "present.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	ctx, _ := newCtx("file_exists", path)
	out, err := s.fileExists(ctx)
	require.NoError(t, err)
	assert.Equal(t, "true", out)

	ctx, _ = newCtx("file_exists", dir)
	out, err = s.fileExists(ctx)
	require.NoError(t, err)
	assert.Equal(t, "false", out, "a directory is not a file")

	ctx, _ = newCtx("dir_exists", dir)
	out, err = s.dirExists(ctx)
	require.NoError(t, err)
	assert.Equal(t, "true", out)

	ctx, _ = newCtx("dir_exists", path)
	out, err = s.dirExists(ctx)
	require.NoError(t, err)
	assert.Equal(t, "false", out)
}

func TestMkdir(t *testing.T) {
	s := &set{}
	path := filepath.Join(t.TempDir(), "a", "b", "c")

	ctx, _ := newCtx("mkdir", path)
	out, err := s.mkdir(ctx)
	require.NoError(t, err)
	assert.Equal(t, "the directory was created successfully", out)
	assert.DirExists(t, path)
}

func TestListDir(t *testing.T) {
	s := &set{}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	ctx, _ := newCtx("list_dir", dir)
	out, err := s.listDir(ctx)
	require.NoError(t, err)

	var list PathList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.List, 2)
	assert.Equal(t, PathEntry{Path: filepath.Join(dir, "a.txt"), Kind: 0}, list.List[0])
	assert.Equal(t, PathEntry{Path: filepath.Join(dir, "sub"), Kind: 1}, list.List[1])
}

func TestListDir_NotADirectory(t *testing.T) {
	s := &set{}
	ctx, _ := newCtx("list_dir", filepath.Join(t.TempDir(), "absent"))

	_, err := s.listDir(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
}

func TestListAllFiles(t *testing.T) {
	s := &set{}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "root.txt"), []byte("r"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub", "deep"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "deep", "leaf.txt"), []byte("l"), 0o644))

	ctx, _ := newCtx("list_all_files", dir)
	out, err := s.listAllFiles(ctx)
	require.NoError(t, err)

	var tree DirTree
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	assert.Equal(t, dir, tree.Name)
	assert.Equal(t, []string{"root.txt"}, tree.Files)
	require.Len(t, tree.Dirs, 1)
	assert.Equal(t, "sub", tree.Dirs[0].Name)
	require.Len(t, tree.Dirs[0].Dirs, 1)
	assert.Equal(t, []string{"leaf.txt"}, tree.Dirs[0].Dirs[0].Files)
}

// -------------------- Digest And Archive --------------------

func TestGetMD5(t *testing.T) {
	s := &set{}
	path := filepath.Join(t.TempDir(), "payload.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	ctx, _ := newCtx("get_md5", path)
	out, err := s.getMD5(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", out)
}

func TestGetMD5_Missing(t *testing.T) {
	s := &set{}
	ctx, _ := newCtx("get_md5", filepath.Join(t.TempDir(), "absent.bin"))

	_, err := s.getMD5(ctx)
	require.EqualError(t, err, "requested file does not exist")
}

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "archive.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestUnzip(t *testing.T) {
	s := &set{}
	archive := writeZip(t, map[string]string{
		"top.txt":          "top",
		"nested/child.txt": "child",
	})
	destination := t.TempDir()

	ctx, session := newCtx("unzip", archive, destination)
	out, err := s.unzip(ctx)
	require.NoError(t, err)
	assert.Equal(t, "unzip succeeded", out)

	data, err := os.ReadFile(filepath.Join(destination, "top.txt"))
	require.NoError(t, err)
	assert.Equal(t, "top", string(data))

	data, err = os.ReadFile(filepath.Join(destination, "nested", "child.txt"))
	require.NoError(t, err)
	assert.Equal(t, "child", string(data))

	assert.Equal(t, []string{"Extracting", "Extracting"}, progressTitles(session))
}

func TestUnzip_EntryEscapesDestination(t *testing.T) {
	s := &set{}
	archive := writeZip(t, map[string]string{"../evil.txt": "nope"})
	destination := t.TempDir()

	ctx, _ := newCtx("unzip", archive, destination)
	_, err := s.unzip(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes destination")
	assert.NoFileExists(t, filepath.Join(filepath.Dir(destination), "evil.txt"))
}

func TestUnzip_MissingInputs(t *testing.T) {
	s := &set{}
	dir := t.TempDir()

	ctx, _ := newCtx("unzip", filepath.Join(dir, "absent.zip"), dir)
	_, err := s.unzip(ctx)
	assert.Contains(t, err.Error(), "does not exist")

	archive := writeZip(t, map[string]string{"a.txt": "a"})
	ctx, _ = newCtx("unzip", archive, filepath.Join(dir, "absent"))
	_, err = s.unzip(ctx)
	assert.Contains(t, err.Error(), "is not a directory")
}

// -------------------- Network --------------------

func TestGetRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "remote body")
	}))
	defer server.Close()

	s := &set{client: server.Client()}
	ctx, _ := newCtx("get_request", server.URL)

	out, err := s.getRequest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "remote body", out)
}

func TestGetRequest_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := &set{client: server.Client()}
	ctx, _ := newCtx("get_request", server.URL)

	_, err := s.getRequest(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}

func TestDownloadFile(t *testing.T) {
	body := strings.Repeat("x", 2*progressStep)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	s := &set{client: server.Client()}
	destination := filepath.Join(t.TempDir(), "download.bin")
	ctx, session := newCtx("download_file", server.URL, destination)

	out, err := s.downloadFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "file downloaded successfully", out)

	data, err := os.ReadFile(destination)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
	assert.NotEmpty(t, progressTitles(session), "streaming a large body reports progress")
}

func TestProgressReader(t *testing.T) {
	var percents []float64
	body := strings.NewReader(strings.Repeat("x", 2*progressStep))

	reader := newProgressReader(body, int64(2*progressStep), func(p float64) {
		percents = append(percents, p)
	})
	n, err := reader.Read(make([]byte, progressStep))
	require.NoError(t, err)
	require.Equal(t, progressStep, n)

	require.Len(t, percents, 1)
	assert.Equal(t, 50.0, percents[0])
}

func TestProgressReader_UnknownTotal(t *testing.T) {
	var percents []float64
	reader := newProgressReader(strings.NewReader(strings.Repeat("x", progressStep)), -1, func(p float64) {
		percents = append(percents, p)
	})
	_, err := reader.Read(make([]byte, progressStep))
	require.NoError(t, err)

	require.Len(t, percents, 1)
	assert.Zero(t, percents[0], "unknown totals report zero percent")
}

// -------------------- Session Control --------------------

func TestExitSession(t *testing.T) {
	s := &set{}
	session := transport.NewInMemory(1)
	requested := false
	ctx := core.NewMessageContext(core.Call{ID: "c1", Operation: "exit_session"}, session, func() { requested = true }, nil)

	out, err := s.exitSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "session closing", out)
	assert.True(t, requested)
}

func TestExitApplication(t *testing.T) {
	eng := engine.New(transport.NewInMemory(1))
	exitCode := -1
	Register(eng, func(o *Options) {
		o.Exit = func(code int) { exitCode = code }
	})

	resp := eng.Dispatch(core.Call{ID: "c1", Operation: "exit_application"})
	assert.True(t, resp.Accepted())
	assert.Equal(t, 0, exitCode)
}
