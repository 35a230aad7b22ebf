package defaults

import (
	"net/http"
	"os"
	"time"

	"github.com/callbridge/callbridge/core"
	"github.com/callbridge/callbridge/engine"
)

// Options configures the default operation set.
type Options struct {
	// HTTPClient performs download_file and get_request fetches. Defaults
	// to a client with a 60 second overall timeout.
	HTTPClient *http.Client

	// Exit terminates the process for exit_application. Defaults to
	// os.Exit; tests substitute a recorder.
	Exit func(code int)
}

// set binds the option values to the handler implementations.
type set struct {
	client *http.Client
	exit   func(code int)
}

// Register registers every built-in operation on the engine and returns it
// for chaining. The operation names, argument counts and payload shapes
// follow the webview frontend contract:
//
//	ping (0)             -> "pong"
//	read_file (1)        -> file contents as a string
//	write_file (2)       -> writes arg1 to the path arg0, overwriting
//	delete_file (1)      -> removes the file
//	download_file (2)    -> fetches arg0 (url) to arg1 (path), with progress
//	get_md5 (1)          -> hex md5 digest of the file
//	unzip (2)            -> extracts arg0 into directory arg1, with progress
//	file_exists (1)      -> "true" / "false"
//	dir_exists (1)       -> "true" / "false"
//	mkdir (1)            -> creates the directory and any parents
//	list_dir (1)         -> JSON path list, non-recursive
//	list_all_files (1)   -> JSON directory tree, recursive
//	get_request (1)      -> response body of a GET to arg0
//	log                  -> writes a frontend log line to the backend logger
//	exit_session         -> requests cooperative engine shutdown
//	exit_application     -> terminates the process
func Register(e *engine.Engine, optFns ...func(o *Options)) *engine.Engine {
	opts := Options{
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Exit:       os.Exit,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	s := &set{client: opts.HTTPClient, exit: opts.Exit}

	e.RegisterFunc("ping", engine.Arity(0), s.ping)
	e.RegisterFunc("read_file", engine.Arity(1), s.readFile)
	e.RegisterFunc("write_file", engine.Arity(2), s.writeFile)
	e.RegisterFunc("delete_file", engine.Arity(1), s.deleteFile)
	e.RegisterFunc("download_file", engine.Arity(2), s.downloadFile)
	e.RegisterFunc("get_md5", engine.Arity(1), s.getMD5)
	e.RegisterFunc("unzip", engine.Arity(2), s.unzip)
	e.RegisterFunc("file_exists", engine.Arity(1), s.fileExists)
	e.RegisterFunc("dir_exists", engine.Arity(1), s.dirExists)
	e.RegisterFunc("mkdir", engine.Arity(1), s.mkdir)
	e.RegisterFunc("list_dir", engine.Arity(1), s.listDir)
	e.RegisterFunc("list_all_files", engine.Arity(1), s.listAllFiles)
	e.RegisterFunc("get_request", engine.Arity(1), s.getRequest)
	e.RegisterFunc("log", nil, s.frontendLog)
	e.RegisterFunc("exit_session", nil, s.exitSession)
	e.RegisterFunc("exit_application", nil, s.exitApplication)

	return e
}

func (s *set) ping(_ *core.MessageContext) (string, error) {
	return "pong", nil
}

// frontendLog forwards a log line from the frontend to the backend logger.
// Registered without an expected arity so a bare call is not rejected.
func (s *set) frontendLog(ctx *core.MessageContext) (string, error) {
	if len(ctx.Args()) > 0 {
		ctx.LogInfo("frontend.log", "message", ctx.Arg(0))
	}
	return "ok", nil
}

func (s *set) exitSession(ctx *core.MessageContext) (string, error) {
	ctx.Shutdown()
	return "session closing", nil
}

func (s *set) exitApplication(ctx *core.MessageContext) (string, error) {
	ctx.LogInfo("frontend.exit_application")
	s.exit(0)
	// Unreachable with the real os.Exit; reached under test substitutes.
	return "exiting", nil
}
