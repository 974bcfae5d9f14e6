// Package python runs a Python interpreter as a long-lived worker subprocess
// and exposes execute / evaluate / run-file / introspection calls on it.
//
// The worker is driven by an embedded bootstrap script over a JSON-lines pipe.
// Every call holds the interpreter lock for its whole round trip, so calls
// touching Python are serialised process-wide.
package python

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/sert-editor/sert/pkg/logging"
	"github.com/sert-editor/sert/pkg/provenance"
)

//go:embed bootstrap.py
var bootstrapSource string

// DefaultExecMessage is returned by Exec when the code neither printed
// anything nor bound "result".
const DefaultExecMessage = "Code executed successfully"

// FileExecMessage is returned by RunFile on success.
const FileExecMessage = "Python file executed successfully"

// ResultVariable is the conventional name Exec falls back to.
const ResultVariable = "result"

// Error is a failure raised inside the interpreter (syntax or runtime).
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Type
	}
	return e.Type + ": " + e.Message
}

// Info describes the running interpreter.
type Info struct {
	Version    string   `json:"version"`
	Executable string   `json:"executable"`
	Prefix     string   `json:"prefix"`
	Path       []string `json:"path"`
	Modules    []string `json:"modules"`
	Frozen     string   `json:"frozen"`
}

type request struct {
	Op       string `json:"op"`
	Code     string `json:"code,omitempty"`
	Expr     string `json:"expr,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type response struct {
	OK     bool    `json:"ok"`
	Error  *Error  `json:"error,omitempty"`
	Stdout string  `json:"stdout"`
	Result *string `json:"result,omitempty"`
	Value  string  `json:"value"`
	Info   *Info   `json:"info,omitempty"`
}

// Interpreter owns one worker process.
type Interpreter struct {
	mu     sync.Mutex // interpreter lock, held for each round trip
	path   string
	logger *logging.Logger

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	replies *bufio.Reader
	exited  chan struct{}
}

// NewInterpreter prepares a worker for the interpreter at path. The process is
// started lazily by the first call, or eagerly by Start.
func NewInterpreter(path string, logger *logging.Logger) *Interpreter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Interpreter{path: path, logger: logger}
}

// Path returns the interpreter executable this worker runs.
func (p *Interpreter) Path() string {
	return p.path
}

// Start launches the worker and checks it answers.
func (p *Interpreter) Start(ctx context.Context) error {
	resp, err := p.call(ctx, request{Op: "ping"})
	if err != nil {
		return err
	}
	if resp.Value != "pong" {
		return fmt.Errorf("python worker answered %q to ping", resp.Value)
	}
	return nil
}

// Exec runs source code. Anything the code printed is returned verbatim; if it
// printed nothing, the string form of a top-level "result" binding is returned,
// or DefaultExecMessage.
func (p *Interpreter) Exec(ctx context.Context, code string) (string, error) {
	resp, err := p.call(ctx, request{Op: "exec", Code: code})
	if err != nil {
		return "", err
	}
	return execOutput(resp), nil
}

func execOutput(resp *response) string {
	if resp.Stdout != "" {
		return resp.Stdout
	}
	if resp.Result != nil {
		return *resp.Result
	}
	return DefaultExecMessage
}

// Eval evaluates a single expression and returns its string form.
func (p *Interpreter) Eval(ctx context.Context, expr string) (string, error) {
	resp, err := p.call(ctx, request{Op: "eval", Expr: expr})
	if err != nil {
		return "", err
	}
	return resp.Value, nil
}

// RunFile executes a Python source file.
func (p *Interpreter) RunFile(ctx context.Context, path string) (string, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read python file '%s': %w", path, err)
	}
	if _, err := p.call(ctx, request{Op: "run_file", Code: string(code), Filename: path}); err != nil {
		return "", err
	}
	return FileExecMessage, nil
}

// Info reports version, executable, search path and loaded modules.
func (p *Interpreter) Info(ctx context.Context) (Info, error) {
	resp, err := p.call(ctx, request{Op: "info"})
	if err != nil {
		return Info{}, err
	}
	if resp.Info == nil {
		return Info{}, fmt.Errorf("python worker sent no info")
	}
	return *resp.Info, nil
}

// Facts implements provenance.Querier.
func (p *Interpreter) Facts(ctx context.Context) (provenance.Facts, error) {
	info, err := p.Info(ctx)
	if err != nil {
		return provenance.Facts{}, err
	}
	return provenance.Facts{
		Executable: info.Executable,
		Modules:    info.Modules,
		Frozen:     info.Frozen,
		SearchPath: info.Path,
	}, nil
}

// Close stops the worker.
func (p *Interpreter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

// call performs one round trip under the interpreter lock. A cancelled context
// kills the worker; the next call starts a fresh one.
func (p *Interpreter) call(ctx context.Context, req request) (*response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureStartedLocked(); err != nil {
		return nil, err
	}

	line, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	line = append(line, '\n')

	type readResult struct {
		line []byte
		err  error
	}
	done := make(chan readResult, 1)
	stdin, replies := p.stdin, p.replies
	go func() {
		if _, err := stdin.Write(line); err != nil {
			done <- readResult{err: err}
			return
		}
		b, err := replies.ReadBytes('\n')
		done <- readResult{line: b, err: err}
	}()

	var res readResult
	select {
	case <-ctx.Done():
		p.logger.WarnCat(logging.CatPython, "Call %q cancelled, killing worker", req.Op)
		p.stopLocked()
		<-done
		return nil, ctx.Err()
	case res = <-done:
	}

	if res.err != nil {
		p.logger.ErrorCat(logging.CatPython, "Worker pipe failed during %q: %v", req.Op, res.err)
		p.stopLocked()
		return nil, fmt.Errorf("python worker exited: %w", res.err)
	}

	var resp response
	if err := json.Unmarshal(res.line, &resp); err != nil {
		p.stopLocked()
		return nil, fmt.Errorf("python worker sent malformed reply: %w", err)
	}
	if !resp.OK {
		if resp.Error == nil {
			return nil, &Error{Type: "Error", Message: "unknown failure"}
		}
		return nil, resp.Error
	}
	return &resp, nil
}

func (p *Interpreter) ensureStartedLocked() error {
	if p.cmd != nil {
		select {
		case <-p.exited:
			p.logger.WarnCat(logging.CatPython, "Worker had exited, restarting")
			p.stopLocked()
		default:
			return nil
		}
	}

	if p.path == "" {
		return ErrNotFound
	}

	cmd := exec.Command(p.path, "-u", "-c", bootstrapSource)
	cmd.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8", "PYTHONUNBUFFERED=1")

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start python worker %s: %w", p.path, err)
	}

	exited := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			p.logger.DebugCat(logging.CatPython, "stderr: %s", scanner.Text())
		}
	}()
	go func() {
		err := cmd.Wait()
		if err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.logger.DebugCat(logging.CatPython, "Worker exited: %v", err)
		}
		close(exited)
	}()

	p.cmd = cmd
	p.stdin = stdin
	p.replies = bufio.NewReaderSize(stdout, 64*1024)
	p.exited = exited
	p.logger.InfoCat(logging.CatPython, "Started python worker %s (pid %d)", p.path, cmd.Process.Pid)
	return nil
}

func (p *Interpreter) stopLocked() {
	if p.cmd == nil {
		return
	}
	_ = p.stdin.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	<-p.exited
	p.cmd = nil
	p.stdin = nil
	p.replies = nil
	p.exited = nil
}
