package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/quantumgateway/hotelchat/internal/assistant/model"
	logx "github.com/quantumgateway/hotelchat/pkg/logger"
)

const (
	DefaultTimeout = 30 * time.Second

	maxStderrLog = 200
	// waitDelay bounds how long Run waits for output pipes after the process
	// is killed, in case a grandchild still holds them.
	waitDelay = 2 * time.Second
)

// SubprocessInvoker runs a local model CLI (`ollama run <model>` by default)
// once per prompt, feeding the prompt on stdin.
type SubprocessInvoker struct {
	binary    string
	args      []string
	env       []string
	timeout   time.Duration
	waitDelay time.Duration
}

func NewSubprocessInvoker(cfg model.OllamaConfig, timeout time.Duration) *SubprocessInvoker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SubprocessInvoker{
		binary:    cfg.Binary,
		args:      []string{cfg.RunCommand, cfg.Model},
		env:       buildEnvironment(os.Environ(), cfg),
		timeout:   timeout,
		waitDelay: waitDelay,
	}
}

// buildEnvironment keeps the parent environment and forces non-interactive,
// resource-bounded model runs.
func buildEnvironment(base []string, cfg model.OllamaConfig) []string {
	overrides := map[string]string{
		"OLLAMA_NO_TTY":            "1",
		"OLLAMA_NUM_THREADS":       strconv.Itoa(cfg.NumThreads),
		"OLLAMA_KEEP_ALIVE":        cfg.KeepAlive,
		"OLLAMA_MAX_LOADED_MODELS": strconv.Itoa(cfg.MaxLoadedModels),
	}

	env := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		name, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[name]; ok {
			continue
		}
		env = append(env, kv)
	}
	for _, name := range []string{"OLLAMA_NO_TTY", "OLLAMA_NUM_THREADS", "OLLAMA_KEEP_ALIVE", "OLLAMA_MAX_LOADED_MODELS"} {
		env = append(env, name+"="+overrides[name])
	}
	return env
}

// Invoke runs the model with a hard timeout. stdout is returned trimmed;
// escape sequences are left for the caller to strip.
func (s *SubprocessInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	execCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, s.binary, s.args...)
	cmd.Env = s.env
	cmd.Stdin = strings.NewReader(prompt)
	cmd.WaitDelay = s.waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		switch {
		case errors.Is(execCtx.Err(), context.DeadlineExceeded):
			logx.Error().Str("binary", s.binary).Dur("timeout", s.timeout).Msg("model process timed out")
			return "", timeoutError(fmt.Errorf("%s killed after %s: %w", s.binary, s.timeout, err))
		case execCtx.Err() != nil:
			return "", unavailableError(execCtx.Err())
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			logx.Error().
				Str("binary", s.binary).
				Int("exit_code", exitErr.ExitCode()).
				Str("stderr", truncate(stderr.String(), maxStderrLog)).
				Msg("model process failed")
			return "", executionError(fmt.Errorf("%s exited with code %d", s.binary, exitErr.ExitCode()))
		}

		logx.Error().Err(err).Str("binary", s.binary).Msg("model process could not be started")
		return "", unavailableError(err)
	}

	logx.Debug().
		Str("binary", s.binary).
		Dur("elapsed", elapsed).
		Int("stdout_bytes", stdout.Len()).
		Msg("model process finished")
	return strings.TrimSpace(stdout.String()), nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var _ Invoker = (*SubprocessInvoker)(nil)
