// cybercraft-launcher/game/process.go
package game

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"text/template"

	"go.uber.org/zap"

	"cybercraft-launcher/config"
)

var ErrNoCommand = errors.New("no bootstrapper command configured")

// ProcessClient runs an external bootstrapper executable. Every output line
// becomes a Data event; exec and exit notes become Debug events.
type ProcessClient struct {
	profile func() config.Launch
	logger  *zap.Logger
}

func NewProcessClient(profile func() config.Launch, logger *zap.Logger) *ProcessClient {
	return &ProcessClient{profile: profile, logger: logger}
}

func (c *ProcessClient) Launch(opts Options, events EventHandler) error {
	profile := c.profile()
	if profile.Command == "" {
		return ErrNoCommand
	}
	args, err := renderArgs(profile.Args, opts)
	if err != nil {
		return err
	}

	cmd := exec.Command(profile.Command, args...)
	cmd.Dir = opts.Root
	cmd.Env = append(os.Environ(), javaEnv(c.logger)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	events.Debug(fmt.Sprintf("exec %s %s", profile.Command, strings.Join(args, " ")))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", profile.Command, err)
	}
	c.logger.Info("bootstrapper started", zap.String("command", profile.Command), zap.Int("pid", cmd.Process.Pid))

	var wg sync.WaitGroup
	wg.Add(2)
	go pumpLines(&wg, stdout, events)
	go pumpLines(&wg, stderr, events)
	go func() {
		wg.Wait()
		if err := cmd.Wait(); err != nil {
			events.Debug(fmt.Sprintf("bootstrapper exited: %v", err))
			c.logger.Warn("bootstrapper exited", zap.Error(err))
			return
		}
		events.Debug("bootstrapper exited")
	}()
	return nil
}

func pumpLines(wg *sync.WaitGroup, r io.Reader, events EventHandler) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.Clone(scanner.Bytes())
		events.Data(line)
	}
}

func renderArgs(templates []string, opts Options) ([]string, error) {
	args := make([]string, 0, len(templates))
	for _, raw := range templates {
		tmpl, err := template.New("arg").Option("missingkey=error").Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse launch argument %q: %w", raw, err)
		}
		var buf strings.Builder
		if err := tmpl.Execute(&buf, opts); err != nil {
			return nil, fmt.Errorf("render launch argument %q: %w", raw, err)
		}
		args = append(args, buf.String())
	}
	return args, nil
}
