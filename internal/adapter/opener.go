package adapter

import (
	"errors"
	"log/slog"
	"os/exec"
	"runtime"
)

// Opener opens image URLs in an external viewer
type Opener struct {
	command string   // configured viewer command, empty for system default
	args    []string // additional arguments for the viewer
	logger  *slog.Logger

	start func(name string, args ...string) error
}

// NewOpener creates an Opener. An empty command uses the system default handler.
func NewOpener(command string, args []string, logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{
		command: command,
		args:    args,
		logger:  logger,
		start:   startDetached,
	}
}

// startDetached starts a command without waiting for it
func startDetached(name string, args ...string) error {
	if _, err := exec.LookPath(name); err != nil {
		return err
	}
	return exec.Command(name, args...).Start()
}

// Open launches url in the configured viewer or the system default
func (o *Opener) Open(url string) error {
	if url == "" {
		return errors.New("item has no image url")
	}

	name, args := o.commandFor(url)
	o.logger.Info("opening image", "command", name, "url", url)
	return o.start(name, args...)
}

// commandFor builds the command line; URL goes at the end
func (o *Opener) commandFor(url string) (string, []string) {
	if o.command != "" {
		args := append(append([]string{}, o.args...), url)
		return o.command, args
	}

	switch runtime.GOOS {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "cmd", []string{"/c", "start", "", url}
	default:
		// Linux and other Unix-like systems
		return "xdg-open", []string{url}
	}
}
