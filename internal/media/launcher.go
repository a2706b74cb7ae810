package media

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/validation"
)

// Launcher hands article and image links to desktop applications.
type Launcher struct {
	defaultOpener string
	imageViewer   string
	validator     *validation.URLValidator
	start         func(name string, args ...string) error
}

func NewLauncher(cfg *config.Config) *Launcher {
	opener := cfg.Media.DefaultOpener
	if opener == "" {
		opener = platformOpener()
	}

	viewer := findCommand(cfg.Media.ImageViewers...)
	if viewer == "" {
		viewer = opener
	}

	return &Launcher{
		defaultOpener: opener,
		imageViewer:   viewer,
		validator:     validation.NewURLValidator(),
		start:         startDetached,
	}
}

// Open shows an article in the browser.
func (l *Launcher) Open(link string) error {
	return l.launch(l.defaultOpener, link)
}

// OpenImage shows an article's lead image.
func (l *Launcher) OpenImage(link string) error {
	return l.launch(l.imageViewer, link)
}

func (l *Launcher) launch(program, link string) error {
	normalized, err := l.validator.ValidateAndNormalize(link)
	if err != nil {
		return fmt.Errorf("refusing to open %q: %w", link, err)
	}
	if program == "" {
		return fmt.Errorf("no application found to open URL")
	}

	name, args := commandLine(program, normalized)
	if err := l.start(name, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", program, err)
	}
	return nil
}

// commandLine wraps the Windows "start" builtin, which is not an executable.
func commandLine(program, link string) (string, []string) {
	if program == "start" {
		return "cmd", []string{"/c", "start", "", link}
	}
	return program, []string{link}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func platformOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "start"
	default:
		return "xdg-open"
	}
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
