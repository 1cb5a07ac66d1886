package audio

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// FilePlayer plays audio files with a platform audio player
type FilePlayer struct {
	command  string // Forced player binary, empty to auto-detect
	goos     string
	lookPath func(string) (string, error)
}

// NewFilePlayer creates a player. command overrides auto-detection.
func NewFilePlayer(command string) *FilePlayer {
	return &FilePlayer{
		command:  command,
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
	}
}

// Play blocks until the file has been played or ctx is canceled
func (p *FilePlayer) Play(ctx context.Context, audioFile string) error {
	name, args, err := p.commandFor(audioFile)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, name, args...)
	err = cmd.Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

// commandFor picks the player command for the current platform
func (p *FilePlayer) commandFor(audioFile string) (string, []string, error) {
	if p.command != "" {
		return p.command, []string{audioFile}, nil
	}

	switch p.goos {
	case "darwin": // macOS
		return "afplay", []string{audioFile}, nil
	case "linux":
		// mpg123 first since it handles MP3 files best
		candidates := []struct {
			name string
			args []string
		}{
			{"mpg123", []string{"-q", audioFile}},
			{"ffplay", []string{"-nodisp", "-autoexit", "-loglevel", "quiet", audioFile}},
			{"play", []string{"-q", audioFile}}, // SoX
			{"paplay", []string{audioFile}},
			{"aplay", []string{"-q", audioFile}},
		}
		for _, c := range candidates {
			if _, err := p.lookPath(c.name); err == nil {
				return c.name, c.args, nil
			}
		}
		return "", nil, fmt.Errorf("no audio player found. Install mpg123, ffplay, sox, paplay, or aplay")
	case "windows":
		// PowerShell's SoundPlayer blocks until the file finished
		script := fmt.Sprintf("(New-Object Media.SoundPlayer '%s').PlaySync()", audioFile)
		return "powershell", []string{"-NoProfile", "-Command", script}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", p.goos)
	}
}
