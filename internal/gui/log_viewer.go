package gui

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const maxLogMessages = 500

// LogWriter forwards everything written to it to the log viewer and,
// when set, to the original stream
type LogWriter struct {
	viewer   *LogViewer
	original io.Writer
}

// Write implements io.Writer
func (w *LogWriter) Write(p []byte) (n int, err error) {
	if w.original != nil {
		w.original.Write(p)
	}

	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			w.viewer.AddMessage(line)
		}
	}
	return len(p), nil
}

// LogViewer shows captured status lines and log output, newest first
type LogViewer struct {
	widget.BaseWidget

	list    *widget.List
	content *fyne.Container
	now     func() time.Time

	mu       sync.Mutex
	messages []string

	originalStdout *os.File
	originalStderr *os.File
	pipes          []*os.File
}

// NewLogViewer creates an empty log viewer
func NewLogViewer() *LogViewer {
	v := &LogViewer{now: time.Now}

	v.list = widget.NewList(
		func() int {
			v.mu.Lock()
			defer v.mu.Unlock()
			return len(v.messages)
		},
		func() fyne.CanvasObject {
			label := widget.NewLabel("")
			label.Truncation = fyne.TextTruncateEllipsis
			return label
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			v.mu.Lock()
			var text string
			if id < len(v.messages) {
				text = v.messages[id]
			}
			v.mu.Unlock()
			obj.(*widget.Label).SetText(text)
		},
	)

	clearButton := widget.NewButton("Clear", v.Clear)
	v.content = container.NewBorder(
		container.NewBorder(nil, nil, nil, clearButton, widget.NewLabel("Log messages (newest first):")),
		nil, nil, nil,
		v.list,
	)

	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget
func (v *LogViewer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.content)
}

// StartCapture redirects stdout, stderr and the log package into the viewer.
// The original streams still receive a copy.
func (v *LogViewer) StartCapture() {
	v.originalStdout = os.Stdout
	v.originalStderr = os.Stderr

	stdoutWriter := &LogWriter{viewer: v, original: v.originalStdout}
	stderrWriter := &LogWriter{viewer: v, original: v.originalStderr}

	if r, w, err := os.Pipe(); err == nil {
		os.Stdout = w
		v.pipes = append(v.pipes, w)
		go pipeReader(r, stdoutWriter)
	}
	if r, w, err := os.Pipe(); err == nil {
		os.Stderr = w
		v.pipes = append(v.pipes, w)
		go pipeReader(r, stderrWriter)
	}

	log.SetOutput(stderrWriter)
}

// StopCapture restores the original streams
func (v *LogViewer) StopCapture() {
	if v.originalStdout != nil {
		os.Stdout = v.originalStdout
		v.originalStdout = nil
	}
	if v.originalStderr != nil {
		os.Stderr = v.originalStderr
		v.originalStderr = nil
	}
	log.SetOutput(os.Stderr)

	for _, w := range v.pipes {
		w.Close()
	}
	v.pipes = nil
}

func pipeReader(pipe *os.File, writer *LogWriter) {
	defer pipe.Close()
	buf := make([]byte, 1024)
	for {
		n, err := pipe.Read(buf)
		if n > 0 {
			writer.Write(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

// AddMessage prepends a timestamped message. Safe to call from any goroutine.
func (v *LogViewer) AddMessage(message string) {
	v.mu.Lock()
	entry := fmt.Sprintf("[%s] %s", v.now().Format("15:04:05"), message)
	v.messages = append([]string{entry}, v.messages...)
	if len(v.messages) > maxLogMessages {
		v.messages = v.messages[:maxLogMessages]
	}
	v.mu.Unlock()

	fyne.Do(func() {
		v.list.Refresh()
		v.list.ScrollToTop()
	})
}

// Messages returns a copy of the stored messages, newest first
func (v *LogViewer) Messages() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.messages...)
}

// Clear removes all messages
func (v *LogViewer) Clear() {
	v.mu.Lock()
	v.messages = nil
	v.mu.Unlock()

	fyne.Do(v.list.Refresh)
}

// Log adds a formatted message
func (v *LogViewer) Log(format string, args ...interface{}) {
	v.AddMessage(fmt.Sprintf(format, args...))
}
