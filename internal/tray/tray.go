// Package tray shows the capture session in the system tray.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/session"
)

// Tray is the system tray menu. It implements the report sink so it follows
// every state change of the session.
type Tray struct {
	onCapture func()
	onReset   func()
	onOpen    func()
	onQuit    func()

	mu     sync.RWMutex
	last   session.Report
	hasRun bool

	// Menu items stored for later updates
	menuStage    *systray.MenuItem
	menuHand     *systray.MenuItem
	menuQuality  *systray.MenuItem
	menuProgress *systray.MenuItem
}

// New creates a Tray.
func New() *Tray {
	return &Tray{}
}

// OnCapture sets the callback for the "Capture" menu item.
func (t *Tray) OnCapture(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCapture = fn
}

// OnReset sets the callback for the "Reset Session" menu item.
func (t *Tray) OnReset(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReset = fn
}

// OnOpen sets the callback for the "Open Dashboard" menu item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback for the "Quit" menu item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops a running tray.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Palm")
	systray.SetTooltip("Palm and finger capture")

	t.mu.Lock()
	t.menuStage = systray.AddMenuItem("Stage: Palm", "Current capture stage")
	t.menuStage.Disable()
	t.menuHand = systray.AddMenuItem("Hand: not captured", "Enrolled hand")
	t.menuHand.Disable()
	t.menuQuality = systray.AddMenuItem("Light: -", "Last accepted capture quality")
	t.menuQuality.Disable()
	t.menuProgress = systray.AddMenuItem("Fingers: 0/5", "Fingers matched")
	t.menuProgress.Disable()
	t.hasRun = true
	last := t.last
	t.mu.Unlock()

	t.render(last)
	systray.AddSeparator()

	menuCapture := systray.AddMenuItem("Capture", "Capture the current stage")
	menuReset := systray.AddMenuItem("Reset Session", "Discard the template and start over")
	systray.AddSeparator()
	menuOpen := systray.AddMenuItem("Open Dashboard...", "Open the report page in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit palmfinger")

	go func() {
		for {
			select {
			case <-menuCapture.ClickedCh:
				t.call(func() func() { return t.onCapture })
			case <-menuReset.ClickedCh:
				t.call(func() func() { return t.onReset })
			case <-menuOpen.ClickedCh:
				t.call(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// call runs a callback outside the lock.
func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	fn := get()
	t.mu.RUnlock()

	if fn != nil {
		fn()
	}
}

// Publish updates the menu with r.
func (t *Tray) Publish(r session.Report) {
	t.mu.Lock()
	t.last = r
	running := t.hasRun
	t.mu.Unlock()

	if running {
		t.render(r)
	}
}

// Last returns the most recently published report.
func (t *Tray) Last() session.Report {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

func (t *Tray) render(r session.Report) {
	s := statusFor(r)

	t.mu.RLock()
	defer t.mu.RUnlock()

	systray.SetTitle(s.Title)
	t.menuStage.SetTitle(s.Stage)
	t.menuHand.SetTitle(s.Hand)
	t.menuQuality.SetTitle(s.Quality)
	t.menuProgress.SetTitle(s.Progress)
}

// status is the text shown for a report.
type status struct {
	Title    string
	Stage    string
	Hand     string
	Quality  string
	Progress string
}

func statusFor(r session.Report) status {
	s := status{
		Title:    fmt.Sprintf("Palm %d/5", r.FingersMatched),
		Stage:    "Stage: Palm",
		Hand:     "Hand: not captured",
		Quality:  "Light: -",
		Progress: fmt.Sprintf("Fingers: %d/5", r.FingersMatched),
	}

	if r.Stage != "" {
		s.Stage = "Stage: " + r.Stage
	}
	if r.HandSide != "" {
		s.Hand = "Hand: " + r.HandSide
	}
	if r.Light != "" {
		s.Quality = fmt.Sprintf("Light: %s (%d), blur %.1f", r.Light, r.Brightness, r.BlurScore)
	}
	if r.Complete {
		s.Title = "Palm ✓"
		s.Stage = r.Summary()
	}
	return s
}
