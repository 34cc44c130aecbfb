package window

import (
	"fmt"
	"image"
	"time"
)

// Info describes one capturable top-level window.
type Info struct {
	ID        uint64
	OwnerName string
	Title     string
	X, Y      int
	Width     int
	Height    int
}

func (i Info) DisplayName() string {
	title := i.Title
	if title == "" {
		title = "(untitled)"
	}
	return fmt.Sprintf("%s - %s", i.OwnerName, title)
}

func (i Info) DimensionsStr() string {
	return fmt.Sprintf("%dx%d", i.Width, i.Height)
}

const autoRefreshInterval = 3 * time.Second

// Manager caches the current window list.
type Manager struct {
	windows     []Info
	lastRefresh time.Time
}

func NewManager() *Manager {
	return &Manager{lastRefresh: time.Now()}
}

func (m *Manager) Refresh() error {
	windows, err := listWindows()
	if err != nil {
		return fmt.Errorf("failed to enumerate windows: %w", err)
	}
	m.windows = windows
	m.lastRefresh = time.Now()
	return nil
}

func (m *Manager) ShouldAutoRefresh() bool {
	return time.Since(m.lastRefresh) > autoRefreshInterval
}

func (m *Manager) Get(id uint64) (Info, bool) {
	for _, w := range m.windows {
		if w.ID == id {
			return w, true
		}
	}
	return Info{}, false
}

func (m *Manager) Windows() []Info {
	return m.windows
}

// Bounds returns the current on-screen rectangle of a window, or false
// if the window is gone.
func Bounds(id uint64) (image.Rectangle, bool) {
	return windowBounds(id)
}
