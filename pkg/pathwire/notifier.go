package pathwire

import "sync/atomic"

// Notifier is told each time a byte has been queued for transmission. It
// must return quickly and never block.
type Notifier interface {
	NotifyTx()
}

// NotifyFunc is func type of Notifier.
type NotifyFunc func()

// NotifyTx implements Notifier.
func (f NotifyFunc) NotifyTx() {
	f()
}

// Hook is a single-slot Notifier registry. A later Register replaces the
// previous Notifier and nil disables notification. The zero value is
// ready to use and notifies nobody.
type Hook struct {
	slot atomic.Pointer[hookSlot]
}

type hookSlot struct {
	notifier Notifier
}

// Register installs n as the notifier.
func (h *Hook) Register(n Notifier) {
	if n == nil {
		h.slot.Store(nil)
		return
	}
	h.slot.Store(&hookSlot{notifier: n})
}

// Registered indicates a notifier is installed.
func (h *Hook) Registered() bool {
	return h.slot.Load() != nil
}

// NotifyTx implements Notifier.
func (h *Hook) NotifyTx() {
	if s := h.slot.Load(); s != nil {
		s.notifier.NotifyTx()
	}
}
