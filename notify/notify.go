package notify

import (
	"sync"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"

	"stereocam/video"
)

// Notification is sent to all NotifyListeners registered with Notifier.
type Notification struct {
	TimeString string
	Identifier string
}

type NotifyListener interface {
	Notify(n *Notification) error
}

// Notifier fans recording events out to its listeners, at most once per
// clip and only inside the configured notification hours.
type Notifier struct {
	Listeners []NotifyListener

	// HoursStart and HoursEnd bound the local hours during which
	// notifications are sent.
	HoursStart int
	HoursEnd   int

	l sync.Mutex
}

var _ video.RecordListener = (*Notifier)(nil)

// RecordStarted is invoked when the recorder opens a clip.
func (n *Notifier) RecordStarted(vr *video.VideoRecord) {
	n.l.Lock()
	defer n.l.Unlock()

	ts := vr.TriggeredAt
	if ts.Hour() < n.HoursStart || ts.Hour() >= n.HoursEnd {
		log.Infof("Would send notification, but currently in quiet hours.")
		return
	}

	notification := &Notification{
		TimeString: ts.Format("3:04 PM"),
		Identifier: vr.Identifier,
	}
	log.Infof("Sending notification: %v", spew.Sdump(notification))
	for _, l := range n.Listeners {
		go func(l NotifyListener) {
			if err := l.Notify(notification); err != nil {
				log.Errorf("Failed to send notification: %v", err)
			}
		}(l)
	}
}

// RecordStopped is invoked when the recorder completes a clip.
func (n *Notifier) RecordStopped(vr *video.VideoRecord) {}
