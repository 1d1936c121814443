package models

import "time"

// Intent is the classifier's verdict on one inbound message.
type Intent struct {
	IsReminder  bool
	ScheduledAt time.Time // absolute, only set when IsReminder
	Description string
}

func NotAReminder() Intent {
	return Intent{}
}
