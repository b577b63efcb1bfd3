package whatsapp

import (
	"context"
	"time"
)

// Timings holds every bounded wait the engine performs. The zero value
// disables all waits, which is what tests use.
type Timings struct {
	ReadyProbe        time.Duration
	ReadyExtendedWait time.Duration
	DeepLinkProbe     time.Duration
	SearchProbe       time.Duration
	InputProbe        time.Duration
	SendProbe         time.Duration
	AttachProbe       time.Duration
	OptionProbe       time.Duration
	FileInputProbe    time.Duration
	CaptionProbe      time.Duration
	MediaSendProbe    time.Duration

	DeepLinkSettle      time.Duration
	SearchRootSettle    time.Duration
	SearchResultsSettle time.Duration
	ResultClickSettle   time.Duration
	ExactMatchSettle    time.Duration
	ChunkPause          time.Duration
	MessageSendSettle   time.Duration
	AttachMenuSettle    time.Duration
	OptionSettle        time.Duration
	FileLoadedSettle    time.Duration
	CaptionEnterSettle  time.Duration
	DocumentUploadWait  time.Duration
	ImageUploadWait     time.Duration
	PreComposeSettle    time.Duration
}

// DefaultTimings mirrors how long WhatsApp Web usually needs on a
// residential connection.
func DefaultTimings() Timings {
	return Timings{
		ReadyProbe:        15 * time.Second,
		ReadyExtendedWait: 30 * time.Second,
		DeepLinkProbe:     45 * time.Second,
		SearchProbe:       15 * time.Second,
		InputProbe:        10 * time.Second,
		SendProbe:         5 * time.Second,
		AttachProbe:       10 * time.Second,
		OptionProbe:       3 * time.Second,
		FileInputProbe:    10 * time.Second,
		CaptionProbe:      8 * time.Second,
		MediaSendProbe:    10 * time.Second,

		DeepLinkSettle:      3 * time.Second,
		SearchRootSettle:    10 * time.Second,
		SearchResultsSettle: 5 * time.Second,
		ResultClickSettle:   5 * time.Second,
		ExactMatchSettle:    3 * time.Second,
		ChunkPause:          500 * time.Millisecond,
		MessageSendSettle:   3 * time.Second,
		AttachMenuSettle:    2 * time.Second,
		OptionSettle:        2 * time.Second,
		FileLoadedSettle:    5 * time.Second,
		CaptionEnterSettle:  3 * time.Second,
		DocumentUploadWait:  7 * time.Second,
		ImageUploadWait:     3 * time.Second,
		PreComposeSettle:    5 * time.Second,
	}
}

// sleepWithContext blocks for d or until ctx is done.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
