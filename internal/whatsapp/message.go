package whatsapp

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// MessageComposer types text into the open conversation and submits it.
type MessageComposer struct {
	prober     *Prober
	diag       *Diagnostics
	site       Site
	timings    Timings
	strategies Strategies
	logger     *zap.Logger
	sleep      func(context.Context, time.Duration) error
}

func newMessageComposer(prober *Prober, diag *Diagnostics, opts settings) *MessageComposer {
	return &MessageComposer{
		prober:     prober,
		diag:       diag,
		site:       opts.Site,
		timings:    opts.Timings,
		strategies: opts.Strategies,
		logger:     opts.Logger,
		sleep:      sleepWithContext,
	}
}

// Compose clears the input, types text in bounded chunks and submits it via
// the send control, falling back to Enter on the input.
func (m *MessageComposer) Compose(ctx context.Context, conv ConversationHandle, text string) error {
	res := m.prober.Probe(ctx, m.strategies.MessageInput, m.timings.InputProbe, WaitPresent)
	if !res.Found {
		m.diag.Capture(ctx, "error_send_message")
		return stepErr("locate input", ErrInputNotFound)
	}
	input := res.Element

	if err := input.Clear(ctx); err != nil {
		m.logger.Debug("clear input failed", zap.Error(err))
	}
	chunks := splitChunks(text, m.site.ChunkSize)
	for i, chunk := range chunks {
		if err := input.Type(ctx, chunk); err != nil {
			m.diag.Capture(ctx, "error_send_message")
			return stepErr("type message", fmt.Errorf("%w: %v", ErrSubmitFailed, err))
		}
		if i < len(chunks)-1 {
			if err := m.sleep(ctx, m.timings.ChunkPause); err != nil {
				return err
			}
		}
	}

	m.diag.Capture(ctx, "before_send")

	submitted := false
	if send := m.prober.Probe(ctx, m.strategies.SendButton, m.timings.SendProbe, WaitClickable); send.Found {
		if err := send.Element.Click(ctx); err == nil {
			submitted = true
		} else {
			m.logger.Debug("send control click failed", zap.Error(err))
		}
	}
	if !submitted {
		m.logger.Debug("submitting with enter")
		if err := input.PressEnter(ctx); err != nil {
			m.diag.Capture(ctx, "error_send_message")
			return stepErr("submit message", fmt.Errorf("%w: %v", ErrSubmitFailed, err))
		}
	}

	m.logger.Info("message submitted",
		zap.String("contact", conv.Contact.String()),
		zap.Int("chars", len([]rune(text))),
		zap.Int("chunks", len(chunks)))
	return m.sleep(ctx, m.timings.MessageSendSettle)
}

// splitChunks cuts text into pieces of at most size runes so multi-byte
// characters are never split. Empty text yields no chunks.
func splitChunks(text string, size int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if size <= 0 || len(runes) <= size {
		return []string{text}
	}
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
