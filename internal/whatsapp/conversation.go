package whatsapp

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ConversationHandle is proof that a conversation with Contact is open and
// focused on the surface.
type ConversationHandle struct {
	Contact  ContactID
	Strategy string
}

type resolveStep struct {
	name string
	run  func(ctx context.Context, contact ContactID) error
}

// ConversationLocator opens the conversation for a contact, falling through
// deep link, search and exact match in that order. ErrInvalidContact from
// any step stops the chain.
type ConversationLocator struct {
	surface    Surface
	prober     *Prober
	diag       *Diagnostics
	site       Site
	timings    Timings
	strategies Strategies
	telemetry  Telemetry
	logger     *zap.Logger
	sleep      func(context.Context, time.Duration) error

	steps []resolveStep
}

func newConversationLocator(surface Surface, prober *Prober, diag *Diagnostics, opts settings) *ConversationLocator {
	c := &ConversationLocator{
		surface:    surface,
		prober:     prober,
		diag:       diag,
		site:       opts.Site,
		timings:    opts.Timings,
		strategies: opts.Strategies,
		telemetry:  opts.Telemetry,
		logger:     opts.Logger,
		sleep:      sleepWithContext,
	}
	c.steps = []resolveStep{
		{name: "deep-link", run: c.viaDeepLink},
		{name: "search", run: c.viaSearch},
		{name: "exact-match", run: c.viaExactMatch},
	}
	return c
}

// Resolve opens the conversation with contact.
func (c *ConversationLocator) Resolve(ctx context.Context, contact ContactID) (ConversationHandle, error) {
	if contact == "" {
		return ConversationHandle{}, ErrEmptyContact
	}
	for _, step := range c.steps {
		if err := ctx.Err(); err != nil {
			return ConversationHandle{}, err
		}
		err := step.run(ctx, contact)
		switch {
		case err == nil:
			c.telemetry.StrategyResult(contact.String(), step.name, "success")
			c.logger.Info("conversation opened",
				zap.String("contact", contact.String()),
				zap.String("strategy", step.name))
			return ConversationHandle{Contact: contact, Strategy: step.name}, nil
		case errors.Is(err, ErrInvalidContact):
			c.telemetry.StrategyResult(contact.String(), step.name, "invalid")
			c.logger.Warn("contact rejected", zap.String("contact", contact.String()))
			return ConversationHandle{}, stepErr(step.name, ErrInvalidContact)
		default:
			c.telemetry.StrategyResult(contact.String(), step.name, "not-found")
			c.logger.Info("conversation strategy failed",
				zap.String("contact", contact.String()),
				zap.String("strategy", step.name),
				zap.Error(err))
		}
	}
	c.diag.Capture(ctx, "error_find_chat")
	return ConversationHandle{}, ErrNotFound
}

func (c *ConversationLocator) viaDeepLink(ctx context.Context, contact ContactID) error {
	url := c.site.root() + "/send?phone=" + contact.String()
	if err := c.surface.Navigate(ctx, url); err != nil {
		return err
	}
	if res := c.prober.Probe(ctx, c.strategies.ConversationPane, c.timings.DeepLinkProbe, WaitPresent); res.Found {
		return c.sleep(ctx, c.timings.DeepLinkSettle)
	}
	for _, phrase := range c.strategies.InvalidContactPhrases {
		if ok, err := c.surface.HasText(ctx, phrase); err == nil && ok {
			c.diag.Capture(ctx, "error_invalid_number")
			return ErrInvalidContact
		}
	}
	return ErrNotFound
}

func (c *ConversationLocator) viaSearch(ctx context.Context, contact ContactID) error {
	if err := c.surface.Navigate(ctx, c.site.root()); err != nil {
		return err
	}
	if err := c.sleep(ctx, c.timings.SearchRootSettle); err != nil {
		return err
	}
	res := c.prober.Probe(ctx, c.strategies.SearchBox, c.timings.SearchProbe, WaitPresent)
	if !res.Found {
		return ErrNotFound
	}
	if err := res.Element.Clear(ctx); err != nil {
		return err
	}
	if err := res.Element.Type(ctx, contact.String()); err != nil {
		return err
	}
	if err := c.sleep(ctx, c.timings.SearchResultsSettle); err != nil {
		return err
	}
	hit, _ := c.prober.Present(ctx, c.strategies.SearchResult)
	if !hit.Found {
		return ErrNotFound
	}
	if err := hit.Element.Click(ctx); err != nil {
		return err
	}
	return c.sleep(ctx, c.timings.ResultClickSettle)
}

func (c *ConversationLocator) viaExactMatch(ctx context.Context, contact ContactID) error {
	hit, _ := c.prober.Present(ctx, exactMatchStrategy(contact))
	if !hit.Found {
		return ErrNotFound
	}
	if err := hit.Element.Click(ctx); err != nil {
		return err
	}
	return c.sleep(ctx, c.timings.ExactMatchSettle)
}
