package whatsapp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// AttachmentKind selects which option of the attach menu is used.
type AttachmentKind int

const (
	KindDocument AttachmentKind = iota
	KindImage
)

func (k AttachmentKind) String() string {
	if k == KindImage {
		return "image"
	}
	return "document"
}

// AttachmentRequest describes one file to send. Caption is optional.
type AttachmentRequest struct {
	Path    string
	Caption string
	Kind    AttachmentKind
}

// AttachmentComposer drives the attach menu, injects the file and submits it.
type AttachmentComposer struct {
	surface    Surface
	prober     *Prober
	diag       *Diagnostics
	timings    Timings
	strategies Strategies
	logger     *zap.Logger
	sleep      func(context.Context, time.Duration) error
}

func newAttachmentComposer(surface Surface, prober *Prober, diag *Diagnostics, opts settings) *AttachmentComposer {
	return &AttachmentComposer{
		surface:    surface,
		prober:     prober,
		diag:       diag,
		timings:    opts.Timings,
		strategies: opts.Strategies,
		logger:     opts.Logger,
		sleep:      sleepWithContext,
	}
}

// resolveAttachment returns the absolute path of req.Path, or
// ErrFileNotFound when it does not name a regular file.
func resolveAttachment(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	return abs, nil
}

// Attach sends req into the open conversation. A missing file fails before
// the surface is touched.
func (a *AttachmentComposer) Attach(ctx context.Context, conv ConversationHandle, req AttachmentRequest) error {
	abs, err := resolveAttachment(req.Path)
	if err != nil {
		return stepErr("resolve file", err)
	}
	kind := req.Kind.String()
	log := a.logger.With(
		zap.String("contact", conv.Contact.String()),
		zap.String("kind", kind),
		zap.String("file", filepath.Base(abs)))

	a.diag.Capture(ctx, "before_attach_"+kind)
	attach := a.prober.Probe(ctx, a.strategies.AttachButton, a.timings.AttachProbe, WaitClickable)
	if !attach.Found {
		a.diag.Capture(ctx, "error_no_attach_button")
		return stepErr("open attach menu", ErrAttachControlNotFound)
	}
	if err := attach.Element.Click(ctx); err != nil {
		a.diag.Capture(ctx, "error_no_attach_button")
		return stepErr("open attach menu", fmt.Errorf("%w: %v", ErrAttachControlNotFound, err))
	}
	if err := a.sleep(ctx, a.timings.AttachMenuSettle); err != nil {
		return err
	}

	// The option is best effort: some builds expose the file input as soon
	// as the menu opens.
	option := a.strategies.DocumentOption
	if req.Kind == KindImage {
		option = a.strategies.ImageOption
	}
	if opt := a.prober.Probe(ctx, option, a.timings.OptionProbe, WaitClickable); opt.Found {
		if err := opt.Element.Click(ctx); err == nil {
			if err := a.sleep(ctx, a.timings.OptionSettle); err != nil {
				return err
			}
		}
	} else {
		log.Debug("attach option not found, using file input directly")
	}

	a.diag.Capture(ctx, "before_file_input")
	input := a.prober.Probe(ctx, a.strategies.FileInput, a.timings.FileInputProbe, WaitPresent)
	if !input.Found {
		a.diag.Capture(ctx, "error_file_upload")
		return stepErr("locate file input", ErrUploadFailed)
	}
	if err := input.Element.SetFiles(ctx, []string{abs}); err != nil {
		a.diag.Capture(ctx, "error_file_upload")
		return stepErr("inject file", fmt.Errorf("%w: %v", ErrUploadFailed, err))
	}
	if err := a.sleep(ctx, a.timings.FileLoadedSettle); err != nil {
		return err
	}

	if req.Caption != "" {
		done, err := a.caption(ctx, req.Caption)
		if err != nil {
			return err
		}
		if done {
			// The upload dialog closed after Enter on the caption. This is
			// treated as a sent file without further confirmation.
			log.Info("attachment submitted from caption")
			return a.sleep(ctx, a.uploadWait(req.Kind))
		}
	}

	a.diag.Capture(ctx, "before_send_file")
	if send := a.prober.Probe(ctx, a.strategies.MediaSendButton, a.timings.MediaSendProbe, WaitClickable); send.Found {
		if err := send.Element.Click(ctx); err == nil {
			log.Info("attachment submitted")
			return a.sleep(ctx, a.uploadWait(req.Kind))
		}
	}

	if target, _ := a.prober.Present(ctx, a.strategies.EnterTargets); target.Found {
		if err := target.Element.PressEnter(ctx); err == nil {
			log.Info("attachment submitted with enter")
			return a.sleep(ctx, a.uploadWait(req.Kind))
		}
	}
	if err := a.surface.PressEnter(ctx); err != nil {
		a.diag.Capture(ctx, "error_send_file")
		return stepErr("submit attachment", fmt.Errorf("%w: %v", ErrUploadFailed, err))
	}
	log.Info("attachment submitted with page enter")
	return a.sleep(ctx, a.uploadWait(req.Kind))
}

// caption types text into the caption field and submits it. It reports true
// when the file input vanished afterwards, meaning the dialog already sent.
func (a *AttachmentComposer) caption(ctx context.Context, text string) (bool, error) {
	res := a.prober.Probe(ctx, a.strategies.CaptionInput, a.timings.CaptionProbe, WaitPresent)
	if !res.Found {
		a.logger.Debug("caption input not found, sending without caption")
		return false, nil
	}
	_ = res.Element.Clear(ctx)
	if err := res.Element.Type(ctx, text); err != nil {
		a.logger.Debug("caption typing failed", zap.Error(err))
		return false, nil
	}
	if err := res.Element.PressEnter(ctx); err != nil {
		return false, nil
	}
	if err := a.sleep(ctx, a.timings.CaptionEnterSettle); err != nil {
		return false, err
	}
	if still, _ := a.prober.Present(ctx, a.strategies.FileInput); !still.Found {
		return true, nil
	}
	return false, nil
}

func (a *AttachmentComposer) uploadWait(kind AttachmentKind) time.Duration {
	if kind == KindImage {
		return a.timings.ImageUploadWait
	}
	return a.timings.DocumentUploadWait
}
