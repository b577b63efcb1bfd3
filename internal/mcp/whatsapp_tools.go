package mcp

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sendTracer starts a fresh trace run for every send tool call.
type sendTracer struct {
	tracer Tracer
	logger *zap.Logger
}

func (t sendTracer) begin(tool, phone string) string {
	if t.tracer == nil {
		return ""
	}
	runID := uuid.NewString()
	if err := t.tracer.Start(runID); err != nil {
		t.logger.Warn("Trace not started", zap.String("tool", tool), zap.Error(err))
		return ""
	}
	t.tracer.Log("tool_call", map[string]string{"tool": tool, "phone": phone})
	return runID
}

type SendMessageTool struct {
	messenger Messenger
	trace     sendTracer
}

func (t *SendMessageTool) Name() string { return "whatsapp-send-message" }
func (t *SendMessageTool) Description() string {
	return `Send a text message to a WhatsApp contact through the logged-in WhatsApp Web session.

The phone may contain spaces, dashes or a leading +; the default country code is
prepended when missing. The conversation is found via deep link, then search,
then an exact title match.

Returns: {success, phone} or {success:false, error, step, retryable}.`
}
func (t *SendMessageTool) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"phone":   stringSchema("Contact phone number"),
		"message": stringSchema("Message text; newlines are preserved"),
	}, "phone", "message")
}
func (t *SendMessageTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if err := requireArgs(args, "phone", "message"); err != nil {
		return nil, err
	}
	phone := getStringArg(args, "phone")
	t.trace.begin(t.Name(), phone)
	err := t.messenger.SendMessage(ctx, phone, getStringArg(args, "message"))
	return sendPayload(phone, err), nil
}

type SendDocumentTool struct {
	messenger Messenger
	trace     sendTracer
}

func (t *SendDocumentTool) Name() string { return "whatsapp-send-document" }
func (t *SendDocumentTool) Description() string {
	return `Send a local file as a WhatsApp document, with an optional caption.

The path must exist on the machine running the bot.

Returns: {success, phone} or {success:false, error, step, retryable}.`
}
func (t *SendDocumentTool) InputSchema() map[string]interface{} {
	return attachmentSchema()
}
func (t *SendDocumentTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if err := requireArgs(args, "phone", "path"); err != nil {
		return nil, err
	}
	phone := getStringArg(args, "phone")
	t.trace.begin(t.Name(), phone)
	err := t.messenger.SendDocument(ctx, phone, getStringArg(args, "path"), getStringArg(args, "caption"))
	return sendPayload(phone, err), nil
}

type SendImageTool struct {
	messenger Messenger
	trace     sendTracer
}

func (t *SendImageTool) Name() string { return "whatsapp-send-image" }
func (t *SendImageTool) Description() string {
	return `Send a local image through the photos and videos attachment option, with an optional caption.

Returns: {success, phone} or {success:false, error, step, retryable}.`
}
func (t *SendImageTool) InputSchema() map[string]interface{} {
	return attachmentSchema()
}
func (t *SendImageTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if err := requireArgs(args, "phone", "path"); err != nil {
		return nil, err
	}
	phone := getStringArg(args, "phone")
	t.trace.begin(t.Name(), phone)
	err := t.messenger.SendImage(ctx, phone, getStringArg(args, "path"), getStringArg(args, "caption"))
	return sendPayload(phone, err), nil
}

func attachmentSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"phone":   stringSchema("Contact phone number"),
		"path":    stringSchema("Path of the file to send"),
		"caption": stringSchema("Optional caption"),
	}, "phone", "path")
}
