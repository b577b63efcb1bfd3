// Package assistant runs the ordering dialogue against a language model and
// condenses it into the priced order summary.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"orderbot/internal/config"
	"orderbot/internal/order"
)

const DefaultModel = "gemini-2.0-flash"

// Apology is the reply shown when the model call fails.
const Apology = "😕 Lo siento, ha ocurrido un error."

// OpeningQuestion seeds every conversation.
const OpeningQuestion = "¿Qué precios, combos y promociones tienes?"

// DefaultSystemPrompt describes the menu and the delivery rules.
const DefaultSystemPrompt = "Eres un asistente de Samir's Burgers en Medellín. " +
	"Nuestro menú incluye: Hamburguesa Clásica (6000), Hamburguesa Doble (8000), Papas Fritas (3000). " +
	"El domicilio cuesta 2000, pero es gratis en pedidos mayores a 15000. " +
	"No solicites aún la dirección, nombre, teléfono y método de pago; se agregarán al finalizar el pedido, " +
	"cuando el usuario escriba 'confirmar'. Luego, se mostrará el resumen final y las opciones de envío."

const summarySystemPrompt = "Eres un asistente que resume pedidos de un restaurante de forma clara y detallada. " +
	"Asegúrate de especificar las cantidades y los precios de cada ítem."

const summaryMaxTokens = 500

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the dialogue.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Completer produces the next assistant message for a dialogue.
type Completer interface {
	Complete(ctx context.Context, system string, turns []Turn, maxTokens int) (string, error)
}

// Conversation accumulates the ordering dialogue.
type Conversation struct {
	mu        sync.Mutex
	completer Completer
	cfg       config.AssistantConfig
	system    string
	turns     []Turn
	logger    *zap.Logger
}

func NewConversation(completer Completer, cfg config.AssistantConfig, logger *zap.Logger) *Conversation {
	if logger == nil {
		logger = zap.NewNop()
	}
	system := cfg.SystemPrompt
	if system == "" {
		system = DefaultSystemPrompt
	}
	return &Conversation{
		completer: completer,
		cfg:       cfg,
		system:    system,
		turns:     []Turn{{Role: RoleUser, Text: OpeningQuestion}},
		logger:    logger,
	}
}

// Reply records the user's message and returns the assistant's answer.
// Model failures are logged and answered with Apology.
func (c *Conversation) Reply(ctx context.Context, userText string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = append(c.turns, Turn{Role: RoleUser, Text: userText})

	ctx, cancel := context.WithTimeout(ctx, c.cfg.GetTimeout())
	defer cancel()

	reply, err := c.completer.Complete(ctx, c.system, append([]Turn(nil), c.turns...), c.maxTokens())
	if err != nil {
		c.logger.Error("Assistant reply failed", zap.Error(err))
		reply = Apology
	}
	c.turns = append(c.turns, Turn{Role: RoleAssistant, Text: reply})
	return reply
}

// Summarize asks for the order in "X [producto] - $[precio]" lines followed
// by the customer's details.
func (c *Conversation) Summarize(ctx context.Context, customer order.Customer) (string, error) {
	c.mu.Lock()
	prompt := summaryPrompt(c.system, c.turns, customer)
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.GetTimeout())
	defer cancel()

	summary, err := c.completer.Complete(ctx, summarySystemPrompt,
		[]Turn{{Role: RoleUser, Text: prompt}}, summaryMaxTokens)
	if err != nil {
		c.logger.Error("Order summary failed", zap.Error(err))
		return "", fmt.Errorf("summarize order: %w", err)
	}
	return summary, nil
}

// Turns returns a copy of the dialogue so far.
func (c *Conversation) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Turn(nil), c.turns...)
}

func (c *Conversation) maxTokens() int {
	if c.cfg.MaxTokens > 0 {
		return c.cfg.MaxTokens
	}
	return 1000
}

func summaryPrompt(system string, turns []Turn, customer order.Customer) string {
	var b strings.Builder
	b.WriteString("A partir de la siguiente conversación, genera un resumen completo del pedido, " +
		"incluyendo todos los ítems, combos, promociones y detalles de domicilio. " +
		"Asegúrate de incluir las cantidades exactas y los precios de cada ítem. " +
		"El formato debe ser: X [nombre del producto] - $[precio]. " +
		"Luego, añade la siguiente información del cliente:\n\n")
	fmt.Fprintf(&b, "Nombre: %s\nTeléfono: %s\nDirección: %s\nMétodo de pago: %s\n\n",
		customer.Name, customer.Phone, customer.Address, customer.Payment)
	b.WriteString("Conversación:\n")
	fmt.Fprintf(&b, "system: %s\n", system)
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Text)
	}
	b.WriteString("\nResumen del pedido:")
	return b.String()
}
