package whatsapp

import "strings"

// LocatorKind selects the query language of a Locator.
type LocatorKind int

const (
	KindCSS LocatorKind = iota
	KindXPath
)

// Locator is one candidate expression for finding an element.
type Locator struct {
	Kind LocatorKind
	Expr string
}

func CSS(expr string) Locator   { return Locator{Kind: KindCSS, Expr: expr} }
func XPath(expr string) Locator { return Locator{Kind: KindXPath, Expr: expr} }

func (l Locator) String() string {
	if l.Kind == KindXPath {
		return "xpath:" + l.Expr
	}
	return l.Expr
}

// Strategy is a ranked list of candidates for one logical UI target.
// Order encodes preference: the most specific and stable selector comes first.
type Strategy struct {
	Target     string
	Candidates []Locator
}

func strategy(target string, css ...string) Strategy {
	s := Strategy{Target: target, Candidates: make([]Locator, 0, len(css))}
	for _, c := range css {
		s.Candidates = append(s.Candidates, CSS(c))
	}
	return s
}

// Strategies groups the locator tables the engine probes.
type Strategies struct {
	ShellReady       Strategy
	ConversationPane Strategy
	SearchBox        Strategy
	SearchResult     Strategy
	MessageInput     Strategy
	SendButton       Strategy
	AttachButton     Strategy
	DocumentOption   Strategy
	ImageOption      Strategy
	FileInput        Strategy
	CaptionInput     Strategy
	MediaSendButton  Strategy
	EnterTargets     Strategy

	// InvalidContactPhrases are matched as case-sensitive substrings of
	// rendered text after a deep link fails to open a conversation.
	InvalidContactPhrases []string
}

// DefaultStrategies returns a fresh copy of the built-in locator tables for
// the WhatsApp Web surface.
func DefaultStrategies() Strategies {
	return Strategies{
		ShellReady: strategy("shell",
			"[data-testid='chat-list']",
			"[data-testid='default-user']",
			"[data-testid='search-tab']",
			"[data-testid='menu-bar-menu']",
			".two",
			"._3sh5K",
			"#side",
			"#pane-side",
		),
		ConversationPane: strategy("conversation-pane",
			"[data-testid='conversation-panel-wrapper']",
			"[data-testid='msg-container']",
			".copyable-area",
			"#main",
			"[role='application']",
		),
		SearchBox: strategy("search-box",
			"[data-testid='chat-list-search']",
			"[data-testid='search-bar']",
			"[title='Cuadro de texto de búsqueda']",
			"._3SZ1t",
		),
		SearchResult: strategy("search-result",
			"div[role='row']",
		),
		MessageInput: strategy("message-input",
			"[data-testid='conversation-compose-box-input']",
			"div[contenteditable='true'][data-tab='10']",
			"div[contenteditable='true'][role='textbox']",
			"div[role='textbox']",
			"div.selectable-text[contenteditable='true']",
			"#main div[contenteditable='true']",
		),
		SendButton: strategy("send-button",
			"[data-testid='compose-btn-send']",
			"[data-icon='send']",
			"[data-testid='send']",
			"[aria-label='Enviar']",
			"button[aria-label='Enviar']",
			"span[data-icon='send']",
		),
		AttachButton: strategy("attach-button",
			"[data-testid='attach-clip']",
			"[data-testid='compose-btn-attach']",
			"[data-icon='attach-menu-plus']",
			"[data-icon='attach']",
			"[data-icon='clip']",
			"[aria-label='Adjuntar']",
			"[title='Adjuntar']",
		),
		DocumentOption: strategy("document-option",
			"[data-testid='mi-attach-document']",
			"[data-testid='attach-document']",
			"[data-icon='document']",
			"[aria-label='Documento']",
		),
		ImageOption: strategy("image-option",
			"[data-testid='mi-attach-gallery']",
			"[data-testid='attach-image']",
			"[data-icon='image']",
			"[aria-label='Foto o video']",
		),
		FileInput: strategy("file-input",
			"input[type='file']",
		),
		CaptionInput: strategy("caption-input",
			"[data-testid='media-caption-input']",
			"[data-testid='media-caption-input-container']",
			"[data-testid='caption-input']",
			"div[role='textbox'][data-tab='9']",
			"[placeholder='Añade un comentario']",
		),
		MediaSendButton: strategy("media-send-button",
			"[data-testid='send']",
			"[data-testid='btn-send']",
			"[aria-label='Enviar']",
			"[data-icon='send']",
			"span[data-icon='send']",
		),
		EnterTargets: strategy("enter-target",
			"div[role='textbox']",
			"[contenteditable='true']",
			".copyable-text",
			"[data-tab='9']",
		),
		InvalidContactPhrases: []string{
			"El número de teléfono compartido a través del enlace",
			"El número de teléfono no existe",
			"número no está disponible",
			"invalid",
			"no se encuentra",
		},
	}
}

// exactMatchStrategy finds any element whose title or aria-label carries the
// literal identifier.
func exactMatchStrategy(contact ContactID) Strategy {
	lit := XPathLiteral(string(contact))
	return Strategy{
		Target: "exact-match",
		Candidates: []Locator{
			XPath("//span[contains(@title, " + lit + ")]"),
			XPath("//*[contains(@aria-label, " + lit + ")]"),
		},
	}
}

// XPathLiteral quotes s for use inside an XPath expression.
func XPathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}
