// Package outreach drafts first-touch and follow-up messages for leads.
package outreach

import (
	"context"
	"strings"
	"text/template"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finclip/prospector-cli/internal/model"
	"github.com/finclip/prospector-cli/pkg/claude"
)

// Kind selects which message template to draft.
type Kind string

const (
	FirstTouch Kind = "first_touch"
	FollowUp   Kind = "follow_up"
)

var templates = template.Must(template.New("outreach").Parse(`
{{- define "first_touch" -}}
Olá{{if .Lead.ContactName}} {{.Lead.ContactName}}{{end}}, tudo bem? Aqui é {{.Sender}}.

Encontrei a {{.Lead.Name}}{{if .Lead.City}} aqui em {{.Lead.City}}{{end}} e vi que vocês têm uma ótima avaliação{{if .Lead.Rating}} ({{printf "%.1f" .Lead.Rating}} estrelas){{end}}. Trabalho ajudando negócios como o seu a atender clientes pelo WhatsApp sem perder nenhuma mensagem.

Posso te mostrar em 5 minutos como funciona?
{{- end -}}

{{- define "follow_up" -}}
Oi{{if .Lead.ContactName}} {{.Lead.ContactName}}{{end}}! {{.Sender}} de novo. Sei que a rotina na {{.Lead.Name}} é corrida, então vou ser direto: ainda faz sentido conversarmos sobre o atendimento de vocês? Se preferir, me diga um horário melhor.
{{- end -}}
`))

const personalizeSystem = `Você ajusta mensagens de prospecção em português brasileiro.
Reescreva a mensagem para soar natural e específica para o negócio descrito,
mantendo o mesmo objetivo, o mesmo remetente e no máximo o mesmo tamanho.
Responda somente com a mensagem final.`

// Generator drafts outreach messages. With a model client configured it
// personalizes the template draft per lead; without one, or when the model
// call fails, the template draft is used as-is.
type Generator struct {
	sender string
	model  string
	client claude.Client
}

// Option configures a Generator.
type Option func(*Generator)

// WithClient enables model-backed personalization.
func WithClient(c claude.Client, model string) Option {
	return func(g *Generator) {
		g.client = c
		g.model = model
	}
}

// NewGenerator builds a Generator signing messages as sender.
func NewGenerator(sender string, opts ...Option) *Generator {
	g := &Generator{sender: sender}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Draft produces a message body for the lead.
func (g *Generator) Draft(ctx context.Context, lead model.Lead, kind Kind) (string, error) {
	var sb strings.Builder
	err := templates.ExecuteTemplate(&sb, string(kind), struct {
		Lead   model.Lead
		Sender string
	}{lead, g.sender})
	if err != nil {
		return "", eris.Wrapf(err, "outreach: render %s", kind)
	}
	draft := sb.String()

	if g.client == nil {
		return draft, nil
	}
	return g.personalize(ctx, lead, draft), nil
}

func (g *Generator) personalize(ctx context.Context, lead model.Lead, draft string) string {
	prompt := "Negócio: " + lead.Name
	if lead.City != "" {
		prompt += " (" + lead.City + ")"
	}
	prompt += "\n\nMensagem:\n" + draft

	text, err := g.client.Complete(ctx, claude.CompletionRequest{
		Model:     g.model,
		System:    personalizeSystem,
		Prompt:    prompt,
		MaxTokens: 1024,
	})
	if err != nil || strings.TrimSpace(text) == "" {
		zap.L().Warn("outreach: personalization failed, using template draft",
			zap.String("lead", lead.Name),
			zap.Error(err),
		)
		return draft
	}
	return strings.TrimSpace(text)
}
