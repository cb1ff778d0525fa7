// Package prompt builds the chat prompts sent to the generative model, using
// the Liquid template language so the wording can change without touching
// the providers.
package prompt

import (
	"fmt"
	"strings"

	"github.com/ignite/cancellation-letters/internal/letter"
	"github.com/osteele/liquid"
)

// Prompt is a provider-neutral system/user message pair.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

const systemTemplate = `You write subscription cancellation letters on behalf of consumers.
Write a complete, ready-to-send business letter in plain text.
Never use placeholders, brackets or template markers; use exactly the details you are given and leave out anything that is missing.
Do not add markdown, HTML or commentary before or after the letter.
Keep it under {{ max_words }} words.`

const userTemplate = `Write a {{ tone }} cancellation letter.
Tone guidance: {{ guidance }}

Sender
- Full name: {{ user.full_name }}
{%- if user.address != "" %}
- Address: {{ user.address }}
{%- endif %}
- Email: {{ user.email | default: "not provided" }}
{%- if user.phone != "" %}
- Phone: {{ user.phone }}
{%- endif %}

Subscription
- Service: {{ subscription.service_name }}
- Account number: {{ subscription.account_number | na }}
- Plan: {{ subscription.subscription_plan | default: "not specified" }}
- Effective date: {{ subscription.effective_date | default: "immediately" }}
{%- if subscription.cancellation_reason != "" %}
- Reason: {{ subscription.cancellation_reason }}
{%- endif %}

Date the letter {{ date }}, address it to the customer service team at {{ subscription.service_name }}, ask them to stop all recurring billing, and sign it "Sincerely," followed by {{ user.full_name }}.`

var toneGuidance = map[letter.Tone]string{
	letter.ToneFormal: "Professional and neutral. State the request clearly without emotion.",
	letter.ToneFirm:   "Firm and legalistic. Demand written confirmation, insist no further charges are made and note that unauthorized billing will be escalated.",
	letter.TonePolite: "Warm and appreciative. Thank the provider for the service while making the decision to cancel clear.",
	letter.ToneDirect: "Brief and to the point. Ask for immediate processing and no communication beyond a confirmation.",
}

// Builder renders prompts from pre-parsed Liquid templates. Safe for
// concurrent use.
type Builder struct {
	engine   *liquid.Engine
	system   *liquid.Template
	user     *liquid.Template
	maxWords int
}

// NewBuilder parses the prompt templates.
func NewBuilder() (*Builder, error) {
	engine := liquid.NewEngine()
	registerFilters(engine)

	system, err := engine.ParseString(systemTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse system prompt: %w", err)
	}
	user, err := engine.ParseString(userTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse user prompt: %w", err)
	}

	return &Builder{engine: engine, system: system, user: user, maxWords: 350}, nil
}

// registerFilters adds the filters the prompt templates rely on.
func registerFilters(engine *liquid.Engine) {
	// Default value filter: {{ plan | default: "not specified" }}
	engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		if strings.TrimSpace(fmt.Sprintf("%v", value)) == "" {
			return defaultVal
		}
		return value
	})

	// N/A for blanks, matching the template letter: {{ account | na }}
	engine.RegisterFilter("na", func(value interface{}) string {
		s := ""
		if value != nil {
			s = strings.TrimSpace(fmt.Sprintf("%v", value))
		}
		if s == "" {
			return "N/A"
		}
		return s
	})
}

// Build renders the prompt for req. date is the already formatted letter date.
func (b *Builder) Build(req letter.Request, date string) (Prompt, error) {
	bindings := map[string]interface{}{
		"tone":     string(req.Tone),
		"guidance": Guidance(req.Tone),
		"date":     date,
		"user": map[string]interface{}{
			"full_name": req.User.FullName,
			"email":     req.User.Email,
			"phone":     req.User.Phone,
			"address":   req.User.Address,
		},
		"subscription": map[string]interface{}{
			"service_name":        req.Subscription.ServiceName,
			"account_number":      req.Subscription.AccountNumber,
			"subscription_plan":   req.Subscription.SubscriptionPlan,
			"cancellation_reason": req.Subscription.CancellationReason,
			"effective_date":      req.Subscription.EffectiveDate,
		},
		"max_words": b.maxWords,
	}

	system, err := b.system.RenderString(bindings)
	if err != nil {
		return Prompt{}, fmt.Errorf("render system prompt: %w", err)
	}
	user, err := b.user.RenderString(bindings)
	if err != nil {
		return Prompt{}, fmt.Errorf("render user prompt: %w", err)
	}

	return Prompt{System: strings.TrimSpace(system), User: strings.TrimSpace(user)}, nil
}

// Guidance describes how the model should realise a tone. Unknown tones get
// the formal guidance.
func Guidance(t letter.Tone) string {
	if g, ok := toneGuidance[t]; ok {
		return g
	}
	return toneGuidance[letter.ToneFormal]
}
