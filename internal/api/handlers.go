package api

import (
	"context"
	"errors"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/ignite/cancellation-letters/internal/compose"
	"github.com/ignite/cancellation-letters/internal/delivery"
	"github.com/ignite/cancellation-letters/internal/letter"
	"github.com/ignite/cancellation-letters/internal/pkg/httputil"
	"github.com/ignite/cancellation-letters/internal/pkg/logger"
	"github.com/ignite/cancellation-letters/internal/suggest"
)

// Composer produces letters.
type Composer interface {
	Compose(ctx context.Context, req letter.Request, opts compose.Options) (*compose.Result, error)
}

// Suggester answers service-name autocompletion.
type Suggester interface {
	Suggest(ctx context.Context, query string, limit int) ([]suggest.Suggestion, error)
	Names() []string
}

// Mailer emails letter copies.
type Mailer interface {
	Enabled() bool
	SendCopy(ctx context.Context, to, subject, body string) (string, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	composer  Composer
	suggester Suggester
	mailer    Mailer
	pages     *template.Template
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Deps) (*Handlers, error) {
	if deps.Composer == nil {
		return nil, errors.New("api: composer is required")
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Handlers{
		composer:  deps.Composer,
		suggester: deps.Suggester,
		mailer:    deps.Mailer,
		pages:     pages,
	}, nil
}

// LetterRequest is the JSON body of POST /api/letters.
type LetterRequest struct {
	User         letter.UserDetails         `json:"user"`
	Subscription letter.SubscriptionDetails `json:"subscription"`
	Tone         string                     `json:"tone"`
	TemplateOnly bool                       `json:"template_only,omitempty"`
	SendCopy     bool                       `json:"send_copy,omitempty"`
}

// LetterResponse is returned by POST /api/letters.
type LetterResponse struct {
	*compose.Result
	DeliveryMessageID string `json:"delivery_message_id,omitempty"`
	DeliveryError     string `json:"delivery_error,omitempty"`
}

// ToneInfo describes one tone for clients.
type ToneInfo struct {
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// toLetterRequest converts the wire form into a letter.Request. Unknown tones
// are kept verbatim so validation can report them.
func toLetterRequest(user letter.UserDetails, sub letter.SubscriptionDetails, rawTone string) letter.Request {
	tone, err := letter.ParseTone(rawTone)
	if err != nil {
		tone = letter.Tone(rawTone)
	}
	return letter.Request{User: user, Subscription: sub, Tone: tone}
}

// HandleCreateLetter composes a letter from JSON.
//
//	POST /api/letters
func (h *Handlers) HandleCreateLetter(w http.ResponseWriter, r *http.Request) {
	var body LetterRequest
	if !httputil.Decode(w, r, &body) {
		return
	}

	req := toLetterRequest(body.User, body.Subscription, body.Tone)
	if err := letter.Validate(req); err != nil {
		var verrs letter.ValidationErrors
		if errors.As(err, &verrs) {
			httputil.Invalid(w, "invalid letter request", verrs)
			return
		}
		httputil.BadRequest(w, err.Error())
		return
	}

	res, err := h.composer.Compose(r.Context(), req, compose.Options{
		TemplateOnly: body.TemplateOnly,
		CallerKey:    callerKey(r),
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	resp := LetterResponse{Result: res}
	if body.SendCopy {
		resp.DeliveryMessageID, resp.DeliveryError = h.sendCopy(r.Context(), req, res.Letter)
		logDeliveryFailure(res.ID, resp.DeliveryError)
	}
	httputil.JSON(w, http.StatusCreated, resp)
}

// sendCopy emails the letter to its author. Delivery problems are reported
// to the client but never fail the request.
func (h *Handlers) sendCopy(ctx context.Context, req letter.Request, body string) (string, string) {
	if h.mailer == nil || !h.mailer.Enabled() {
		return "", delivery.ErrDisabled.Error()
	}
	id, err := h.mailer.SendCopy(ctx, req.User.Email, delivery.Subject(req.Subscription.ServiceName), body)
	if err != nil {
		if errors.Is(err, delivery.ErrNoRecipient) || errors.Is(err, delivery.ErrDisabled) {
			return "", err.Error()
		}
		return "", "failed to send copy"
	}
	return id, ""
}

// HandleListTones lists the supported tones.
//
//	GET /api/tones
func (h *Handlers) HandleListTones(w http.ResponseWriter, r *http.Request) {
	tones := letter.Tones()
	out := make([]ToneInfo, 0, len(tones))
	for _, t := range tones {
		out = append(out, ToneInfo{Label: t.String(), Slug: t.Slug()})
	}
	httputil.OK(w, map[string]interface{}{"tones": out})
}

// HandleSuggestions returns service-name suggestions.
//
//	GET /api/suggestions?q=net&limit=5
func (h *Handlers) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	if h.suggester == nil {
		httputil.OK(w, map[string]interface{}{"query": query, "suggestions": []suggest.Suggestion{}})
		return
	}

	results, err := h.suggester.Suggest(r.Context(), query, limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"query": query, "suggestions": results})
}

// callerKey identifies the client for rate limiting. RealIP middleware has
// already folded proxy headers into RemoteAddr.
func callerKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

func logDeliveryFailure(id, reason string) {
	if reason != "" {
		logger.Warn("letter copy not delivered", "letter_id", id, "reason", reason)
	}
}
