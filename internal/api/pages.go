package api

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/ignite/cancellation-letters/internal/compose"
	"github.com/ignite/cancellation-letters/internal/letter"
	"github.com/ignite/cancellation-letters/internal/pkg/httputil"
	"github.com/ignite/cancellation-letters/internal/pkg/logger"
)

//go:embed templates/*.html
var pageFS embed.FS

const maxFormBytes = 64 << 10

func parsePages() (*template.Template, error) {
	return template.ParseFS(pageFS, "templates/*.html")
}

type toneOption struct {
	ToneInfo
	Selected bool
}

type pageData struct {
	Request           letter.Request
	Errors            letter.ValidationErrors
	Tones             []toneOption
	Services          []string
	TemplateOnly      bool
	SendCopy          bool
	MailEnabled       bool
	Result            *compose.Result
	DeliveryMessageID string
	DeliveryError     string
}

func (h *Handlers) newPage(req letter.Request) *pageData {
	selected := req.Tone
	if !selected.Valid() {
		selected = letter.ToneFormal
	}
	tones := letter.Tones()
	opts := make([]toneOption, 0, len(tones))
	for _, t := range tones {
		opts = append(opts, toneOption{ToneInfo: ToneInfo{Label: t.String(), Slug: t.Slug()}, Selected: t == selected})
	}

	page := &pageData{
		Request:     req,
		Tones:       opts,
		MailEnabled: h.mailer != nil && h.mailer.Enabled(),
	}
	if h.suggester != nil {
		page.Services = h.suggester.Names()
	}
	return page
}

func (h *Handlers) render(w http.ResponseWriter, status int, name string, data *pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.pages.ExecuteTemplate(w, name, data); err != nil {
		logger.Error("failed to render page", "page", name, "error", err.Error())
	}
}

// HandleForm serves the letter form.
//
//	GET /
func (h *Handlers) HandleForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "form", h.newPage(letter.Request{Tone: letter.ToneFormal}))
}

// HandleSubmitForm composes a letter from the HTML form and shows it.
//
//	POST /letters
func (h *Handlers) HandleSubmitForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "invalid form submission")
		return
	}

	req := toLetterRequest(
		letter.UserDetails{
			FullName: r.PostForm.Get("full_name"),
			Email:    r.PostForm.Get("email"),
			Phone:    r.PostForm.Get("phone"),
			Address:  r.PostForm.Get("address"),
		},
		letter.SubscriptionDetails{
			ServiceName:        r.PostForm.Get("service_name"),
			AccountNumber:      r.PostForm.Get("account_number"),
			SubscriptionPlan:   r.PostForm.Get("subscription_plan"),
			CancellationReason: r.PostForm.Get("cancellation_reason"),
			EffectiveDate:      r.PostForm.Get("effective_date"),
		},
		r.PostForm.Get("tone"),
	)
	page := h.newPage(req)
	page.TemplateOnly = r.PostForm.Get("template_only") != ""
	page.SendCopy = r.PostForm.Get("send_copy") != ""

	if err := letter.Validate(req); err != nil {
		var verrs letter.ValidationErrors
		if !errors.As(err, &verrs) {
			httputil.BadRequest(w, err.Error())
			return
		}
		page.Errors = verrs
		h.render(w, http.StatusBadRequest, "form", page)
		return
	}

	res, err := h.composer.Compose(r.Context(), req, compose.Options{
		TemplateOnly: page.TemplateOnly,
		CallerKey:    callerKey(r),
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	page.Result = res

	if page.SendCopy {
		page.DeliveryMessageID, page.DeliveryError = h.sendCopy(r.Context(), req, res.Letter)
		logDeliveryFailure(res.ID, page.DeliveryError)
	}
	h.render(w, http.StatusOK, "result", page)
}
