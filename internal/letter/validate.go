package letter

import (
	"net/mail"
	"sort"
	"strings"
	"time"
)

// ValidationErrors maps a field path to a human readable problem.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "invalid letter request: " + strings.Join(parts, "; ")
}

// Validate performs the presence and format checks callers run before
// rendering. Render itself trusts its input.
func Validate(req Request) error {
	errs := ValidationErrors{}

	if strings.TrimSpace(req.User.FullName) == "" {
		errs["user.full_name"] = "is required"
	}
	if email := strings.TrimSpace(req.User.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			errs["user.email"] = "is not a valid email address"
		}
	}
	if strings.TrimSpace(req.Subscription.ServiceName) == "" {
		errs["subscription.service_name"] = "is required"
	}
	if d := req.Subscription.EffectiveDate; d != "" {
		if _, err := time.Parse(EffectiveDateLayout, d); err != nil {
			errs["subscription.effective_date"] = "must be a date in YYYY-MM-DD format"
		}
	}
	if !req.Tone.Valid() {
		errs["tone"] = "must be one of Formal, Firm & Legalistic, Polite & Friendly, Direct & Concise"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
