package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ignite/cancellation-letters/internal/letter"
)

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

func optionalDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(letter.EffectiveDateLayout, s); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

// collectRequest asks for every letter field, starting from the values in
// seed. suggestions completes the service name.
func collectRequest(ctx context.Context, d PromptDriver, seed letter.Request, suggestions func(string) []string) (letter.Request, error) {
	req := seed
	var err error

	ask := func(dst *string, cfg InputConfig) {
		if err != nil {
			return
		}
		cfg.Default = *dst
		*dst, err = d.Input(ctx, cfg)
	}

	ask(&req.User.FullName, InputConfig{Message: "Full name:", Validator: required("full name")})
	ask(&req.User.Email, InputConfig{Message: "Email:"})
	ask(&req.User.Phone, InputConfig{Message: "Phone:"})
	if err == nil {
		req.User.Address, err = d.TextArea(ctx, "Address:", req.User.Address)
	}
	ask(&req.Subscription.ServiceName, InputConfig{
		Message:   "Service:",
		Suggest:   suggestions,
		Validator: required("service"),
	})
	ask(&req.Subscription.AccountNumber, InputConfig{Message: "Account number:"})
	ask(&req.Subscription.SubscriptionPlan, InputConfig{Message: "Plan:"})
	ask(&req.Subscription.CancellationReason, InputConfig{Message: "Reason (optional):"})
	ask(&req.Subscription.EffectiveDate, InputConfig{
		Message:   "Effective date:",
		Help:      "YYYY-MM-DD",
		Validator: optionalDate,
	})
	if err != nil {
		return letter.Request{}, err
	}

	tones := letter.Tones()
	labels := make([]string, len(tones))
	def := 0
	for i, t := range tones {
		labels[i] = t.String()
		if t == seed.Tone {
			def = i
		}
	}
	idx, err := d.Select(ctx, SelectConfig{Message: "Tone:", Options: labels, DefaultIndex: def})
	if err != nil {
		return letter.Request{}, err
	}
	if idx < 0 || idx >= len(tones) {
		return letter.Request{}, errors.New("no tone selected")
	}
	req.Tone = tones[idx]

	return req, nil
}
