// Package letter renders subscription cancellation letters from a fixed
// plain-text template. It is the deterministic fallback used whenever a
// generative model is unavailable, so its output layout is stable byte for
// byte and depends only on the request and the date it is given.
package letter

// UserDetails identifies the sender of the letter.
type UserDetails struct {
	FullName string `json:"full_name" yaml:"full_name"`
	Email    string `json:"email" yaml:"email"`
	Phone    string `json:"phone,omitempty" yaml:"phone"`
	// Address may span several lines; it is rendered verbatim.
	Address string `json:"address,omitempty" yaml:"address"`
}

// SubscriptionDetails describes the subscription being cancelled.
type SubscriptionDetails struct {
	ServiceName        string `json:"service_name" yaml:"service_name"`
	AccountNumber      string `json:"account_number,omitempty" yaml:"account_number"`
	SubscriptionPlan   string `json:"subscription_plan,omitempty" yaml:"subscription_plan"`
	CancellationReason string `json:"cancellation_reason,omitempty" yaml:"cancellation_reason"`
	// EffectiveDate is a calendar date in EffectiveDateLayout.
	EffectiveDate string `json:"effective_date" yaml:"effective_date"`
}

// Request is the single input to the generator.
type Request struct {
	User         UserDetails         `json:"user" yaml:"user"`
	Subscription SubscriptionDetails `json:"subscription" yaml:"subscription"`
	Tone         Tone                `json:"tone" yaml:"tone"`
}

// EffectiveDateLayout is the calendar-date format expected for EffectiveDate.
const EffectiveDateLayout = "2006-01-02"
