package letter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTone(t *testing.T) {
	tests := []struct {
		in      string
		want    Tone
		wantErr bool
	}{
		{in: "Formal", want: ToneFormal},
		{in: "formal", want: ToneFormal},
		{in: "Firm & Legalistic", want: ToneFirm},
		{in: "firm & legalistic", want: ToneFirm},
		{in: "firm", want: ToneFirm},
		{in: " polite ", want: TonePolite},
		{in: "Direct & Concise", want: ToneDirect},
		{in: "DIRECT", want: ToneDirect},
		{in: "", wantErr: true},
		{in: "casual", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTone(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTonesOrderAndCopy(t *testing.T) {
	got := Tones()
	assert.Equal(t, []Tone{ToneFormal, ToneFirm, TonePolite, ToneDirect}, got)

	got[0] = "mutated"
	assert.Equal(t, ToneFormal, Tones()[0])
}

func TestToneAddenda(t *testing.T) {
	assert.Empty(t, ToneFormal.Addendum())
	assert.Contains(t, ToneFirm.Addendum(), "written confirmation")
	assert.Contains(t, ToneFirm.Addendum(), "unauthorized")
	assert.Contains(t, TonePolite.Addendum(), "Thank you")
	assert.Contains(t, ToneDirect.Addendum(), "immediately")
	assert.Empty(t, Tone("other").Addendum())

	assert.True(t, ToneDirect.Valid())
	assert.False(t, Tone("other").Valid())
}

func TestValidate(t *testing.T) {
	valid := janeDoe(ToneFormal)
	require.NoError(t, Validate(valid))

	bad := Request{
		User:         UserDetails{FullName: "  ", Email: "not-an-email"},
		Subscription: SubscriptionDetails{EffectiveDate: "01/02/2024"},
		Tone:         "loud",
	}
	err := Validate(bad)
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 5)
	assert.Contains(t, verrs, "user.full_name")
	assert.Contains(t, verrs, "user.email")
	assert.Contains(t, verrs, "subscription.service_name")
	assert.Contains(t, verrs, "subscription.effective_date")
	assert.Contains(t, verrs, "tone")
	assert.Contains(t, err.Error(), "subscription.service_name: is required")
}

func TestValidateOptionalFields(t *testing.T) {
	req := janeDoe(TonePolite)
	req.User.Email = ""
	req.Subscription.EffectiveDate = ""
	assert.NoError(t, Validate(req))
}
