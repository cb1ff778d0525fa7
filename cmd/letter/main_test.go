package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ignite/cancellation-letters/internal/letter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedDriver answers prompts from fixed queues.
type scriptedDriver struct {
	inputs   []string
	areas    []string
	selects  []int
	asked    []string
	defaults map[string]string
}

func (d *scriptedDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	if d.defaults == nil {
		d.defaults = map[string]string{}
	}
	d.defaults[cfg.Message] = cfg.Default
	v := d.inputs[0]
	d.inputs = d.inputs[1:]
	if cfg.Validator != nil {
		if err := cfg.Validator(v); err != nil {
			return "", err
		}
	}
	return v, nil
}

func (d *scriptedDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	d.asked = append(d.asked, cfg.Message)
	v := d.selects[0]
	d.selects = d.selects[1:]
	return v, nil
}

func (d *scriptedDriver) TextArea(ctx context.Context, message, def string) (string, error) {
	d.asked = append(d.asked, message)
	v := d.areas[0]
	d.areas = d.areas[1:]
	return v, nil
}

func (d *scriptedDriver) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	return def, nil
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, k := range []string{"OPENAI_API_KEY", "LLM_API_KEY", "REDIS_ADDR", "SES_FROM_ADDRESS", "LETTER_DATE_LAYOUT", "LLM_MODEL"} {
		t.Setenv(k, "")
	}
	t.Setenv("LLM_PROVIDER", "none")
}

func runCLI(t *testing.T, driver PromptDriver, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	c := &cli{out: &out, errOut: &errOut, driver: driver}
	cmd := c.rootCmd()
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestGenerateFromFlags(t *testing.T) {
	isolateEnv(t)

	out, errOut, err := runCLI(t, nil, "generate",
		"--name", "Jane Doe",
		"--email", "jane@example.com",
		"--service", "StreamFlix",
		"--account", "SF-9",
		"--plan", "Premium",
		"--effective-date", "2024-07-01",
		"--tone", "direct",
		"--date", "2024-06-15",
	)
	require.NoError(t, err)

	req := letter.Request{
		User: letter.UserDetails{FullName: "Jane Doe", Email: "jane@example.com"},
		Subscription: letter.SubscriptionDetails{
			ServiceName:      "StreamFlix",
			AccountNumber:    "SF-9",
			SubscriptionPlan: "Premium",
			EffectiveDate:    "2024-07-01",
		},
		Tone: letter.ToneDirect,
	}
	assert.Equal(t, letter.Render(req, "6/15/2024")+"\n", out)
	assert.Contains(t, errOut, "Generated from template (no credentials)")
}

func TestGenerateWritesFile(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "letter.txt")

	out, errOut, err := runCLI(t, nil, "generate",
		"--name", "Jane Doe", "--service", "Hulu", "--template-only", "--out", path)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Letter written to "+path)
	assert.Contains(t, errOut, "(requested)")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Jane Doe\n"))
	assert.True(t, strings.HasSuffix(string(data), "Sincerely,\n\nJane Doe\n"))
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	isolateEnv(t)

	_, _, err := runCLI(t, nil, "generate", "--service", "Hulu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user.full_name")

	_, _, err = runCLI(t, nil, "generate", "--name", "J", "--service", "Hulu", "--tone", "angry")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tone")

	_, _, err = runCLI(t, nil, "generate", "--name", "J", "--service", "Hulu", "--date", "15/06/2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--date")
}

func TestGenerateSendCopyDisabled(t *testing.T) {
	isolateEnv(t)

	_, _, err := runCLI(t, nil, "generate", "--name", "Jane", "--email", "jane@example.com",
		"--service", "Hulu", "--send-copy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot send copy")
}

func TestGenerateInteractive(t *testing.T) {
	isolateEnv(t)

	driver := &scriptedDriver{
		inputs: []string{
			"Jane Doe",         // name
			"jane@example.com", // email
			"",                 // phone
			"Netflix",          // service
			"",                 // account
			"Standard",         // plan
			"Moving abroad",    // reason
			"2024-08-01",       // effective date
		},
		areas:   []string{"1 Main St\nSpringfield"},
		selects: []int{2},
	}

	out, _, err := runCLI(t, driver, "generate", "--interactive", "--date", "2024-06-15", "--name", "Preset Name")
	require.NoError(t, err)

	assert.Equal(t, "Preset Name", driver.defaults["Full name:"])
	assert.Equal(t, "Tone:", driver.asked[len(driver.asked)-1])
	assert.True(t, strings.HasPrefix(out, "Jane Doe\n1 Main St\nSpringfield\njane@example.com\n\nDate: 6/15/2024\n"))
	assert.Contains(t, out, "Reason for cancellation: Moving abroad")
	assert.Contains(t, out, letter.TonePolite.Addendum())
}

func TestCollectRequestValidatorStopsFlow(t *testing.T) {
	driver := &scriptedDriver{inputs: []string{"   "}}
	_, err := collectRequest(context.Background(), driver, letter.Request{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full name is required")
	assert.Len(t, driver.asked, 1)
}

func TestTonesCommand(t *testing.T) {
	isolateEnv(t)

	out, _, err := runCLI(t, nil, "tones")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "formal  Formal", lines[0])
	assert.Contains(t, lines[1], "Firm & Legalistic")
}

func TestSuggestCommand(t *testing.T) {
	isolateEnv(t)

	out, _, err := runCLI(t, nil, "suggest", "spot")
	require.NoError(t, err)
	assert.Contains(t, out, "Spotify")
	assert.Contains(t, out, "music")

	out, errOut, err := runCLI(t, nil, "suggest", "zzzz")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "No matching services")
}

func TestVersionCommand(t *testing.T) {
	isolateEnv(t)
	out, _, err := runCLI(t, nil, "version")
	require.NoError(t, err)
	assert.Equal(t, "letter version dev\n", out)
}

func TestOptionalDate(t *testing.T) {
	assert.NoError(t, optionalDate(""))
	assert.NoError(t, optionalDate("2024-01-31"))
	assert.Error(t, optionalDate("31/01/2024"))
}
