package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ignite/cancellation-letters/internal/app"
	"github.com/ignite/cancellation-letters/internal/compose"
	"github.com/ignite/cancellation-letters/internal/config"
	"github.com/ignite/cancellation-letters/internal/delivery"
	"github.com/ignite/cancellation-letters/internal/letter"
	"github.com/ignite/cancellation-letters/internal/pkg/logger"
	"github.com/spf13/cobra"
)

type cli struct {
	out    io.Writer
	errOut io.Writer
	driver PromptDriver
	cfg    *config.Config
}

func (c *cli) rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "letter",
		Short: "Write subscription cancellation letters",
		Long: `letter drafts a cancellation letter for a subscription service.

A configured language model writes the letter when available; otherwise the
built-in template produces it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			app.ConfigureLogging(cfg.Log)
			logger.SetOutput(c.errOut)
			c.cfg = cfg
			return nil
		},
	}
	cmd.SetOut(c.out)
	cmd.SetErr(c.errOut)

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(c.generateCmd(), c.tonesCmd(), c.suggestCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.out, "letter version %s\n", version)
		},
	})

	return cmd
}

type generateFlags struct {
	req          letter.Request
	tone         string
	interactive  bool
	templateOnly bool
	date         string
	outPath      string
	sendCopy     bool
}

func (c *cli) generateCmd() *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a cancellation letter",
		Example: `  letter generate --name "Jane Doe" --service Netflix --tone firm
  letter generate --interactive --out letter.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.generate(cmd.Context(), f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.req.User.FullName, "name", "", "Your full name")
	fl.StringVar(&f.req.User.Email, "email", "", "Your email address")
	fl.StringVar(&f.req.User.Phone, "phone", "", "Your phone number")
	fl.StringVar(&f.req.User.Address, "address", "", "Your postal address")
	fl.StringVar(&f.req.Subscription.ServiceName, "service", "", "Service being cancelled")
	fl.StringVar(&f.req.Subscription.AccountNumber, "account", "", "Account number")
	fl.StringVar(&f.req.Subscription.SubscriptionPlan, "plan", "", "Subscription plan")
	fl.StringVar(&f.req.Subscription.CancellationReason, "reason", "", "Reason for cancelling")
	fl.StringVar(&f.req.Subscription.EffectiveDate, "effective-date", "", "Effective date (YYYY-MM-DD)")
	fl.StringVar(&f.tone, "tone", "formal", "Tone: formal, firm, polite or direct")
	fl.BoolVarP(&f.interactive, "interactive", "i", false, "Prompt for each field")
	fl.BoolVar(&f.templateOnly, "template-only", false, "Skip the language model")
	fl.StringVar(&f.date, "date", "", "Date printed on the letter (YYYY-MM-DD, default today)")
	fl.StringVarP(&f.outPath, "out", "o", "", "Write the letter to this file instead of stdout")
	fl.BoolVar(&f.sendCopy, "send-copy", false, "Email a copy to --email via SES")

	return cmd
}

func (c *cli) generate(ctx context.Context, f generateFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	tone, err := letter.ParseTone(f.tone)
	if err != nil {
		return err
	}
	req := f.req
	req.Tone = tone

	var at time.Time
	if f.date != "" {
		at, err = time.Parse(letter.EffectiveDateLayout, f.date)
		if err != nil {
			return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
		}
	}

	a, err := app.New(ctx, c.cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if f.interactive {
		suggestions := func(toComplete string) []string {
			found, _ := a.Suggester.Suggest(ctx, toComplete, 0)
			names := make([]string, len(found))
			for i, s := range found {
				names[i] = s.Name
			}
			return names
		}
		req, err = collectRequest(ctx, c.driver, req, suggestions)
		if err != nil {
			return err
		}
	}

	if err := letter.Validate(req); err != nil {
		return err
	}

	res, err := a.Composer.Compose(ctx, req, compose.Options{
		TemplateOnly: f.templateOnly,
		CallerKey:    "cli",
		Date:         at,
	})
	if err != nil {
		return err
	}

	if f.outPath != "" {
		if err := os.WriteFile(f.outPath, []byte(res.Letter+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing letter: %w", err)
		}
		fmt.Fprintf(c.errOut, "Letter written to %s\n", f.outPath)
	} else {
		fmt.Fprintln(c.out, res.Letter)
	}

	if res.Source == compose.SourceTemplate {
		fmt.Fprintf(c.errOut, "Generated from template (%s)\n", strings.ReplaceAll(res.FallbackReason, "_", " "))
	} else {
		fmt.Fprintf(c.errOut, "Drafted by %s\n", res.Provider)
	}

	if f.sendCopy {
		id, err := a.Mailer.SendCopy(ctx, req.User.Email, delivery.Subject(req.Subscription.ServiceName), res.Letter)
		if err != nil {
			if errors.Is(err, delivery.ErrDisabled) {
				return fmt.Errorf("cannot send copy: set delivery.enabled and delivery.from_address")
			}
			return err
		}
		fmt.Fprintf(c.errOut, "Copy sent to %s (message %s)\n", req.User.Email, id)
	}
	return nil
}

func (c *cli) tonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tones",
		Short: "List available tones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			for _, t := range letter.Tones() {
				fmt.Fprintf(tw, "%s\t%s\n", t.Slug(), t)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) suggestCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest QUERY",
		Short: "Suggest service names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := app.New(ctx, c.cfg, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			found, err := a.Suggester.Suggest(ctx, args[0], limit)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				fmt.Fprintln(c.errOut, "No matching services")
				return nil
			}

			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			for _, s := range found {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Category, strings.Join(s.Plans, ", "))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of suggestions")
	return cmd
}
