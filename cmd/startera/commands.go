package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/startera/internal/apiclient"
	"github.com/startera/internal/authflow"
	"github.com/startera/internal/config"
	"github.com/startera/internal/dashboard"
	"github.com/startera/internal/domain"
)

// newRootCommand returns the CLI and a func releasing whatever the command run opened
func newRootCommand() (*cobra.Command, func()) {
	var (
		apiURL    string
		statePath string
		current   *app
	)

	root := &cobra.Command{
		Use:           "startera",
		Short:         "Start ERA terminal client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.APIURL = apiURL
			}
			if statePath != "" {
				cfg.StatePath = statePath
			}
			current, err = newApp(cmd.Context(), cfg)
			return err
		},
	}
	root.PersistentFlags().StringVar(&apiURL, "api", "", "auth API base URL (overrides STARTERA_API_URL)")
	root.PersistentFlags().StringVar(&statePath, "state", "", "state database path (overrides STARTERA_STATE_PATH)")

	get := func() *app { return current }
	root.AddCommand(
		newCredentialsCommand(get, authflow.ViewLogin),
		newCredentialsCommand(get, authflow.ViewRegister),
		newVerifyCommand(get),
		newLogoutCommand(get),
		newDashboardCommand(get),
		newChatCommand(get),
		newPlanCommand(get),
		newThemeCommand(get),
		newLangCommand(get),
		newStatusCommand(get),
	)
	return root, func() {
		if current != nil {
			current.Close()
		}
	}
}

// newCredentialsCommand builds login or register. With --code the verify step follows in the same run.
func newCredentialsCommand(get func() *app, view authflow.View) *cobra.Command {
	var email, password, code string

	short := "Sign in with e-mail and password"
	if view == authflow.ViewRegister {
		short = "Create an account"
	}

	cmd := &cobra.Command{
		Use:   string(view),
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()
			if err := a.controller.SwitchView(view); err != nil {
				return err
			}
			a.controller.SetCredentials(email, password)
			if err := a.submit(ctx, a.controller.SubmitCredentials); err != nil {
				return err
			}
			if a.controller.View() != authflow.ViewVerify {
				return nil
			}
			if code == "" {
				fmt.Fprintf(os.Stdout, "run: startera verify --email %s --code <code>\n", a.controller.Form().Email)
				return nil
			}
			a.controller.SetCode(code)
			return a.submit(ctx, a.controller.SubmitCode)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "e-mail address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	cmd.Flags().StringVar(&code, "code", "", "verification code, if already known")
	return cmd
}

func newVerifyCommand(get func() *app) *cobra.Command {
	var email, code string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Confirm the e-mailed verification code",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			a.controller.SetEmail(email)
			a.controller.SetCode(code)
			return a.submit(cmd.Context(), a.controller.SubmitCode)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "e-mail address")
	cmd.Flags().StringVarP(&code, "code", "c", "", "6-digit code")
	return cmd
}

func newLogoutCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and keep preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()
			if err := dashboard.Logout(ctx, a.store, a.nav); err != nil {
				return err
			}
			a.bus.Info(a.catalog.T(a.language(ctx), "logout.success"))
			return nil
		},
	}
}

func newDashboardCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the dashboard for the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()
			if _, route, err := dashboard.Guard(ctx, a.store); err != nil {
				a.nav.Navigate(route)
				return err
			}
			view, err := dashboard.Load(ctx, a.store, a.catalog)
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, view.Greeting)
			fmt.Fprintln(os.Stdout, view.Subtitle)
			for _, card := range view.Cards {
				fmt.Fprintf(os.Stdout, "  • %s\n", card.Title)
			}
			fmt.Fprintf(os.Stdout, "[%s | %s | %s]\n", view.Email, view.Language, view.Theme)
			return nil
		},
	}
}

func newChatCommand(get func() *app) *cobra.Command {
	var systemPrompt string
	var history bool

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask the assistant, or list the stored conversation with --history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()

			if history {
				sess, _, err := dashboard.Guard(ctx, a.store)
				if err != nil {
					return err
				}
				entries, err := a.api.ChatHistory(ctx, sess.Token)
				if err != nil {
					return err
				}
				for _, entry := range entries {
					speaker := "you"
					if entry.IsBot {
						speaker = "bot"
					}
					fmt.Fprintf(os.Stdout, "%s: %s\n", speaker, entry.Text)
				}
				return nil
			}

			if len(args) == 0 {
				return errors.New("a message is required")
			}
			// signed-in turns are filed under the user; anonymous chat still works
			var token string
			if sess, err := a.store.Read(ctx); err == nil {
				token = sess.Token
			}
			resp, err := a.api.Chat(ctx, token, apiclient.ChatPayload{
				Message:      args[0],
				SystemPrompt: systemPrompt,
				Language:     string(a.language(ctx)),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, resp.Reply)
			return nil
		},
	}
	cmd.Flags().StringVar(&systemPrompt, "system", "", "system prompt")
	cmd.Flags().BoolVar(&history, "history", false, "show the stored conversation (requires sign-in)")
	return cmd
}

func newPlanCommand(get func() *app) *cobra.Command {
	var payload apiclient.PlanPayload

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a business plan for a venture idea",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()
			if payload.Language == "" {
				payload.Language = string(a.language(ctx))
			}
			resp, err := a.api.Plan(ctx, payload)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, resp.Plan)
			return nil
		},
	}
	cmd.Flags().StringVar(&payload.Idea, "idea", "", "venture idea")
	cmd.Flags().StringVar(&payload.Capital, "capital", "", "available capital")
	cmd.Flags().StringVar(&payload.Skills, "skills", "", "founder skills")
	cmd.Flags().StringVar(&payload.Strategy, "strategy", "", "go-to-market strategy")
	cmd.Flags().StringVar(&payload.Management, "management", "", "management structure")
	cmd.Flags().StringVar(&payload.Language, "lang", "", "plan language (defaults to the interface language)")
	for _, name := range []string{"idea", "capital", "skills", "strategy", "management"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newThemeCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "theme",
		Short: "Toggle between light and dark",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()
			theme, err := a.store.ToggleTheme(ctx)
			if err != nil {
				return err
			}
			a.bus.Info(a.catalog.Tf(a.language(ctx), "theme.changed", theme))
			return nil
		},
	}
}

func newLangCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lang",
		Short: "Cycle the interface language (tr, en, ar)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			lang, err := a.store.CycleLanguage(cmd.Context())
			if err != nil {
				return err
			}
			a.bus.Info(a.catalog.Tf(lang, "lang.changed", lang))
			return nil
		},
	}
}

func newStatusCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show API reachability and the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()

			health, err := a.api.Health(ctx)
			switch {
			case err == nil:
				fmt.Fprintf(os.Stdout, "api: %s (%s)\n", health.Status, a.cfg.APIURL)
			case domain.IsNetworkError(err):
				fmt.Fprintf(os.Stdout, "api: unreachable (%s), demo mode\n", a.cfg.APIURL)
			default:
				fmt.Fprintf(os.Stdout, "api: %v\n", err)
			}

			sess, err := a.store.Read(ctx)
			switch {
			case err == nil:
				fmt.Fprintf(os.Stdout, "session: %s\n", sess.Email)
			case errors.Is(err, domain.ErrSessionNotFound):
				fmt.Fprintln(os.Stdout, "session: none")
			default:
				return err
			}
			return nil
		},
	}
}

// submit runs one controller action and shows a toast when another submit is still running
func (a *app) submit(ctx context.Context, action func(context.Context) error) error {
	err := action(ctx)
	if errors.Is(err, domain.ErrSubmitInProgress) {
		a.bus.Error(a.catalog.T(a.language(ctx), "busy"))
	}
	return err
}

func (a *app) language(ctx context.Context) domain.Language {
	lang, err := a.store.Language(ctx)
	if err != nil {
		return domain.DefaultLanguage
	}
	return lang
}
