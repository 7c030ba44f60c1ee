package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/storefront/api"
	"github.com/jonwraymond/storefront/config"
	"github.com/jonwraymond/storefront/notify"
	"github.com/jonwraymond/storefront/secret"
	"github.com/jonwraymond/storefront/session"
)

func newLoginCommand(g *globals) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as an actor",
		Long: `Sign in as the actor given by --as. Credentials come from --email and
--password or from STOREFRONT_<ACTOR>_EMAIL and STOREFRONT_<ACTOR>_PASSWORD.
The variables may hold secret references such as secretref:file:/run/secrets/pw.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := g.actorFlag()
			if err != nil {
				return err
			}

			creds, err := config.LoadCredentials()
			if err != nil {
				return err
			}
			if creds, err = creds.Resolve(ctx, secret.Default()); err != nil {
				return err
			}
			cred, err := creds.For(actor)
			if err != nil {
				return err
			}
			if email != "" {
				cred.Email = email
			}
			if password != "" {
				cred.Password = password
			}

			st, _ := g.app.stores.For(actor)
			client, _ := g.app.clients.For(actor)
			id, err := st.Login(ctx, client, cred)
			if err != nil {
				g.app.notifier.Notify(ctx, notify.Notification{
					Level:     notify.LevelError,
					Operation: "login",
					Message:   loginMessage(err),
				})
				return fmt.Errorf("login %s: %w", actor, err)
			}
			g.app.notifier.Notify(ctx, notify.Notification{
				Level:     notify.LevelSuccess,
				Operation: "login",
				Message:   fmt.Sprintf("Signed in as %s (%s)", displayName(id), actor),
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCommand(g *globals) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out an actor, or every actor with --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if all {
				err := g.app.stores.LogoutAll(ctx, g.app.clients.Authenticator)
				g.app.notifier.Notify(ctx, notify.Notification{
					Level:     notify.LevelInfo,
					Operation: "logout",
					Message:   "Signed out of every session",
				})
				return err
			}

			actor, err := g.actorFlag()
			if err != nil {
				return err
			}
			st, _ := g.app.stores.For(actor)
			if !st.IsAuthenticated() {
				g.app.notifier.Notify(ctx, notify.Notification{
					Level:     notify.LevelInfo,
					Operation: "logout",
					Message:   fmt.Sprintf("%s is not signed in", actor),
				})
				return nil
			}
			err = st.Logout(ctx, g.app.clients.Authenticator(actor))
			g.app.notifier.Notify(ctx, notify.Notification{
				Level:     notify.LevelInfo,
				Operation: "logout",
				Message:   fmt.Sprintf("Signed out (%s)", actor),
			})
			return err
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "sign out every actor")
	return cmd
}

func newWhoamiCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the session of every actor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(session.Actors))
			for _, actor := range session.Actors {
				st, _ := g.app.stores.For(actor)
				id := st.Identity()
				if id == nil {
					rows = append(rows, []string{string(actor), st.State().String(), "-", "-", "-"})
					continue
				}
				state := st.State().String()
				if st.IsExpired() {
					state += " (expired)"
				}
				rows = append(rows, []string{string(actor), state, displayName(id), orDash(id.Email), when(id.ExpiresAt)})
			}
			renderTable(g.out, []string{"ACTOR", "STATE", "USER", "EMAIL", "EXPIRES"}, rows)
			return nil
		},
	}
}

func displayName(id *session.Identity) string {
	switch {
	case id == nil:
		return "-"
	case id.Name != "":
		return id.Name
	case id.Email != "":
		return id.Email
	default:
		return id.ID
	}
}

func loginMessage(err error) string {
	if errors.Is(err, session.ErrMissingCredentials) {
		return "Email and password are required"
	}
	return api.MessageOf(err, "Sign in failed")
}
