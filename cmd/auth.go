package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tunefeed/internal/server"
	"github.com/desertthunder/tunefeed/internal/services"
	"github.com/desertthunder/tunefeed/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in with username and password and starts the silent
// refresh scheduler for the lifetime of the process.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	password := cmd.String("password")
	if username == "" || password == "" {
		return fmt.Errorf("%w: --username and --password are required", shared.ErrMissingArgument)
	}

	user, err := r.store.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	r.logger.Info("signed in", "username", user.Username, "role", user.Role)
	return r.writePlain("✓ Signed in as %s\n", user.Username)
}

// AuthLogout ends the session. Local cookies are always cleared even when
// the server call fails.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.store.Logout(ctx); err != nil {
		r.logger.Warn("logout request failed, local session cleared anyway", "error", err)
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthWhoami prints the current user's profile.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	user, err := r.auth.Me(ctx)
	if err != nil {
		if profile := services.ProfileFromCookies(r.client.Jar, r.client.BaseURL); profile != nil {
			r.logger.Warn("profile request failed, showing cached cookie profile", "error", err)
			return r.writeJSON(profile, cmd.Bool("pretty"))
		}
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}
	return r.writeJSON(user, cmd.Bool("pretty"))
}

// AuthRegister creates a new account and signs it in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	email := cmd.String("email")
	password := cmd.String("password")
	if username == "" || email == "" || password == "" {
		return fmt.Errorf("%w: --username, --email and --password are required", shared.ErrMissingArgument)
	}

	user, err := r.authService().Register(ctx, username, email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	r.logger.Info("account created", "username", user.Username)
	return r.writePlain("✓ Account created for %s\n", user.Username)
}

// AuthForgotPassword requests a one-time reset code by email.
func (r *Runner) AuthForgotPassword(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	if email == "" {
		return fmt.Errorf("%w: --email is required", shared.ErrMissingArgument)
	}

	if err := r.authService().RequestOTP(ctx, email); err != nil {
		return fmt.Errorf("failed to request reset code: %w", err)
	}

	r.writePlain("✓ Reset code sent to %s\n", email)
	return r.writePlain("Run 'tunefeed auth reset --email %s --code <code> --password <new>' to finish.\n", email)
}

// AuthResetPassword exchanges the emailed code for a reset token and sets a
// new password with it.
func (r *Runner) AuthResetPassword(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	code := cmd.String("code")
	password := cmd.String("password")
	if email == "" || code == "" || password == "" {
		return fmt.Errorf("%w: --email, --code and --password are required", shared.ErrMissingArgument)
	}

	svc := r.authService()
	resetToken, err := svc.VerifyOTP(ctx, email, code)
	if err != nil {
		return fmt.Errorf("code verification failed: %w", err)
	}

	if err := svc.ResetPassword(ctx, resetToken, password); err != nil {
		return fmt.Errorf("password reset failed: %w", err)
	}

	return r.writePlain("✓ Password reset, sign in with the new password\n")
}

// AuthChangePassword updates the signed-in user's password.
func (r *Runner) AuthChangePassword(ctx context.Context, cmd *cli.Command) error {
	current := cmd.String("current")
	next := cmd.String("new")
	if current == "" || next == "" {
		return fmt.Errorf("%w: --current and --new are required", shared.ErrMissingArgument)
	}

	if err := r.authService().ChangePassword(ctx, current, next); err != nil {
		return fmt.Errorf("password change failed: %w", err)
	}

	return r.writePlain("✓ Password changed\n")
}

// AuthIdentity signs in through the federated identity provider. A local
// callback server catches the redirect and the resulting ID token is
// exchanged for a first-party session.
func (r *Runner) AuthIdentity(ctx context.Context, cmd *cli.Command) error {
	idToken, err := server.RunIdentityFlow(ctx, r.config.Identity, r.logger)
	if err != nil {
		return fmt.Errorf("identity flow failed: %w", err)
	}

	user, err := r.authService().VerifyIdentityToken(ctx, idToken)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	r.store.FetchCurrentUser(ctx)
	r.logger.Info("signed in via identity provider", "username", user.Username)
	return r.writePlain("✓ Signed in as %s\n", user.Username)
}

// authService returns the concrete auth service for operations beyond the
// [services.Authenticator] interface.
func (r *Runner) authService() *services.AuthService {
	if svc, ok := r.auth.(*services.AuthService); ok {
		return svc
	}
	return services.NewAuthService(r.client, r.logger)
}

// authCommand handles session lifecycle operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in, sign out and manage the account",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with username and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account username"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password"},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and clear the local session",
				Action: r.AuthLogout,
			},
			{
				Name:  "whoami",
				Usage: "Show the signed-in user's profile",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
				},
				Action: r.AuthWhoami,
			},
			{
				Name:  "register",
				Usage: "Create a new account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account username"},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "forgot",
				Usage: "Request a password reset code by email",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
				},
				Action: r.AuthForgotPassword,
			},
			{
				Name:  "reset",
				Usage: "Reset the password with an emailed code",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
					&cli.StringFlag{Name: "code", Usage: "One-time code from the reset email"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "New password"},
				},
				Action: r.AuthResetPassword,
			},
			{
				Name:  "change-password",
				Usage: "Change the signed-in user's password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "current", Usage: "Current password"},
					&cli.StringFlag{Name: "new", Usage: "New password"},
				},
				Action: r.AuthChangePassword,
			},
			{
				Name:   "identity",
				Usage:  "Sign in through the federated identity provider",
				Action: r.AuthIdentity,
			},
		},
	}
}
