package cli

import (
	"context"
	"os"
	"strings"

	"github.com/parkit-app/parkit-go/internal/common"
	"github.com/parkit-app/parkit-go/internal/models"
)

// Login prompts for a provider and an identity token and signs the user in.
//
// The token is read without echo and securely wiped before returning. On
// success the freshly fetched session state is printed and an error, if any,
// has already been reported to the user.
func (a *App) Login(ctx context.Context) error {
	provider, err := getSimpleText(a.reader, "Sign in with (apple/google)", os.Stdout)
	if err != nil {
		return err
	}

	var user *models.User
	switch strings.ToLower(provider) {
	case string(models.ProviderApple):
		user, err = a.loginApple(ctx)
	case string(models.ProviderGoogle):
		user, err = a.loginGoogle(ctx)
	default:
		printlnFn("Unknown provider:", provider)
		return nil
	}
	if err != nil {
		printlnFn("Sign-in failed:", err.Error())
		return err
	}

	printlnFn("Signed in as", user.Email)
	a.hydrate(ctx)
	return nil
}

func (a *App) loginApple(ctx context.Context) (*models.User, error) {
	token, err := getSecretText(os.Stdout, "Paste Apple identity token")
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(token)

	nonce, err := getSimpleText(a.reader, "Enter nonce (optional, Enter to skip)", os.Stdout)
	if err != nil {
		return nil, err
	}

	return a.auth.LoginWithApple(ctx, string(token), nonce)
}

func (a *App) loginGoogle(ctx context.Context) (*models.User, error) {
	token, err := getSecretText(os.Stdout, "Paste Google access token")
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(token)

	return a.auth.LoginWithGoogle(ctx, string(token))
}

// Logout signs the user out. Local state is cleared even when the backend
// call fails; the service reports that case as an error after cleanup.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		printlnFn("error:", err.Error())
		return err
	}
	printlnFn("Signed out")
	return nil
}

// Refresh forces a token refresh outside the automatic retry path.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.auth.RefreshTokens(ctx); err != nil {
		printlnFn("error:", err.Error())
		return err
	}
	printlnFn("Tokens refreshed")
	return nil
}

// Profile fetches the server copy of the profile and prints it.
func (a *App) Profile(ctx context.Context) error {
	user, err := a.auth.FetchProfile(ctx)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}
	printUser(user)
	return nil
}

// EditProfile updates the display name.
func (a *App) EditProfile(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter display name", os.Stdout)
	if err != nil {
		return err
	}

	user, err := a.auth.UpdateProfile(ctx, models.UserUpdate{Name: &name})
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	printlnFn("Profile updated")
	printUser(user)
	return nil
}

// DeleteAccount permanently deletes the account after an explicit
// confirmation phrase.
func (a *App) DeleteAccount(ctx context.Context) error {
	confirm, err := getSimpleText(a.reader, "This permanently deletes the account and its data. Type DELETE to confirm", os.Stdout)
	if err != nil {
		return err
	}
	if confirm != "DELETE" {
		printlnFn("Aborted")
		return nil
	}

	if err := a.auth.DeleteAccount(ctx); err != nil {
		printlnFn("error:", err.Error())
		return err
	}
	printlnFn("Account deleted")
	return nil
}

// Status shows the signed-in user, connectivity and the active session.
func (a *App) Status(ctx context.Context) error {
	if user := a.auth.User(); user != nil {
		printlnFn("Signed in as", user.Email, "via", string(user.Provider))
	} else {
		printlnFn("Not signed in")
	}
	if m := a.currentMode(); m != "" {
		printlnFn("Connectivity:", string(m))
	}

	cur := a.parking.Current()
	if cur == nil {
		printlnFn("Not parked")
		return nil
	}
	printSession(cur)
	return nil
}

func printUser(u *models.User) {
	printlnFn("Email:", u.Email)
	if u.Name != "" {
		printlnFn("Name:", u.Name)
	}
	printlnFn("Provider:", string(u.Provider))
	if u.AvatarURL != "" {
		printlnFn("Avatar:", u.AvatarURL)
	}
}
