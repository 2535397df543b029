package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/wellkeeper/internal/client/models"
	"github.com/dmitrijs2005/wellkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getConfirmation = GetConfirmation

// Register prompts for the sign-up form and creates an account. The
// password is asked twice and wiped before returning.
func (a *App) Register(ctx context.Context) error {
	var r models.Registration

	prompts := []struct {
		prompt string
		dst    *string
	}{
		{"Enter full name", &r.FullName},
		{"Enter email", &r.Email},
		{"Enter phone", &r.Phone},
		{"Enter date of birth (YYYY-MM-DD)", &r.DateOfBirth},
		{"Enter gender", &r.Gender},
	}
	for _, p := range prompts {
		v, err := getSimpleText(a.reader, p.prompt, a.out)
		if err != nil {
			return err
		}
		*p.dst = v
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(password) != string(confirm) {
		return a.report(errors.New("passwords do not match"))
	}

	r.Password = string(password)
	if err := a.client.Register(ctx, r); err != nil {
		return a.report(err)
	}

	fmt.Fprintln(a.out, "Success! You can now login.")
	return nil
}

// Login prompts for credentials and keeps the session on success.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.client.Login(ctx, email, password)
	if err != nil {
		return a.report(fmt.Errorf("login unsuccessful: %w", err))
	}

	a.userName = s.User.Email
	fmt.Fprintf(a.out, "Welcome, %s\n", s.User.FullName)
	return nil
}

// Logout drops the session token.
func (a *App) Logout(ctx context.Context) error {
	a.client.Logout()
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Profile(ctx context.Context) error {
	u, err := a.client.Profile(ctx)
	if err != nil {
		return a.handle(err)
	}

	fmt.Fprintf(a.out, "%-15s %s\n", "Name:", u.FullName)
	fmt.Fprintf(a.out, "%-15s %s\n", "Email:", u.Email)
	fmt.Fprintf(a.out, "%-15s %s\n", "Phone:", u.Phone)
	fmt.Fprintf(a.out, "%-15s %s\n", "Date of birth:", u.DateOfBirth.Format("2006-01-02"))
	fmt.Fprintf(a.out, "%-15s %s\n", "Gender:", u.Gender)
	return nil
}
