package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/escapekit/escapekit/go/internal/dialogs"
	"github.com/escapekit/escapekit/go/internal/notify"
)

// consoleDialogs renders modal prompts on the terminal.
type consoleDialogs struct {
	in *bufio.Reader
}

func newConsoleDialogs() *consoleDialogs {
	return &consoleDialogs{in: bufio.NewReader(os.Stdin)}
}

func (d *consoleDialogs) Inform(ctx context.Context, title, text string) error {
	fmt.Printf("\n== %s ==\n%s\n(press enter)\n", title, text)
	_, err := d.readLine(ctx)
	return err
}

func (d *consoleDialogs) Confirm(ctx context.Context, title, text string) (bool, error) {
	fmt.Printf("\n== %s ==\n%s\n[y/n]: ", title, text)
	line, err := d.readLine(ctx)
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func (d *consoleDialogs) RequestCredentials(ctx context.Context, title, text string) (dialogs.CredentialInput, bool, error) {
	fmt.Printf("\n== %s ==\n%s\n", title, text)
	fmt.Print("email: ")
	email, err := d.readLine(ctx)
	if err != nil {
		return dialogs.CredentialInput{}, false, err
	}
	fmt.Print("password: ")
	password, err := d.readLine(ctx)
	if err != nil {
		return dialogs.CredentialInput{}, false, err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return dialogs.CredentialInput{}, false, nil
	}
	return dialogs.CredentialInput{Email: email, Password: strings.TrimSpace(password)}, true, nil
}

func (d *consoleDialogs) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := d.in.ReadString('\n')
		ch <- result{line, err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

// consoleNotifier renders notification intents as log lines.
type consoleNotifier struct{}

func (consoleNotifier) Notify(intent notify.Intent) {
	log.Info().
		Str("category", string(intent.Category)).
		Msg(intent.Text)
}
