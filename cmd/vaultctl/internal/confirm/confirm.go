// Package confirm gates destructive vaultctl subcommands behind an
// operator-typed confirmation token, adapted from the teacher's keystore
// passphrase source.
package confirm

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Source lazily resolves a confirmation token from an environment variable
// or by prompting the operator on the terminal. The first result, value or
// error, is cached and returned by every later call.
type Source struct {
	envVar string

	once  sync.Once
	value string
	err   error
}

// NewSource constructs a confirmation source that checks envVar before
// interactively prompting.
func NewSource(envVar string) *Source {
	return &Source{envVar: strings.TrimSpace(envVar)}
}

// Get returns the cached token or resolves it on first call. Prompting
// reads from the terminal with echo disabled so the token doesn't end up in
// shell history or a terminal scrollback buffer.
func (s *Source) Get(prompt string) (string, error) {
	s.once.Do(func() {
		if s.envVar != "" {
			if value, ok := os.LookupEnv(s.envVar); ok {
				if strings.TrimSpace(value) == "" {
					s.err = fmt.Errorf("%s is set but empty", s.envVar)
					return
				}
				s.value = value
				return
			}
		}

		if !term.IsTerminal(int(os.Stdin.Fd())) {
			s.err = errors.New("confirmation required and no terminal available")
			return
		}

		fmt.Fprint(os.Stderr, prompt)
		bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			s.err = fmt.Errorf("failed to read confirmation: %w", err)
			return
		}

		token := strings.TrimSpace(string(bytes))
		if token == "" {
			s.err = errors.New("confirmation cannot be empty")
			return
		}
		s.value = token
	})

	return s.value, s.err
}

// Matches resolves the token and reports whether it equals want.
func (s *Source) Matches(prompt, want string) (bool, error) {
	got, err := s.Get(prompt)
	if err != nil {
		return false, err
	}
	return got == want, nil
}
