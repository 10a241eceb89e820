// Package pass keeps primary account secrets in the pass password manager.
package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path"
	"strings"

	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/ports"
)

const defaultCommand = "pass"

var (
	ErrUnavailable = errors.New("pass command unavailable")
	errMultiline   = errors.New("pass entries hold a single line")
)

type runFunc func(ctx context.Context, input string, args ...string) (stdout string, stderr string, err error)

type Options struct {
	// Command is the pass executable, "pass" when empty.
	Command string
	// Prefix namespaces every entry, e.g. "work" stores "work/<key>".
	Prefix string
}

// Store maps keys to pass entries. Only the first line of an entry is the
// secret; pass keeps free-form metadata on the lines below it.
type Store struct {
	run    runFunc
	prefix string
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore(opts Options) *Store {
	command := strings.TrimSpace(opts.Command)
	if command == "" {
		command = defaultCommand
	}

	return &Store{run: commandRunner(command), prefix: strings.Trim(opts.Prefix, "/")}
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("pass put %q: %w", key, errMultiline)
	}

	entry := s.entry(key)
	_, stderr, err := s.run(ctx, value+"\n"+value+"\n", "insert", "-f", entry)
	if err != nil {
		return formatError("put", entry, err, stderr)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	entry := s.entry(key)
	stdout, stderr, err := s.run(ctx, "", "show", entry)
	if err != nil {
		if isNotInStore(stderr) {
			return "", fmt.Errorf("pass entry %q: %w", entry, domain.ErrKeyNotFound)
		}
		return "", formatError("get", entry, err, stderr)
	}

	secret, _, _ := strings.Cut(stdout, "\n")
	return strings.TrimSuffix(secret, "\r"), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := s.entry(key)
	_, stderr, err := s.run(ctx, "", "rm", "-f", entry)
	if err != nil {
		if isNotInStore(stderr) {
			return fmt.Errorf("pass entry %q: %w", entry, domain.ErrKeyNotFound)
		}
		return formatError("delete", entry, err, stderr)
	}

	return nil
}

func (s *Store) entry(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func commandRunner(command string) runFunc {
	return func(ctx context.Context, input string, args ...string) (string, string, error) {
		resolved, err := exec.LookPath(command)
		if err != nil {
			if errors.Is(err, exec.ErrNotFound) {
				return "", "", ErrUnavailable
			}
			return "", "", fmt.Errorf("locate %s command: %w", command, err)
		}

		cmd := exec.CommandContext(ctx, resolved, args...)
		if input != "" {
			cmd.Stdin = strings.NewReader(input)
		}

		var stdout bytes.Buffer
		var stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		err = cmd.Run()
		return stdout.String(), strings.TrimSpace(stderr.String()), err
	}
}

func isNotInStore(stderr string) bool {
	return strings.Contains(stderr, "is not in the password store")
}

func formatError(op string, entry string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("pass %s %q: %w", op, entry, err)
	}

	return fmt.Errorf("pass %s %q: %w: %s", op, entry, err, stderr)
}
