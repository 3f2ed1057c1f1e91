// Command roleauth-admin manages identities in the configured store.
//
//	roleauth-admin [-config file] create -email e -role r -org o [-approve] [-algo argon2|bcrypt]
//	roleauth-admin [-config file] approve|deactivate|delete -email e
//	roleauth-admin [-config file] set-secret -email e [-algo argon2|bcrypt]
//	roleauth-admin hash [-algo argon2|bcrypt] [-cost n]
//
// Secrets are read from the first line of standard input.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MrEthical07/roleAuth/identity"
	"github.com/MrEthical07/roleAuth/internal/config"
	"github.com/MrEthical07/roleAuth/password"
)

var errUsage = errors.New("usage: roleauth-admin [-config file] create|approve|deactivate|delete|set-secret|hash [flags]")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	global := flag.NewFlagSet("roleauth-admin", flag.ContinueOnError)
	configPath := global.String("config", "", "path to a YAML config file")
	if err := global.Parse(args); err != nil {
		return errUsage
	}
	rest := global.Args()
	if len(rest) == 0 {
		return errUsage
	}
	cmd, cmdArgs := rest[0], rest[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "identity email")
	role := fs.String("role", "", "supervisor or recruiter")
	org := fs.String("org", "", "organization id")
	approve := fs.Bool("approve", false, "create the identity active and approved")
	algo := fs.String("algo", "argon2", "hash algorithm: argon2 or bcrypt")
	cost := fs.Int("cost", 12, "bcrypt cost")
	if err := fs.Parse(cmdArgs); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}

	if cmd == "hash" {
		hash, err := hashSecret(stdin, *algo, *cost)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, hash)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	store, closeStore, err := config.OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	switch cmd {
	case "create":
		r, err := identity.ParseRole(*role)
		if err != nil {
			return err
		}
		hash, err := hashSecret(stdin, *algo, *cost)
		if err != nil {
			return err
		}
		ident := &identity.Identity{
			OrganizationID: *org,
			Email:          *email,
			CredentialHash: hash,
			Role:           r,
		}
		if *approve {
			ident.Active = true
			ident.ApprovalState = identity.ApprovalApproved
		}
		if err := store.Create(ctx, ident); err != nil {
			return err
		}
		fmt.Fprintln(stdout, ident.ID)
		return nil

	case "approve":
		return setStatus(ctx, store, *email, true, identity.ApprovalApproved)
	case "deactivate":
		ident, err := lookup(ctx, store, *email)
		if err != nil {
			return err
		}
		return store.UpdateStatus(ctx, ident.ID, false, ident.ApprovalState)
	case "delete":
		return setStatus(ctx, store, *email, false, identity.ApprovalDeleted)

	case "set-secret":
		ident, err := lookup(ctx, store, *email)
		if err != nil {
			return err
		}
		hash, err := hashSecret(stdin, *algo, *cost)
		if err != nil {
			return err
		}
		return store.UpdateCredentialHash(ctx, ident.ID, hash)
	}
	return errUsage
}

func lookup(ctx context.Context, store identity.Store, email string) (*identity.Identity, error) {
	if email == "" {
		return nil, errors.New("-email is required")
	}
	return store.GetByEmail(ctx, email)
}

func setStatus(ctx context.Context, store identity.Store, email string, active bool, approval identity.ApprovalState) error {
	ident, err := lookup(ctx, store, email)
	if err != nil {
		return err
	}
	return store.UpdateStatus(ctx, ident.ID, active, approval)
}

func hashSecret(stdin io.Reader, algo string, cost int) (string, error) {
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read secret: %w", err)
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", errors.New("secret must be supplied on stdin")
	}

	var h password.Hasher
	switch algo {
	case "argon2":
		h, err = password.NewArgon2(password.DefaultArgon2Config())
	case "bcrypt":
		h, err = password.NewBcrypt(cost)
	default:
		return "", fmt.Errorf("unknown hash algorithm %q", algo)
	}
	if err != nil {
		return "", err
	}
	return h.Hash(secret)
}
