// Command useradmin creates users, resets passwords and lists accounts
// directly against the user database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"go-med-predict/internal/auth"
	"go-med-predict/internal/database"
	"go-med-predict/internal/model"
	"go-med-predict/internal/repository"
	"go-med-predict/internal/service"
)

// readPassword is swapped out in tests.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

func main() {
	_ = godotenv.Load()

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.New(ctx, databaseURL, 2, 1)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	cost, _ := strconv.Atoi(os.Getenv("BCRYPT_COST"))
	if err := run(ctx, os.Args[1:], repository.NewUserRepository(db.SQL), cost, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, users service.UserStore, cost int, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: useradmin <create|reset-password|list> [flags]")
	}

	svc := service.NewAuthService(users, auth.NewPasswordHasher(cost), nil, nil)

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("create", flag.ContinueOnError)
		fs.SetOutput(out)
		username := fs.String("username", "", "username")
		role := fs.String("role", model.RoleUser, "user or admin")
		dob := fs.String("dob", "", "date of birth, DD-MM-YYYY")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		password, err := promptPassword(out)
		if err != nil {
			return err
		}

		user, err := svc.CreateUser(ctx, *username, password, *role, *dob)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created %s (%s) id=%s\n", user.Username, user.Role, user.ID)
		return nil

	case "reset-password":
		fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
		fs.SetOutput(out)
		username := fs.String("username", "", "username")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		password, err := promptPassword(out)
		if err != nil {
			return err
		}

		if err := svc.SetPassword(ctx, strings.TrimSpace(*username), password); err != nil {
			return err
		}
		fmt.Fprintf(out, "password updated for %s\n", *username)
		return nil

	case "list":
		views, err := svc.ListUsers(ctx)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUSERNAME\tROLE\tDOB\tCREATED")
		for _, v := range views {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", v.ID, v.Username, v.UserType, v.DateOfBirth, v.CreatedAt.Format(time.RFC3339))
		}
		return tw.Flush()

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func promptPassword(out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter password: ")
	first, err := readPassword()
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(out, "Repeat password: ")
	second, err := readPassword()
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
