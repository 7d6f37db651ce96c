// Package main is the entry point for the Hemolink admin CLI.
// This tool provides administrative commands for managing users,
// issuing test tokens, and running maintenance jobs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/auth"
	"github.com/hemolink/hemolink/internal/config"
	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/lock"
	"github.com/hemolink/hemolink/internal/realtime"
	"github.com/hemolink/hemolink/internal/repository"
	"github.com/hemolink/hemolink/internal/repository/factory"
	"github.com/hemolink/hemolink/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	var err error
	switch command {
	case "version":
		fmt.Printf("Hemolink Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		err = runUser(os.Args[2:])

	case "token":
		err = runToken(os.Args[2:])

	case "sweep":
		err = runSweep(os.Args[2:])

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// user
// =============================================================================

func runUser(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: hemolink-admin user <create|set-role|list|repair-admin-flags> [flags]")
	}

	ctx := context.Background()

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("user create", flag.ExitOnError)
		configPath := fs.String("config", "", "path to configuration file")
		username := fs.String("username", "", "username (required)")
		email := fs.String("email", "", "email address (required)")
		password := fs.String("password", "", "password (required)")
		bloodType := fs.String("blood-type", "O+", "blood type")
		role := fs.String("role", string(domain.RoleUser), "role")
		uid := fs.String("uid", "", "external identity uid")
		fs.Parse(args[1:])

		users, cleanup, err := userService(ctx, *configPath)
		if err != nil {
			return err
		}
		defer cleanup()

		out, err := users.Create(ctx, service.CreateUserInput{
			Username:    *username,
			Email:       *email,
			Password:    *password,
			BloodType:   domain.BloodType(*bloodType),
			Role:        domain.Role(*role),
			FirebaseUID: *uid,
		})
		if err != nil {
			return err
		}
		return printJSON(out.User)

	case "set-role":
		fs := flag.NewFlagSet("user set-role", flag.ExitOnError)
		configPath := fs.String("config", "", "path to configuration file")
		fs.Parse(args[1:])
		rest := fs.Args()
		if len(rest) != 2 {
			return fmt.Errorf("usage: hemolink-admin user set-role <user-id> <role>")
		}
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", rest[0])
		}

		users, cleanup, err := userService(ctx, *configPath)
		if err != nil {
			return err
		}
		defer cleanup()

		user, err := users.SetRole(ctx, id, domain.Role(rest[1]))
		if err != nil {
			return err
		}
		return printJSON(user)

	case "list":
		fs := flag.NewFlagSet("user list", flag.ExitOnError)
		configPath := fs.String("config", "", "path to configuration file")
		role := fs.String("role", "", "filter by role")
		page := fs.Int("page", 0, "page number (1-indexed)")
		limit := fs.Int("limit", 0, "page size")
		fs.Parse(args[1:])

		users, cleanup, err := userService(ctx, *configPath)
		if err != nil {
			return err
		}
		defer cleanup()

		out, err := users.List(ctx, service.ListUsersInput{
			Role:  domain.Role(*role),
			Page:  *page,
			Limit: *limit,
		})
		if err != nil {
			return err
		}
		return printJSON(out)

	case "repair-admin-flags":
		fs := flag.NewFlagSet("user repair-admin-flags", flag.ExitOnError)
		configPath := fs.String("config", "", "path to configuration file")
		fs.Parse(args[1:])

		users, cleanup, err := userService(ctx, *configPath)
		if err != nil {
			return err
		}
		defer cleanup()

		repaired, err := users.RepairAdminFlags(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Repaired %d user(s)\n", repaired)
		return nil

	default:
		return fmt.Errorf("unknown user subcommand %q", args[0])
	}
}

// =============================================================================
// token
// =============================================================================

// runToken issues a signed identity token. Intended for local testing
// and bootstrap, not for production credential management.
func runToken(args []string) error {
	if len(args) < 1 || args[0] != "issue" {
		return fmt.Errorf("usage: hemolink-admin token issue --uid <uid> --email <email> [--admin]")
	}

	fs := flag.NewFlagSet("token issue", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	uid := fs.String("uid", "", "subject uid (required)")
	email := fs.String("email", "", "email claim")
	admin := fs.Bool("admin", false, "set the admin claim")
	role := fs.String("role", "", "role hint claim")
	fs.Parse(args[1:])

	if *uid == "" {
		return fmt.Errorf("--uid is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	tokens, err := auth.NewHMACTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	token, err := tokens.Issue(*uid, *email, auth.TokenClaims{Admin: *admin, Role: *role})
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}

// =============================================================================
// sweep
// =============================================================================

// runSweep runs a single expiry sweep against the configured store.
func runSweep(args []string) error {
	if len(args) < 1 || args[0] != "run" {
		return fmt.Errorf("usage: hemolink-admin sweep run [--dry-run] [--batch-size n]")
	}

	fs := flag.NewFlagSet("sweep run", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	dryRun := fs.Bool("dry-run", false, "log what would expire without changing anything")
	batchSize := fs.Int("batch-size", 100, "maximum requests to expire")
	fs.Parse(args[1:])

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := cliLogger()
	repos, cleanup, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if repos.Request == nil {
		return fmt.Errorf("sweep is not supported on the %q driver", cfg.Database.Driver)
	}

	sweeper := service.NewExpirySweeper(repos.Request, realtime.NewMemoryStore(), lock.NewMemoryLocker(), nil, logger, service.SweepConfig{
		Enabled:   true,
		BatchSize: *batchSize,
		DryRun:    *dryRun,
	})

	result := sweeper.RunOnce(ctx)
	fmt.Printf("Expired %d request(s) in %s (%d error(s), ~%d remaining)\n",
		result.Expired, result.Duration.Round(time.Millisecond), result.Errors, result.Remaining)
	return nil
}

// =============================================================================
// wiring
// =============================================================================

// buildRepositories opens the configured store. The returned cleanup
// closes the backing connection. The postgres driver only carries the
// user repository for now; commands needing more must check for nil.
func buildRepositories(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*repository.Repositories, func(), error) {
	result, err := factory.New(cfg.Database, logger).Open(ctx)
	if err != nil {
		return nil, nil, err
	}
	return result.Repos, func() { result.Close() }, nil
}

func userService(ctx context.Context, configPath string) (*service.UserService, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger := cliLogger()
	repos, cleanup, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	return service.NewUserService(repos.User, logger), cleanup, nil
}

func cliLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.WarnLevel).With().Timestamp().Logger()
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printUsage() {
	fmt.Println(`Hemolink Admin CLI

Usage:
  hemolink-admin <command> [arguments]

Commands:
  user        Manage users (create, set-role, list, repair-admin-flags)
  token       Issue identity tokens for testing (issue)
  sweep       Run the emergency-request expiry sweep once (run)
  version     Print version information
  help        Show this help message

Examples:
  hemolink-admin user create --username admin --email admin@example.com --password secret --role admin
  hemolink-admin user set-role 42 moderator
  hemolink-admin user repair-admin-flags
  hemolink-admin token issue --uid bootstrap-admin --email admin@example.com --admin
  hemolink-admin sweep run --dry-run

Use "hemolink-admin <command> --help" for more information about a command.`)
}
