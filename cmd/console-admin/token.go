package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/config"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/adapters/redis"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/bootstrap"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/data"
	domainauth "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/domain/auth"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/service"
)

type decodeOptions struct {
	Token string
	JSON  bool
}

// tokenReport is what decode-token prints. Outcomes use the configured guard policies.
type tokenReport struct {
	State         domainauth.SessionState `json:"state"`
	Role          string                  `json:"role,omitempty"`
	Elevated      bool                    `json:"elevated"`
	Subject       string                  `json:"subject,omitempty"`
	Email         string                  `json:"email,omitempty"`
	ExpiresAt     *time.Time              `json:"expiresAt,omitempty"`
	RootOutcome   string                  `json:"rootOutcome"`
	GuardOutcome  string                  `json:"guardOutcome"`
	ProfileAccess string                  `json:"profileOutcome"`
	Claims        map[string]any          `json:"claims,omitempty"`
}

func parseDecodeFlags(args []string, stdin io.Reader) (decodeOptions, error) {
	fs := flag.NewFlagSet("decode-token", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts decodeOptions
	fs.BoolVar(&opts.JSON, "json", false, "Print the report as JSON")
	if err := fs.Parse(args); err != nil {
		return decodeOptions{}, err
	}

	switch fs.NArg() {
	case 0:
		return decodeOptions{}, errors.New("usage: decode-token [--json] <token|->")
	case 1:
	default:
		return decodeOptions{}, errors.New("decode-token takes exactly one token")
	}

	opts.Token = fs.Arg(0)
	if opts.Token == "-" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return decodeOptions{}, fmt.Errorf("read token from stdin: %w", err)
		}
		opts.Token = line
	}
	opts.Token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(opts.Token), "Bearer "))
	if opts.Token == "" {
		return decodeOptions{}, errors.New("token is empty")
	}
	return opts, nil
}

func buildTokenReport(guardCfg config.GuardConfig, token string, now time.Time) tokenReport {
	session := service.DeriveSession(token, true, now)
	report := tokenReport{State: session.State}
	if session.State != domainauth.StateMalformedCredential {
		claims := session.Claims
		report.Role = string(claims.UserType)
		report.Elevated = claims.UserType.IsElevated()
		report.Subject = claims.Subject()
		report.Email = claims.Email()
		report.Claims = claims.Fields
		if claims.HasExp {
			exp := claims.ExpiresAt()
			report.ExpiresAt = &exp
		}
	}

	guard := service.NewGuard(service.GuardOptions{
		Malformed:     guardCfg.Malformed,
		EnforceExpiry: guardCfg.EnforceExpiry,
		Clock:         func() time.Time { return now },
	})
	root := service.NewRootResolver(service.RootResolverOptions{
		Malformed: guardCfg.RootMalformed,
		Clock:     func() time.Time { return now },
	})
	report.RootOutcome = root.Decide(token, true).Outcome.String()
	report.GuardOutcome = guard.Decide(domainauth.ElevatedView(), token, true, "").Outcome.String()
	report.ProfileAccess = guard.Decide(domainauth.AnyCredentialView(), token, true, "").Outcome.String()
	return report
}

func runDecodeToken(cmdCtx *commandContext, args []string) error {
	opts, err := parseDecodeFlags(args, cmdCtx.Stdin)
	if err != nil {
		return err
	}
	report := buildTokenReport(cmdCtx.Config.Auth.Guard, opts.Token, time.Now())
	if opts.JSON {
		enc := json.NewEncoder(cmdCtx.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printTokenReport(cmdCtx.Stdout, report)
}

func printTokenReport(w io.Writer, report tokenReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"State", string(report.State)},
		{"Role", orDash(report.Role)},
		{"Elevated", fmt.Sprintf("%t", report.Elevated)},
		{"Subject", orDash(report.Subject)},
		{"Email", orDash(report.Email)},
	}
	if report.ExpiresAt != nil {
		rows = append(rows, [2]string{"Expires", report.ExpiresAt.Format(time.RFC3339)})
	} else {
		rows = append(rows, [2]string{"Expires", "never (no exp claim)"})
	}
	rows = append(rows,
		[2]string{"Root (/)", report.RootOutcome},
		[2]string{"Role-gated views", report.GuardOutcome},
		[2]string{"Profile", report.ProfileAccess},
	)
	for _, row := range rows {
		if err := writef(tw, "%s:\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

type clearOptions struct {
	OlderThan time.Duration
	DryRun    bool
	Yes       bool
}

func parseClearFlags(args []string) (clearOptions, error) {
	fs := flag.NewFlagSet("clear-tokens", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := clearOptions{}
	fs.DurationVar(&opts.OlderThan, "older-than", time.Second,
		"Postgres only: delete sessions idle at least this long")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Describe what would be deleted without deleting")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return clearOptions{}, err
	}
	if opts.OlderThan < time.Second {
		return clearOptions{}, errors.New("--older-than must be at least 1s")
	}
	return opts, nil
}

func runClearTokens(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearFlags(args)
	if err != nil {
		return err
	}
	kind := cmdCtx.Config.TokenStore.Kind
	target, err := clearTarget(kind, opts)
	if err != nil {
		return err
	}
	if opts.DryRun {
		return writef(cmdCtx.Stdout, "dry run: would delete %s\n", target)
	}
	if !opts.Yes {
		if confirmErr := confirm(cmdCtx, "About to delete "+target+"."); confirmErr != nil {
			return confirmErr
		}
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 2*time.Minute)
	defer cancel()

	dbCfg := bootstrap.DatabaseConfig{
		DBConfig:    cmdCtx.Config.Postgres,
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	}

	var removed int64
	switch kind {
	case config.TokenStorePostgres:
		db, connErr := bootstrap.ConnectDB(dbCfg)
		if connErr != nil {
			return fmt.Errorf("connect db: %w", connErr)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				cmdCtx.Logger.Warn("db close failed", "error", closeErr)
			}
		}()
		removed, err = data.NewTokenRepo(db).PurgeIdle(ctx, int64(opts.OlderThan/time.Second))
	case config.TokenStoreRedis:
		client, connErr := bootstrap.ConnectRedis(dbCfg)
		if connErr != nil {
			return fmt.Errorf("connect redis: %w", connErr)
		}
		defer func() {
			if closeErr := client.Close(); closeErr != nil {
				cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
			}
		}()
		store := redis.NewTokenStore(client, redis.TokenStoreOptions{Prefix: cmdCtx.Config.TokenStore.RedisPrefix})
		removed, err = store.Purge(ctx)
	}
	if err != nil {
		return err
	}

	cmdCtx.Logger.Info("clear tokens complete", "store", kind, "removed", removed)
	return writef(cmdCtx.Stdout, "removed %d session(s)\n", removed)
}

// clearTarget describes what clear-tokens would remove, or explains why nothing can be.
func clearTarget(kind config.TokenStoreKind, opts clearOptions) (string, error) {
	switch kind {
	case config.TokenStorePostgres:
		return fmt.Sprintf("postgres sessions idle for at least %s", opts.OlderThan), nil
	case config.TokenStoreRedis:
		return "every redis session under the configured prefix", nil
	case config.TokenStoreMemory, config.TokenStoreCookie:
		return "", fmt.Errorf("token store %q keeps nothing this command can reach", kind)
	default:
		return "", fmt.Errorf("unknown token store %q", kind)
	}
}

func confirm(cmdCtx *commandContext, intro string) error {
	if err := writef(cmdCtx.Stdout, "%s\nContinue? [y/N]: ", intro); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	resp, err := bufio.NewReader(cmdCtx.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	if resp == "y" || resp == "yes" {
		return nil
	}
	return errors.New("aborted by user")
}
