// Command createadmin ensures an administrator account exists.
//
//	createadmin --email admin@example.com --password S3cret!
//
// The user is created when missing, otherwise its password is replaced, and
// the {admin: true} claim is attached. Connection details come from a
// service credential JSON file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/identity"
	"github.com/spf13/pflag"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const defaultPassword = "Admin123!"

var errNoEmail = errors.New("debes especificar --email o la variable ADMIN_EMAIL")

type cliFlags struct {
	Email       string
	Password    string
	Credentials string
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(context.Background(), os.Args[1:], os.Getenv, os.Stderr, logger); err != nil {
		logger.Error("createadmin failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, getenv func(string) string, stderr io.Writer, logger *zap.Logger) error {
	opts, err := parseFlags(args, getenv, stderr)
	if err != nil {
		return err
	}

	path, err := findCredentials(opts.Credentials, getenv, exeDir())
	if err != nil {
		return err
	}
	creds, err := readCredentials(path)
	if err != nil {
		return err
	}
	logger.Info("using service credentials", zap.String("path", path))

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(creds.MongoURI))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(creds.MongoDatabase)

	id, err := identity.New(db, identity.Config{
		APIKey:      creds.APIKey,
		ProjectID:   creds.ProjectID,
		TokenSecret: []byte(creds.secret()),
	}, logger)
	if err != nil {
		return err
	}
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: "all"})

	u, created, err := ensureAdmin(ctx, id, audits, opts.Email, opts.Password)
	if err != nil {
		return err
	}
	logger.Info("admin claim granted",
		zap.String("email", u.Email),
		zap.String("uid", u.UID),
		zap.Bool("created", created))
	return nil
}

func parseFlags(args []string, getenv func(string) string, stderr io.Writer) (cliFlags, error) {
	var o cliFlags
	fs := pflag.NewFlagSet("createadmin", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.Email, "email", "e", getenv("ADMIN_EMAIL"), "administrator email")
	fs.StringVarP(&o.Password, "password", "p", getenv("ADMIN_PASSWORD"), "administrator password")
	fs.StringVar(&o.Credentials, "credentials", "", "path to the service credential JSON")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.Email == "" {
		return o, errNoEmail
	}
	if o.Password == "" {
		o.Password = defaultPassword
	}
	return o, nil
}

// ensureAdmin creates or updates the identity for email and attaches the
// admin claim. Existing claims are replaced.
func ensureAdmin(ctx context.Context, id *identity.Provider, audits *auditlog.Logger, email, password string) (identity.User, bool, error) {
	u, created, err := id.EnsureUser(ctx, email, password)
	if err != nil {
		return identity.User{}, false, fmt.Errorf("ensure user: %w", err)
	}
	if err := id.SetCustomUserClaims(ctx, u.UID, map[string]any{"admin": true}); err != nil {
		return identity.User{}, false, fmt.Errorf("set admin claim: %w", err)
	}
	audits.AdminGranted(ctx, u.UID, u.Email, created)
	return u, created, nil
}

func exeDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
