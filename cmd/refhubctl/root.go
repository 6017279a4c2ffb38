package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dalemusser/refhub/internal/app/refdata"
	organizationstore "github.com/dalemusser/refhub/internal/app/store/organizations"
	"github.com/dalemusser/refhub/internal/app/system/docservice"
	"github.com/dalemusser/refhub/internal/app/system/timeouts"
	"github.com/dalemusser/refhub/internal/domain/models"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type globalOptions struct {
	Backend           string
	MongoURI          string
	MongoDatabase     string
	Collection        string
	BaseURL           string
	Token             string
	Tenant            string
	Actor             string
	CountryCollection string
	Verbose           bool
}

// cli carries what subcommands share. open is replaced in tests.
type cli struct {
	opts globalOptions
	open func(ctx context.Context, opts globalOptions, log *zap.Logger) (refdata.Gateway, func(), error)
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&cli{open: openGateway})
}

func newRootCmdWith(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "refhubctl",
		Short:         "Inspect and change tenant reference data (reason codes, countries, states, castes)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.PersistentFlags()
	f.StringVar(&c.opts.Backend, "backend", envOr("REFHUB_DOCUMENT_BACKEND", "mongo"), "document store: mongo or http")
	f.StringVar(&c.opts.MongoURI, "mongo-uri", envOr("REFHUB_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	f.StringVar(&c.opts.MongoDatabase, "mongo-database", envOr("REFHUB_MONGO_DATABASE", "refhub"), "MongoDB database name")
	f.StringVar(&c.opts.Collection, "collection", envOr("REFHUB_ORGANIZATION_COLLECTION", organizationstore.DefaultCollection), "organization collection")
	f.StringVar(&c.opts.BaseURL, "base-url", os.Getenv("REFHUB_DOCSERVICE_BASE_URL"), "document service base URL (http backend)")
	f.StringVar(&c.opts.Token, "token", os.Getenv("REFHUB_DOCSERVICE_TOKEN"), "bearer token for the document service")
	f.StringVar(&c.opts.Tenant, "tenant", "", "tenant code (required)")
	f.StringVar(&c.opts.Actor, "actor", envOr("USER", "refhubctl"), "actor recorded as createdBy")
	f.StringVar(&c.opts.CountryCollection, "country-collection", models.CollReasonCodes, "sub-collection holding countries")
	f.BoolVar(&c.opts.Verbose, "verbose", false, "log document store calls to stderr")

	cmd.AddCommand(newListCmd(c))
	cmd.AddCommand(newCreateCmd(c))
	cmd.AddCommand(newEditCmd(c))
	cmd.AddCommand(newDeleteCmd(c))
	return cmd
}

func Execute() {
	timeouts.ConfigureFromEnv()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (c *cli) logger(errOut io.Writer) *zap.Logger {
	if !c.opts.Verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	log, err := cfg.Build()
	if err != nil {
		fmt.Fprintln(errOut, "logger:", err)
		return zap.NewNop()
	}
	return log
}

// engines opens the backend and returns engines bound to it plus a cleanup.
func (c *cli) engines(ctx context.Context, cmd *cobra.Command) (*refdata.Engines, refdata.Principal, func(), error) {
	p := refdata.Principal{TenantCode: c.opts.Tenant, ActorID: c.opts.Actor}.Normalized()
	if p.TenantCode == "" {
		return nil, p, nil, errors.New("--tenant is required")
	}
	log := c.logger(cmd.ErrOrStderr())
	gw, closeFn, err := c.open(ctx, c.opts, log)
	if err != nil {
		return nil, p, nil, err
	}
	return refdata.NewEngines(gw, c.opts.CountryCollection, log), p, closeFn, nil
}

func openGateway(ctx context.Context, opts globalOptions, log *zap.Logger) (refdata.Gateway, func(), error) {
	switch opts.Backend {
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		store := organizationstore.NewWithCollection(client.Database(opts.MongoDatabase), opts.Collection)
		return store, closeFn, nil
	case "http":
		client, err := docservice.New(docservice.Config{BaseURL: opts.BaseURL, Token: opts.Token}, log)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown --backend %q (want mongo or http)", opts.Backend)
	}
}
