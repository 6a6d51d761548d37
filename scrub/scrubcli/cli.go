package scrubcli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/CMSgov/scrub-app/conf"
	"github.com/CMSgov/scrub-app/log"
	"github.com/CMSgov/scrub-app/scrub/catalog"
	"github.com/CMSgov/scrub-app/scrub/claimgen"
	"github.com/CMSgov/scrub-app/scrub/constants"
	"github.com/CMSgov/scrub-app/scrub/database"
	"github.com/CMSgov/scrub-app/scrub/health"
	"github.com/CMSgov/scrub-app/scrub/lookup/eligibility"
	"github.com/CMSgov/scrub-app/scrub/metrics"
	"github.com/CMSgov/scrub-app/scrub/models"
	"github.com/CMSgov/scrub-app/scrub/models/postgres"
	"github.com/CMSgov/scrub-app/scrub/service"
	"github.com/CMSgov/scrub-app/scrub/utils"
	"github.com/CMSgov/scrub-app/scrub/validators"
	"github.com/CMSgov/scrub-app/scrub/web"
	"github.com/CMSgov/scrub-app/scrubworker/queueing"
)

// App Name and usage.  Edit them here to prevent breaking tests
const Name = "scrub"
const Usage = "Medical claims scrubbing engine CLI"

// Exit code returned by validate --fail-on-errors when a claim fails.
const failedClaimsExitCode = 2

// Variable substitution to support testing.
var connectDB = func(ctx context.Context) (*sql.DB, *database.Config, error) {
	cfg, err := database.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return db, cfg, nil
}

func GetApp() *cli.App {
	return setUpApp()
}

func setUpApp() *cli.App {
	app := cli.NewApp()
	app.Name = Name
	app.Usage = Usage
	app.Version = constants.Version
	var filePath, outPath, categoryList, catalogPath, ruleID string
	var assumeEligible, failOnErrors, enabled bool
	var count int
	var defectRate float64
	app.Commands = []cli.Command{
		{
			Name:  "start-api",
			Usage: "Start the API",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(app.Writer, "%s\n", "Starting scrub...")
				return startAPI()
			},
		},
		{
			Name:     "validate",
			Category: "Validation tools",
			Usage:    "Validate the claims in a JSON file",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "file",
					Usage:       "Path to a JSON file holding a claim or a list of claims",
					Destination: &filePath,
				},
				cli.StringFlag{
					Name:        "categories",
					Usage:       "Comma separated rule categories to apply",
					Destination: &categoryList,
				},
				cli.StringFlag{
					Name:        "out",
					Usage:       "Write the batch result to this file instead of stdout",
					Destination: &outPath,
				},
				cli.StringFlag{
					Name:        "catalog",
					Usage:       "Rule catalog file; defaults to SCRUB_CATALOG_PATH or the built-in catalog",
					Destination: &catalogPath,
				},
				cli.BoolFlag{
					Name:        "assume-eligible",
					Usage:       "Skip the eligibility service and treat every member as eligible",
					Destination: &assumeEligible,
				},
				cli.BoolFlag{
					Name:        "fail-on-errors",
					Usage:       "Exit with a non-zero status when any claim fails validation",
					Destination: &failOnErrors,
				},
			},
			Action: func(c *cli.Context) error {
				if filePath == "" {
					fmt.Fprintf(app.Writer, "file is required\n")
					return errors.New("file is required")
				}
				categories, err := models.ParseCategories(utils.SplitNonEmpty(categoryList))
				if err != nil {
					return err
				}

				result, err := validateFile(filePath, catalogPath, categories, assumeEligible)
				if err != nil {
					return err
				}
				if err := writeJSON(app.Writer, outPath, result); err != nil {
					return err
				}

				if failOnErrors && result.Summary.Failed > 0 {
					return cli.NewExitError(fmt.Sprintf("%d of %d claims failed validation", result.Summary.Failed, result.Summary.Total), failedClaimsExitCode)
				}
				return nil
			},
		},
		{
			Name:     "list-rules",
			Category: "Rule administration",
			Usage:    "List the rules of the catalog",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "category",
					Usage:       "Only list rules of these comma separated categories",
					Destination: &categoryList,
				},
				cli.StringFlag{
					Name:        "catalog",
					Usage:       "Rule catalog file; defaults to SCRUB_CATALOG_PATH or the built-in catalog",
					Destination: &catalogPath,
				},
			},
			Action: func(c *cli.Context) error {
				categories, err := models.ParseCategories(utils.SplitNonEmpty(categoryList))
				if err != nil {
					return err
				}
				svc, err := offlineService(catalogPath, nil)
				if err != nil {
					return err
				}
				return printRules(app.Writer, svc.ListRules(context.Background(), categories...))
			},
		},
		{
			Name:     "set-rule",
			Category: "Rule administration",
			Usage:    "Enable or disable a rule (requires DATABASE_URL)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "id",
					Usage:       "ID of the rule",
					Destination: &ruleID,
				},
				cli.BoolTFlag{
					Name:  "enabled",
					Usage: "Whether the rule is applied; pass --enabled=false to disable",
				},
			},
			Action: func(c *cli.Context) error {
				if ruleID == "" {
					fmt.Fprintf(app.Writer, "id is required\n")
					return errors.New("id is required")
				}
				enabled = c.BoolT("enabled")

				rule, err := setRule(context.Background(), ruleID, enabled)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Writer, "Rule %s enabled: %t\n", rule.ID, rule.Enabled)
				return nil
			},
		},
		{
			Name:     "validate-catalog",
			Category: "Rule administration",
			Usage:    "Check that a rule catalog file loads",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "file",
					Usage:       "Path to the TOML catalog",
					Destination: &filePath,
				},
			},
			Action: func(c *cli.Context) error {
				if filePath == "" {
					fmt.Fprintf(app.Writer, "file is required\n")
					return errors.New("file is required")
				}
				cat, err := catalog.LoadFile(filePath)
				if err != nil {
					return err
				}
				if err := cat.Snapshot().Validate(); err != nil {
					return err
				}
				fmt.Fprintf(app.Writer, "Catalog %s is valid: %d rules, %d enabled\n", filePath, len(cat.ListRules()), len(cat.ListEnabledRules()))
				return nil
			},
		},
		{
			Name:     "generate-claims",
			Category: "Data tools",
			Usage:    "Generate synthetic claims for testing",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:        "count",
					Value:       10,
					Usage:       "Number of claims to generate",
					Destination: &count,
				},
				cli.Float64Flag{
					Name:        "defect-rate",
					Value:       0.3,
					Usage:       "Probability in [0, 1] that a claim carries a defect",
					Destination: &defectRate,
				},
				cli.StringFlag{
					Name:        "out",
					Usage:       "Write the claims to this file instead of stdout",
					Destination: &outPath,
				},
			},
			Action: func(c *cli.Context) error {
				if count < 0 {
					return errors.New("count must not be negative")
				}
				if defectRate < 0 || defectRate > 1 {
					return errors.New("defect-rate must be between 0 and 1")
				}
				return writeJSON(app.Writer, outPath, claimgen.Generate(count, defectRate))
			},
		},
		{
			Name:     "migrate",
			Category: "Data tools",
			Usage:    "Apply database migrations",
			Action: func(c *cli.Context) error {
				cfg, err := database.LoadConfig()
				if err != nil {
					return err
				}
				version, err := database.Migrate(cfg)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Writer, "Database schema at version %d\n", version)
				return nil
			},
		},
	}
	return app
}

// offlineService builds a Service that needs no database.
func offlineService(catalogPath string, eligibilitySvc validators.EligibilityService) (service.Service, error) {
	cfg, err := service.LoadConfig()
	if err != nil {
		return nil, err
	}
	if catalogPath != "" {
		cfg.CatalogPath = catalogPath
	}
	cat, err := service.LoadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	return service.NewService(cfg, cat, service.Options{Eligibility: eligibilitySvc}), nil
}

func validateFile(path, catalogPath string, categories []models.Category, assumeEligible bool) (*models.BatchResult, error) {
	/* #nosec -- the path is supplied by the operator running the command */
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	claims, err := models.DecodeClaims(f)
	if err != nil {
		return nil, err
	}

	var eligibilitySvc validators.EligibilityService = validators.StaticEligibility(validators.Eligible)
	if !assumeEligible {
		eligibilityCfg, err := eligibility.LoadConfig()
		if err != nil {
			return nil, err
		}
		if eligibilitySvc, err = eligibility.NewService(eligibilityCfg); err != nil {
			return nil, err
		}
	}

	svc, err := offlineService(catalogPath, eligibilitySvc)
	if err != nil {
		return nil, err
	}

	timer := metrics.GetTimer()
	defer timer.Close()

	ctx, stop := signal.NotifyContext(metrics.NewContext(context.Background(), timer), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return svc.ValidateBatch(ctx, claims, categories)
}

func setRule(ctx context.Context, ruleID string, enabled bool) (models.Rule, error) {
	db, _, err := connectDB(ctx)
	if err != nil {
		return models.Rule{}, err
	}
	defer db.Close()

	cfg, err := service.LoadConfig()
	if err != nil {
		return models.Rule{}, err
	}
	cat, err := service.LoadCatalog(cfg)
	if err != nil {
		return models.Rule{}, err
	}

	svc := service.NewService(cfg, cat, service.Options{Repository: postgres.NewRepository(db)})
	if err := svc.SyncRuleSettings(ctx); err != nil {
		return models.Rule{}, err
	}
	return svc.SetRuleEnabled(ctx, ruleID, enabled)
}

func printRules(w io.Writer, rules []models.Rule) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tSEVERITY\tENABLED\tAUTO FIX\tDESCRIPTION")
	for _, r := range rules {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\t%s\n", r.ID, r.Category, r.Severity, r.Enabled, r.AutoFix, r.Description)
	}
	return tw.Flush()
}

func writeJSON(stdout io.Writer, path string, v interface{}) error {
	w := stdout
	if path != "" {
		/* #nosec -- 0640 permissions required for Splunk ingestion */
		f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0640)
		if err != nil {
			return errors.Wrapf(err, "failed to create %s", path)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func startAPI() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svcCfg, err := service.LoadConfig()
	if err != nil {
		return err
	}
	cat, err := service.LoadCatalog(svcCfg)
	if err != nil {
		return err
	}
	apiCfg, err := web.LoadConfig()
	if err != nil {
		return err
	}

	eligibilityCfg, err := eligibility.LoadConfig()
	if err != nil {
		return err
	}
	eligibilitySvc, err := eligibility.NewService(eligibilityCfg)
	if err != nil {
		return err
	}
	var pinger health.Pinger
	if p, ok := eligibilitySvc.(health.Pinger); ok {
		pinger = p
	}

	opts := service.Options{Eligibility: eligibilitySvc}
	var db *sql.DB
	if conf.GetEnv("DATABASE_URL") != "" {
		var dbCfg *database.Config
		if db, dbCfg, err = connectDB(ctx); err != nil {
			return err
		}
		defer db.Close()

		pool, err := queueing.NewQueuePool(dbCfg.QueueDatabaseURL, utils.GetEnvInt("QUEUE_POOL_SIZE", 5))
		if err != nil {
			return err
		}
		defer pool.Close()

		opts.Repository = postgres.NewRepository(db)
		opts.Enqueuer = queueing.NewEnqueuer(pool)
	} else {
		log.API.Warn("DATABASE_URL not set; duplicate detection, rule persistence and async batches are disabled")
	}

	svc := service.NewService(svcCfg, cat, opts)
	if err := svc.SyncRuleSettings(ctx); err != nil {
		return err
	}
	if svcCfg.WatchCatalog {
		go func() {
			if err := cat.Watch(ctx, svcCfg.CatalogPath); err != nil {
				log.API.Errorf("Catalog watch stopped: %s", err)
			}
		}()
	}

	timer := metrics.GetTimer()
	defer timer.Close()

	srv := web.NewServer(apiCfg, web.NewHandler(svc, health.NewHealthChecker(db, pinger)), timer)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.API.Infof("API listening on %s", srv.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
