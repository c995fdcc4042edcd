// The integrity checker runs as a standalone batch job: it re-verifies
// canary calculations, dataset sanity, snapshot content hashes, and
// published-artifact immutability for one tenant, prints a summary, and
// exits with a code schedulers can alert on:
//
//	0 clean, 1 LOW, 2 MEDIUM, 3 HIGH, 4 CRITICAL or unexpected failure.
//
// Concurrent runs are not guarded here; the scheduler serializes them.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/nutrition-api/internal/config"
	"github.com/jwalitptl/nutrition-api/internal/model"
	"github.com/jwalitptl/nutrition-api/internal/repository/postgres"
	"github.com/jwalitptl/nutrition-api/internal/service/calc"
	"github.com/jwalitptl/nutrition-api/internal/service/integrity"
	"github.com/jwalitptl/nutrition-api/pkg/logger"
	"github.com/jwalitptl/nutrition-api/pkg/messaging/redis"
	"github.com/jwalitptl/nutrition-api/pkg/metrics"
)

// Env-first configuration so the job drops into cron/CI without a config
// file.
type checkerConfig struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"require"`

	TenantID string `envconfig:"TENANT_ID" required:"true"`
	RunType  string `envconfig:"RUN_TYPE" default:"scheduled"`

	ScanRate  float64 `envconfig:"SCAN_RATE" default:"200"`
	ScanBurst int     `envconfig:"SCAN_BURST" default:"20"`

	RedisURL string `envconfig:"REDIS_URL"`

	SMTPHost string `envconfig:"SMTP_HOST"`
	SMTPPort int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser string `envconfig:"SMTP_USER"`
	SMTPPass string `envconfig:"SMTP_PASS"`
	AlertTo  string `envconfig:"ALERT_TO"`
}

func main() {
	os.Exit(run())
}

func run() int {
	lg := logger.NewLogger(nil)

	var cfg checkerConfig
	if err := envconfig.Process("INTEGRITY", &cfg); err != nil {
		lg.Error(err, "failed to load configuration")
		return integrity.ExitCritical
	}

	tenantID, err := uuid.Parse(cfg.TenantID)
	if err != nil {
		lg.Error(err, "invalid tenant id")
		return integrity.ExitCritical
	}

	db, err := postgres.NewDB(config.DatabaseConfig{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		lg.Error(err, "failed to connect to database")
		return integrity.ExitCritical
	}
	defer db.Close()

	checker := integrity.NewChecker(
		postgres.NewIntegrityRepository(db),
		calc.NewEngine(),
		integrity.Config{
			ScanRate:  rate.Limit(cfg.ScanRate),
			ScanBurst: cfg.ScanBurst,
		},
		lg,
		metrics.NewMetrics("nutrition", "integrity"),
	)

	ctx := context.Background()
	report, err := checker.Run(ctx, tenantID, cfg.RunType)
	if err != nil {
		// An unexpected failure, not a detected violation: the run record
		// is left unfinished and the job exits as critical.
		lg.Error(err, "integrity run aborted")
		return integrity.ExitCritical
	}

	fmt.Print(report.String())

	publishSummary(ctx, cfg, report, lg)
	if report.Summary.MaxSever == model.SeverityCritical {
		sendAlert(cfg, report, lg)
	}

	return report.ExitCode()
}

func publishSummary(ctx context.Context, cfg checkerConfig, report *integrity.Report, lg *logger.Logger) {
	if cfg.RedisURL == "" {
		return
	}

	broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.RedisURL}, &log.Logger)
	if err != nil {
		lg.Error(err, "failed to connect to Redis, skipping summary publish")
		return
	}
	defer broker.Close()

	if err := broker.Publish(ctx, "integrity.runs", map[string]interface{}{
		"run_id":    report.Run.ID,
		"tenant_id": report.Run.TenantID,
		"status":    report.Run.Status,
		"summary":   report.Summary,
	}); err != nil {
		lg.Error(err, "failed to publish run summary")
	}
}

func sendAlert(cfg checkerConfig, report *integrity.Report, lg *logger.Logger) {
	if cfg.SMTPHost == "" || cfg.AlertTo == "" {
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", cfg.SMTPUser)
	m.SetHeader("To", cfg.AlertTo)
	m.SetHeader("Subject", fmt.Sprintf("CRITICAL integrity findings for tenant %s", report.Run.TenantID))
	m.SetBody("text/plain", report.String())

	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	if err := d.DialAndSend(m); err != nil {
		lg.Error(err, "failed to send alert mail")
	}
}
