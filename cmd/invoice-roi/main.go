package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iwvelando/invoice-roi/internal/config"
	"github.com/iwvelando/invoice-roi/internal/export"
	"github.com/iwvelando/invoice-roi/internal/logging"
	"github.com/iwvelando/invoice-roi/internal/report"
	"github.com/iwvelando/invoice-roi/internal/scenario"
	"github.com/iwvelando/invoice-roi/internal/store"
	"github.com/iwvelando/invoice-roi/pkg/constants"
	"github.com/iwvelando/invoice-roi/pkg/output"
	"github.com/iwvelando/invoice-roi/pkg/roi"
	"github.com/iwvelando/invoice-roi/pkg/validation"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	envFile := flag.String("env-file", ".env", "path to an optional .env file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json, yaml")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	saveName := flag.String("save", "", "save the projection under this scenario name")
	email := flag.String("email", "", "email address recorded with a saved scenario")
	list := flag.Bool("list", false, "list saved scenarios, newest first")
	loadID := flag.String("load", "", "load the saved scenario with this id instead of computing from config")
	deleteID := flag.String("delete", "", "delete the saved scenario with this id")
	reportCompany := flag.String("report", "", "generate a report for this company name")
	reportEmail := flag.String("report-email", "", "contact email printed on the report")
	reportFormatFlag := flag.String("report-format", "", "report format override: markdown, html, text")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load env file\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if *outputFormatFlag != "" {
		conf.Output.Format = *outputFormatFlag
	}
	if *reportFormatFlag != "" {
		conf.Report.Format = *reportFormatFlag
	}
	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var manager *scenario.Manager
	if *list || *loadID != "" || *deleteID != "" || *saveName != "" {
		backend, err := store.Open(ctx, conf.Store, logger)
		if err != nil {
			logger.Fatal("failed to open scenario store",
				zap.String("op", "main"),
				zap.String("backend", conf.Store.Backend),
				zap.Error(err),
			)
		}
		defer func() {
			_ = backend.Close()
		}()
		if conf.Store.Backend == constants.StoreBackendMemory {
			logger.Info("memory scenario store does not persist between runs",
				zap.String("op", "main"),
			)
		}
		manager = scenario.NewManager(backend, logger)
	}

	switch {
	case *list:
		summaries, err := manager.List(ctx)
		if err != nil {
			logger.Fatal("failed to list scenarios", zap.String("op", "main"), zap.Error(err))
		}
		if err := output.WriteSummaries(os.Stdout, conf.Output.Format, summaries); err != nil {
			logger.Fatal("failed to write scenarios", zap.String("op", "main"), zap.Error(err))
		}
		return
	case *deleteID != "":
		if err := manager.Delete(ctx, *deleteID); err != nil {
			logger.Fatal("failed to delete scenario", zap.String("op", "main"), zap.Error(err))
		}
		fmt.Printf("Deleted scenario %s\n", *deleteID)
		return
	}

	projection := output.Projection{Warnings: warnings, CostBreakdownKnown: true}
	if *loadID != "" {
		s, err := manager.Load(ctx, *loadID)
		if err != nil {
			logger.Fatal("failed to load scenario", zap.String("op", "main"), zap.Error(err))
		}
		projection = output.Projection{
			Name:               s.Name,
			Inputs:             s.Inputs,
			Results:            s.Results,
			CostBreakdownKnown: s.CostBreakdownKnown,
		}
	} else {
		projection.Inputs = conf.Inputs.ProjectionInputs()
		projection.Results = roi.Compute(projection.Inputs)
	}

	if *saveName != "" {
		inputs, results, breakdownKnown := projection.Inputs, projection.Results, projection.CostBreakdownKnown
		id, err := manager.Save(ctx, scenario.SaveRequest{
			Name:               *saveName,
			Email:              *email,
			Inputs:             &inputs,
			Results:            &results,
			CostBreakdownKnown: &breakdownKnown,
		})
		if err != nil {
			logger.Fatal("failed to save scenario", zap.String("op", "main"), zap.Error(err))
		}
		projection.Name = *saveName
		fmt.Fprintf(os.Stderr, "Saved scenario %s\n", id)
	}

	if *reportCompany != "" {
		location, err := writeReport(ctx, logger, conf, projection, *reportCompany, *reportEmail)
		if err != nil {
			logger.Fatal("failed to generate report", zap.String("op", "main"), zap.Error(err))
		}
		fmt.Printf("Report written to %s\n", location)
		return
	}

	if err := output.Write(os.Stdout, conf.Output.Format, projection); err != nil {
		logger.Fatal("failed to write projection", zap.String("op", "main"), zap.Error(err))
	}
}

// writeReport renders the projection and hands it to the configured
// exporter, or writes it to the working directory when none is configured.
func writeReport(ctx context.Context, logger *zap.Logger, conf *config.Configuration, p output.Projection, company, contactEmail string) (string, error) {
	if err := validation.ValidateReportFormat(conf.Report.Format); err != nil {
		return "", err
	}

	now := time.Now()
	doc, err := report.Assemble(report.Request{
		Inputs:             p.Inputs,
		Results:            p.Results,
		CompanyName:        company,
		ContactEmail:       contactEmail,
		GeneratedAt:        now,
		CostBreakdownKnown: p.CostBreakdownKnown,
		LinesPerPage:       conf.Report.LinesPerPage,
	})
	if err != nil {
		return "", err
	}

	body, err := report.Render(doc, conf.Report.Format)
	if err != nil {
		return "", err
	}
	name := report.Filename(company, now, report.Extension(conf.Report.Format))

	exporter, err := export.New(ctx, conf.Export, logger)
	if err != nil {
		return "", err
	}
	if exporter != nil {
		return exporter.Export(ctx, name, body, report.ContentType(conf.Report.Format))
	}

	if err := os.WriteFile(name, body, 0644); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", name, err)
	}
	logger.Info("wrote report",
		zap.String("op", "main.writeReport"),
		zap.String("path", name),
		zap.Int("pages", len(doc.Pages)),
	)
	return name, nil
}
