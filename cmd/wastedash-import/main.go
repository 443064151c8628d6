// Command wastedash-import loads a dataset into the SQLite store and
// announces it to running dashboards over AMQP.
//
// Usage:
//
//	wastedash-import [-sheet Data] path/to/data.csv|.xlsx
//	wastedash-import -from-backend
//
// With -from-backend the dataset is read from the configured DATA_BACKEND
// instead of a local file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"wastedash/internal/amqp"
	"wastedash/internal/backend"
	"wastedash/internal/cli"
	"wastedash/internal/config"
	"wastedash/internal/core"
	"wastedash/internal/dataset"
	"wastedash/internal/log"
	"wastedash/internal/source"
)

func main() {
	fromBackend := flag.Bool("from-backend", false, "read the dataset from DATA_BACKEND instead of a file")
	sheet := flag.String("sheet", "", "worksheet to read from an XLSX file (default: first sheet)")
	noPublish := flag.Bool("no-publish", false, "skip the dataset.updated notification")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [file]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cli.LoadEnvFile()
	cfg, logger := cli.LoadConfig((*config.Config).ValidateImport)
	logger = logger.WithComponent(log.ComponentImport)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	var (
		loader dataset.Loader
		name   string
	)
	switch {
	case *fromBackend:
		if cfg.DataBackend == config.BackendSQLite {
			logger.Error("Cannot import from the sqlite backend into itself")
			os.Exit(2)
		}
		res, err := backend.NewFactory(logger).Create(ctx, cfg)
		if err != nil {
			logger.Error("Failed to initialize data backend", log.FieldError, err, "backend", cfg.DataBackend)
			os.Exit(1)
		}
		defer res.Close()
		loader, name = res.Loader, res.Source
	case flag.NArg() == 1:
		name = flag.Arg(0)
		loader = fileLoader(name, *sheet)
	default:
		flag.Usage()
		os.Exit(2)
	}

	loadCtx, loadCancel := context.WithTimeout(ctx, cfg.LoadTimeout)
	records, err := loader.Load(loadCtx)
	loadCancel()
	if err != nil {
		logger.Error("Failed to read dataset", log.FieldError, err, log.FieldSource, name)
		os.Exit(1)
	}

	// Stored rows stay raw; report what the dashboard will keep.
	_, rej := core.NormalizeAll(records)
	logger.Info("Dataset read",
		log.FieldSource, name,
		log.FieldRows, len(records),
		log.FieldRejected, rej.Total())

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	imp, err := repo.ReplaceRecords(ctx, name, records)
	if err != nil {
		logger.Error("Failed to store dataset", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	logger.Info("Dataset imported", "import_id", imp.ID, log.FieldRows, imp.Rows, "path", cfg.SQLiteDBPath)

	if *noPublish || cfg.AMQPURL == "" {
		return
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()
	if err := client.PublishDatasetUpdated(ctx, imp.Source, imp.Rows, imp.ID); err != nil {
		// The import itself succeeded; dashboards pick it up on their next
		// periodic reload.
		logger.Error("Failed to publish dataset update", log.FieldError, err)
		os.Exit(1)
	}
}

func fileLoader(path, sheet string) dataset.Loader {
	if sheet == "" || source.FormatOf(path) != source.FormatXLSX {
		return source.NewFile(path)
	}
	return dataset.LoaderFunc(func(ctx context.Context) ([]core.RawRecord, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fh, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		defer fh.Close()
		return source.ReadXLSX(fh, sheet)
	})
}
