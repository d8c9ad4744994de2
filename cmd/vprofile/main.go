package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/jrhy/vhash/corpus"
	corpusS3 "github.com/jrhy/vhash/corpus/s3"
	"github.com/jrhy/vhash/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// Run using
//  go run ./cmd/vprofile --file WarAndPeace.txt

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML file to read settings from before applying flags",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "debug, info, warn or error",
		Value: "info",
	}
	dumpFlag = cli.BoolFlag{
		Name:  "dump",
		Usage: "dump the final set and map to the log",
	}
	dumpContentFlag = cli.BoolFlag{
		Name:  "dump-content",
		Usage: "include every bucket in dumps",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "serve Prometheus metrics on this address while profiling, disabled if empty",
	}
	fileFlag = cli.StringFlag{
		Name:  "file",
		Usage: "text file to read words from",
		Value: "data.txt",
	}
	bucketFlag = cli.StringFlag{
		Name:  "s3-bucket",
		Usage: "read words from an object in this S3 bucket instead of a file",
	}
	keyFlag = cli.StringFlag{
		Name:  "s3-key",
		Usage: "key of the S3 object to read words from",
	}
	regionFlag = cli.StringFlag{
		Name:  "s3-region",
		Usage: "AWS region of the S3 bucket",
	}
	endpointFlag = cli.StringFlag{
		Name:  "s3-endpoint",
		Usage: "S3 endpoint, for stores other than AWS",
	}
	bucketsFlag = cli.IntFlag{
		Name:  "initial-buckets",
		Usage: "bucket count of new tables, 0 for the default",
	}
	loadFactorFlag = cli.Float64Flag{
		Name:  "load-factor",
		Usage: "entries per bucket that trigger a rehash, 0 for the default",
	}
	alwaysAllocateFlag = cli.BoolFlag{
		Name:  "always-allocate",
		Usage: "give no-op mutations their own version",
	}
	cacheSizeFlag = cli.IntFlag{
		Name:  "lookup-cache-size",
		Usage: "lookups to cache per lineage, disabled if 0",
	}
)

func main() {
	app := &cli.App{
		Name:   "vprofile",
		Usage:  "profile versioned hash maps and sets against a text corpus",
		Action: run,
		Flags: []cli.Flag{
			&configFlag,
			&logLevelFlag,
			&dumpFlag,
			&dumpContentFlag,
			&metricsAddrFlag,
			&fileFlag,
			&bucketFlag,
			&keyFlag,
			&regionFlag,
			&endpointFlag,
			&bucketsFlag,
			&loadFactorFlag,
			&alwaysAllocateFlag,
			&cacheSizeFlag,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	cfg := defaultConfig()
	if path := ctx.String(configFlag.Name); path != "" {
		if err := cfg.configFromFile(path); err != nil {
			return err
		}
	}
	cfg.adjust(ctx)
	if err := cfg.validate(); err != nil {
		return err
	}
	log, err := cfg.logger()
	if err != nil {
		return err
	}
	defer log.Sync()

	collector := metrics.NewCollector("vprofile")
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collector)
		server := &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		defer server.Close()
	}

	src, err := openCorpus(ctx.Context, &cfg.Corpus)
	if err != nil {
		return err
	}
	r, err := profile(ctx.Context, cfg, src, collector, log)
	if err != nil {
		return err
	}
	r.log(log)
	return nil
}

func openCorpus(ctx context.Context, c *CorpusConfig) (corpus.WordSource, error) {
	if c.Bucket == "" {
		return corpus.OpenFile(c.File)
	}
	config := aws.Config{}
	if c.Region != "" {
		config.Region = aws.String(c.Region)
	}
	if c.Endpoint != "" {
		config.Endpoint = aws.String(c.Endpoint)
		config.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(&config)
	if err != nil {
		return nil, fmt.Errorf("s3 session: %w", err)
	}
	return corpusS3.Open(ctx, s3.New(sess), c.Bucket, c.Key)
}
