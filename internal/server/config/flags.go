package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/flagx"
)

var knownFlags = []string{
	"-a", "-grpc", "-driver", "-d", "-s", "-auth", "-t",
	"-u", "-p", "-b", "-g", "-e",
	"-rate", "-batch", "-schedule", "-policy", "-log",
}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string        HTTP bind address (e.g., ":8080")
//	-grpc string     gRPC health bind address
//	-driver string   database driver: pgx or sqlite
//	-d string        database DSN
//	-s string        JWT HMAC secret key
//	-auth string     auth mode: jwt or none
//	-t int           access token validity, minutes
//	-u string        S3 root user
//	-p string        S3 root password
//	-b string        S3 bucket name
//	-g string        S3 region
//	-e string        S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-rate float      sweep sample rate in [0,1]
//	-batch int       sweep batch size
//	-schedule string cron schedule for sweeps
//	-policy string   retention policy YAML file
//	-log string      log format: json, text or zerolog
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.GRPCAddr, "grpc", config.GRPCAddr, "address and port of the gRPC health endpoint")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver (pgx|sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.AuthMode, "auth", config.AuthMode, "auth mode (jwt|none)")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.Float64Var(&config.SweepSampleRate, "rate", config.SweepSampleRate, "probability of a background sweep per request")
	fs.IntVar(&config.SweepBatchSize, "batch", config.SweepBatchSize, "max records removed per sweep step")
	fs.StringVar(&config.SweepSchedule, "schedule", config.SweepSchedule, "cron schedule for sweeps")
	fs.StringVar(&config.PolicyFile, "policy", config.PolicyFile, "retention policy YAML file")
	fs.StringVar(&config.LogFormat, "log", config.LogFormat, "log format (json|text|zerolog)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
}
