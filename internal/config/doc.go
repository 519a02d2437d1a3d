// Package config loads the player configuration.
//
// Values come from SPATIAL_* environment variables, optionally seeded from a
// .env file, and are then overridden by command line flags:
//
//	cfg, err := config.Load(ctx, config.DefaultEnvFile)
//	cfg.BindFlags(flag.CommandLine)
//	flag.Parse()
//	err = cfg.Validate()
package config
