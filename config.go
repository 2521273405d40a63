/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultParticipantsURL = "http://128.140.110.152/api/participants/approved"
	defaultRegisterURL     = "http://128.140.110.152/api/register"
	tournamentTimeFormat   = "2006-01-02T15:04"
)

type Config struct {
	bind            string
	participantsURL string
	port            int
	prefix          string
	profile         bool
	publicURL       string
	refreshInterval time.Duration
	registerURL     string
	requestTimeout  time.Duration
	tlsCert         string
	tlsKey          string
	verbose         bool
	version         bool

	tournamentName     string
	tournamentLocation string
	tournamentStart    string
	tournamentEnd      string

	start time.Time
	end   time.Time
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.refreshInterval <= 0 {
		return fmt.Errorf("invalid refresh interval (must be positive): %s", c.refreshInterval)
	}
	if c.requestTimeout <= 0 {
		return fmt.Errorf("invalid request timeout (must be positive): %s", c.requestTimeout)
	}

	for flag, raw := range map[string]string{
		"--participants-url": c.participantsURL,
		"--register-url":     c.registerURL,
	} {
		if err := validateEndpoint(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", flag, err)
		}
	}

	if c.publicURL != "" {
		if err := validateEndpoint(c.publicURL); err != nil {
			return fmt.Errorf("invalid --public-url: %w", err)
		}
	}

	return c.parseTournament()
}

func (c *Config) parseTournament() error {
	if c.tournamentStart == "" {
		if c.tournamentEnd != "" {
			return errors.New("--tournament-end requires --tournament-start")
		}
		return nil
	}

	var err error

	c.start, err = time.ParseInLocation(tournamentTimeFormat, c.tournamentStart, time.Local)
	if err != nil {
		return fmt.Errorf("invalid --tournament-start (expected %s): %w", tournamentTimeFormat, err)
	}

	if c.tournamentEnd == "" {
		c.end = c.start.Add(8 * time.Hour)
		return nil
	}

	c.end, err = time.ParseInLocation(tournamentTimeFormat, c.tournamentEnd, time.Local)
	if err != nil {
		return fmt.Errorf("invalid --tournament-end (expected %s): %w", tournamentTimeFormat, err)
	}
	if !c.end.After(c.start) {
		return errors.New("--tournament-end must be after --tournament-start")
	}

	return nil
}

func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ANMELDUNG")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "anmeldung",
		Short:         "Registration form and live participants list for a chess tournament.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: ANMELDUNG_BIND)")
	fs.StringVar(&cfg.participantsURL, "participants-url", defaultParticipantsURL, "upstream endpoint listing approved participants (env: ANMELDUNG_PARTICIPANTS_URL)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: ANMELDUNG_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: ANMELDUNG_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: ANMELDUNG_PROFILE)")
	fs.StringVar(&cfg.publicURL, "public-url", "", "externally reachable URL of the registration page, encoded by /qr (env: ANMELDUNG_PUBLIC_URL)")
	fs.DurationVar(&cfg.refreshInterval, "refresh-interval", 30*time.Second, "time between participant list refreshes (env: ANMELDUNG_REFRESH_INTERVAL)")
	fs.StringVar(&cfg.registerURL, "register-url", defaultRegisterURL, "upstream endpoint accepting registrations (env: ANMELDUNG_REGISTER_URL)")
	fs.DurationVar(&cfg.requestTimeout, "request-timeout", 10*time.Second, "timeout for each upstream request (env: ANMELDUNG_REQUEST_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: ANMELDUNG_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: ANMELDUNG_TLS_KEY)")
	fs.StringVar(&cfg.tournamentName, "tournament-name", "Schachturnier", "tournament name shown on pages and in the calendar feed (env: ANMELDUNG_TOURNAMENT_NAME)")
	fs.StringVar(&cfg.tournamentLocation, "tournament-location", "", "tournament venue for the calendar feed (env: ANMELDUNG_TOURNAMENT_LOCATION)")
	fs.StringVar(&cfg.tournamentStart, "tournament-start", "", "tournament start, as "+tournamentTimeFormat+" local time (env: ANMELDUNG_TOURNAMENT_START)")
	fs.StringVar(&cfg.tournamentEnd, "tournament-end", "", "tournament end, as "+tournamentTimeFormat+" local time (env: ANMELDUNG_TOURNAMENT_END)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: ANMELDUNG_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: ANMELDUNG_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("anmeldung v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
