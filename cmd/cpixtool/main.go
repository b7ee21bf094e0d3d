// Command cpixtool builds CPIX documents from a JSON description of their
// content keys, DRM systems, usage rules, and key periods.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/google/cpix-go/pkg/cpix"
	"github.com/google/cpix-go/pkg/cpixconfig"
)

var usg = `Usage of %s:

%s builds a CPIX document from a JSON description of its content keys.

  %s <subcommand> [options]

Subcommands:
  build-clear       content keys only, no DRM systems or usage rules
  build-drm         content keys with DRM systems
  build-rules       content keys with usage rules and DRM systems
  build-keyperiod   content keys with key periods and period-scoped usage rules
  build-policies    content keys with rich usage-rule filter policies
  show-certs        extract recipient certificates from a CPIX document as PEM

Run "%s <subcommand> --help" for its options.
`

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "--generate-kid" {
		fmt.Println(uuid.New().String())
		return
	}

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usg, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
		os.Exit(2)
	}

	subcommand := os.Args[1]
	f := flag.NewFlagSet(subcommand, flag.ContinueOnError)
	f.SortFlags = false
	inPath := f.StringP("in", "i", "", "path to the JSON input spec, or to the CPIX document for show-certs (required)")
	outPath := f.StringP("out", "o", "", "path to write the CPIX document, or the PEM certificates for show-certs [default stdout]")
	// Registered so LoadToolConfig's posflag.Provider can see an override;
	// the resolved values are read back from cfg below, not from these.
	f.String("loglevel", cpixconfig.DefaultToolConfig.LogLevel, fmt.Sprintf("log level [%s]", strings.Join(cpixconfig.LogLevels, ", ")))
	f.String("logformat", cpixconfig.DefaultToolConfig.LogFormat, fmt.Sprintf("log format [%s]", strings.Join(cpixconfig.LogFormats, ", ")))
	f.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s %s:\n", os.Args[0], subcommand)
		f.PrintDefaults()
	}
	if err := f.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	cfg, err := cpixconfig.LoadToolConfig(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel, cfg.LogFormat)

	if *inPath == "" {
		log.Error().Str("subcommand", subcommand).Msg("--in is required")
		os.Exit(2)
	}

	if subcommand == "show-certs" {
		if err := runShowCerts(*inPath, *outPath); err != nil {
			log.Error().Err(err).Str("subcommand", subcommand).Msg("show-certs failed")
			os.Exit(1)
		}
		return
	}

	builder, ok := builders[subcommand]
	if !ok {
		fmt.Fprintf(os.Stderr, usg, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
		os.Exit(2)
	}

	if err := run(builder, *inPath, *outPath); err != nil {
		log.Error().Err(err).Str("subcommand", subcommand).Msg("build failed")
		os.Exit(1)
	}
}

// runShowCerts reads the CPIX document at inPath and writes each recipient's
// DeliveryKey certificate to outPath (or stdout), PEM-encoded and
// newline-separated.
func runShowCerts(inPath, outPath string) error {
	raw, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read CPIX document: %w", err)
	}

	doc, err := cpix.FromString(string(raw))
	if err != nil {
		return fmt.Errorf("parse CPIX document: %w", err)
	}

	recipients := doc.Recipients()
	if len(recipients) == 0 {
		return fmt.Errorf("document carries no recipients")
	}

	var out io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	for _, recipient := range recipients {
		if _, err := out.Write(recipient.CertificatePEM()); err != nil {
			return fmt.Errorf("write certificate: %w", err)
		}
	}
	return nil
}

var builders = map[string]func(buildSpec) (*cpix.CPIXMessage, error){
	"build-clear":     buildClear,
	"build-drm":       buildDRM,
	"build-rules":     buildRules,
	"build-keyperiod": buildKeyPeriod,
	"build-policies":  buildPolicies,
}

func run(builder func(buildSpec) (*cpix.CPIXMessage, error), inPath, outPath string) error {
	raw, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read input spec: %w", err)
	}

	var spec buildSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return fmt.Errorf("parse input spec: %w", err)
	}

	msg, err := builder(spec)
	if err != nil {
		return fmt.Errorf("build document: %w", err)
	}

	xml, err := msg.ToString()
	if err != nil {
		return fmt.Errorf("serialize document: %w", err)
	}

	var out io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	_, err = io.WriteString(out, xml)
	return err
}

func setupLogging(level, format string) {
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	if format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	if logLevel, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(logLevel)
	}
	cpix.SetLogger(log.Logger)
}
