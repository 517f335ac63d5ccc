// ABOUTME: Entry point for the subscription tail tool
// ABOUTME: Parses CLI flags and an optional TOML profile, then streams frames to stdout
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	gojson "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/gqlwire/gqlwire-go/internal/version"
	"github.com/gqlwire/gqlwire-go/pkg/gqlwire"
)

var (
	endpoint     = flag.String("endpoint", "", "GraphQL HTTP endpoint")
	streamURL    = flag.String("stream", "", "WebSocket endpoint (default: derived from -endpoint)")
	configPath   = flag.String("config", "", "TOML profile with endpoint/headers/subscriptions")
	subscription = flag.String("subscription", "", "Subscription operation name")
	argsJSON     = flag.String("args", "", "Operation arguments as JSON object")
	fieldsFlag   = flag.String("fields", "", "Comma-separated output fields")
	idleTimeout  = flag.Duration("idle-timeout", 0, "End the subscription after this long without a frame")
	duration     = flag.Duration("duration", 0, "End the subscription after this total runtime")
	count        = flag.Int("count", 0, "Stop after this many frames (0 = unlimited)")
	noConnect    = flag.Bool("no-connect", false, "Skip introspection; trust -subscription as-is")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

// profile is the TOML configuration file shape.
type profile struct {
	Endpoint       string            `toml:"endpoint"`
	StreamEndpoint string            `toml:"stream_endpoint"`
	Headers        map[string]string `toml:"headers"`
	Subscriptions  []string          `toml:"subscriptions"`
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	var prof profile
	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, &prof); err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("cannot read profile")
		}
	}
	if *endpoint != "" {
		prof.Endpoint = *endpoint
	}
	if *streamURL != "" {
		prof.StreamEndpoint = *streamURL
	}
	if prof.Endpoint == "" && prof.StreamEndpoint == "" {
		log.Fatal().Msg("an endpoint is required (-endpoint, -stream, or a profile)")
	}
	if *subscription == "" {
		log.Fatal().Msg("-subscription is required")
	}

	var args map[string]any
	if *argsJSON != "" {
		if err := gojson.Unmarshal([]byte(*argsJSON), &args); err != nil {
			log.Fatal().Err(err).Msg("cannot parse -args")
		}
	}

	var fields []gqlwire.Field
	if *fieldsFlag != "" {
		fields = parseFields(*fieldsFlag)
	}

	seed := prof.Subscriptions
	if *noConnect && len(seed) == 0 {
		seed = []string{*subscription}
	}

	client := gqlwire.NewClient(gqlwire.Config{
		Endpoint:       prof.Endpoint,
		StreamEndpoint: prof.StreamEndpoint,
		Headers:        prof.Headers,
		Logger:         &log,
		Subscriptions:  seed,
	})

	if !*noConnect && len(seed) == 0 {
		if err := client.Connect(); err != nil {
			log.Fatal().Err(err).Msg("introspection failed")
		}
	}

	var stopFn func() bool
	if *duration > 0 {
		deadline := time.Now().Add(*duration)
		stopFn = func() bool { return time.Now().After(deadline) }
	}

	seen := 0
	out := gojson.NewEncoder(os.Stdout)
	err := client.Subscribe(*subscription, func(env *gqlwire.Envelope) bool {
		seen++
		if err := out.Encode(env); err != nil {
			log.Error().Err(err).Msg("cannot write frame")
			return true
		}
		for _, ge := range env.Errors {
			log.Warn().Str("message", ge.Message).Msg("frame carried an execution error")
		}
		return *count > 0 && seen >= *count
	}, gqlwire.SubscribeOptions{
		Args:         args,
		OutputFields: fields,
		IdleTimeout:  *idleTimeout,
		StopFn:       stopFn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("subscription failed")
	}

	fmt.Fprintf(os.Stderr, "subscription ended after %d frame(s)\n", seen)
}

// parseFields splits "a,b,c" into a flat selection set.
func parseFields(s string) []gqlwire.Field {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return gqlwire.Fields(names...)
}
