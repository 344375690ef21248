package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hejijunhao/chatsift/internal/config"
	"github.com/hejijunhao/chatsift/internal/connector"
	"github.com/hejijunhao/chatsift/internal/digest"
	"github.com/hejijunhao/chatsift/internal/engine"
	"github.com/hejijunhao/chatsift/internal/engine/rules"
	"github.com/hejijunhao/chatsift/internal/logging"
	"github.com/hejijunhao/chatsift/internal/model"
	"github.com/hejijunhao/chatsift/internal/output"
	"github.com/hejijunhao/chatsift/internal/output/async"
	"github.com/hejijunhao/chatsift/internal/output/dashboard"
	"github.com/hejijunhao/chatsift/internal/output/file"
	"github.com/hejijunhao/chatsift/internal/output/multi"
	"github.com/hejijunhao/chatsift/internal/output/stdout"
	"github.com/hejijunhao/chatsift/internal/output/webhook"
	"github.com/hejijunhao/chatsift/internal/pipeline"
	"github.com/hejijunhao/chatsift/internal/summary"

	// Register connector implementations.
	_ "github.com/hejijunhao/chatsift/internal/connector/replay"
	_ "github.com/hejijunhao/chatsift/internal/connector/telegram"
	_ "github.com/hejijunhao/chatsift/internal/connector/twitch"
	_ "github.com/hejijunhao/chatsift/internal/connector/websocket"
	_ "github.com/hejijunhao/chatsift/internal/connector/youtube"
)

var rootCmd = &cobra.Command{
	Use:   "chatsift",
	Short: "chatsift - live-stream chat classification",
	RunE:  runRoot,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Stream chat from the configured connector and classify on a cadence",
	RunE:  runServe,
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Classify a window of historical messages in one shot",
	RunE:  runQuery,
}

var classifyCmd = &cobra.Command{
	Use:   "classify [file]",
	Short: "Classify a JSON array or NDJSON of messages from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClassify,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Show the active rule table",
	RunE:  runCategories,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the chatsift version",
	Run:   runVersion,
}

var (
	startFlag string
	endFlag   string
	limitFlag int
	jsonFlag  bool
)

func init() {
	queryCmd.Flags().StringVar(&startFlag, "start", "", "Window start (RFC 3339)")
	queryCmd.Flags().StringVar(&endFlag, "end", "", "Window end (RFC 3339)")
	queryCmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum messages to pull (0 = no limit)")
	classifyCmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the snapshot as JSON instead of text")
	rootCmd.AddCommand(serveCmd, queryCmd, classifyCmd, categoriesCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runRoot keeps the env-driven entry point: a bare invocation streams or
// queries per CHATSIFT_MODE.
func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Mode == "query" {
		return runQuery(cmd, args)
	}
	return runServe(cmd, args)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Init(cfg.Output.Has("stdout"), logging.ParseLevel(cfg.LogLevel))

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	sink, err := buildOutput(cfg)
	if err != nil {
		return err
	}
	out := async.New(sink, async.WithDrainTimeout(cfg.ShutdownTimeout))

	ctor, err := connector.Get(cfg.Connector.Provider)
	if err != nil {
		return err
	}
	conn := ctor()

	p := pipeline.New(conn, eng, out,
		pipeline.WithInterval(cfg.Pipeline.Interval),
		pipeline.WithWindowSize(cfg.Pipeline.WindowSize))
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "\nreceived %v, shutting down...\n", sig)
		cancel()
	}()

	if cfg.Digest.Schedule != "" {
		d := digest.New(p.Window(), eng, buildSummarizer(cfg),
			digest.WithSchedule(cfg.Digest.Schedule))
		if err := d.Start(ctx); err != nil {
			return err
		}
		defer d.Stop()
	}

	slog.Info("starting", "connector", cfg.Connector.Provider, "interval", cfg.Pipeline.Interval)
	if err := p.Stream(ctx, connectorConfig(cfg)); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Init(cfg.Output.Has("stdout"), logging.ParseLevel(cfg.LogLevel))

	params, err := queryParams()
	if err != nil {
		return err
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	sink, err := buildOutput(cfg)
	if err != nil {
		return err
	}

	ctor, err := connector.Get(cfg.Connector.Provider)
	if err != nil {
		return err
	}

	p := pipeline.New(ctor(), eng, sink)
	defer p.Close()

	return p.Query(context.Background(), connectorConfig(cfg), params)
}

// queryParams parses the --start/--end/--limit flags.
func queryParams() (connector.QueryParams, error) {
	var params connector.QueryParams
	if startFlag != "" {
		t, err := time.Parse(time.RFC3339, startFlag)
		if err != nil {
			return params, fmt.Errorf("parse --start: %w", err)
		}
		params.Start = t
	}
	if endFlag != "" {
		t, err := time.Parse(time.RFC3339, endFlag)
		if err != nil {
			return params, fmt.Errorf("parse --end: %w", err)
		}
		params.End = t
	}
	params.Limit = limitFlag
	return params, nil
}

// ClassifyOptions carries the input source and injectable IO for tests.
type ClassifyOptions struct {
	Path   string // input file; empty means stdin
	Stdin  io.Reader
	Stdout io.Writer
}

func runClassify(cmd *cobra.Command, args []string) error {
	var opts ClassifyOptions
	if len(args) == 1 {
		opts.Path = args[0]
	}
	return runClassifyWithOptions(opts)
}

// runClassifyWithOptions reads one batch of messages and writes a single
// classified snapshot.
func runClassifyWithOptions(opts ClassifyOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	stdoutW := opts.Stdout
	if stdoutW == nil {
		stdoutW = os.Stdout
	}

	var data []byte
	if opts.Path != "" {
		data, err = os.ReadFile(opts.Path)
		if err != nil {
			return fmt.Errorf("read %s: %w", opts.Path, err)
		}
	} else {
		stdin := opts.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err = io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	result, err := classifyInput(eng, data)
	if err != nil {
		return err
	}

	shaped := output.ShapeResult(result, output.ParseVerbosity(cfg.Engine.Verbosity))
	if jsonFlag {
		enc := json.NewEncoder(stdoutW)
		if cfg.Output.Pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(shaped)
	}
	fmt.Fprint(stdoutW, output.FormatResult(shaped))
	return nil
}

// classifyInput accepts either a JSON array of messages or NDJSON with one
// message object per line. NDJSON lines that do not decode are skipped, like
// array items that do not decode; input with no decodable message at all is
// an error.
func classifyInput(eng *engine.Engine, data []byte) (model.ClusterResult, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return eng.Classify(nil), nil
	}
	if trimmed[0] == '[' {
		return eng.ClassifyJSON(data)
	}

	var messages []model.ChatMessage
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var m model.ChatMessage
		if err := json.Unmarshal(line, &m); err != nil {
			continue
		}
		messages = append(messages, m)
	}
	if err := sc.Err(); err != nil {
		return model.ClusterResult{}, fmt.Errorf("invalid input: %w", err)
	}
	if len(messages) == 0 {
		return model.ClusterResult{}, fmt.Errorf("invalid input: no decodable messages")
	}
	return eng.Classify(messages), nil
}

func runCategories(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	printCategories(os.Stdout, eng.Table().Categories())
	return nil
}

func printCategories(w io.Writer, cats []rules.Category) {
	for i, c := range cats {
		fmt.Fprintf(w, "%d. %s\n", i+1, c.Label)
		if c.Desc != "" {
			fmt.Fprintf(w, "   %s\n", c.Desc)
		}
		if len(c.Cues) > 0 {
			fmt.Fprintf(w, "   cues: %s\n", strings.Join(c.Cues, ", "))
		} else {
			fmt.Fprintf(w, "   (default bucket)\n")
		}
	}
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("chatsift %s (rules v%d)\n", config.Version, rules.Version)
}

// buildEngine assembles the classification engine from config.
func buildEngine(cfg config.Config) (*engine.Engine, error) {
	table := rules.DefaultTable()
	if cfg.Engine.RulesFile != "" {
		var err error
		table, err = rules.LoadFile(cfg.Engine.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
	}
	return engine.New(engine.Config{Table: table, SampleLimit: cfg.Engine.SampleLimit}), nil
}

// buildOutput assembles the configured sink stack. More than one format
// fans out through a multi writer.
func buildOutput(cfg config.Config) (output.Output, error) {
	verbosity := output.ParseVerbosity(cfg.Engine.Verbosity)

	var outs []output.Output
	for _, format := range cfg.Output.Formats() {
		switch format {
		case "stdout":
			outs = append(outs, stdout.New(stdout.ParseMode(cfg.Output.StdoutMode), verbosity, cfg.Output.Pretty))
		case "file":
			f, err := file.New(cfg.Output.FilePath, verbosity)
			if err != nil {
				return nil, fmt.Errorf("file output: %w", err)
			}
			outs = append(outs, f)
		case "webhook":
			outs = append(outs, webhook.New(cfg.Output.WebhookURL))
		case "dashboard":
			d, err := dashboard.New(cfg.Output.DashboardPort, verbosity)
			if err != nil {
				return nil, fmt.Errorf("dashboard output: %w", err)
			}
			outs = append(outs, d)
		default:
			return nil, fmt.Errorf("unknown output format %q", format)
		}
	}
	if len(outs) == 1 {
		return outs[0], nil
	}
	return multi.New(outs...), nil
}

// buildSummarizer picks the digest summarizer: an LLM with the heuristic
// as fallback when a base URL is configured, the heuristic alone otherwise.
func buildSummarizer(cfg config.Config) summary.Summarizer {
	heuristic := summary.Heuristic{}
	if cfg.Summary.LLMBaseURL == "" {
		return heuristic
	}
	llm := summary.NewLLM(cfg.Summary.LLMBaseURL, cfg.Summary.LLMAPIKey, cfg.Summary.LLMModel,
		summary.WithPromptBudget(cfg.Summary.PromptBudget))
	return summary.NewFallback(llm, heuristic)
}

func connectorConfig(cfg config.Config) connector.ConnectorConfig {
	return connector.ConnectorConfig{
		Provider: cfg.Connector.Provider,
		Token:    cfg.Connector.Token,
		Endpoint: cfg.Connector.Endpoint,
		Extra:    cfg.Connector.Extra,
	}
}
