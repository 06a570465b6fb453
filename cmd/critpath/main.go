package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/joshharrison/critpath/internal/config"
	"github.com/joshharrison/critpath/internal/convert"
	"github.com/joshharrison/critpath/internal/costing"
	"github.com/joshharrison/critpath/internal/cpm"
	"github.com/joshharrison/critpath/internal/estimate"
	"github.com/joshharrison/critpath/internal/gantt"
	"github.com/joshharrison/critpath/internal/logging"
	"github.com/joshharrison/critpath/internal/metrics"
	"github.com/joshharrison/critpath/internal/planner"
	"github.com/joshharrison/critpath/internal/project"
	"github.com/joshharrison/critpath/internal/render"
	"github.com/joshharrison/critpath/internal/reporter"
	"github.com/joshharrison/critpath/internal/templates"
	"github.com/joshharrison/critpath/internal/ui"
	"github.com/joshharrison/critpath/internal/viewer"
)

var (
	flagConfig    string
	flagJSON      bool
	flagLogLevel  string
	flagTolerance float64
	flagSelect    string
	flagSample    string

	flagVizFormat   string
	flagGanttFormat string
	flagModel       string
	flagOutput      string
	flagWidth       int
	flagTemplate    string
	flagPort        int
	flagNoOpen      bool
	flagLossy       bool
	flagPhases      string
	flagTools       []string
	flagListTools   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "critpath",
		Short: "Critical path scheduling for project networks",
		Long: `critpath schedules project networks with the Critical Path Method.
It reads activity-on-node, activity-on-arrow and PERT three-point documents
(YAML or JSON), computes earliest/latest times, float and the critical path,
converts node networks to arrow form, and renders tables, DOT graphs and
Gantt charts.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (overrides config)")
	rootCmd.PersistentFlags().Float64Var(&flagTolerance, "tolerance", 0, "Zero-float tolerance (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagSelect, "select", "", "gjson path selecting the project inside a larger JSON file")
	rootCmd.PersistentFlags().StringVar(&flagSample, "sample", "", "Use a built-in sample project instead of FILE")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(kindCmd(project.KindAON, "Schedule FILE as an activity-on-node network"))
	rootCmd.AddCommand(kindCmd(project.KindAOA, "Schedule FILE as an activity-on-arrow network"))
	rootCmd.AddCommand(kindCmd(project.KindPERT, "Schedule FILE from three-point estimates"))
	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(vizCmd())
	rootCmd.AddCommand(ganttCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(viewCmd())
	rootCmd.AddCommand(templatesCmd())
	rootCmd.AddCommand(estimateCmd())
	rootCmd.AddCommand(costCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env is what every command builds before it schedules anything.
type env struct {
	cfg      *config.Config
	log      zerolog.Logger
	registry *prometheus.Registry
	recorder metrics.Recorder
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	if cmd.Flags().Changed("tolerance") {
		cfg.Engine.Tolerance = flagTolerance
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	rec, err := metrics.NewPromRecorder(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	return &env{
		cfg:      cfg,
		log:      logging.Component(logging.New(cfg.Logging), "cli"),
		registry: reg,
		recorder: rec,
	}, nil
}

func (e *env) plannerConfig() planner.Config {
	log := logging.Component(e.log, "planner")
	return planner.Config{
		Tolerance: e.cfg.Engine.Tolerance,
		Logger:    &log,
		Recorder:  e.recorder,
	}
}

// loadDocument reads the project named by args, or the --sample template.
func loadDocument(args []string) (*project.Document, error) {
	switch {
	case flagSample != "" && len(args) > 0:
		return nil, errors.New("pass either FILE or --sample, not both")
	case flagSample != "":
		return templates.Get(flagSample)
	case len(args) == 0:
		return nil, errors.New("a project FILE (or --sample NAME) is required")
	default:
		return project.Load(args[0], flagSelect)
	}
}

// buildPlan is the shared pipeline: config, logger, document, schedule.
// A non-empty kind overrides the document's own.
func buildPlan(cmd *cobra.Command, args []string, kind project.Kind) (*env, *planner.Plan, error) {
	e, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}
	doc, err := loadDocument(args)
	if err != nil {
		return nil, nil, err
	}
	if kind != "" && doc.Kind != kind {
		doc.Kind = kind
		if err := doc.Validate(); err != nil {
			return nil, nil, fmt.Errorf("as %s: %w", kind, err)
		}
	}
	e.log.Debug().Str("project", doc.Name).Int("activities", len(doc.Activities)).Msg("project loaded")

	plan, err := planner.Generate(doc, e.plannerConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("generate plan: %w", err)
	}
	return e, plan, nil
}

func projectArgs() cobra.PositionalArgs {
	return cobra.MaximumNArgs(1)
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [FILE]",
		Short: "Schedule FILE with the engine matching its kind",
		Args:  projectArgs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, plan, err := buildPlan(cmd, args, "")
			if err != nil {
				return err
			}
			return report(plan)
		},
	}
}

func kindCmd(kind project.Kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(kind) + " [FILE]",
		Short: short,
		Args:  projectArgs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, plan, err := buildPlan(cmd, args, kind)
			if err != nil {
				return err
			}
			return report(plan)
		},
	}
}

func report(plan *planner.Plan) error {
	if flagJSON {
		return outputJSON(plan)
	}
	ui.PrintLogo(os.Stdout)
	r := reporter.New(plan)
	r.PrintSchedule(os.Stdout)
	if len(plan.Waves) > 0 {
		fmt.Printf("\n%s\n", ui.BoldCyan("Waves"))
		r.PrintWaves(os.Stdout)
	}
	r.PrintEvents(os.Stdout)
	fmt.Printf("\n%s\n", r.Summary())
	return nil
}

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [FILE]",
		Short: "Convert an activity-on-node project to activity-on-arrow form",
		Long: `Convert builds the arrow network for a node document, with merge events
and dummy arrows where several activities share predecessors, and prints it
as an aoa project document. --lossy keeps only each activity's first
predecessor instead.`,
		Args: projectArgs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := setup(cmd); err != nil {
				return err
			}
			doc, err := loadDocument(args)
			if err != nil {
				return err
			}
			if doc.ResolveKind() == project.KindAOA {
				return errors.New("project is already activity-on-arrow")
			}

			build := convert.ToAOA
			if flagLossy {
				build = convert.FirstPredecessor
			}
			net, err := build(doc.AON())
			if err != nil {
				return fmt.Errorf("convert: %w", err)
			}

			out := arrowDocument(doc, net)
			format := project.FormatYAML
			if flagJSON {
				format = project.FormatJSON
			}
			data, err := project.Marshal(out, format)
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			os.Stdout.Write(data)
			if format == project.FormatJSON {
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagLossy, "lossy", false, "Keep only the first predecessor of each activity")
	return cmd
}

// arrowDocument writes a converted network back out as an aoa document.
func arrowDocument(doc *project.Document, net *convert.Network) *project.Document {
	out := &project.Document{
		Name:        doc.Name,
		Description: doc.Description,
		Kind:        project.KindAOA,
		Unit:        doc.Unit,
		Events:      net.Events,
	}
	for _, a := range net.Activities {
		out.Activities = append(out.Activities, project.Activity{
			ID:       a.ID,
			Name:     a.Name,
			From:     a.From,
			To:       a.To,
			Duration: a.Duration,
			Dummy:    a.Dummy,
		})
	}
	return out
}

func vizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz [FILE]",
		Short: "Draw the network as ASCII or Graphviz DOT",
		Args:  projectArgs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, plan, err := buildPlan(cmd, args, "")
			if err != nil {
				return err
			}

			model := flagModel
			if model == "" {
				model = "aon"
				if plan.AON == nil {
					model = "aoa"
				}
			}
			if model == "aon" && plan.AON == nil {
				return errors.New("an arrow project has no node form; use --model aoa")
			}

			switch {
			case flagVizFormat == "dot" && model == "aon":
				return render.AONDot(os.Stdout, plan.AON)
			case flagVizFormat == "dot" && model == "aoa":
				return render.AOADot(os.Stdout, plan.AOA)
			case flagVizFormat == "ascii" && model == "aon":
				return render.ASCIIWaves(os.Stdout, plan.AON)
			case flagVizFormat == "ascii" && model == "aoa":
				return render.ASCIIArrows(os.Stdout, plan.AOA)
			default:
				return fmt.Errorf("unsupported --format %q / --model %q (want ascii|dot and aon|aoa)", flagVizFormat, model)
			}
		},
	}
	cmd.Flags().StringVar(&flagVizFormat, "format", "ascii", "Output format: ascii or dot")
	cmd.Flags().StringVar(&flagModel, "model", "", "Network model: aon or aoa (default depends on the project)")
	return cmd
}

func ganttCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gantt [FILE]",
		Short: "Render a Gantt chart as text or HTML",
		Args:  projectArgs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, plan, err := buildPlan(cmd, args, "")
			if err != nil {
				return err
			}

			o := gantt.Options{Title: e.cfg.Gantt.Title, Unit: plan.Unit, Width: e.cfg.Gantt.Width}
			if flagWidth > 0 {
				o.Width = flagWidth
			}
			if o.Title == "" {
				o.Title = plan.Name
			}
			tasks := gantt.Tasks(plan)
			if flagJSON {
				return outputJSON(tasks)
			}

			w := os.Stdout
			if flagOutput != "" {
				f, err := os.Create(flagOutput)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}

			switch flagGanttFormat {
			case "text":
				err = gantt.RenderText(w, tasks, o)
			case "html":
				err = gantt.RenderHTML(w, tasks, o)
			default:
				return fmt.Errorf("unsupported --format %q (want text or html)", flagGanttFormat)
			}
			if err != nil {
				return fmt.Errorf("render gantt: %w", err)
			}
			if flagOutput != "" {
				fmt.Printf("%s Wrote %s\n", ui.Green("✓"), flagOutput)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagGanttFormat, "format", "text", "Output format: text or html")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().IntVar(&flagWidth, "width", 0, "Text bar width (overrides config)")
	return cmd
}

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary [FILE]",
		Short: "Render a Markdown summary of the schedule",
		Args:  projectArgs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, plan, err := buildPlan(cmd, args, "")
			if err != nil {
				return err
			}
			out, err := planner.RenderSummary(plan, flagTemplate)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagTemplate, "template", "", "Custom text/template file")
	return cmd
}

func viewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [FILE]",
		Short: "Serve the plan, Gantt chart and DOT graphs over HTTP",
		Long: `View starts a local HTTP server showing the computed plan. POST a new
project document to /plan to recompute it. Pass no FILE to start empty.
When a viewer is already listening on the address, FILE is posted to it
instead of starting a second server.`,
		Args: projectArgs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			var doc *project.Document
			if len(args) > 0 || flagSample != "" {
				if doc, err = loadDocument(args); err != nil {
					return err
				}
			}

			port := e.cfg.Viewer.Port
			if flagPort > 0 {
				port = flagPort
			}
			addr := fmt.Sprintf("%s:%d", e.cfg.Viewer.Host, port)
			if viewer.IsPortOpen(addr) {
				url, err := sendToViewer(cmd.Context(), addr, doc)
				if err != nil {
					return err
				}
				fmt.Printf("🌐 Sent %s to the viewer at %s\n", projectName(doc), url)
				if !flagNoOpen {
					openBrowser(url + "/gantt")
				}
				return nil
			}

			var plan *planner.Plan
			if doc != nil {
				if plan, err = planner.Generate(doc, e.plannerConfig()); err != nil {
					return fmt.Errorf("generate plan: %w", err)
				}
			}

			if !flagJSON {
				ui.PrintLogo(os.Stdout)
			}
			srv := viewer.New(plan, viewer.Options{
				Planner:  e.plannerConfig(),
				Gantt:    gantt.Options{Title: e.cfg.Gantt.Title, Width: e.cfg.Gantt.Width},
				Gatherer: e.registry,
				Logger:   logging.Component(e.log, "viewer"),
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			url, done, err := srv.Start(ctx, addr)
			if err != nil {
				return err
			}
			e.log.Info().Str("url", url).Msg("viewer listening")
			fmt.Printf("🌐 Viewer running at %s (Ctrl+C to stop)\n", url)
			if !flagNoOpen && plan != nil {
				openBrowser(url + "/gantt")
			}

			if err := <-done; err != nil {
				return fmt.Errorf("viewer: %w", err)
			}
			fmt.Println("\nStopped.")
			return nil
		},
	}
	cmd.Flags().IntVar(&flagPort, "port", 0, "Listen port (overrides config); a viewer already there gets the document instead")
	cmd.Flags().BoolVar(&flagNoOpen, "no-open", false, "Skip opening browser")
	return cmd
}

// sendToViewer posts doc to a viewer already listening on addr and returns
// its base URL.
func sendToViewer(ctx context.Context, addr string, doc *project.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("%s is already in use; pass a FILE to send it to the running viewer", addr)
	}
	url := "http://" + addr
	if _, err := viewer.PostDocument(ctx, url, doc); err != nil {
		return "", err
	}
	return url, nil
}

func projectName(doc *project.Document) string {
	if doc.Name != "" {
		return doc.Name
	}
	return "the project"
}

func templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates [NAME]",
		Short: "List the built-in sample projects, or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if flagJSON {
					doc, err := templates.Get(args[0])
					if err != nil {
						return err
					}
					return outputJSON(doc)
				}
				data, err := templates.Raw(args[0])
				if err != nil {
					return err
				}
				os.Stdout.Write(data)
				return nil
			}

			type entry struct {
				Name       string       `json:"name"`
				Title      string       `json:"title"`
				Kind       project.Kind `json:"kind"`
				Activities int          `json:"activities"`
			}
			var list []entry
			for _, name := range templates.Names() {
				doc, err := templates.Get(name)
				if err != nil {
					return err
				}
				list = append(list, entry{Name: name, Title: doc.Name, Kind: doc.ResolveKind(), Activities: len(doc.Activities)})
			}
			if flagJSON {
				return outputJSON(list)
			}
			for _, t := range list {
				fmt.Printf("  %-12s %-5s %2d activities  %s\n", ui.Bold(t.Name), t.Kind, t.Activities, ui.Dim(t.Title))
			}
			return nil
		},
	}
}

func estimateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "estimate OPTIMISTIC MOST_LIKELY PESSIMISTIC",
		Short: "Compute a PERT expected time and standard deviation",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v [3]float64
			for i, s := range args {
				f, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return fmt.Errorf("parse %q: %w", s, err)
				}
				v[i] = f
			}
			tp := estimate.ThreePoint{Optimistic: v[0], MostLikely: v[1], Pessimistic: v[2]}
			if err := tp.Validate(); err != nil {
				return err
			}

			if flagJSON {
				return outputJSON(map[string]any{
					"estimate": tp,
					"expected": tp.Expected(),
					"std_dev":  tp.StdDev(),
					"variance": tp.Variance(),
					"ordered":  tp.Ordered(),
				})
			}
			fmt.Printf("Expected:  %s\n", ui.Bold(strconv.FormatFloat(tp.Expected(), 'f', 3, 64)))
			fmt.Printf("Std dev:   %s\n", strconv.FormatFloat(tp.StdDev(), 'f', 3, 64))
			fmt.Printf("Variance:  %s\n", strconv.FormatFloat(tp.Variance(), 'f', 3, 64))
			if !tp.Ordered() {
				fmt.Printf("%s estimates are not in optimistic <= most likely <= pessimistic order\n", ui.Yellow("⚠"))
			}
			return nil
		},
	}
}

func costCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cost [FILE]",
		Short: "Price tool subscriptions over a schedule",
		Long: `Cost bills the selected tools for as long as the project runs. The
duration comes from scheduling FILE (or --sample), or a built-in phase
template chosen with --phases. Four or more tools add 10% overhead.`,
		Args: projectArgs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := costing.Default()
			if err != nil {
				return err
			}
			if flagListTools {
				return printCatalog(cat)
			}
			tools, err := cat.Select(flagTools)
			if err != nil {
				return err
			}

			var est *costing.Estimate
			switch {
			case flagPhases != "" && (len(args) > 0 || flagSample != ""):
				return errors.New("pass either --phases or a project, not both")
			case flagPhases != "":
				e, err := setup(cmd)
				if err != nil {
					return err
				}
				tpl, err := cat.Template(flagPhases)
				if err != nil {
					return err
				}
				if est, err = costing.ForTemplate(tpl, tools, cpm.Config{Tolerance: e.cfg.Engine.Tolerance}); err != nil {
					return err
				}
			default:
				_, plan, err := buildPlan(cmd, args, "")
				if err != nil {
					return err
				}
				if est, err = costing.Price(tools, plan.ProjectDuration); err != nil {
					return err
				}
				est.CriticalPath = plan.CriticalPath
			}

			if flagJSON {
				return outputJSON(est)
			}
			printEstimate(est)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagPhases, "phases", "", "Built-in phase template (small-mvp, medium-app, large-system)")
	cmd.Flags().StringSliceVar(&flagTools, "tools", nil, "Comma separated tool ids")
	cmd.Flags().BoolVar(&flagListTools, "list", false, "List the tool catalogue and phase templates")
	return cmd
}

func printCatalog(cat *costing.Catalog) error {
	if flagJSON {
		return outputJSON(cat)
	}
	for _, category := range cat.Categories() {
		fmt.Println(ui.BoldCyan(category))
		for _, t := range cat.Tools {
			if t.Category != category {
				continue
			}
			free := ""
			if t.HasFreePlan {
				free = ui.Green(" free plan")
			}
			fmt.Printf("  %-14s %-14s $%6.2f/mo%s\n", t.ID, t.Name, t.MonthlyUSD, free)
		}
	}
	fmt.Printf("\n%s\n", ui.BoldCyan("Phase templates"))
	for _, t := range cat.Templates {
		fmt.Printf("  %-14s %-14s %s\n", t.ID, t.Name, ui.Dim(t.Description))
	}
	return nil
}

func printEstimate(e *costing.Estimate) {
	for _, t := range e.Tools {
		fmt.Printf("  %-14s $%8.2f/mo\n", t.Name, t.MonthlyUSD)
	}
	fmt.Printf("%-16s $%8.2f/mo\n", "Base", e.BaseMonthly)
	if e.Overhead > 0 {
		fmt.Printf("%-16s %s\n", "Overhead (10%)", ui.Yellow(fmt.Sprintf("+$%7.2f/mo", e.Overhead)))
	}
	fmt.Printf("%-16s $%8.2f/mo\n", "Monthly", e.Monthly)
	fmt.Printf("%-16s %d weeks (%s days, %.1f months)\n", "Duration", e.Weeks, strconv.FormatFloat(e.Days, 'f', -1, 64), e.Months)
	if len(e.CriticalPath) > 0 {
		fmt.Printf("%-16s %s\n", "Critical path", strings.Join(e.CriticalPath, " → "))
	}
	fmt.Printf("%-16s %s\n", "Total", ui.Bold(fmt.Sprintf("$%.2f", e.Total)))
	for _, s := range e.Suggestions {
		fmt.Printf("%s %s: %s\n", ui.Yellow("💡"), s.Title, ui.Dim(s.Description))
	}
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		cmd = exec.Command("cmd", "/c", "start", url)
	}
	cmd.Start()
}

func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
