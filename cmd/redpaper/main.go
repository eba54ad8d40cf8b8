package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"redpaper/internal/app"
	"redpaper/internal/config"
	rperrors "redpaper/internal/errors"
	"redpaper/internal/templates"
	"redpaper/internal/ui"
	"redpaper/pkg/compile"
)

// version is set at build time via ldflags
var version = "dev"

// cli holds what the commands need from the host, so tests can run them in-process.
type cli struct {
	deps      app.Deps
	newEngine app.EngineFactory
	logFile   io.Closer
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "redpaper",
		Short:   "redpaper - compile Markdown to PDF with a containerized pandoc toolchain",
		Version: version,
		Long: `redpaper compiles a Markdown document to PDF by running pandoc and a LaTeX
engine inside the redpaper_host container image under docker or podman.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			return c.setupLogging(verbose)
		},
	}
	rootCmd.PersistentFlags().String("config", "", "Config file (default: redpaper.yaml in . or ~/.config/redpaper)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log to stderr instead of the log file")

	craftCmd := &cobra.Command{
		Use:   "craft",
		Short: "Document crafting commands",
	}
	compileCmd := &cobra.Command{
		Use:   "compile -i <input.md> -o <output.pdf> -r <redpaper repo> [-- pandoc args...]",
		Short: "Compile a Markdown file to PDF",
		Long: `Compile mounts the input's directory, the template repository and a scratch
directory into the converter container, runs pandoc, and copies the PDF to --output.
Arguments after -- are passed to pandoc verbatim.`,
		Args: passthroughOnly,
		RunE: c.runCompile,
	}
	addCompileFlags(compileCmd)
	craftCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(craftCmd)

	makeCmd := &cobra.Command{
		Use:   "make -i <input.md> -o <output.pdf> -r <redpaper repo> [-- pandoc args...]",
		Short: "Shortcut for 'craft compile'",
		Args:  passthroughOnly,
		RunE:  c.runCompile,
	}
	addCompileFlags(makeCmd)
	rootCmd.AddCommand(makeCmd)

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that a container runtime and the converter image are available",
		Args:  cobra.NoArgs,
		RunE:  c.runDoctor,
	}
	doctorCmd.Flags().Bool("json", false, "Print the report as JSON")
	doctorCmd.Flags().String(config.KeyImage, compile.DefaultImage, "Converter image to look for")
	rootCmd.AddCommand(doctorCmd)

	pullCmd := &cobra.Command{
		Use:   "pull",
		Short: "Pull the converter image through the container engine API",
		Args:  cobra.NoArgs,
		RunE:  c.runPull,
	}
	pullCmd.Flags().String(config.KeyImage, compile.DefaultImage, "Converter image to pull")
	rootCmd.AddCommand(pullCmd)

	templatesCmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage the template repository",
	}
	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Clone or update a template repository with git",
		Args:  cobra.NoArgs,
		RunE:  c.runTemplatesFetch,
	}
	fetchCmd.Flags().String("url", "", "Git URL of the template repository")
	fetchCmd.Flags().String("dest", "", "Directory to clone into (required)")
	fetchCmd.Flags().String("ref", "", "Branch to check out (default: remote HEAD)")
	if err := fetchCmd.MarkFlagRequired("dest"); err != nil {
		slog.Error("Failed to mark dest flag as required for templates fetch command", "error", err)
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the templates a repository provides",
		Args:  cobra.NoArgs,
		RunE:  c.runTemplatesList,
	}
	listCmd.Flags().StringP(config.KeyRepositoryPath, "r", "", "Path to the redpaper template repository")
	templatesCmd.AddCommand(fetchCmd, listCmd)
	rootCmd.AddCommand(templatesCmd)

	return rootCmd
}

// addCompileFlags registers the flags shared by 'craft compile' and 'make'.
func addCompileFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("input", "i", "", "Markdown file to compile (required)")
	flags.StringP("output", "o", "", "PDF file to write (required)")
	flags.StringP(config.KeyRepositoryPath, "r", "", "Path to the redpaper template repository (required; or REDPAPER_REDPAPER_PATH)")
	flags.StringP(config.KeyTemplate, "t", compile.DefaultTemplate, "Template path relative to <repo>/templates")
	flags.IntP(config.KeyDPI, "d", compile.DefaultDPI, "Image resolution passed to pandoc")
	flags.StringP(config.KeyEngine, "e", compile.DefaultEngine, "LaTeX engine used by pandoc")
	flags.StringP(config.KeyContainerTool, "c", string(compile.RuntimeAuto), "Container runtime: docker, podman or auto")
	flags.StringArrayP("pandoc-arg", "p", nil, "Extra pandoc argument (repeatable)")
	flags.StringArrayP("extra", "x", nil, "Raw argument appended to the pandoc command (repeatable)")
	flags.String(config.KeyImage, compile.DefaultImage, "Converter container image")
	flags.Bool("dry-run", false, "Print the container command without running it")

	for _, name := range []string{"input", "output"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			slog.Error("Failed to mark flag as required", "command", cmd.Name(), "flag", name, "error", err)
		}
	}
}

// passthroughOnly accepts positional arguments only after --.
func passthroughOnly(cmd *cobra.Command, args []string) error {
	dash := cmd.ArgsLenAtDash()
	if (dash == -1 && len(args) > 0) || dash > 0 {
		return rperrors.NewValidationError(
			fmt.Sprintf("unexpected argument %q", args[0]),
			"",
			"Put pandoc arguments after --, or use --pandoc-arg",
			fmt.Errorf("unexpected argument %q", args[0]),
		)
	}
	return nil
}

func (c *cli) runCompile(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	configFile, _ := flags.GetString("config")

	settings, err := config.Load(flags, configFile)
	if err != nil {
		return err
	}
	if settings.ConfigFile != "" {
		slog.Info("Loaded config file", "path", settings.ConfigFile)
	}

	input, _ := flags.GetString("input")
	output, _ := flags.GetString("output")
	dryRun, _ := flags.GetBool("dry-run")
	// Read directly so values containing commas are not split.
	pandocArgs, _ := flags.GetStringArray("pandoc-arg")
	extra, _ := flags.GetStringArray("extra")
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		extra = append(extra, args[dash:]...)
	}

	req := compile.Request{
		InputPath:      input,
		OutputPath:     output,
		RepositoryPath: settings.RepositoryPath,
		Template:       settings.Template,
		DPI:            settings.DPI,
		Engine:         settings.Engine,
		ContainerTool:  compile.RuntimeChoice(settings.ContainerTool),
		Image:          settings.Image,
		PandocArgs:     pandocArgs,
		ExtraArgs:      extra,
		DryRun:         dryRun,
	}

	return app.Compile(cmd.Context(), req, c.deps)
}

func (c *cli) runDoctor(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	image, err := resolveImage(cmd)
	if err != nil {
		return err
	}

	report, err := app.Doctor(cmd.Context(), image, c.deps.Probe, c.newEngine)
	if report != nil {
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(report); encErr != nil {
				return fmt.Errorf("failed to encode doctor report: %w", encErr)
			}
		} else {
			printDoctorReport(cmd.OutOrStdout(), report)
		}
	}
	return err
}

func printDoctorReport(w io.Writer, report *app.DoctorReport) {
	fmt.Fprintln(w, "runtimes:")
	for _, rt := range report.Runtimes {
		state := "missing"
		if rt.Found {
			state = "found"
		}
		if rt.Name == report.Selected {
			state += " (selected)"
		}
		fmt.Fprintf(w, "  %-7s %s\n", rt.Name, state)
	}

	if report.Engine.Reachable {
		fmt.Fprintf(w, "engine:   reachable (API %s)\n", report.Engine.APIVersion)
	} else {
		fmt.Fprintf(w, "engine:   unreachable: %s\n", report.Engine.Error)
	}

	switch {
	case report.Image.Present:
		fmt.Fprintf(w, "image:    %s present\n", report.Image.Ref)
	case report.Image.Error != "":
		fmt.Fprintf(w, "image:    %s unknown: %s\n", report.Image.Ref, report.Image.Error)
	case report.Engine.Reachable:
		fmt.Fprintf(w, "image:    %s missing (run 'redpaper pull')\n", report.Image.Ref)
	default:
		fmt.Fprintf(w, "image:    %s not checked\n", report.Image.Ref)
	}
}

// resolveImage picks the converter image with the same precedence compile uses.
func resolveImage(cmd *cobra.Command) (string, error) {
	configFile, _ := cmd.Flags().GetString("config")
	settings, err := config.Load(cmd.Flags(), configFile)
	if err != nil {
		return "", err
	}
	return settings.Image, nil
}

func (c *cli) runPull(cmd *cobra.Command, args []string) error {
	image, err := resolveImage(cmd)
	if err != nil {
		return err
	}
	if err := app.Pull(cmd.Context(), image, c.newEngine); err != nil {
		return err
	}
	c.deps.Console.PrintSuccess(fmt.Sprintf("pulled %s", image))
	return nil
}

func (c *cli) runTemplatesFetch(cmd *cobra.Command, args []string) error {
	url, _ := cmd.Flags().GetString("url")
	dest, _ := cmd.Flags().GetString("dest")
	ref, _ := cmd.Flags().GetString("ref")

	res, err := templates.Fetch(cmd.Context(), url, dest, ref)
	if err != nil {
		return err
	}

	switch {
	case res.Cloned:
		c.deps.Console.PrintSuccess(fmt.Sprintf("cloned templates into %s at %.12s", res.Dest, res.Head))
	case res.Updated:
		c.deps.Console.PrintSuccess(fmt.Sprintf("updated %s to %.12s", res.Dest, res.Head))
	default:
		c.deps.Console.PrintSuccess(fmt.Sprintf("%s already up to date at %.12s", res.Dest, res.Head))
	}
	return nil
}

func (c *cli) runTemplatesList(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	settings, err := config.Load(cmd.Flags(), configFile)
	if err != nil {
		return err
	}
	if settings.RepositoryPath == "" {
		return rperrors.NewValidationError("--redpaper-path is required", "", "Pass -r or set REDPAPER_REDPAPER_PATH", fmt.Errorf("--redpaper-path is required"))
	}

	ids, err := templates.List(settings.RepositoryPath)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

// setupLogging sends slog output to the rotating log file, or to stderr when verbose.
func (c *cli) setupLogging(verbose bool) error {
	if verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		return nil
	}

	logFile, err := rperrors.OpenLogFile()
	if err != nil {
		// The command still runs; only the log is lost.
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return nil
	}
	c.logFile = logFile
	slog.SetDefault(slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo})))
	return nil
}

func (c *cli) close() {
	if c.logFile != nil {
		_ = c.logFile.Close()
	}
}

func main() {
	_ = godotenv.Load()

	factory := app.NewFactory()
	c := &cli{
		deps: app.Deps{
			Runtime: factory.ContainerRuntime(),
			Probe:   factory.Prober(),
			Console: ui.NewConsole(),
		},
		newEngine: factory.Engine,
	}

	// Replaced by setupLogging once flags are parsed.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	code := rperrors.ExitSuccess
	if err := newRootCmd(c).Execute(); err != nil {
		code = rperrors.HandleError(err)
	}
	c.close()
	os.Exit(code)
}
