package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"
)

// Env is what a CLI run talks to.
type Env struct {
	Out io.Writer
	Err io.Writer

	// Prompter defaults to a line-editing prompter on the terminal, opened on the
	// first question.
	Prompter Prompter

	// Transport is the real network. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// Command is one subcommand of the client.
type Command struct {
	Flags *flag.FlagSet
	Usage string
	Short string
	Exec  func(ctx context.Context, env Env, cfg Config, args []string) error

	configPath *string
	overlay    *Config
}

func newCommand(name, usage, short string) *Command {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	c := &Command{Flags: fs, Usage: usage, Short: short}
	c.configPath = fs.String("config", filepath.Join(DefaultConfigDir(), ConfigFileName), "config file")
	c.overlay = BindConfigFlags(fs)
	return c
}

func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

func (c *Command) printHelp(w io.Writer) {
	fmt.Fprintf(w, "Usage: fasting %s\n\n%s\n\nFlags:\n", c.Usage, c.Short)
	c.Flags.SetOutput(w)
	c.Flags.PrintDefaults()
}

func (c *Command) run(ctx context.Context, env Env, args []string) int {
	c.Flags.SetOutput(io.Discard)

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.printHelp(env.Out)
			return 0
		}
		fmt.Fprintln(env.Err, "error:", err)
		c.printHelp(env.Err)
		return 2
	}

	cfg, err := LoadConfig(*c.configPath)
	if err != nil {
		fmt.Fprintln(env.Err, "error:", err)
		return 1
	}
	cfg.ApplyFlags(c.overlay)

	if err := c.Exec(ctx, env, cfg, c.Flags.Args()); err != nil {
		fmt.Fprintln(env.Err, "error:", err)
		return 1
	}
	return 0
}

func commands() []*Command {
	return []*Command{openCmd(), pushCmd(), serveCmd(), configCmd()}
}

// Run dispatches args to a subcommand and returns the exit code.
func Run(ctx context.Context, env Env, args []string) int {
	if env.Out == nil {
		env.Out = io.Discard
	}
	if env.Err == nil {
		env.Err = io.Discard
	}

	cmds := commands()
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(env.Out, cmds)
		return 0
	}

	for _, c := range cmds {
		if c.Name() == args[0] {
			return c.run(ctx, env, args[1:])
		}
	}

	fmt.Fprintf(env.Err, "error: unknown command %q\n\n", args[0])
	printUsage(env.Err, cmds)
	return 2
}

func printUsage(w io.Writer, cmds []*Command) {
	fmt.Fprintln(w, "Usage: fasting <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range cmds {
		fmt.Fprintf(w, "  %-28s %s\n", c.Usage, c.Short)
	}
}

// withApp boots an App for the command and closes everything afterwards.
func withApp(ctx context.Context, env Env, cfg Config, route Route, fn func(*App) error) error {
	prompter := env.Prompter
	if prompter == nil {
		lp := newLazyPrompter(env.Out)
		defer lp.Close()
		prompter = lp
	}

	app := New(Options{Config: cfg, Out: env.Out, Prompter: prompter, Transport: env.Transport})
	defer app.Close()

	if err := app.Boot(ctx, route); err != nil {
		return err
	}
	if fn == nil {
		return nil
	}
	return fn(app)
}

func openCmd() *Command {
	c := newCommand("open", "open [route-url] [flags]", "Show the logs and open a view (home, checkin, summary)")
	view := c.Flags.String("view", "", "view to open: home, checkin or summary")
	date := c.Flags.String("date", "", "check-in date (YYYY-MM-DD), defaults to today")
	answer := c.Flags.String("answer", "", "answer the check-in without prompting: fasting or not_fasting")

	c.Exec = func(ctx context.Context, env Env, cfg Config, args []string) error {
		route := Route{View: ViewHome}
		if len(args) > 0 {
			r, err := ParseRoute(args[0])
			if err != nil {
				return err
			}
			route = r
		}

		switch View(*view) {
		case "":
		case ViewHome, ViewCheckin, ViewSummary:
			route.View = View(*view)
		default:
			return fmt.Errorf("unknown view %q", *view)
		}
		if *date != "" {
			route.Date = *date
		}
		if *answer != "" {
			route.View = ViewCheckin
		}

		return withApp(ctx, env, cfg, route, func(app *App) error {
			if route.View != ViewCheckin {
				return nil
			}
			if *answer != "" {
				return app.AnswerCheckin(ctx, *answer)
			}
			return app.PromptCheckin(ctx)
		})
	}
	return c
}

func pushCmd() *Command {
	c := newCommand("push", "push [flags]", "Enable push reminders for this client")
	c.Exec = func(ctx context.Context, env Env, cfg Config, args []string) error {
		return withApp(ctx, env, cfg, Route{View: ViewHome}, func(app *App) error {
			return app.EnablePush(ctx)
		})
	}
	return c
}

func serveCmd() *Command {
	c := newCommand("serve", "serve [flags]", "Serve the app through the offline worker and receive pushes")
	c.Exec = func(ctx context.Context, env Env, cfg Config, args []string) error {
		return withApp(ctx, env, cfg, Route{View: ViewHome}, func(app *App) error {
			return app.Serve(ctx, cfg.Listen)
		})
	}
	return c
}

func configCmd() *Command {
	c := newCommand("config", "config [flags]", "Print the effective configuration")
	write := c.Flags.Bool("write", false, "save the effective configuration to the config file")

	c.Exec = func(ctx context.Context, env Env, cfg Config, args []string) error {
		if _, err := cfg.Location(); err != nil {
			return err
		}

		formatted, err := FormatConfig(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(env.Out, formatted)

		if *write {
			path := c.Flags.Lookup("config").Value.String()
			if err := SaveConfig(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "Saved %s\n", path)
		}
		return nil
	}
	return c
}
