package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/datachannel/internal/config"
	"github.com/zjrosen/datachannel/internal/demo"
	"github.com/zjrosen/datachannel/internal/dispatch"
	"github.com/zjrosen/datachannel/internal/domain/state"
	"github.com/zjrosen/datachannel/internal/log"
	"github.com/zjrosen/datachannel/internal/mainloop"
	"github.com/zjrosen/datachannel/internal/tracing"
	"github.com/zjrosen/datachannel/internal/viewmodel"
)

// defaultScenarioTimeout bounds each "wait: idle" step.
const defaultScenarioTimeout = 10 * time.Second

// waitIdle is the wait value that blocks until no event is running.
const waitIdle = "idle"

// Scenario is a scripted session against the demo backend.
type Scenario struct {
	// Demo overrides the configured backend settings key by key.
	Demo    config.DemoConfig `yaml:"demo"`
	Timeout time.Duration     `yaml:"timeout"`
	Steps   []Step            `yaml:"steps"`
}

// Step is one scenario action. Exactly one field is set.
type Step struct {
	Launch     string `yaml:"launch,omitempty"`
	Dismiss    *int   `yaml:"dismiss,omitempty"`
	DismissAll bool   `yaml:"dismiss_all,omitempty"`
	Cancel     bool   `yaml:"cancel,omitempty"`
	// Wait is a duration ("250ms") or "idle".
	Wait string `yaml:"wait,omitempty"`
}

func (s Step) String() string {
	switch {
	case s.Launch != "":
		return "launch " + s.Launch
	case s.Dismiss != nil:
		return fmt.Sprintf("dismiss %d", *s.Dismiss)
	case s.DismissAll:
		return "dismiss_all"
	case s.Cancel:
		return "cancel"
	default:
		return "wait " + s.Wait
	}
}

func (s Step) validate() error {
	set := 0
	for _, on := range []bool{s.Launch != "", s.Dismiss != nil, s.DismissAll, s.Cancel, s.Wait != ""} {
		if on {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("expected exactly one action, got %d", set)
	}
	if s.Wait != "" && s.Wait != waitIdle {
		if _, err := time.ParseDuration(s.Wait); err != nil {
			return fmt.Errorf("wait must be a duration or %q: %w", waitIdle, err)
		}
	}
	return nil
}

// ParseScenario decodes and validates a scenario. Unknown keys are errors.
func ParseScenario(r io.Reader, base config.DemoConfig) (Scenario, error) {
	sc := Scenario{Demo: base}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return Scenario{}, fmt.Errorf("decoding scenario: %w", err)
	}

	if len(sc.Steps) == 0 {
		return Scenario{}, errors.New("scenario has no steps")
	}
	for i, step := range sc.Steps {
		if err := step.validate(); err != nil {
			return Scenario{}, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	if sc.Timeout <= 0 {
		sc.Timeout = defaultScenarioTimeout
	}
	return sc, nil
}

var scriptCmd = &cobra.Command{
	Use:   "script FILE.yaml",
	Short: "Run a scripted scenario without the UI",
	Long: `Run a YAML scenario against the demo backend and print every change to
progress, active events and the message queue.

Steps: launch NAME, dismiss INDEX, dismiss_all, cancel, wait DURATION|idle.`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(scriptCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	if debugEnabled(cfg) {
		log.InitWriter(cmd.ErrOrStderr())
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening scenario: %w", err)
	}
	defer func() { _ = f.Close() }()

	sc, err := ParseScenario(f, cfg.Demo)
	if err != nil {
		return err
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(cmd.Context()) }()

	return RunScenario(cmd.OutOrStdout(), sc, dispatch.WithTracer(provider.Tracer()))
}

// observation is what the runner prints when it changes.
type observation struct {
	progress bool
	active   string
	queued   int
	head     string
}

func (o observation) String() string {
	return fmt.Sprintf("progress=%t active=%s queued=%d head=%s", o.progress, o.active, o.queued, o.head)
}

// recorder prints an observation whenever it differs from the last one. It
// only runs on the loop.
type recorder struct {
	w     io.Writer
	owner *viewmodel.Owner[demo.State]
	last  observation
}

func (r *recorder) observe() {
	head := "<none>"
	if msg := r.owner.Message().Get(); msg != nil {
		head = msg.String()
	}
	o := observation{
		progress: r.owner.IsLoading().Get(),
		active:   r.owner.ActiveEventNames().String(),
		queued:   len(r.owner.Messages()),
		head:     head,
	}
	if o != r.last {
		r.last = o
		_, _ = fmt.Fprintf(r.w, "  %s\n", o)
	}
}

// RunScenario plays sc against a fresh demo owner on its own main loop and
// writes the transcript to w.
func RunScenario(w io.Writer, sc Scenario, opts ...dispatch.Option) error {
	demoCfg := sc.Demo
	timeout := sc.Timeout
	if timeout <= 0 {
		timeout = defaultScenarioTimeout
	}

	loop := mainloop.New()
	defer loop.Close()

	rec := &recorder{w: w}
	// Every delivery is followed by an observation on the loop.
	exec := dispatch.ExecutorFunc(func(fn func()) {
		loop.Post(func() {
			fn()
			rec.observe()
		})
	})

	repo := demo.NewRepository(demo.Options{
		Latency:   demoCfg.Latency,
		CacheTTL:  demoCfg.CacheTTL,
		FailEvery: demoCfg.FailRate,
		Seed:      demoCfg.Seed,
	})
	owner := demo.NewOwner(exec, repo, viewmodel.WithDispatchOptions[demo.State](opts...))
	rec.owner = owner

	if err := loop.Sync(rec.observe); err != nil {
		return err
	}

	var runErr error
	for i, step := range sc.Steps {
		_, _ = fmt.Fprintf(w, "step %d: %s\n", i+1, step)
		if runErr = runStep(loop, owner, rec, step, timeout); runErr != nil {
			runErr = fmt.Errorf("step %d (%s): %w", i+1, step, runErr)
			break
		}
	}

	_ = loop.Sync(owner.CancelJobs)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := owner.Shutdown(ctx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func runStep(loop *mainloop.Loop, owner *viewmodel.Owner[demo.State], rec *recorder, step Step, timeout time.Duration) error {
	onLoop := func(fn func()) error {
		return loop.Sync(func() {
			fn()
			rec.observe()
		})
	}

	switch {
	case step.Launch != "":
		event, ok := demo.EventByName(step.Launch)
		if !ok {
			// Unknown names reach the owner, which reports them as invalid.
			event = state.NewEvent(step.Launch, state.WithMessage())
		}
		return onLoop(func() { owner.StartEvent(event) })

	case step.Dismiss != nil:
		index := *step.Dismiss
		return onLoop(func() { dismissAt(owner, index) })

	case step.DismissAll:
		return onLoop(owner.RemoveAllMessages)

	case step.Cancel:
		return onLoop(owner.CancelJobs)

	case step.Wait == waitIdle:
		deadline := time.Now().Add(timeout)
		for {
			var busy bool
			if err := loop.Sync(func() { busy = owner.ActiveEventNames().Len() > 0 }); err != nil {
				return err
			}
			if !busy {
				return nil
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("still running after %v: %s", timeout, owner.ActiveEventNames())
			}
			time.Sleep(10 * time.Millisecond)
		}

	default:
		d, err := time.ParseDuration(step.Wait)
		if err != nil {
			return err
		}
		time.Sleep(d)
		return nil
	}
}

// dismissAt removes the message at index; out-of-range indexes are logged
// and ignored.
func dismissAt(owner *viewmodel.Owner[demo.State], index int) {
	if n := len(owner.Messages()); index < 0 || index >= n {
		log.Warn(log.CatQueue, "dismiss index out of range", "index", index, "queued", n)
		return
	}
	owner.RemoveMessageAt(index)
}
