package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
	"gopkg.in/alecthomas/kingpin.v2"

	"lbsim/internal/config"
	"lbsim/internal/dispatch"
	"lbsim/internal/job"
	"lbsim/internal/sched"
	"lbsim/internal/statusapi"
)

var (
	app = kingpin.New("loadsim", "Route tasks to a pool of preemptive hosts")

	debug = app.Flag("debug", "enable debug logging").
		Short('d').
		Default("false").
		Envar("ENABLE_DEBUG_LOGGING").
		Bool()

	cfgFile = app.Flag("config", "YAML config file").
		Short('c').
		String()

	workloadFile = app.Flag("workload", "YAML workload file").
		Short('w').
		String()

	randomTasks = app.Flag("random", "generate this many random tasks when no workload file is given").
		Default("30").
		Int()

	seed = app.Flag("seed", "random workload seed").
		Default("1").
		Int64()

	policy = app.Flag("policy", "dispatch policy (policy override)").
		Enum(dispatch.PolicyNames()...)

	hosts = app.Flag("hosts", "number of hosts (hosts override)").
		Int()

	csvPath = app.Flag("csv", "write host events to this CSV file (csv_path override)").
		String()

	listen = app.Flag("listen", "serve the status API on this address (listen override)").
		String()
)

func main() {
	app.HelpFlag.Short('h')
	kingpin.MustParse(app.Parse(os.Args[1:]))

	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.WithError(err).Fatal("Cannot load config")
	}

	// now, override any CLI flags in the loaded config
	if *policy != "" {
		cfg.Policy = *policy
	}
	if *hosts != 0 {
		cfg.Hosts = *hosts
	}
	if *csvPath != "" {
		cfg.CSVPath = *csvPath
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid config")
	}
	log.WithField("config", cfg).Info("Loaded config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Simulation failed")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix:   "loadsim",
		Reporter: tally.NullStatsReporter,
	}, time.Second)
	defer closer.Close()

	rec := sched.NewRecorder()
	if cfg.CSVPath != "" {
		if err := rec.EnableCSV(cfg.CSVPath); err != nil {
			return err
		}
	}
	defer rec.Close()

	// one clock per host, so a quantum only ever blocks its own host
	clocks := make([]*sched.TickClock, cfg.Hosts)
	pool := make([]*sched.Host, cfg.Hosts)
	targets := make([]dispatch.Host, cfg.Hosts)
	for i := range pool {
		clocks[i] = sched.NewTickClock(cfg.Quantum())
		pool[i] = sched.NewHost(i, clocks[i],
			sched.WithQuantum(cfg.Quantum()),
			sched.WithListener(rec.Listener()),
			sched.WithMetrics(scope.Tagged(map[string]string{"host": fmt.Sprint(i)})),
		)
		targets[i] = pool[i]
	}

	d, err := dispatch.New(cfg.DispatchPolicy(), targets,
		dispatch.WithNoiseThreshold(cfg.NoiseThreshold()),
		dispatch.WithMetrics(scope),
	)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, h := range pool {
		wg.Add(1)
		go func(h *sched.Host) {
			defer wg.Done()
			if err := h.Run(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).WithField("host", h.ID()).Error("host loop stopped")
			}
		}(h)
	}

	seq := &job.Sequencer{}
	if cfg.Listen != "" {
		srv := &http.Server{Addr: cfg.Listen, Handler: statusapi.New(d, pool, seq).Handler()}
		go func() {
			log.WithField("addr", cfg.Listen).Info("status API listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("status API stopped")
			}
		}()
		defer srv.Close()
	}

	items, err := workload(cfg, seq)
	if err != nil {
		return err
	}

	submitted := make([]*sched.Task, 0, len(items))
	for _, it := range items {
		if it.Delay > 0 {
			select {
			case <-time.After(it.Delay):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			break
		}
		if _, err := d.Submit(it.Task); err != nil {
			return err
		}
		submitted = append(submitted, it.Task)
	}

	waitFinished(ctx, submitted, cfg.Quantum())

	// cooperative: each loop finishes its quantum in flight before returning
	for _, h := range pool {
		h.Shutdown()
	}
	wg.Wait()

	for i, h := range pool {
		log.WithFields(log.Fields{
			"host":      i,
			"quanta":    clocks[i].Count(),
			"queueSize": h.QueueSize(),
			"workLeft":  h.WorkLeft(),
		}).Info("host summary")
	}
	return nil
}

func workload(cfg config.Config, seq *job.Sequencer) ([]job.Item, error) {
	if *workloadFile == "" {
		rng := rand.New(rand.NewSource(*seed))
		return job.Random(rng, *randomTasks, cfg.Quantum(), seq), nil
	}
	w, err := job.LoadWorkload(*workloadFile)
	if err != nil {
		return nil, err
	}
	return w.Build(seq)
}

// waitFinished polls until every task is terminal or ctx is done.
func waitFinished(ctx context.Context, tasks []*sched.Task, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		done := true
		for _, t := range tasks {
			if !t.Finished() {
				done = false
				break
			}
		}
		if done {
			log.WithField("tasks", len(tasks)).Info("all tasks finished")
			return
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
