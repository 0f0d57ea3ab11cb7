package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/hostlabs/loadgate/internal/adapters/fs"
	logAdapter "github.com/hostlabs/loadgate/internal/adapters/log"
	"github.com/hostlabs/loadgate/internal/adapters/proc"
	"github.com/hostlabs/loadgate/internal/adapters/sysprobe"
	"github.com/hostlabs/loadgate/internal/cliconfig"
	"github.com/hostlabs/loadgate/internal/domain"
	"github.com/hostlabs/loadgate/internal/policy"
	"github.com/hostlabs/loadgate/pkg/loadgate"
)

const longHelp = `
Run batch work without flattening the host.

loadgate admits commands when a concurrency slot is free and host CPU and
memory sit under thresholds picked from installed memory (1 slot under 8GB,
2 under 16GB, 3 above). Queued work is admitted first-come first-served;
a per-task watchdog logs when the host comes under pressure.

Configuration precedence: flags > LOADGATE_* environment > config file
(default: $HOME/.loadgate/config.toml). Threshold changes to the config file
are picked up live while 'run' is active.
`

var exampleUsage = strings.TrimSpace(`
  loadgate status --json
  loadgate run -- ffmpeg -i in.mp4 out.webm
  loadgate run --jobs jobs.txt --max-wait 10m --nice
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "loadgate",
		Short:   "Run batch work without flattening the host",
		Long:    strings.TrimSpace(longHelp),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
	}

	root.AddCommand(newStatusCmd(), newRunCmd())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("loadgate")
		os.Exit(1)
	}
}

// addConfigFlags registers the shared configuration flags on a subcommand.
func addConfigFlags(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath *string) {
	cmd.Flags().StringVar(cfgPath, "config", "", "path to config file (default: $HOME/.loadgate/config.toml)")

	cmd.Flags().Float64Var(&cfg.MemoryGB, "memory-gb", cfg.MemoryGB, "override detected installed memory for tier selection")
	cmd.Flags().Float64Var(&cfg.MaxCPUPercent, "cpu-max", cfg.MaxCPUPercent, "max CPU percent before delaying admission (0 = tier default)")
	cmd.Flags().Float64Var(&cfg.MemoryPercentMax, "memory-max", cfg.MemoryPercentMax, "max memory percent before delaying admission")
	cmd.Flags().IntVar(&cfg.MaxConcurrent, "max-concurrent", cfg.MaxConcurrent, "max concurrent tasks (0 = tier default)")

	cmd.Flags().DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "delay between resource samples")
	cmd.Flags().DurationVar(&cfg.CPUSampleInterval, "cpu-sample", cfg.CPUSampleInterval, "CPU utilization averaging window")
	cmd.Flags().DurationVar(&cfg.WatchdogInterval, "watchdog-interval", cfg.WatchdogInterval, "per-task watchdog check interval")
	cmd.Flags().DurationVar(&cfg.MaxWait, "max-wait", cfg.MaxWait, "max time to wait for a slot (0 = wait forever)")

	cmd.Flags().StringVar(&cfg.StatusFile, "status-file", cfg.StatusFile, "write status.json here periodically")
	cmd.Flags().DurationVar(&cfg.StatusInterval, "status-interval", cfg.StatusInterval, "status file write interval")

	cmd.Flags().BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable debug logging")
}

// resolveConfig applies file and environment configuration under the
// flag > env > file precedence.
func resolveConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string) (string, error) {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return "", fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return "", err
		}
	}

	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return "", err
	}

	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if cfg.Verbose {
		cliconfig.SetVerbose()
	}
	return cfgFile, nil
}

func newStatusCmd() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Sample host resources once and print gate status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := resolveConfig(cmd, &cfg, cfgPath); err != nil {
				return err
			}
			ctx := cmd.Context()

			probe := sysprobe.New(cfg.CPUSampleInterval)
			snap, err := probe.Sample(ctx)
			if err != nil {
				return fmt.Errorf("probe: %w", err)
			}

			memGB := cfg.MemoryGB
			if memGB <= 0 {
				memGB, _ = probe.TotalMemoryGB(ctx)
			}
			limits := policy.LimitsFor(memGB).WithThresholds(cfg.MaxCPUPercent)
			if cfg.MaxConcurrent > 0 {
				limits.MaxConcurrentTasks = cfg.MaxConcurrent
			}

			out := struct {
				domain.Status
				Recommendation policy.Recommendation `json:"recommendation"`
			}{
				Status: domain.Status{
					Health:      policy.HealthFor(snap),
					Snapshot:    snap,
					HasSnapshot: true,
					ActiveTasks: []string{},
					Limits:      limits,
				},
				Recommendation: policy.Recommend(snap, runtime.NumCPU()),
			}

			if jsonOut {
				b, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(b))
				return nil
			}

			fmt.Printf("health:       %s\n", out.Health)
			fmt.Printf("tier:         %s (%d slot(s), cpu<=%.0f%%)\n",
				limits.Tier, limits.MaxConcurrentTasks, limits.MaxCPUPercent)
			fmt.Printf("cpu:          %.1f%%\n", snap.CPUPercent)
			fmt.Printf("memory:       %.1f%% (%.1f GB available)\n", snap.MemoryPercent, snap.MemoryAvailableGB)
			fmt.Printf("disk free:    %.1f GB\n", snap.DiskFreeGB)
			fmt.Printf("suggestion:   %d worker(s), %d cpu thread(s)\n",
				out.Recommendation.Workers, out.Recommendation.CPUThreads)
			return nil
		},
	}

	addConfigFlags(cmd, &cfg, &cfgPath)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print machine-readable JSON")
	return cmd
}

func newRunCmd() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var nice bool

	cmd := &cobra.Command{
		Use:   "run [flags] [-- command [args...]]",
		Short: "Run commands through the admission gate",
		Long: strings.TrimSpace(`
Run one command, or every non-empty non-comment line of --jobs FILE as a
shell command, concurrently through the admission gate. Exits nonzero if
any job fails.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, err := resolveConfig(cmd, &cfg, cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("nice") {
				cfg.Nice = nice
			}
			return runJobs(cmd, cfg, cfgFile, args)
		},
	}

	addConfigFlags(cmd, &cfg, &cfgPath)
	cmd.Flags().StringVar(&cfg.JobsFile, "jobs", cfg.JobsFile, "file with one shell command per line")
	cmd.Flags().BoolVar(&nice, "nice", false, "lower process priority for long-running operation")
	return cmd
}

// job is one unit of work to push through the gate.
type job struct {
	name string
	run  loadgate.Task
}

func runJobs(cmd *cobra.Command, cfg cliconfig.Config, cfgFile string, args []string) error {
	log := cliconfig.Logger()

	jobs, err := collectJobs(cfg, args)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return fmt.Errorf("nothing to run: pass a command after -- or use --jobs")
	}

	if cfg.Nice {
		if err := proc.Background(); err != nil {
			log.Warn().Err(err).Msg("could not lower process priority")
		} else {
			log.Info().Int("nice", proc.BackgroundNice).Msg("process priority lowered")
		}
	}

	g, err := loadgate.New(loadgate.Config{
		MemoryGB:          cfg.MemoryGB,
		MaxCPUPercent:     cfg.MaxCPUPercent,
		MemoryPercentMax:  cfg.MemoryPercentMax,
		MaxConcurrent:     cfg.MaxConcurrent,
		PollInterval:      cfg.PollInterval,
		CPUSampleInterval: cfg.CPUSampleInterval,
		WatchdogInterval:  cfg.WatchdogInterval,
		MaxWait:           cfg.MaxWait,
	}, loadgate.WithLogger(logAdapter.NewZerologAdapter(log)))
	if err != nil {
		return fmt.Errorf("create gate: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Info().Msg("received signal, stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := g.Start(ctx); err != nil {
		return fmt.Errorf("start gate: %w", err)
	}

	// Live threshold reload while jobs are running.
	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		watcher := cliconfig.NewConfigWatcher(cfgFile, func(fc cliconfig.FileConfig) {
			g.SetThresholds(fc.MaxCPUPercent, fc.MemoryPercentMax)
		})
		go func() {
			if werr := watcher.Run(ctx); werr != nil {
				log.Warn().Err(werr).Msg("config watcher stopped")
			}
		}()
	}

	if cfg.StatusFile != "" {
		recorder := fs.NewStatusFileRecorder(cfg.StatusFile)
		go recordStatus(ctx, g, recorder, cfg.StatusInterval)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)
	for _, j := range jobs {
		j := j
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Execute(ctx, j.name, j.run); err != nil && !errors.Is(err, context.Canceled) {
				mu.Lock()
				failed = append(failed, j.name)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if err := g.Stop(); err != nil {
		log.Warn().Err(err).Msg("gate shutdown")
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d job(s) failed: %s", len(failed), len(jobs), strings.Join(failed, ", "))
	}
	return nil
}

// collectJobs builds the job list from --jobs lines or the trailing command.
func collectJobs(cfg cliconfig.Config, args []string) ([]job, error) {
	var jobs []job

	if cfg.JobsFile != "" {
		f, err := os.Open(cfg.JobsFile)
		if err != nil {
			return nil, fmt.Errorf("jobs file: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		n := 0
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			n++
			jobs = append(jobs, shellJob(fmt.Sprintf("job-%d", n), line))
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("jobs file: %w", err)
		}
	}

	if len(args) > 0 {
		jobs = append(jobs, execJob(filepath.Base(args[0]), args))
	}
	return jobs, nil
}

func shellJob(name, line string) job {
	return job{name: name, run: func(ctx context.Context) (interface{}, error) {
		c := exec.CommandContext(ctx, "/bin/sh", "-c", line)
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		return nil, c.Run()
	}}
}

func execJob(name string, args []string) job {
	return job{name: name, run: func(ctx context.Context) (interface{}, error) {
		c := exec.CommandContext(ctx, args[0], args[1:]...)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		return nil, c.Run()
	}}
}

// recordStatus periodically writes gate status for external monitors.
func recordStatus(ctx context.Context, g *loadgate.Gate, recorder *fs.StatusFileRecorder, interval time.Duration) {
	log := cliconfig.Logger()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := recorder.Record(ctx, g.Status()); err != nil {
				log.Warn().Err(err).Msg("status file write failed")
			}
		}
	}
}
