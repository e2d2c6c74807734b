package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/rs/zerolog"

	"github.com/szymonmasternak/area51-elevator/internal/agent"
	"github.com/szymonmasternak/area51-elevator/internal/elevator"
	"github.com/szymonmasternak/area51-elevator/internal/elevconfig"
	"github.com/szymonmasternak/area51-elevator/internal/elevmetadata"
	"github.com/szymonmasternak/area51-elevator/internal/elevutils"
	"github.com/szymonmasternak/area51-elevator/internal/logger"
)

var Logger = logger.GetLoggerConfigured(zerolog.InfoLevel)

func loadConfig(cmdArgs elevutils.CmdArgs) (*elevconfig.Config, error) {
	cfg := elevconfig.Default()
	if cmdArgs.ConfigPath != "" {
		loaded, err := elevconfig.Load(cmdArgs.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := elevconfig.ApplyEnv(cfg, cmdArgs.EnvFile); err != nil {
		return nil, err
	}
	cmdArgs.ApplyOverrides(cfg)
	return cfg, cfg.Validate()
}

func main() {
	cmdArgs := elevutils.ProcessCmdArgs()

	cfg, err := loadConfig(cmdArgs)
	if err != nil {
		Logger.Fatal().Err(err).Msg("Could not load configuration")
	}
	logger.GetLoggerConfigured(logger.ParseLevel(cfg.LogLevel))

	// Starting Programme
	Logger.Info().Msg("Starting Area 51 Elevator Programme")
	Logger.Info().Msgf("Run: %v", elevmetadata.New(elevutils.GetGitHash(), cfg).String())

	floors, err := cfg.FloorSet()
	if err != nil {
		Logger.Fatal().Err(err).Msg("Invalid floors")
	}
	policy, err := cfg.Policy(floors)
	if err != nil {
		Logger.Fatal().Err(err).Msg("Invalid access table")
	}

	elev, err := elevator.NewElevator(elevator.Settings{
		Floors:      floors,
		Policy:      policy,
		TimeOnFloor: cfg.TimeOnFloor,
		IdleTick:    cfg.IdleTick,
		Observer:    logEvent,
	})
	if err != nil {
		Logger.Fatal().Err(err).Msg("Could not build the elevator")
	}

	agents := make([]*agent.Agent, 0, len(cfg.Agents))
	for i, agentConfig := range cfg.Agents {
		opts := []agent.Option{agent.WithWorkDuration(cfg.WorkDuration)}
		if cfg.Seed != 0 {
			opts = append(opts, agent.WithSeed(cfg.Seed+int64(i)))
		}
		a, err := agent.New(agentConfig.Name, agentConfig.Clearance.Level(), elev, opts...)
		if err != nil {
			Logger.Fatal().Err(err).Msg("Could not create agent")
		}
		agents = append(agents, a)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	elev.Start()

	var wg sync.WaitGroup
	for _, a := range agents {
		a := a
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.Run(ctx); err != nil {
				Logger.Error().Err(err).Msgf("%v stopped unexpectedly", a)
			}
		}()
	}

	waitForClosing(ctx, cfg.Duration)

	Logger.Info().Msg("The base is closing.")
	elev.Stop()
	cancel()

	elev.Wait()
	wg.Wait()
	Logger.Info().Msg("The base is closed.")
}

// waitForClosing blocks until duration has passed (never if zero), a key is
// pressed or the process is interrupted.
func waitForClosing(ctx context.Context, duration time.Duration) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	var timeout <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		timeout = timer.C
	}

	keys, err := keyboard.GetKeys(1)
	if err != nil {
		Logger.Debug().Err(err).Msg("No terminal, key press will not close the base")
	} else {
		defer keyboard.Close()
		Logger.Info().Msg("Press any key to close the base.")
	}

	select {
	case <-timeout:
		Logger.Info().Msgf("The base closes after %v.", duration)
	case sig := <-signals:
		Logger.Info().Msgf("Received %v.", sig)
	case event := <-keys:
		if event.Err != nil {
			Logger.Warn().Err(event.Err).Msg("Error reading keyboard")
		}
		Logger.Info().Msg("Key pressed.")
	case <-ctx.Done():
	}
}
