package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"snakedqn/config"
	"snakedqn/game"
	"snakedqn/logging"
	"snakedqn/qlearning"
)

func trainCommand() *cobra.Command {
	var configPath string
	var episodes int

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the agent, checkpointing on every new record",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig(configPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
				os.Exit(1)
			}
			if err := runTraining(cfg, episodes); err != nil {
				fmt.Fprintf(os.Stderr, "training failed: %v\n", err)
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to YAML config file")
	cmd.Flags().IntVar(&episodes, "episodes", 0, "stop after this many episodes (0 = run until interrupted)")
	return cmd
}

// environment is the full contract the learning loop needs: step, reset,
// and an observation of the current state. Any implementation satisfying it
// can train the agent; the grid game is just the one that ships.
type environment interface {
	Reset()
	Step(game.Action) (reward float64, done bool, score int)
	Encode() []float64
}

// runTraining drives the environment, policy, buffer and trainer until the
// episode bound is hit or the process is interrupted. An interrupt triggers
// one final checkpoint save before returning.
func runTraining(cfg *config.Config, episodes int) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rng := rand.New(rand.NewSource(uint64(cfg.Seed)))
	var env environment = game.NewGame(cfg.Game.Width, cfg.Game.Height, cfg.Game.Block, rng)
	agent := qlearning.NewAgent(qlearning.AgentConfig{
		Inputs:       game.StateSize,
		Outputs:      game.NumActions,
		Hidden:       cfg.Model.Hidden,
		LearningRate: cfg.Train.LearningRate,
		Gamma:        cfg.Train.Gamma,
		BatchSize:    cfg.Train.BatchSize,
		MemorySize:   cfg.Train.Memory,
	}, rng)

	// A missing weights file just means a fresh run.
	switch err := agent.Net.Load(cfg.Model.Path); {
	case err == nil:
		log.Printf("resumed weights from %s", cfg.Model.Path)
	case errors.Is(err, qlearning.ErrModelNotFound):
		log.Printf("no saved weights at %s, starting fresh", cfg.Model.Path)
	default:
		return err
	}

	metrics, err := logging.NewLogger(cfg.Logging.CSVPath, cfg.Logging.JSONPath)
	if err != nil {
		return fmt.Errorf("open metric sink: %w", err)
	}
	defer metrics.Close()

	log.Printf("training: grid %dx%d block %d, hidden %d, batch %d, gamma %v, seed %d",
		cfg.Game.Width, cfg.Game.Height, cfg.Game.Block,
		cfg.Model.Hidden, cfg.Train.BatchSize, cfg.Train.Gamma, cfg.Seed)

	record := 0
	episode := 0

	for {
		select {
		case <-ctx.Done():
			log.Printf("interrupted, saving checkpoint to %s", cfg.Model.Path)
			return agent.Net.Save(cfg.Model.Path)
		default:
		}

		state := env.Encode()
		actionVec, err := agent.SelectAction(state)
		if err != nil {
			return err
		}
		action, err := game.DecodeAction(actionVec)
		if err != nil {
			return err
		}

		reward, done, score := env.Step(action)
		nextState := env.Encode()

		tr := qlearning.Transition{
			State:     state,
			Action:    actionVec,
			Reward:    reward,
			NextState: nextState,
			Done:      done,
		}
		if err := agent.TrainShortMemory(tr); err != nil {
			return err
		}
		agent.Remember(tr)

		if !done {
			continue
		}

		env.Reset()
		agent.FinishEpisode()
		if err := agent.TrainLongMemory(); err != nil {
			return err
		}
		episode++

		if score > record {
			record = score
			if err := agent.Net.Save(cfg.Model.Path); err != nil {
				return fmt.Errorf("checkpoint save: %w", err)
			}
			log.Printf("new record %d, checkpoint saved", record)
		}

		mean, err := metrics.LogEpisode(episode, score, record, agent.Epsilon())
		if err != nil {
			return fmt.Errorf("metric sink: %w", err)
		}
		if episode%cfg.Logging.PrintEvery == 0 {
			log.Printf("episode %d score %d mean %.2f record %d epsilon %.0f",
				episode, score, mean, record, agent.Epsilon())
		}

		if episodes > 0 && episode >= episodes {
			log.Printf("episode bound reached, saving checkpoint to %s", cfg.Model.Path)
			return agent.Net.Save(cfg.Model.Path)
		}
	}
}
