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
	"gonum.org/v1/gonum/stat"

	"snakedqn/config"
	"snakedqn/game"
	"snakedqn/qlearning"
)

func playCommand() *cobra.Command {
	var configPath string
	var games int

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run the trained agent without exploration",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig(configPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
				os.Exit(1)
			}
			if err := runPlay(cfg, games); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to YAML config file")
	cmd.Flags().IntVar(&games, "games", 0, "stop after this many games (0 = run until interrupted)")
	return cmd
}

// runPlay evaluates the saved weights with epsilon forced to zero. A missing
// weights file is fatal here, unlike in training.
func runPlay(cfg *config.Config, games int) error {
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
	agent.SetEval(true)

	if err := agent.Net.Load(cfg.Model.Path); err != nil {
		if errors.Is(err, qlearning.ErrModelNotFound) {
			return fmt.Errorf("no trained model at %s: run `snakedqn train` first", cfg.Model.Path)
		}
		return err
	}
	log.Printf("loaded weights from %s", cfg.Model.Path)

	var scores []float64
	best := 0

	defer func() {
		if len(scores) == 0 {
			return
		}
		mean, std := stat.MeanStdDev(scores, nil)
		log.Printf("played %d games: best %d, mean %.2f, std %.2f", len(scores), best, mean, std)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
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

		_, done, score := env.Step(action)
		if !done {
			continue
		}

		env.Reset()
		scores = append(scores, float64(score))
		if score > best {
			best = score
		}
		log.Printf("game %d score %d best %d", len(scores), score, best)

		if len(scores)%10 == 0 {
			log.Printf("last 10 games mean %.2f", stat.Mean(scores[len(scores)-10:], nil))
		}
		if games > 0 && len(scores) >= games {
			return nil
		}
	}
}
