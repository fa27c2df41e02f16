// Demo of the option-critic agent learning pendulum swing-up on a
// vectorized environment
package main

import (
	"fmt"
	"log"

	"sfneuman.com/a2oc/agent/nonlinear/hierarchical/aoc"
	"sfneuman.com/a2oc/environment/pendulum"
	"sfneuman.com/a2oc/tracker"
	"sfneuman.com/a2oc/utils/progressbar"
)

func main() {
	var seed uint64 = 192382

	numEnvs := 8
	horizon := 64
	updates := 250
	maxEpisodeSteps := 200

	env, err := pendulum.NewContinuous(numEnvs, maxEpisodeSteps, seed)
	if err != nil {
		log.Fatalf("could not create environment: %v", err)
	}

	config, err := aoc.DefaultGaussianConfig(horizon)
	if err != nil {
		log.Fatalf("could not create configuration: %v", err)
	}

	agent, err := config.CreateAgent(env, seed)
	if err != nil {
		log.Fatalf("could not create agent: %v", err)
	}

	returns := tracker.NewReturn("returns.bin", numEnvs)
	losses := tracker.NewLoss("losses.bin")

	totalSteps := updates * horizon
	bar := progressbar.New(25, totalSteps)

	obs := env.Reset()
	agent.Reset()

	for step := 0; step < totalSteps; step++ {
		actions, pending, err := agent.SelectActions(obs)
		if err != nil {
			log.Fatalf("could not select actions: %v", err)
		}

		nextObs, rewards, done, err := env.Step(actions)
		if err != nil {
			log.Fatalf("could not step environment: %v", err)
		}

		err = agent.Store(pending, obs, actions, rewards, nextObs, done)
		if err != nil {
			log.Fatalf("could not store transition: %v", err)
		}
		if err := agent.PartialReset(done); err != nil {
			log.Fatalf("could not reset agent: %v", err)
		}

		returns.Track(rewards, done)
		obs = nextObs

		if (step+1)%horizon == 0 {
			summary, err := agent.Learn()
			if err != nil {
				log.Fatalf("could not update agent: %v", err)
			}
			losses.Track(summary)
		}

		bar.Increment()
		if step%horizon == 0 || step == totalSteps-1 {
			bar.Display()
		}
	}
	fmt.Println()

	returns.Save()
	losses.Save()
}
