// Command main populates a throwaway network with demo data and prints it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"murmur/internal/config"
	"murmur/internal/seed"
	"murmur/internal/service"
)

func main() {
	numAccounts := flag.Int("accounts", 12, "Number of accounts to create")
	numPosts := flag.Int("posts", 30, "Number of posts to create")
	followRate := flag.Float64("follow-rate", 0.3, "Chance that one account follows another")
	randSeed := flag.Int64("seed", 0, "Random seed; 0 picks one from the clock")
	asYAML := flag.Bool("yaml", false, "Print a YAML snapshot instead of the summary")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	network, err := service.NewProvider(
		service.WithBcryptCost(cfg.BcryptCost),
		service.WithMediaRoot(cfg.MediaRoot),
	).CreateNetwork(cfg.NetworkName)
	if err != nil {
		log.Fatalf("Failed to create network: %v", err)
	}

	opts := seed.DefaultOptions()
	opts.Accounts = *numAccounts
	opts.Posts = *numPosts
	opts.FollowRate = *followRate
	opts.Seed = *randSeed

	if _, err := seed.NewSeeder(network, opts).Run(context.Background()); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	if !*asYAML {
		fmt.Print(network.RenderNetworkSummary())
		fmt.Printf("\nAll demo accounts use the password: %s\n", seed.DemoPassword)
		return
	}

	snap, err := seed.TakeSnapshot(network)
	if err != nil {
		log.Fatalf("Snapshot failed: %v", err)
	}
	if err := snap.WriteYAML(os.Stdout); err != nil {
		log.Fatalf("Snapshot failed: %v", err)
	}
}
