// Command main runs the demo data seeder for Tradehub.
package main

import (
	"context"
	"flag"
	"log"

	"tradehub/internal/config"
	"tradehub/internal/database"
	"tradehub/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	opts := defaults
	flag.IntVar(&opts.Users, "users", defaults.Users, "Number of users to create")
	flag.IntVar(&opts.TradesPerUser, "trades", defaults.TradesPerUser, "Trades per user")
	flag.IntVar(&opts.PostsPerUser, "posts", defaults.PostsPerUser, "Forum posts per user")
	flag.IntVar(&opts.EventsPerUser, "events", defaults.EventsPerUser, "Events per user")
	flag.IntVar(&opts.WishlistPerUser, "wishlist", defaults.WishlistPerUser, "Wishlist items per user")
	flag.IntVar(&opts.CommentsPerItem, "comments", defaults.CommentsPerItem, "Maximum comments per listing")
	flag.IntVar(&opts.Vouches, "vouches", defaults.Vouches, "Number of vouches")
	flag.IntVar(&opts.Reports, "reports", defaults.Reports, "Number of reports")
	flag.BoolVar(&opts.Reset, "clean", true, "Clean database before seeding")
	flag.Int64Var(&opts.RandSeed, "rand-seed", 0, "Fixed random seed for reproducible data")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Printf("Seeding %d users (clean=%v)", opts.Users, opts.Reset)
	sum, err := seed.Seed(context.Background(), db, opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Done: %s", sum)
	log.Printf("All demo users share the password: %s", opts.Password)
}
