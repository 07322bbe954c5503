// Command main runs the database seeder for Colloquy.
package main

import (
	"flag"
	"log/slog"
	"os"

	"colloquy/internal/config"
	"colloquy/internal/database"
	"colloquy/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.Users, "users", opts.Users, "Number of users to create")
	flag.IntVar(&opts.Posts, "posts", opts.Posts, "Number of posts to create")
	flag.IntVar(&opts.CommentsPerPost, "comments", opts.CommentsPerPost, "Comments per post")
	flag.IntVar(&opts.VotesPerComment, "votes", opts.VotesPerComment, "Max votes per comment")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := seed.Seed(db, opts); err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}

	slog.Info("done, all seeded users have the password password123")
}
