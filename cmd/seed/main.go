package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"mingle/internal/bootstrap"
	"mingle/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.Users, "users", opts.Users, "number of users to create")
	flag.IntVar(&opts.PostsPerUser, "posts", opts.PostsPerUser, "posts per user")
	flag.IntVar(&opts.FollowsEach, "follows", opts.FollowsEach, "follow edges per user")
	flag.Parse()

	ctx := context.Background()
	rt, err := bootstrap.Init(ctx)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer rt.Shutdown(ctx)

	if rt.Config.IsProduction() {
		slog.Error("refusing to seed a production database")
		os.Exit(1)
	}

	if err := seed.Run(ctx, rt.DB, opts); err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}
}
