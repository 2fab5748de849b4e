// Command seed loads demo and generated data into the configured database.
package main

import (
	"context"
	"flag"
	"log"

	"socialhub/internal/config"
	"socialhub/internal/database"
	"socialhub/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 0, "Number of generated users on top of the demo accounts")
	numPosts := flag.Int("posts", 0, "Number of generated posts")
	comments := flag.Int("comments", 3, "Maximum generated comments per post")
	clean := flag.Bool("clean", false, "Delete all existing rows before seeding")
	noDemo := flag.Bool("no-demo", false, "Skip the built-in demo accounts")
	fast := flag.Bool("fast", false, "Store plain passwords (throwaway databases only)")
	randSeed := flag.Int64("seed", 0, "Random seed for generated data (0 = time based)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("❌ Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *numPosts > 0 && *numUsers == 0 {
		log.Fatal("❌ -posts needs -users to pick authors from")
	}

	res, err := seed.NewSeeder(db, seed.Options{
		Clean:           *clean,
		SkipDemo:        *noDemo,
		FakeUsers:       *numUsers,
		FakePosts:       *numPosts,
		CommentsPerPost: *comments,
		SkipBcrypt:      *fast,
		RandomSeed:      *randSeed,
	}).Run(context.Background())
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Inserted %d users, %d posts, %d comments, %d follows", res.Users, res.Posts, res.Comments, res.Follows)
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
}
