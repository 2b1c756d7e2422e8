// Command main runs the database seeder for the forum.
package main

import (
	"flag"
	"log"

	"usof/internal/config"
	"usof/internal/database"
	"usof/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	comments := flag.Int("comments", 5, "Comments per post")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	preset := flag.String("preset", "", "Named preset (minimal, demo, load) or path to a YAML preset")
	flag.Parse()

	log.Println("🌱 usof seeder")

	opts := seed.Options{
		NumUsers:         *numUsers,
		NumPosts:         *numPosts,
		CommentsPerPost:  *comments,
		ReplyRatio:       0.4,
		ReactionsPerPost: 5,
		DislikeRatio:     0.2,
	}
	if *preset != "" {
		p, err := seed.LoadPreset(*preset)
		if err != nil {
			log.Fatalf("Failed to load preset: %v", err)
		}
		log.Printf("Applying preset: %s (ignoring size flags)\n", *preset)
		opts = p
	} else {
		log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s, err := seed.NewSeeder(db, opts)
	if err != nil {
		log.Fatalf("Failed to create seeder: %v", err)
	}

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	sum, err := s.Run()
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Seeded %d users, %d posts, %d comments, %d reactions",
		sum.Users, sum.Posts, sum.Comments, sum.Reactions)
	log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)
}
