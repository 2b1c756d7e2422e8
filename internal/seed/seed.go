package seed

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"usof/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Options configure a seeding run. Zero values fall back to small defaults.
type Options struct {
	NumUsers         int     `yaml:"users"`
	NumPosts         int     `yaml:"posts"`
	CommentsPerPost  int     `yaml:"comments_per_post"`
	ReplyRatio       float64 `yaml:"reply_ratio"`
	ReactionsPerPost int     `yaml:"reactions_per_post"`
	DislikeRatio     float64 `yaml:"dislike_ratio"`
	MaxDays          int     `yaml:"max_days"`
	SkipBcrypt       bool    `yaml:"skip_bcrypt"`
	RandomSeed       int64   `yaml:"random_seed"`
}

func (o Options) withDefaults() Options {
	if o.NumUsers <= 0 {
		o.NumUsers = 10
	}
	if o.NumPosts < 0 {
		o.NumPosts = 0
	}
	if o.ReplyRatio < 0 || o.ReplyRatio > 1 {
		o.ReplyRatio = 0.4
	}
	if o.DislikeRatio < 0 || o.DislikeRatio > 1 {
		o.DislikeRatio = 0.2
	}
	return o
}

// Presets are the named sizes accepted by cmd/seed -preset.
var Presets = map[string]Options{
	"minimal": {NumUsers: 3, NumPosts: 5, CommentsPerPost: 2, ReplyRatio: 0.5, ReactionsPerPost: 2, DislikeRatio: 0.2},
	"demo":    {NumUsers: 25, NumPosts: 120, CommentsPerPost: 6, ReplyRatio: 0.4, ReactionsPerPost: 10, DislikeRatio: 0.2},
	"load":    {NumUsers: 200, NumPosts: 2000, CommentsPerPost: 10, ReplyRatio: 0.5, ReactionsPerPost: 40, DislikeRatio: 0.25, SkipBcrypt: true},
}

// LoadPreset resolves name against Presets first, then as a YAML file path.
func LoadPreset(name string) (Options, error) {
	if opts, ok := Presets[strings.ToLower(name)]; ok {
		return opts, nil
	}
	raw, err := os.ReadFile(name) // #nosec G304: operator-supplied path
	if err != nil {
		return Options{}, fmt.Errorf("unknown preset %q: %w", name, err)
	}
	return ParsePreset(raw)
}

// ParsePreset decodes a YAML preset. Unknown keys are rejected.
func ParsePreset(raw []byte) (Options, error) {
	var opts Options
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil {
		return Options{}, fmt.Errorf("parse preset: %w", err)
	}
	return opts, nil
}

// Summary counts what a run created.
type Summary struct {
	Users     int
	Posts     int
	Comments  int
	Reactions int
}

// Seeder populates the database with users, posts, comment threads and
// reactions.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	opts = opts.withDefaults()
	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, opts: opts, factory: f}, nil
}

// ClearAll removes forum content and users. Categories are kept.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"likes", "comments", "post_categories", "posts", "users"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// Run creates the configured amount of data on top of the built-in categories.
func (s *Seeder) Run() (*Summary, error) {
	cats, err := Categories(s.db)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, u)
	}
	if len(users) == 0 {
		return nil, errors.New("no users could be created")
	}
	sum.Users = len(users)
	log.Printf("✓ %d users created", sum.Users)

	for i := 0; i < s.opts.NumPosts; i++ {
		author := users[s.factory.rng.Intn(len(users))]
		post, err := s.factory.CreatePost(author, s.pickCategories(cats))
		if err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		sum.Posts++

		comments, err := s.thread(post, users)
		if err != nil {
			return nil, err
		}
		sum.Comments += len(comments)

		n, err := s.react(models.PostTarget(post.ID), users, s.opts.ReactionsPerPost)
		if err != nil {
			return nil, err
		}
		sum.Reactions += n
		for _, c := range comments {
			n, err := s.react(models.CommentTarget(c.ID), users, s.opts.ReactionsPerPost/4)
			if err != nil {
				return nil, err
			}
			sum.Reactions += n
		}

		if (i+1)%100 == 0 {
			log.Printf("Created %d posts...", i+1)
		}
	}

	log.Printf("✓ %d posts, %d comments, %d reactions created", sum.Posts, sum.Comments, sum.Reactions)
	return sum, nil
}

// pickCategories returns one to three distinct categories.
func (s *Seeder) pickCategories(cats []models.Category) []models.Category {
	if len(cats) == 0 {
		return nil
	}
	n := s.factory.rng.Intn(3) + 1
	if n > len(cats) {
		n = len(cats)
	}
	perm := s.factory.rng.Perm(len(cats))[:n]
	picked := make([]models.Category, 0, n)
	for _, idx := range perm {
		picked = append(picked, cats[idx])
	}
	return picked
}

// thread creates CommentsPerPost comments. Each one replies to an earlier
// comment with probability ReplyRatio, as long as that keeps it within
// models.MaxReplyDepth.
func (s *Seeder) thread(post *models.Post, users []*models.User) ([]*models.Comment, error) {
	type placed struct {
		comment *models.Comment
		depth   int
	}
	var open []placed
	created := make([]*models.Comment, 0, s.opts.CommentsPerPost)

	for i := 0; i < s.opts.CommentsPerPost; i++ {
		author := users[s.factory.rng.Intn(len(users))]
		var parent *models.Comment
		depth := 0
		if len(open) > 0 && s.factory.rng.Float64() < s.opts.ReplyRatio {
			p := open[s.factory.rng.Intn(len(open))]
			parent, depth = p.comment, p.depth+1
		}

		c, err := s.factory.CreateComment(author, post, parent)
		if err != nil {
			return nil, fmt.Errorf("create comment: %w", err)
		}
		created = append(created, c)
		if depth < models.MaxReplyDepth {
			open = append(open, placed{comment: c, depth: depth})
		}
	}
	return created, nil
}

// react adds up to n reactions to target from distinct users.
func (s *Seeder) react(target models.ReactionTarget, users []*models.User, n int) (int, error) {
	if n > len(users) {
		n = len(users)
	}
	for i, idx := range s.factory.rng.Perm(len(users))[:n] {
		if _, err := s.factory.CreateReaction(users[idx], target); err != nil {
			return i, fmt.Errorf("create reaction on %s: %w", target, err)
		}
	}
	return n, nil
}
