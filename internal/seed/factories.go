// Package seed provides helpers to create demo data for the forum database.
// These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"usof/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "Password123"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	hash string
}

// NewFactory creates a Factory bound to db. The password hash is computed
// once and shared by every generated user.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)

	hash := DefaultPassword
	if !opts.SkipBcrypt {
		b, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		hash = string(b)
	}

	return &Factory{
		db:   db,
		opts: opts,
		// #nosec G404: acceptable for seeding
		rng:  rand.New(rand.NewSource(seed)),
		hash: hash,
	}, nil
}

// backdate spreads created_at over the last MaxDays days.
func (f *Factory) backdate() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// BuildUser returns an unsaved user with a unique-enough username.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	username := strings.ToLower(fmt.Sprintf("%s_%s%d", first, last, gofakeit.Number(100, 9999)))
	username = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}
		return -1
	}, username)
	if len(username) > 30 {
		username = username[len(username)-30:]
	}

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: f.hash,
		FullName:     first + " " + last,
		IsVerified:   true,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost returns an unsaved ACTIVE post by author, linked to cats.
func (f *Factory) BuildPost(author *models.User, cats []models.Category, overrides ...func(*models.Post)) *models.Post {
	title := strings.TrimSuffix(gofakeit.Sentence(f.rng.Intn(6)+3), ".")
	post := &models.Post{
		Title:      title,
		Content:    gofakeit.Paragraph(1, f.rng.Intn(4)+2, 12, "\n\n"),
		AuthorID:   author.ID,
		Status:     models.PostStatusActive,
		Categories: cats,
		CreatedAt:  f.backdate(),
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost builds and persists a post together with its category links.
func (f *Factory) CreatePost(author *models.User, cats []models.Category, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, cats, overrides...)
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment on post, as a reply when parent is set.
// The caller is responsible for keeping parent within the reply depth limit.
func (f *Factory) CreateComment(author *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		Content:  gofakeit.Sentence(f.rng.Intn(12) + 4),
		AuthorID: author.ID,
		PostID:   post.ID,
	}
	if parent != nil {
		comment.ParentCommentID = &parent.ID
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateReaction persists one reaction; a dislike with probability
// DislikeRatio, a like otherwise.
func (f *Factory) CreateReaction(author *models.User, target models.ReactionTarget) (*models.Like, error) {
	likeType := models.LikeTypeLike
	if f.rng.Float64() < f.opts.DislikeRatio {
		likeType = models.LikeTypeDislike
	}
	like := &models.Like{AuthorID: author.ID, Type: likeType}
	like.SetTarget(target)
	if err := f.db.Create(like).Error; err != nil {
		return nil, err
	}
	return like, nil
}
