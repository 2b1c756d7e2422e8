package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"usof/internal/models"
	"usof/internal/observability"
	"usof/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxTitleLen   = 300
	maxContentLen = 50000

	defaultPageLimit = 10
	maxPageLimit     = 100

	unknownAuthor = "Unknown"
)

type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	isAdmin  AdminChecker
}

type CreatePostInput struct {
	Title       string
	Content     string
	AuthorID    string
	CategoryIDs []string
}

// UpdatePostInput changes only the non-nil fields. A non-nil CategoryIDs
// replaces the whole category set.
type UpdatePostInput struct {
	ActorID     string
	Title       *string
	Content     *string
	Status      *models.PostStatus
	CategoryIDs []string
}

// PostFilter narrows FindAllBy to posts whose Field equals Value.
type PostFilter struct {
	Field repository.PostField
	Value string
}

// PostListParams are the raw listing options; GetPaginatedPosts normalizes them.
type PostListParams struct {
	Page       int
	Limit      int
	Search     string
	SortOption string
	SortOrder  string
	Category   string
}

type PostResponse struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Content        string            `json:"content"`
	Status         models.PostStatus `json:"status"`
	AuthorID       string            `json:"authorId"`
	Author         string            `json:"author"`
	CategoryTitles []string          `json:"categoryTitles"`
	LikesCount     int64             `json:"likesCount"`
	DislikesCount  int64             `json:"dislikesCount"`
	CommentsCount  int64             `json:"commentsCount"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

type PaginatedPosts struct {
	Posts      []PostResponse `json:"posts"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	isAdmin AdminChecker,
) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
		isAdmin:  isAdmin,
	}
}

func validateTitle(title string) error {
	if blank(title) {
		return models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 300 characters)")
	}
	return nil
}

func validateContent(content string) error {
	if blank(content) {
		return models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return models.NewValidationError("Content too long (max 50000 characters)")
	}
	return nil
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*PostResponse, error) {
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}
	if len(in.CategoryIDs) == 0 {
		return nil, models.NewValidationError("At least one category is required")
	}

	if _, err := s.userRepo.GetByID(ctx, in.AuthorID); err != nil {
		return nil, asAuthorNotFound(err)
	}

	post := &models.Post{
		Title:    in.Title,
		Content:  in.Content,
		Status:   models.PostStatusActive,
		AuthorID: in.AuthorID,
	}
	if err := s.postRepo.Create(ctx, post, in.CategoryIDs); err != nil {
		return nil, err
	}

	return s.FindOneBy(ctx, repository.PostFieldID, post.ID)
}

func (s *PostService) FindOneBy(ctx context.Context, field repository.PostField, value string) (*PostResponse, error) {
	post, err := s.postRepo.FindOne(ctx, field, value)
	if err != nil {
		return nil, err
	}
	resp := toPostResponse(post)
	return &resp, nil
}

// FindAllBy lists posts of any status, newest first. A nil filter lists all.
func (s *PostService) FindAllBy(ctx context.Context, filter *PostFilter) ([]PostResponse, error) {
	var (
		field repository.PostField
		value string
	)
	if filter != nil {
		field, value = filter.Field, filter.Value
	}
	posts, err := s.postRepo.FindAll(ctx, field, value)
	if err != nil {
		return nil, err
	}
	return toPostResponses(posts), nil
}

// GetPaginatedPosts lists ACTIVE posts. Page is clamped to at least 1, limit
// defaults to 10 within [1,100], and order is DESC unless ASC is asked for.
func (s *PostService) GetPaginatedPosts(ctx context.Context, params PostListParams) (result *PaginatedPosts, err error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	ctx, end := observability.StartSpan(ctx, "post.list",
		attribute.Int("page", page),
		attribute.Int("limit", limit),
		attribute.String("sort", params.SortOption),
	)
	defer func() { end(err) }()

	posts, total, err := s.postRepo.ListPaginated(ctx, repository.PostQuery{
		Offset:   (page - 1) * limit,
		Limit:    limit,
		Search:   strings.TrimSpace(params.Search),
		Category: strings.TrimSpace(params.Category),
		SortBy:   strings.ToLower(params.SortOption),
		Asc:      strings.EqualFold(params.SortOrder, "ASC"),
	})
	if err != nil {
		return nil, err
	}

	return &PaginatedPosts{
		Posts:      toPostResponses(posts),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// GetAllPostsByUser returns the user's ACTIVE posts, newest first, unpaginated.
func (s *PostService) GetAllPostsByUser(ctx context.Context, userID string) ([]PostResponse, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, asAuthorNotFound(err)
	}
	posts, err := s.postRepo.ListByAuthor(ctx, userID, models.PostStatusActive)
	if err != nil {
		return nil, err
	}
	return toPostResponses(posts), nil
}

func (s *PostService) Update(ctx context.Context, field repository.PostField, value string, in UpdatePostInput) (*PostResponse, error) {
	if in.Title != nil {
		if err := validateTitle(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.Content != nil {
		if err := validateContent(*in.Content); err != nil {
			return nil, err
		}
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, models.NewValidationError("Status must be ACTIVE or INACTIVE")
	}
	if in.CategoryIDs != nil && len(in.CategoryIDs) == 0 {
		return nil, models.NewValidationError("At least one category is required")
	}

	post, err := s.postRepo.FindOne(ctx, field, value)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrAdmin(ctx, s.isAdmin, in.ActorID, post.AuthorID, "You can only edit your own posts"); err != nil {
		return nil, err
	}

	err = s.postRepo.Update(ctx, post.ID, repository.PostUpdate{
		Title:       in.Title,
		Content:     in.Content,
		Status:      in.Status,
		CategoryIDs: in.CategoryIDs,
	})
	if err != nil {
		return nil, err
	}
	return s.FindOneBy(ctx, repository.PostFieldID, post.ID)
}

func (s *PostService) Delete(ctx context.Context, field repository.PostField, value, actorID string) error {
	post, err := s.postRepo.FindOne(ctx, field, value)
	if err != nil {
		return err
	}
	if err := requireOwnerOrAdmin(ctx, s.isAdmin, actorID, post.AuthorID, "You can only delete your own posts"); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, post.ID)
}

func toPostResponse(p *models.Post) PostResponse {
	author := p.Author.FullName
	if author == "" {
		author = unknownAuthor
	}
	return PostResponse{
		ID:             p.ID,
		Title:          p.Title,
		Content:        p.Content,
		Status:         p.Status,
		AuthorID:       p.AuthorID,
		Author:         author,
		CategoryTitles: p.CategoryTitles(),
		LikesCount:     p.LikesCount,
		DislikesCount:  p.DislikesCount,
		CommentsCount:  p.CommentsCount,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toPostResponses(posts []*models.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	return out
}
