package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"usof/internal/models"
	"usof/internal/observability"
	"usof/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const maxCommentLen = 10000

// AuthorProjection selects how a comment response names its author.
type AuthorProjection int

const (
	WithAuthorID AuthorProjection = iota
	WithAuthorFullName
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	isAdmin     AdminChecker
}

type CreateCommentInput struct {
	Content         string
	AuthorID        string
	PostID          string
	ParentCommentID *string
}

type UpdateCommentInput struct {
	ActorID string
	Content string
}

// CommentResponse is a comment with its derived reply and reaction totals.
type CommentResponse struct {
	ID              string    `json:"id"`
	Content         string    `json:"content"`
	AuthorID        string    `json:"authorId,omitempty"`
	Author          string    `json:"author,omitempty"`
	PostID          string    `json:"postId"`
	ParentCommentID *string   `json:"parentCommentId"`
	ReplyIDs        []string  `json:"replyIds"`
	LikeCount       int64     `json:"likeCount"`
	DislikeCount    int64     `json:"dislikeCount"`
	ReplyCount      int64     `json:"replyCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	isAdmin AdminChecker,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		isAdmin:     isAdmin,
	}
}

func (s *CommentService) Create(ctx context.Context, in CreateCommentInput, proj AuthorProjection) (resp *CommentResponse, err error) {
	ctx, end := observability.StartSpan(ctx, "comment.create", attribute.String("post.id", in.PostID))
	defer func() { end(err) }()

	if blank(in.Content) {
		return nil, models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	if _, err := s.userRepo.GetByID(ctx, in.AuthorID); err != nil {
		return nil, asAuthorNotFound(err)
	}
	ok, err := s.postRepo.Exists(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrPostNotFound
	}

	if in.ParentCommentID != nil {
		if err := s.checkParent(ctx, *in.ParentCommentID, in.PostID); err != nil {
			return nil, err
		}
	}

	comment := &models.Comment{
		Content:         in.Content,
		AuthorID:        in.AuthorID,
		PostID:          in.PostID,
		ParentCommentID: in.ParentCommentID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	out, err := s.project(ctx, []*models.Comment{created}, proj)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// checkParent requires the parent to exist on the same post and to sit
// shallow enough to take another reply.
func (s *CommentService) checkParent(ctx context.Context, parentID, postID string) error {
	parent, err := s.commentRepo.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, models.ErrCommentNotFound) {
			return models.ErrParentNotFound
		}
		return err
	}
	if parent.PostID != postID {
		return models.ErrParentNotFound.WithMessage("Parent comment %s belongs to another post", parentID)
	}

	depth, err := s.Depth(ctx, parent.ID)
	if err != nil {
		return err
	}
	if depth >= models.MaxReplyDepth {
		observability.CommentDepthRejections.Inc()
		return models.ErrMaxDepthExceeded.WithMessage("Comments can only be nested %d levels deep", models.MaxReplyDepth)
	}
	return nil
}

// Depth counts parent links from the comment up to its root, which has depth 0.
// The walk gives up after MaxReplyDepth+1 hops and reports that bound, since
// any deeper value is already over the limit.
func (s *CommentService) Depth(ctx context.Context, commentID string) (int, error) {
	seen := map[string]struct{}{commentID: {}}
	current := commentID
	for depth := 0; ; depth++ {
		parent, err := s.commentRepo.ParentOf(ctx, current)
		if err != nil {
			return 0, err
		}
		if parent == nil {
			return depth, nil
		}
		if depth+1 > models.MaxReplyDepth {
			return depth + 1, nil
		}
		if _, dup := seen[*parent]; dup {
			return 0, models.ErrCommentCycle
		}
		seen[*parent] = struct{}{}
		current = *parent
	}
}

func (s *CommentService) FindOneBy(ctx context.Context, field repository.CommentField, value string, proj AuthorProjection) (*CommentResponse, error) {
	comment, err := s.commentRepo.FindOne(ctx, field, value)
	if err != nil {
		return nil, err
	}
	out, err := s.project(ctx, []*models.Comment{comment}, proj)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// FindAllBy lists comments matching filter, or every comment when filter is nil.
func (s *CommentService) FindAllBy(ctx context.Context, filter *repository.CommentFilter, proj AuthorProjection) ([]CommentResponse, error) {
	var f repository.CommentFilter
	if filter != nil {
		f = *filter
	}
	comments, err := s.commentRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, comments, proj)
}

// GetCommentsByPostID returns only the root comments of a post; replies are
// fetched level by level through GetRepliesByCommentID.
func (s *CommentService) GetCommentsByPostID(ctx context.Context, postID string) ([]CommentResponse, error) {
	ok, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrPostNotFound
	}
	return s.FindAllBy(ctx, &repository.CommentFilter{
		Field:     repository.CommentFieldPostID,
		Value:     postID,
		RootsOnly: true,
	}, WithAuthorFullName)
}

func (s *CommentService) GetRepliesByCommentID(ctx context.Context, commentID string) ([]CommentResponse, error) {
	if _, err := s.commentRepo.ParentOf(ctx, commentID); err != nil {
		return nil, err
	}
	return s.FindAllBy(ctx, &repository.CommentFilter{
		Field: repository.CommentFieldParentCommentID,
		Value: commentID,
	}, WithAuthorFullName)
}

func (s *CommentService) Update(ctx context.Context, field repository.CommentField, value string, in UpdateCommentInput) (*CommentResponse, error) {
	if blank(in.Content) {
		return nil, models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment, err := s.commentRepo.FindOne(ctx, field, value)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrAdmin(ctx, s.isAdmin, in.ActorID, comment.AuthorID, "You can only edit your own comments"); err != nil {
		return nil, err
	}
	if err := s.commentRepo.UpdateContent(ctx, comment.ID, in.Content); err != nil {
		return nil, err
	}
	return s.FindOneBy(ctx, repository.CommentFieldID, comment.ID, WithAuthorFullName)
}

// Delete removes the matching comment together with its replies and reactions.
func (s *CommentService) Delete(ctx context.Context, field repository.CommentField, value, actorID string) error {
	comment, err := s.commentRepo.FindOne(ctx, field, value)
	if err != nil {
		return err
	}
	if err := requireOwnerOrAdmin(ctx, s.isAdmin, actorID, comment.AuthorID, "You can only delete your own comments"); err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, comment.ID)
}

func (s *CommentService) project(ctx context.Context, comments []*models.Comment, proj AuthorProjection) ([]CommentResponse, error) {
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	stats, err := s.commentRepo.Stats(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		resp := CommentResponse{
			ID:              c.ID,
			Content:         c.Content,
			PostID:          c.PostID,
			ParentCommentID: c.ParentCommentID,
			ReplyIDs:        []string{},
			CreatedAt:       c.CreatedAt,
			UpdatedAt:       c.UpdatedAt,
		}
		switch proj {
		case WithAuthorFullName:
			resp.Author = c.Author.FullName
		default:
			resp.AuthorID = c.AuthorID
		}
		if st, ok := stats[c.ID]; ok {
			resp.LikeCount = st.LikeCount
			resp.DislikeCount = st.DislikeCount
			resp.ReplyCount = st.ReplyCount
			resp.ReplyIDs = st.ReplyIDs
		}
		out = append(out, resp)
	}
	return out, nil
}
