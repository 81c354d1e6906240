// Package app holds the publisher's core workflows: OAuth account connect,
// the draft to approved to posted lifecycle, and scheduled publishing over
// the redis stream queue.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"estatecast/internal/servicetoken"
	"estatecast/pkg/domain"
	"estatecast/pkg/graph"
	"estatecast/pkg/queue"
	"estatecast/pkg/secrets"
	"estatecast/pkg/store"
)

// DefaultUserID scopes requests that carry no user identity. The frontend is
// single-tenant today but every record is keyed by user for when it is not.
const DefaultUserID = "default_user"

// connectedTokenGrace is how long a freshly connected page token is assumed
// valid. Long-lived page tokens are refreshed by reconnecting.
const connectedTokenGrace = 60 * 24 * time.Hour

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL         string
	Store               store.Store
	FacebookAppID       string
	FacebookAppSecret   string
	FacebookRedirectURL string
	Graph               *graph.Client
	TokenSealKey        string
	MediaURL            string
	InternalTokenSecret string
	PublicBaseURL       string
	RedisAddr           string
	RedisPassword       string
	QueueName           string
	QueueGroup          string
	QueueMaxRetries     int
	PublishConcurrency  int
}

// App is the core application service wiring together accounts, posts,
// schedules, and the publish pipeline.
type App struct {
	store         store.Store
	sealer        *secrets.Sealer
	graph         *graph.Client
	media         mediaClient
	states        StateStore
	queue         *queue.RedisJobQueue
	redirectURL   string
	publicBaseURL string
	publishLimit  int
}

// New constructs the publisher with database-backed persistence and a redis
// stream publish queue. The queue consumers are not running until
// StartWorkers is called.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	if cfg.TokenSealKey == "" {
		return nil, fmt.Errorf("token seal key required")
	}
	sealer, err := secrets.NewSealer(cfg.TokenSealKey)
	if err != nil {
		return nil, fmt.Errorf("init token sealer: %w", err)
	}

	graphClient := cfg.Graph
	if graphClient == nil {
		if cfg.FacebookAppID == "" || cfg.FacebookAppSecret == "" {
			return nil, fmt.Errorf("facebook app credentials required")
		}
		graphClient = graph.New(graph.Config{
			AppID:     cfg.FacebookAppID,
			AppSecret: cfg.FacebookAppSecret,
		})
	}
	if cfg.FacebookRedirectURL == "" {
		return nil, fmt.Errorf("oauth redirect URL required")
	}

	var media mediaClient
	if cfg.MediaURL != "" {
		signer, err := servicetoken.NewSignerWithOptions(servicetoken.SignerOptions{
			Secret: cfg.InternalTokenSecret,
			Issuer: "publisher",
		})
		if err != nil {
			return nil, fmt.Errorf("init media signer: %w", err)
		}
		media, err = newMediaClient(cfg.MediaURL, signer)
		if err != nil {
			return nil, err
		}
	}

	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis addr required")
	}
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	states := newRedisStateStore(redisClient, DefaultStateTTL)

	q, err := queue.NewRedisJobQueue(queue.RedisQueueConfig{
		Addr:       cfg.RedisAddr,
		Password:   cfg.RedisPassword,
		Stream:     defaultQueueName(cfg.QueueName),
		Group:      defaultQueueGroup(cfg.QueueGroup),
		MaxRetries: cfg.QueueMaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("init publish queue: %w", err)
	}

	concurrency := cfg.PublishConcurrency
	if concurrency <= 0 {
		concurrency = 2
	}

	app := &App{
		store:         dataStore,
		sealer:        sealer,
		graph:         graphClient,
		media:         media,
		states:        states,
		queue:         q,
		redirectURL:   cfg.FacebookRedirectURL,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		publishLimit:  concurrency,
	}
	return app, nil
}

// BeginFacebookLogin registers a fresh state token and returns the login
// dialog URL to send the user to.
func (a *App) BeginFacebookLogin(ctx context.Context) (string, error) {
	state, err := graph.NewStateToken()
	if err != nil {
		return "", err
	}
	if err := a.states.Put(ctx, state); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return a.graph.AuthURL(a.redirectURL, state), nil
}

// CompleteFacebookLogin redeems the callback state, exchanges the code, and
// returns the pages and Instagram accounts the user can connect.
func (a *App) CompleteFacebookLogin(ctx context.Context, state, code string) ([]graph.Account, error) {
	ok, err := a.states.Take(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("redeem oauth state: %w", err)
	}
	if !ok {
		return nil, ErrInvalidOAuthState
	}
	userToken, err := a.graph.ExchangeCode(ctx, code, a.redirectURL)
	if err != nil {
		return nil, err
	}
	return a.graph.ListAccounts(ctx, userToken)
}

// ConnectAccountParams identifies one publishing target chosen after the
// OAuth flow.
type ConnectAccountParams struct {
	UserID            string
	Platform          string
	PlatformAccountID string
	Name              string
	AccessToken       string
}

// ConnectAccount seals the access token and stores the account, reactivating
// and refreshing it when the same platform identity is already connected.
func (a *App) ConnectAccount(params ConnectAccountParams) (domain.Account, error) {
	if strings.TrimSpace(params.UserID) == "" {
		return domain.Account{}, fmt.Errorf("%w: userId", ErrFieldRequired)
	}
	if strings.TrimSpace(params.PlatformAccountID) == "" {
		return domain.Account{}, fmt.Errorf("%w: accountId", ErrFieldRequired)
	}
	if strings.TrimSpace(params.Name) == "" {
		return domain.Account{}, fmt.Errorf("%w: accountName", ErrFieldRequired)
	}
	if strings.TrimSpace(params.AccessToken) == "" {
		return domain.Account{}, fmt.Errorf("%w: accessToken", ErrFieldRequired)
	}
	platform, ok := domain.ParsePlatform(params.Platform)
	if !ok {
		return domain.Account{}, ErrUnknownPlatform
	}

	sealed, err := a.sealer.Seal(params.AccessToken)
	if err != nil {
		return domain.Account{}, fmt.Errorf("seal access token: %w", err)
	}
	now := time.Now().UTC()

	existing, found, err := a.store.GetAccountByExternal(params.UserID, platform, params.PlatformAccountID)
	if err != nil {
		return domain.Account{}, err
	}
	if found {
		existing.AccessToken = sealed
		existing.Name = params.Name
		existing.Active = true
		existing.UpdatedAt = now
		if err := a.store.SaveAccount(existing); err != nil {
			return domain.Account{}, fmt.Errorf("save account: %w", err)
		}
		return existing, nil
	}

	expiry := now.Add(connectedTokenGrace)
	account := domain.Account{
		ID:                uuid.NewString(),
		UserID:            params.UserID,
		Platform:          platform,
		PlatformAccountID: params.PlatformAccountID,
		Name:              params.Name,
		AccessToken:       sealed,
		TokenExpiresAt:    &expiry,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := a.store.SaveAccount(account); err != nil {
		return domain.Account{}, fmt.Errorf("save account: %w", err)
	}
	return account, nil
}

// ListAccounts returns a user's active accounts with post counts.
func (a *App) ListAccounts(userID string) ([]domain.Account, error) {
	return a.store.ListAccountsByUser(userID, true)
}

// DisconnectAccount deactivates an account. The sealed token stays on the
// row so reconnecting the same page keeps its post history.
func (a *App) DisconnectAccount(id string) error {
	_, ok, err := a.store.GetAccount(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccountNotFound
	}
	return a.store.DeactivateAccount(id)
}

// CreatePostParams carries a new draft post.
type CreatePostParams struct {
	AccountID   string
	Content     string
	Hashtags    []string
	ImagePrompt string
	ScheduledAt *time.Time
}

// CreatePost stores a draft post for an active account. When an image prompt
// is given and the media service is configured, a platform-sized image is
// generated up front; generation failure leaves the post imageless.
func (a *App) CreatePost(ctx context.Context, params CreatePostParams) (domain.Post, error) {
	if strings.TrimSpace(params.AccountID) == "" {
		return domain.Post{}, fmt.Errorf("%w: accountId", ErrFieldRequired)
	}
	if strings.TrimSpace(params.Content) == "" {
		return domain.Post{}, fmt.Errorf("%w: content", ErrFieldRequired)
	}
	account, ok, err := a.store.GetAccount(params.AccountID)
	if err != nil {
		return domain.Post{}, err
	}
	if !ok || !account.Active {
		return domain.Post{}, ErrAccountUnavailable
	}

	now := time.Now().UTC()
	post := domain.Post{
		ID:          uuid.NewString(),
		AccountID:   account.ID,
		Content:     params.Content,
		Hashtags:    params.Hashtags,
		ImagePrompt: strings.TrimSpace(params.ImagePrompt),
		Status:      domain.PostDraft,
		ScheduledAt: params.ScheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if post.ImagePrompt != "" && a.media != nil {
		imagePath, err := a.media.GenerateImage(ctx, post.ImagePrompt, account.Platform)
		if err != nil {
			slog.Warn("post image generation failed", "accountId", account.ID, "error", err)
		} else {
			post.ImageURL = imagePath
		}
	}
	if err := a.store.SavePost(post); err != nil {
		return domain.Post{}, fmt.Errorf("save post: %w", err)
	}
	return post, nil
}

// GetPost retrieves a post by ID.
func (a *App) GetPost(id string) (domain.Post, error) {
	post, ok, err := a.store.GetPost(id)
	if err != nil {
		return domain.Post{}, err
	}
	if !ok {
		return domain.Post{}, ErrPostNotFound
	}
	return post, nil
}

// ListPosts returns a user's posts newest first, optionally filtered by
// lifecycle status.
func (a *App) ListPosts(userID, status string, limit int) ([]domain.Post, error) {
	var filter domain.PostStatus
	if status != "" {
		parsed, ok := domain.ParsePostStatus(status)
		if !ok {
			return nil, ErrUnknownStatus
		}
		filter = parsed
	}
	return a.store.ListPostsByUser(userID, filter, limit)
}

// ApprovePost moves a draft to approved. Posts without a scheduled time are
// published immediately; scheduled ones wait for the scheduler sweep.
func (a *App) ApprovePost(ctx context.Context, id string) (domain.Post, error) {
	post, ok, err := a.store.GetPost(id)
	if err != nil {
		return domain.Post{}, err
	}
	if !ok {
		return domain.Post{}, ErrPostNotFound
	}
	if post.Status != domain.PostDraft {
		return domain.Post{}, ErrPostNotDraft
	}
	post.Status = domain.PostApproved
	post.UpdatedAt = time.Now().UTC()
	if err := a.store.SavePost(post); err != nil {
		return domain.Post{}, fmt.Errorf("save post: %w", err)
	}
	if post.ScheduledAt == nil {
		return a.PublishPost(ctx, post.ID)
	}
	return post, nil
}

// PublishPost pushes a post to its platform and records the outcome. A
// platform rejection marks the post failed and returns ErrPublishFailed so
// callers can distinguish it from infrastructure errors.
func (a *App) PublishPost(ctx context.Context, id string) (domain.Post, error) {
	post, ok, err := a.store.GetPost(id)
	if err != nil {
		return domain.Post{}, err
	}
	if !ok {
		return domain.Post{}, ErrPostNotFound
	}
	account, ok, err := a.store.GetAccount(post.AccountID)
	if err != nil {
		return domain.Post{}, err
	}
	if !ok || !account.Active {
		return domain.Post{}, ErrAccountUnavailable
	}
	pageToken, err := a.sealer.Open(account.AccessToken)
	if err != nil {
		return domain.Post{}, fmt.Errorf("unseal access token: %w", err)
	}

	message := composeMessage(post)
	imageURL := a.publicImageURL(post.ImageURL)

	var platformPostID string
	var publishErr error
	switch account.Platform {
	case domain.PlatformFacebook:
		platformPostID, publishErr = a.graph.PublishFacebook(ctx, account.PlatformAccountID, pageToken, message, imageURL)
	case domain.PlatformInstagram:
		platformPostID, publishErr = a.graph.PublishInstagram(ctx, account.PlatformAccountID, pageToken, message, imageURL)
	default:
		return domain.Post{}, ErrUnknownPlatform
	}

	now := time.Now().UTC()
	post.UpdatedAt = now
	if publishErr != nil {
		post.Status = domain.PostFailed
		post.ErrorMessage = publishErr.Error()
		if err := a.store.SavePost(post); err != nil {
			return domain.Post{}, fmt.Errorf("save post: %w", err)
		}
		slog.Warn("post publish failed", "postId", post.ID, "platform", account.Platform, "error", publishErr)
		return post, fmt.Errorf("%w: %v", ErrPublishFailed, publishErr)
	}

	post.Status = domain.PostPosted
	post.PostedAt = &now
	post.PlatformPostID = platformPostID
	post.ErrorMessage = ""
	if err := a.store.SavePost(post); err != nil {
		return domain.Post{}, fmt.Errorf("save post: %w", err)
	}
	slog.Info("post published", "postId", post.ID, "platform", account.Platform, "platformPostId", platformPostID)
	return post, nil
}

// DeletePost removes a post.
func (a *App) DeletePost(id string) error {
	_, ok, err := a.store.GetPost(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPostNotFound
	}
	return a.store.DeletePost(id)
}

// CreateScheduleParams carries a new posting schedule. Config is opaque to
// the backend; the frontend reads it back as written.
type CreateScheduleParams struct {
	UserID      string
	Name        string
	Description string
	Config      map[string]any
}

// CreateSchedule stores a posting schedule.
func (a *App) CreateSchedule(params CreateScheduleParams) (domain.Schedule, error) {
	if strings.TrimSpace(params.UserID) == "" {
		return domain.Schedule{}, fmt.Errorf("%w: userId", ErrFieldRequired)
	}
	if strings.TrimSpace(params.Name) == "" {
		return domain.Schedule{}, fmt.Errorf("%w: name", ErrFieldRequired)
	}
	now := time.Now().UTC()
	schedule := domain.Schedule{
		ID:          uuid.NewString(),
		UserID:      params.UserID,
		Name:        params.Name,
		Description: params.Description,
		Active:      true,
		Config:      params.Config,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.SaveSchedule(schedule); err != nil {
		return domain.Schedule{}, fmt.Errorf("save schedule: %w", err)
	}
	return schedule, nil
}

// ListSchedules returns a user's posting schedules.
func (a *App) ListSchedules(userID string) ([]domain.Schedule, error) {
	return a.store.ListSchedulesByUser(userID)
}

// DeleteSchedule removes a posting schedule.
func (a *App) DeleteSchedule(id string) error {
	_, ok, err := a.store.GetSchedule(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrScheduleNotFound
	}
	return a.store.DeleteSchedule(id)
}

// StartWorkers launches the queue consumers. They exit when ctx is
// cancelled, so shutdown can stop pulling new jobs by cancelling it.
func (a *App) StartWorkers(ctx context.Context) {
	a.queue.Start(ctx, a.publishLimit, a.publishJob)
}

// publishJob runs one queued publish attempt. Posts that vanished or lost
// their account are dropped instead of retried.
func (a *App) publishJob(ctx context.Context, job queue.JobStatus) error {
	_, err := a.PublishPost(ctx, job.PostID)
	switch {
	case err == nil:
		return nil
	case isDroppableJobErr(err):
		slog.Warn("dropping publish job", "postId", job.PostID, "error", err)
		return nil
	default:
		return err
	}
}

// isDroppableJobErr reports errors no number of retries will fix.
func isDroppableJobErr(err error) bool {
	return errors.Is(err, ErrPostNotFound) ||
		errors.Is(err, ErrAccountUnavailable) ||
		errors.Is(err, ErrUnknownPlatform)
}

// composeMessage joins content and hashtags into the platform message body.
func composeMessage(post domain.Post) string {
	if len(post.Hashtags) == 0 {
		return post.Content
	}
	return post.Content + "\n\n" + strings.Join(post.Hashtags, " ")
}

// publicImageURL resolves a stored image path to something the platform can
// fetch. Relative paths need the public base URL; without one the image is
// dropped from the post.
func (a *App) publicImageURL(imageURL string) string {
	if imageURL == "" || !strings.HasPrefix(imageURL, "/") {
		return imageURL
	}
	if a.publicBaseURL == "" {
		return ""
	}
	return a.publicBaseURL + imageURL
}

func defaultQueueName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "estatecast:publish"
	}
	return name
}

func defaultQueueGroup(name string) string {
	if strings.TrimSpace(name) == "" {
		return "publisher"
	}
	return name
}
