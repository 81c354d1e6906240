package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"estatecast/pkg/domain"
)

const migrateLockID int64 = 84218421

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&AccountModel{}, &PostModel{}, &ImageGenerationModel{}, &ScheduleModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		if err := tx.Exec(`
			DO $$
			BEGIN
				DELETE FROM post_models p
				WHERE NOT EXISTS (SELECT 1 FROM account_models a WHERE a.id = p.account_id);
				IF NOT EXISTS (
					SELECT 1 FROM information_schema.table_constraints
					WHERE table_schema = 'public'
					AND table_name = 'post_models'
					AND constraint_name = 'post_models_account_id_fkey'
				) THEN
					ALTER TABLE post_models
					ADD CONSTRAINT post_models_account_id_fkey
					FOREIGN KEY (account_id) REFERENCES account_models(id) ON DELETE CASCADE;
				END IF;
			END $$;
		`).Error; err != nil {
			return fmt.Errorf("ensure post foreign keys: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// SaveAccount stores or updates a connected account. The identity columns
// are immutable once created.
func (s *GormStore) SaveAccount(a domain.Account) error {
	model := accountToModel(a)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "access_token", "token_expires_at", "active", "updated_at"}),
	}).Create(&model).Error
}

// GetAccount retrieves an account by ID.
func (s *GormStore) GetAccount(id string) (domain.Account, bool, error) {
	var model AccountModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Account{}, false, nil
		}
		return domain.Account{}, false, err
	}
	return accountFromModel(model), true, nil
}

// GetAccountByExternal looks up an account by its platform identity.
func (s *GormStore) GetAccountByExternal(userID string, platform domain.Platform, platformAccountID string) (domain.Account, bool, error) {
	var model AccountModel
	err := s.db.
		Where("user_id = ? AND platform = ? AND platform_account_id = ?", userID, string(platform), platformAccountID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Account{}, false, nil
		}
		return domain.Account{}, false, err
	}
	return accountFromModel(model), true, nil
}

// ListAccountsByUser returns a user's accounts ordered by created_at, with
// per-account post counts attached.
func (s *GormStore) ListAccountsByUser(userID string, activeOnly bool) ([]domain.Account, error) {
	tx := s.db.Where("user_id = ?", userID).Order("created_at ASC")
	if activeOnly {
		tx = tx.Where("active = ?", true)
	}
	var models []AccountModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	counts, err := s.postCounts(models)
	if err != nil {
		return nil, err
	}
	res := make([]domain.Account, 0, len(models))
	for _, m := range models {
		acct := accountFromModel(m)
		acct.PostsCount = counts[m.ID]
		res = append(res, acct)
	}
	return res, nil
}

func (s *GormStore) postCounts(models []AccountModel) (map[string]int, error) {
	if len(models) == 0 {
		return map[string]int{}, nil
	}
	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	var rows []struct {
		AccountID string
		N         int
	}
	if err := s.db.Model(&PostModel{}).
		Select("account_id, COUNT(*) AS n").
		Where("account_id IN ?", ids).
		Group("account_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.AccountID] = row.N
	}
	return counts, nil
}

// DeactivateAccount disconnects an account without losing its post history.
func (s *GormStore) DeactivateAccount(id string) error {
	return s.db.Model(&AccountModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"active":     false,
			"updated_at": time.Now().UTC(),
		}).Error
}

// SavePost stores or updates a post.
func (s *GormStore) SavePost(p domain.Post) error {
	model := postToModel(p)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "hashtags", "image_url", "image_prompt", "status", "scheduled_at", "posted_at", "platform_post_id", "error_message", "updated_at"}),
	}).Create(&model).Error
}

// GetPost retrieves a post.
func (s *GormStore) GetPost(id string) (domain.Post, bool, error) {
	var model PostModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Post{}, false, nil
		}
		return domain.Post{}, false, err
	}
	return postFromModel(model), true, nil
}

// ListPostsByUser returns a user's posts newest first, optionally filtered
// by status.
func (s *GormStore) ListPostsByUser(userID string, status domain.PostStatus, limit int) ([]domain.Post, error) {
	tx := s.db.Model(&PostModel{}).
		Joins("JOIN account_models ON account_models.id = post_models.account_id").
		Where("account_models.user_id = ?", userID).
		Order("post_models.created_at DESC")
	if status != "" {
		tx = tx.Where("post_models.status = ?", string(status))
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var models []PostModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Post, 0, len(models))
	for _, m := range models {
		res = append(res, postFromModel(m))
	}
	return res, nil
}

// ListDuePosts returns approved posts whose scheduled time has passed,
// oldest first.
func (s *GormStore) ListDuePosts(now time.Time, limit int) ([]domain.Post, error) {
	if limit <= 0 {
		limit = 100
	}
	var models []PostModel
	if err := s.db.
		Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", string(domain.PostApproved), now.UTC()).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Post, 0, len(models))
	for _, m := range models {
		res = append(res, postFromModel(m))
	}
	return res, nil
}

// MarkScheduled claims an approved post for publishing. It reports false
// when another worker already claimed it or the post left the approved
// state.
func (s *GormStore) MarkScheduled(id string) (bool, error) {
	res := s.db.Model(&PostModel{}).
		Where("id = ? AND status = ?", id, string(domain.PostApproved)).
		Updates(map[string]any{
			"status":     string(domain.PostScheduled),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeletePost removes a post.
func (s *GormStore) DeletePost(id string) error {
	return s.db.Delete(&PostModel{}, "id = ?", id).Error
}

// SaveGeneration stores or updates an image generation record.
func (s *GormStore) SaveGeneration(g domain.ImageGeneration) error {
	model := generationToModel(g)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"provider", "model", "status", "image_path", "object_key", "elapsed_secs", "error_message", "updated_at"}),
	}).Create(&model).Error
}

// GetGeneration retrieves an image generation record.
func (s *GormStore) GetGeneration(id string) (domain.ImageGeneration, bool, error) {
	var model ImageGenerationModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ImageGeneration{}, false, nil
		}
		return domain.ImageGeneration{}, false, err
	}
	return generationFromModel(model), true, nil
}

// ListGenerations returns recent generation records, newest first.
func (s *GormStore) ListGenerations(limit int) ([]domain.ImageGeneration, error) {
	if limit <= 0 {
		limit = 100
	}
	var models []ImageGenerationModel
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ImageGeneration, 0, len(models))
	for _, m := range models {
		res = append(res, generationFromModel(m))
	}
	return res, nil
}

// SaveSchedule stores or updates a posting schedule.
func (s *GormStore) SaveSchedule(sc domain.Schedule) error {
	model := scheduleToModel(sc)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "active", "config", "updated_at"}),
	}).Create(&model).Error
}

// GetSchedule retrieves a schedule.
func (s *GormStore) GetSchedule(id string) (domain.Schedule, bool, error) {
	var model ScheduleModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Schedule{}, false, nil
		}
		return domain.Schedule{}, false, err
	}
	return scheduleFromModel(model), true, nil
}

// ListSchedulesByUser returns a user's schedules ordered by created_at.
func (s *GormStore) ListSchedulesByUser(userID string) ([]domain.Schedule, error) {
	var models []ScheduleModel
	if err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Schedule, 0, len(models))
	for _, m := range models {
		res = append(res, scheduleFromModel(m))
	}
	return res, nil
}

// DeleteSchedule removes a schedule.
func (s *GormStore) DeleteSchedule(id string) error {
	return s.db.Delete(&ScheduleModel{}, "id = ?", id).Error
}

func accountToModel(a domain.Account) AccountModel {
	return AccountModel{
		ID:                a.ID,
		UserID:            a.UserID,
		Platform:          string(a.Platform),
		PlatformAccountID: a.PlatformAccountID,
		Name:              a.Name,
		AccessToken:       a.AccessToken,
		TokenExpiresAt:    a.TokenExpiresAt,
		Active:            a.Active,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func accountFromModel(m AccountModel) domain.Account {
	return domain.Account{
		ID:                m.ID,
		UserID:            m.UserID,
		Platform:          domain.Platform(m.Platform),
		PlatformAccountID: m.PlatformAccountID,
		Name:              m.Name,
		AccessToken:       m.AccessToken,
		TokenExpiresAt:    m.TokenExpiresAt,
		Active:            m.Active,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func postToModel(p domain.Post) PostModel {
	rawTags, _ := json.Marshal(p.Hashtags)
	return PostModel{
		ID:             p.ID,
		AccountID:      p.AccountID,
		Content:        p.Content,
		Hashtags:       rawTags,
		ImageURL:       p.ImageURL,
		ImagePrompt:    p.ImagePrompt,
		Status:         string(p.Status),
		ScheduledAt:    p.ScheduledAt,
		PostedAt:       p.PostedAt,
		PlatformPostID: p.PlatformPostID,
		ErrorMessage:   p.ErrorMessage,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func postFromModel(m PostModel) domain.Post {
	var tags []string
	if len(m.Hashtags) > 0 {
		_ = json.Unmarshal(m.Hashtags, &tags)
	}
	return domain.Post{
		ID:             m.ID,
		AccountID:      m.AccountID,
		Content:        m.Content,
		Hashtags:       tags,
		ImageURL:       m.ImageURL,
		ImagePrompt:    m.ImagePrompt,
		Status:         domain.PostStatus(m.Status),
		ScheduledAt:    m.ScheduledAt,
		PostedAt:       m.PostedAt,
		PlatformPostID: m.PlatformPostID,
		ErrorMessage:   m.ErrorMessage,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func generationToModel(g domain.ImageGeneration) ImageGenerationModel {
	return ImageGenerationModel{
		ID:           g.ID,
		Prompt:       g.Prompt,
		Provider:     g.Provider,
		Model:        g.Model,
		Status:       string(g.Status),
		ImagePath:    g.ImagePath,
		ObjectKey:    g.ObjectKey,
		ElapsedSecs:  g.ElapsedSecs,
		ErrorMessage: g.ErrorMessage,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
}

func generationFromModel(m ImageGenerationModel) domain.ImageGeneration {
	return domain.ImageGeneration{
		ID:           m.ID,
		Prompt:       m.Prompt,
		Provider:     m.Provider,
		Model:        m.Model,
		Status:       domain.GenerationStatus(m.Status),
		ImagePath:    m.ImagePath,
		ObjectKey:    m.ObjectKey,
		ElapsedSecs:  m.ElapsedSecs,
		ErrorMessage: m.ErrorMessage,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func scheduleToModel(sc domain.Schedule) ScheduleModel {
	rawConfig, _ := json.Marshal(sc.Config)
	return ScheduleModel{
		ID:          sc.ID,
		UserID:      sc.UserID,
		Name:        sc.Name,
		Description: sc.Description,
		Active:      sc.Active,
		Config:      rawConfig,
		CreatedAt:   sc.CreatedAt,
		UpdatedAt:   sc.UpdatedAt,
	}
}

func scheduleFromModel(m ScheduleModel) domain.Schedule {
	var config map[string]any
	if len(m.Config) > 0 {
		_ = json.Unmarshal(m.Config, &config)
	}
	return domain.Schedule{
		ID:          m.ID,
		UserID:      m.UserID,
		Name:        m.Name,
		Description: m.Description,
		Active:      m.Active,
		Config:      config,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
