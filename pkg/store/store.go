package store

import (
	"time"

	"estatecast/pkg/domain"
)

// Store defines persistence operations for accounts, posts, image
// generations, and posting schedules.
type Store interface {
	// accounts
	SaveAccount(domain.Account) error
	GetAccount(id string) (domain.Account, bool, error)
	GetAccountByExternal(userID string, platform domain.Platform, platformAccountID string) (domain.Account, bool, error)
	ListAccountsByUser(userID string, activeOnly bool) ([]domain.Account, error)
	DeactivateAccount(id string) error

	// posts
	SavePost(domain.Post) error
	GetPost(id string) (domain.Post, bool, error)
	ListPostsByUser(userID string, status domain.PostStatus, limit int) ([]domain.Post, error)
	ListDuePosts(now time.Time, limit int) ([]domain.Post, error)
	MarkScheduled(id string) (bool, error)
	DeletePost(id string) error

	// image generations
	SaveGeneration(domain.ImageGeneration) error
	GetGeneration(id string) (domain.ImageGeneration, bool, error)
	ListGenerations(limit int) ([]domain.ImageGeneration, error)

	// schedules
	SaveSchedule(domain.Schedule) error
	GetSchedule(id string) (domain.Schedule, bool, error)
	ListSchedulesByUser(userID string) ([]domain.Schedule, error)
	DeleteSchedule(id string) error
}
