// services/notification_service.go
package services

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"skillsprint/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"
)

// printer formats counts with grouping separators ("1,250 XP").
var printer = message.NewPrinter(language.English)

func levelUpMessage(level int, totalXP int64) string {
	return printer.Sprintf("🎉 Level up! You reached level %d with %d total XP.", level, totalXP)
}

func badgeMessage(name string) string {
	return printer.Sprintf("🎖️ Badge unlocked: %s!", name)
}

func streakMessage(days int) string {
	return printer.Sprintf("🔥 %d-day streak! Keep it going.", days)
}

func battleWonMessage(xp int64) string {
	return printer.Sprintf("⚔️ You won the battle and earned %d XP!", xp)
}

func battleLostMessage() string {
	return "⚔️ Your opponent was faster this time. Try another battle!"
}

func notifyTx(tx *gorm.DB, userID, kind, text string) error {
	n := models.Notification{UserID: userID, Type: kind, Message: text}
	if err := tx.Create(&n).Error; err != nil {
		return storageFailure("create notification", err)
	}
	return nil
}

type NotificationService struct {
	DB *gorm.DB
	// PollInterval is how often an open stream checks for new rows.
	PollInterval time.Duration
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db, PollInterval: 2 * time.Second}
}

func (s *NotificationService) Create(ctx context.Context, userID, kind, text string) (*models.Notification, error) {
	if userID == "" || text == "" {
		return nil, ErrMissingFields
	}
	if kind == "" {
		kind = models.NotificationSystem
	}
	db := s.DB.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return nil, storageFailure("check user", err)
	}
	if count == 0 {
		return nil, ErrUserNotFound
	}
	n := models.Notification{UserID: userID, Type: kind, Message: text}
	if err := db.Create(&n).Error; err != nil {
		return nil, storageFailure("create notification", err)
	}
	return &n, nil
}

// List returns the newest notifications first.
func (s *NotificationService) List(ctx context.Context, userID string, limit int, unreadOnly bool) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []models.Notification
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, storageFailure("list notifications", err)
	}
	return out, nil
}

// MarkRead flags one of the user's own notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	res := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return storageFailure("mark notification read", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// streamOverlap is how far each poll re-reads behind the cursor, so a row stamped
// before the cursor but committed later is still delivered.
const streamOverlap = 5 * time.Second

// streamCursor is the position of one SSE client.
type streamCursor struct {
	at   time.Time
	seen map[string]time.Time // id -> created_at, pruned to the overlap window
}

func (c *streamCursor) mark(n models.Notification) {
	c.seen[n.ID] = n.CreatedAt
	if n.CreatedAt.After(c.at) {
		c.at = n.CreatedAt
	}
}

func (c *streamCursor) prune() {
	floor := c.at.Add(-streamOverlap)
	for id, at := range c.seen {
		if at.Before(floor) {
			delete(c.seen, id)
		}
	}
}

// openCursor starts at the user's newest notification. Rows already inside the
// overlap window count as sent.
func (s *NotificationService) openCursor(userID string) (*streamCursor, error) {
	cur := &streamCursor{seen: map[string]time.Time{}}
	var latest models.Notification
	err := s.DB.Where("user_id = ?", userID).Order("created_at DESC").First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cur, nil
	}
	if err != nil {
		return cur, err
	}
	cur.at = latest.CreatedAt
	var recent []models.Notification
	if err := s.DB.Select("id", "created_at").
		Where("user_id = ? AND created_at > ?", userID, cur.at.Add(-streamOverlap)).
		Find(&recent).Error; err != nil {
		return cur, err
	}
	for _, n := range recent {
		cur.mark(n)
	}
	return cur, nil
}

// nextBatch returns notifications not yet sent on this cursor, oldest first, and
// advances it.
func (s *NotificationService) nextBatch(userID string, cur *streamCursor) ([]models.Notification, error) {
	var rows []models.Notification
	err := s.DB.Where("user_id = ? AND created_at > ?", userID, cur.at.Add(-streamOverlap)).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	fresh := rows[:0]
	for _, n := range rows {
		if _, ok := cur.seen[n.ID]; ok {
			continue
		}
		fresh = append(fresh, n)
		cur.mark(n)
	}
	cur.prune()
	return fresh, nil
}

// Stream pushes the user's new notifications as server-sent events until the client goes away.
func (s *NotificationService) Stream(c *fiber.Ctx, userID string) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	interval := s.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		cursor, err := s.openCursor(userID)
		if err != nil {
			log.Printf("⚠️  [SSE] init error for user %s: %v", userID, err)
		}

		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for range ticker.C {
			fresh, err := s.nextBatch(userID, cursor)
			if err != nil {
				log.Printf("⚠️  [SSE] query error for user %s: %v", userID, err)
				continue
			}

			if len(fresh) == 0 {
				w.WriteString(": keepalive\n\n")
			}
			for _, n := range fresh {
				payload, _ := json.Marshal(n)
				fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
			}
			if err := w.Flush(); err != nil {
				log.Printf("🔌 [SSE] client for user %s disconnected", userID)
				return
			}
		}
	})
	return nil
}
