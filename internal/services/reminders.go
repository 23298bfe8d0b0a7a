package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"oriemap-backend/internal/repository"
)

const (
	reminderWindowDays   = 2
	reminderPollInterval = 1 * time.Hour
	reminderDedupeTTL    = 72 * time.Hour
)

// ExamReminderScheduler periodically scans for exams happening within the
// next two days and emails the owners who have reminders enabled. A Redis
// key per exam keeps restarts from double sending.
type ExamReminderScheduler struct {
	examRepo *repository.ExamRepo
	email    *EmailService
	redis    *redis.Client
	stopChan chan struct{}
}

func NewExamReminderScheduler(examRepo *repository.ExamRepo, email *EmailService, redisClient *redis.Client) *ExamReminderScheduler {
	return &ExamReminderScheduler{
		examRepo: examRepo,
		email:    email,
		redis:    redisClient,
		stopChan: make(chan struct{}),
	}
}

func (s *ExamReminderScheduler) Start() {
	if s.examRepo == nil || s.email == nil {
		return
	}

	go s.loop()

	log.Printf("Exam reminder scheduler started")
}

func (s *ExamReminderScheduler) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *ExamReminderScheduler) loop() {
	// Run on startup as well as by interval.
	s.sendReminders(context.Background())

	ticker := time.NewTicker(reminderPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sendReminders(context.Background())
		}
	}
}

func (s *ExamReminderScheduler) sendReminders(ctx context.Context) {
	upcoming, err := s.examRepo.ListUpcoming(ctx, reminderWindowDays)
	if err != nil {
		log.Printf("exam reminders: failed to list upcoming exams: %v", err)
		return
	}

	for _, entry := range upcoming {
		if !s.claimReminder(ctx, entry) {
			continue
		}

		if err := s.email.SendExamReminderEmail(entry.Email, entry.FullName, entry.Exam); err != nil {
			log.Printf("exam reminders: failed to send to %s: %v", entry.Email, err)
			s.releaseReminder(ctx, entry)
		}
	}
}

func (s *ExamReminderScheduler) claimReminder(ctx context.Context, entry repository.UpcomingExam) bool {
	if s.redis == nil {
		return true
	}

	ok, err := s.redis.SetNX(ctx, reminderKey(entry), "1", reminderDedupeTTL).Result()
	if err != nil {
		log.Printf("exam reminders: dedupe check failed for exam %s: %v", entry.Exam.ID, err)
		return false
	}
	return ok
}

func (s *ExamReminderScheduler) releaseReminder(ctx context.Context, entry repository.UpcomingExam) {
	if s.redis == nil {
		return
	}
	s.redis.Del(ctx, reminderKey(entry))
}

func reminderKey(entry repository.UpcomingExam) string {
	return fmt.Sprintf("exam_reminder_sent:%s:%s", entry.Exam.ID, entry.Exam.Date)
}
