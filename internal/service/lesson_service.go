package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/autoecole-dijon/portal-api/internal/models"
	appErrors "github.com/autoecole-dijon/portal-api/pkg/errors"
	"github.com/autoecole-dijon/portal-api/pkg/export"
)

type lessonReservationRepository interface {
	History(ctx context.Context, clientID, instructorID string) ([]models.PastLesson, error)
	FindByID(ctx context.Context, id string) (*models.Reservation, error)
	PromoteElapsed(ctx context.Context, now time.Time) (int64, error)
}

type lessonFeedbackRepository interface {
	Create(ctx context.Context, fb *models.Feedback) error
	ExistsForReservation(ctx context.Context, reservationID string) (bool, error)
}

// FeedbackRequest is the instructor's review payload for a completed lesson.
type FeedbackRequest struct {
	Notes  string `json:"notes"`
	Rating *int   `json:"rating" validate:"omitempty,min=1,max=5"`
}

// LessonService projects completed reservations into the past-lesson history
// view and records instructor feedback. The projection is read-only with
// respect to reservations.
type LessonService struct {
	reservations lessonReservationRepository
	feedback     lessonFeedbackRepository
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
	validator    *validator.Validate
	logger       *zap.Logger
	clock        func() time.Time
}

// NewLessonService instantiates LessonService. A nil clock defaults to time.Now.
func NewLessonService(reservations lessonReservationRepository, feedback lessonFeedbackRepository, validate *validator.Validate, logger *zap.Logger, clock func() time.Time) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &LessonService{
		reservations: reservations,
		feedback:     feedback,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		validator:    validate,
		logger:       logger,
		clock:        clock,
	}
}

// HistoryFor returns the viewer's completed lessons grouped by calendar month
// (newest first) with summary statistics. Clients see their own lessons,
// instructors the lessons they taught, admins everything.
func (s *LessonService) HistoryFor(ctx context.Context, viewer Actor) (*models.LessonHistory, error) {
	if _, err := s.reservations.PromoteElapsed(ctx, s.clock()); err != nil {
		s.logger.Warn("lazy completion failed", zap.Error(err))
	}

	var clientID, instructorID string
	switch viewer.Role {
	case models.RoleInstructor:
		instructorID = viewer.ID
	case models.RoleAdmin:
	default:
		clientID = viewer.ID
	}

	lessons, err := s.reservations.History(ctx, clientID, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson history")
	}

	return buildHistory(lessons), nil
}

// Export renders the viewer's history as CSV or PDF.
func (s *LessonService) Export(ctx context.Context, viewer Actor, format string) ([]byte, string, error) {
	history, err := s.HistoryFor(ctx, viewer)
	if err != nil {
		return nil, "", err
	}

	dataset := historyDataset(history)
	switch format {
	case "csv", "":
		raw, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return raw, "lesson-history.csv", nil
	case "pdf":
		raw, err := s.pdf.Render(dataset, "Lesson history")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return raw, "lesson-history.pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// AddFeedback records the instructor's notes and rating on a completed lesson.
func (s *LessonService) AddFeedback(ctx context.Context, actor Actor, reservationID string, req FeedbackRequest) (*models.Feedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	if _, err := s.reservations.PromoteElapsed(ctx, s.clock()); err != nil {
		s.logger.Warn("lazy completion failed", zap.Error(err))
	}

	reservation, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation")
	}

	if actor.Role != models.RoleAdmin && actor.ID != reservation.InstructorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the lesson's instructor may leave feedback")
	}
	if reservation.Status != models.ReservationCompleted {
		return nil, appErrors.ErrLessonNotElapsed
	}

	exists, err := s.feedback.ExistsForReservation(ctx, reservationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check feedback")
	}
	if exists {
		return nil, appErrors.ErrAlreadyReviewed
	}

	fb := &models.Feedback{
		ReservationID: reservationID,
		InstructorID:  reservation.InstructorID,
		ClientID:      reservation.ClientID,
		Notes:         req.Notes,
		Rating:        req.Rating,
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save feedback")
	}

	return fb, nil
}

// buildHistory groups lessons by YYYY-MM (input is already newest-first) and
// computes the summary. Lessons without a rating are excluded from the
// average, not counted as zero.
func buildHistory(lessons []models.PastLesson) *models.LessonHistory {
	history := &models.LessonHistory{Months: []models.LessonMonth{}}

	var ratingSum, ratingCount int
	for _, lesson := range lessons {
		month := lesson.Date
		if len(month) >= 7 {
			month = month[:7]
		}

		if n := len(history.Months); n == 0 || history.Months[n-1].Month != month {
			history.Months = append(history.Months, models.LessonMonth{Month: month})
		}
		last := &history.Months[len(history.Months)-1]
		last.Lessons = append(last.Lessons, lesson)

		history.Summary.TotalLessons++
		history.Summary.TotalHours += lessonHours(lesson)
		if lesson.Rating != nil {
			ratingSum += *lesson.Rating
			ratingCount++
		}
	}

	if ratingCount > 0 {
		avg := float64(ratingSum) / float64(ratingCount)
		history.Summary.AverageRating = &avg
	}

	return history
}

func lessonHours(lesson models.PastLesson) float64 {
	start, errStart := time.Parse("15:04", lesson.StartTime)
	end, errEnd := time.Parse("15:04", lesson.EndTime)
	if errStart != nil || errEnd != nil || !end.After(start) {
		return 0
	}
	return end.Sub(start).Hours()
}

func historyDataset(history *models.LessonHistory) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"Date", "Start", "End", "Client", "Instructor", "Vehicle", "Rating", "Notes"},
	}
	for _, month := range history.Months {
		for _, lesson := range month.Lessons {
			row := map[string]string{
				"Date":       lesson.Date,
				"Start":      lesson.StartTime,
				"End":        lesson.EndTime,
				"Client":     lesson.ClientName,
				"Instructor": lesson.InstructorName,
				"Vehicle":    lesson.VehicleModel,
			}
			if lesson.Rating != nil {
				row["Rating"] = strconv.Itoa(*lesson.Rating)
			}
			if lesson.Notes != nil {
				row["Notes"] = *lesson.Notes
			}
			dataset.Rows = append(dataset.Rows, row)
		}
	}
	return dataset
}
