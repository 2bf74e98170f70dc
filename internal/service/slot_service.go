package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"go.uber.org/zap"

	"github.com/autoecole-dijon/portal-api/internal/models"
	"github.com/autoecole-dijon/portal-api/pkg/config"
	appErrors "github.com/autoecole-dijon/portal-api/pkg/errors"
)

// DateLayout is the wire format for lesson dates.
const DateLayout = "2006-01-02"

type slotInstructorRepository interface {
	ListInstructors(ctx context.Context) ([]models.Instructor, error)
}

type slotVehicleRepository interface {
	ListActive(ctx context.Context) ([]models.Vehicle, error)
}

// SlotService generates the candidate set of bookable slots for a calendar
// day. Generation is a pure function of (date, registry, config): re-running
// it for the same day yields an identical slot set, which the availability
// join depends on.
type SlotService struct {
	instructors slotInstructorRepository
	vehicles    slotVehicleRepository
	cfg         config.LessonsConfig
	logger      *zap.Logger
}

// NewSlotService instantiates SlotService.
func NewSlotService(instructors slotInstructorRepository, vehicles slotVehicleRepository, cfg config.LessonsConfig, logger *zap.Logger) *SlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlotDuration <= 0 {
		cfg.SlotDuration = time.Hour
	}
	if cfg.DayEndHour <= cfg.DayStartHour {
		cfg.DayStartHour = 8
		cfg.DayEndHour = 19
	}
	return &SlotService{instructors: instructors, vehicles: vehicles, cfg: cfg, logger: logger}
}

// Generate returns every candidate slot for the given day: one slot per
// instructor per granularity step inside the operating window. A day with no
// registered instructors yields an empty set.
func (s *SlotService) Generate(ctx context.Context, date string) ([]models.Slot, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidDate, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date))
	}

	instructors, err := s.instructors.ListInstructors(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor registry")
	}
	if len(instructors) == 0 {
		return []models.Slot{}, nil
	}

	vehicles, err := s.vehicles.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vehicle registry")
	}

	step := int(s.cfg.SlotDuration.Minutes())
	startMin := s.cfg.DayStartHour * 60
	endMin := s.cfg.DayEndHour * 60

	slots := make([]models.Slot, 0, len(instructors)*((endMin-startMin)/step))
	for _, instructor := range instructors {
		for minute := startMin; minute+step <= endMin; minute += step {
			start := formatMinutes(minute)
			end := formatMinutes(minute + step)

			slot := models.Slot{
				ID:             models.SlotID(date, start, instructor.ID),
				Date:           date,
				StartTime:      start,
				EndTime:        end,
				InstructorID:   instructor.ID,
				InstructorName: instructor.FullName,
			}
			if vehicle, ok := assignVehicle(date, start, instructor.ID, vehicles); ok {
				slot.VehicleID = vehicle.ID
				slot.VehicleModel = vehicle.Model
				slot.Transmission = vehicle.Transmission
			}
			slots = append(slots, slot)
		}
	}

	return slots, nil
}

// Resolve maps a slot identity triple back to its generated slot, verifying
// the start time lies on the configured grid. Booking goes through Resolve so
// clients cannot reserve times the generator would never produce.
func (s *SlotService) Resolve(ctx context.Context, date, startTime, instructorID string) (*models.Slot, error) {
	slots, err := s.Generate(ctx, date)
	if err != nil {
		return nil, err
	}
	wanted := models.SlotID(date, startTime, instructorID)
	for i := range slots {
		if slots[i].ID == wanted {
			return &slots[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, "no such slot in the operating window")
}

// StartAt combines a lesson date and start time into a wall-clock instant.
func StartAt(date, startTime string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" 15:04", date+" "+startTime, time.Local)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrInvalidDate, "invalid date or time")
	}
	return t, nil
}

// assignVehicle picks a vehicle for the slot as a pure function of the slot
// identity. The source portal randomised this per render, which made the
// booked/free join unstable; hashing the identity triple keeps every
// regeneration and every process in agreement.
func assignVehicle(date, startTime, instructorID string, vehicles []models.Vehicle) (models.Vehicle, bool) {
	if len(vehicles) == 0 {
		return models.Vehicle{}, false
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(date + "|" + startTime + "|" + instructorID))
	return vehicles[int(h.Sum32())%len(vehicles)], true
}

func formatMinutes(total int) string {
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
