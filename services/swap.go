package services

import (
	"errors"
	"fmt"
	"time"

	"slotswap-server/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sentinel errors the routes map onto HTTP statuses.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("invalid input")
)

// SwapService owns every mutation of events and swap requests. All multi-row
// effects run inside a single transaction with the affected rows locked, and
// every precondition is re-checked under the lock: two proposals racing on
// the same swappable event must not both succeed.
type SwapService struct {
	db            *gorm.DB
	notifications *NotificationService
}

func NewSwapService(db *gorm.DB) *SwapService {
	return &SwapService{
		db:            db,
		notifications: NewNotificationService(),
	}
}

// lockForUpdate adds a row lock on dialects that support it. SQLite (the
// test database) has no FOR UPDATE; its writers serialize on the handle.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// lockEventPair loads and locks two events in ascending ID order so that
// concurrent transactions touching the same pair acquire locks consistently.
func lockEventPair(tx *gorm.DB, firstID, secondID uint) (map[uint]*models.Event, error) {
	ids := []uint{firstID, secondID}
	if ids[0] > ids[1] {
		ids[0], ids[1] = ids[1], ids[0]
	}

	events := make(map[uint]*models.Event, 2)
	for _, id := range ids {
		var event models.Event
		if err := lockForUpdate(tx).First(&event, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: event %d", ErrNotFound, id)
			}
			return nil, err
		}
		events[id] = &event
	}
	return events, nil
}

func (s *SwapService) CreateEvent(userID uint, title string, start, end time.Time, offered bool) (*models.Event, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}

	status := models.EventStatusBusy
	if offered {
		status = models.EventStatusSwappable
	}

	event := models.Event{
		UserID:    userID,
		Title:     title,
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}
	if err := s.db.Create(&event).Error; err != nil {
		return nil, err
	}

	s.notifications.PublishEventChange(userID, event.ID, "event_created")
	return &event, nil
}

func (s *SwapService) UpdateEvent(userID, eventID uint, title string, start, end time.Time) (*models.Event, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}

	var event models.Event
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if event.UserID != userID {
			return ErrForbidden
		}
		if event.Status == models.EventStatusSwapPending {
			return fmt.Errorf("%w: event is locked by a pending swap request", ErrConflict)
		}

		return tx.Model(&event).Updates(map[string]interface{}{
			"title":      title,
			"start_time": start,
			"end_time":   end,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifications.PublishEventChange(userID, event.ID, "event_updated")
	return &event, nil
}

// ToggleEventStatus moves an event between BUSY and SWAPPABLE. SWAP_PENDING
// can never be requested directly and blocks the toggle while set.
func (s *SwapService) ToggleEventStatus(userID, eventID uint, target models.EventStatus) (*models.Event, error) {
	if target != models.EventStatusBusy && target != models.EventStatusSwappable {
		return nil, fmt.Errorf("%w: status must be %s or %s", ErrValidation, models.EventStatusBusy, models.EventStatusSwappable)
	}

	var event models.Event
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if event.UserID != userID {
			return ErrForbidden
		}
		if event.Status == models.EventStatusSwapPending {
			return fmt.Errorf("%w: event is locked by a pending swap request", ErrConflict)
		}

		if err := tx.Model(&event).Update("status", target).Error; err != nil {
			return err
		}
		event.Status = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.PublishEventChange(userID, event.ID, "event_status_changed")
	return &event, nil
}

// DeleteEvent removes an event. An event referenced by a PENDING request is
// not left dangling: the request resolves to WITHDRAWN and the counterpart
// event reverts to SWAPPABLE in the same transaction.
func (s *SwapService) DeleteEvent(userID, eventID uint) error {
	var resolved *models.SwapRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := lockForUpdate(tx).First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if event.UserID != userID {
			return ErrForbidden
		}

		var request models.SwapRequest
		err := lockForUpdate(tx).
			Where("status = ? AND (requester_event_id = ? OR recipient_event_id = ?)",
				models.SwapStatusPending, eventID, eventID).
			First(&request).Error
		if err == nil {
			counterpartID := request.RequesterEventID
			if counterpartID == eventID {
				counterpartID = request.RecipientEventID
			}
			now := time.Now()
			if err := tx.Model(&request).Updates(map[string]interface{}{
				"status":       models.SwapStatusWithdrawn,
				"responded_at": &now,
			}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Event{}).Where("id = ?", counterpartID).
				Update("status", models.EventStatusSwappable).Error; err != nil {
				return err
			}
			resolved = &request
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Delete(&models.Event{}, eventID).Error
	})
	if err != nil {
		return err
	}

	if resolved != nil {
		s.notifications.NotifySwapCancelledByDeletion(resolved, userID)
	}
	s.notifications.PublishEventChange(userID, eventID, "event_deleted")
	return nil
}

// Propose creates a PENDING swap request for two SWAPPABLE events owned by
// two different users and locks both events as SWAP_PENDING. Request
// creation and both status flips commit together or not at all.
func (s *SwapService) Propose(requesterID, requesterEventID, recipientEventID uint) (*models.SwapRequest, error) {
	if requesterEventID == recipientEventID {
		return nil, fmt.Errorf("%w: cannot swap an event with itself", ErrValidation)
	}

	var request models.SwapRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		events, err := lockEventPair(tx, requesterEventID, recipientEventID)
		if err != nil {
			return err
		}
		requesterEvent := events[requesterEventID]
		recipientEvent := events[recipientEventID]

		if requesterEvent.UserID != requesterID {
			return fmt.Errorf("%w: you do not own the offered event", ErrForbidden)
		}
		if recipientEvent.UserID == requesterID {
			return fmt.Errorf("%w: cannot swap with your own event", ErrValidation)
		}
		if requesterEvent.Status != models.EventStatusSwappable {
			return fmt.Errorf("%w: offered event is not swappable", ErrConflict)
		}
		if recipientEvent.Status != models.EventStatusSwappable {
			return fmt.Errorf("%w: requested event is no longer swappable", ErrConflict)
		}

		request = models.SwapRequest{
			RequesterID:      requesterID,
			RequesterEventID: requesterEventID,
			RecipientID:      recipientEvent.UserID,
			RecipientEventID: recipientEventID,
			Status:           models.SwapStatusPending,
		}
		if err := tx.Create(&request).Error; err != nil {
			return err
		}

		for _, event := range events {
			if err := tx.Model(event).Update("status", models.EventStatusSwapPending).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.NotifySwapProposed(&request)
	return &request, nil
}

// Accept resolves a PENDING request: the two events swap owners and both
// become BUSY. A request that is already terminal is never re-applied.
func (s *SwapService) Accept(recipientID, requestID uint) (*models.SwapRequest, error) {
	var request models.SwapRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.lockPendingRequest(tx, &request, requestID); err != nil {
			return err
		}
		if request.RecipientID != recipientID {
			return fmt.Errorf("%w: only the recipient can accept", ErrForbidden)
		}

		events, err := lockEventPair(tx, request.RequesterEventID, request.RecipientEventID)
		if err != nil {
			return err
		}

		if err := tx.Model(events[request.RequesterEventID]).Updates(map[string]interface{}{
			"user_id": request.RecipientID,
			"status":  models.EventStatusBusy,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(events[request.RecipientEventID]).Updates(map[string]interface{}{
			"user_id": request.RequesterID,
			"status":  models.EventStatusBusy,
		}).Error; err != nil {
			return err
		}

		return s.resolveRequest(tx, &request, models.SwapStatusAccepted)
	})
	if err != nil {
		return nil, err
	}

	s.notifications.NotifySwapAccepted(&request)
	return &request, nil
}

// Reject resolves a PENDING request: both events return to SWAPPABLE, since
// both owners had them on offer right before the request was created.
func (s *SwapService) Reject(recipientID, requestID uint) (*models.SwapRequest, error) {
	var request models.SwapRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.lockPendingRequest(tx, &request, requestID); err != nil {
			return err
		}
		if request.RecipientID != recipientID {
			return fmt.Errorf("%w: only the recipient can reject", ErrForbidden)
		}
		if err := s.releaseEvents(tx, &request); err != nil {
			return err
		}
		return s.resolveRequest(tx, &request, models.SwapStatusRejected)
	})
	if err != nil {
		return nil, err
	}

	s.notifications.NotifySwapRejected(&request)
	return &request, nil
}

// Withdraw lets the requester cancel their own PENDING request; both events
// return to SWAPPABLE.
func (s *SwapService) Withdraw(requesterID, requestID uint) (*models.SwapRequest, error) {
	var request models.SwapRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.lockPendingRequest(tx, &request, requestID); err != nil {
			return err
		}
		if request.RequesterID != requesterID {
			return fmt.Errorf("%w: only the requester can withdraw", ErrForbidden)
		}
		if err := s.releaseEvents(tx, &request); err != nil {
			return err
		}
		return s.resolveRequest(tx, &request, models.SwapStatusWithdrawn)
	})
	if err != nil {
		return nil, err
	}

	s.notifications.NotifySwapWithdrawn(&request)
	return &request, nil
}

// lockPendingRequest loads and locks the request row before the event rows
// are touched, so two concurrent resolutions serialize on it and the loser
// observes the terminal status instead of re-applying the effect.
func (s *SwapService) lockPendingRequest(tx *gorm.DB, request *models.SwapRequest, requestID uint) error {
	if err := lockForUpdate(tx).First(request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if request.Status != models.SwapStatusPending {
		return fmt.Errorf("%w: request already %s", ErrConflict, request.Status)
	}
	return nil
}

func (s *SwapService) releaseEvents(tx *gorm.DB, request *models.SwapRequest) error {
	events, err := lockEventPair(tx, request.RequesterEventID, request.RecipientEventID)
	if err != nil {
		return err
	}
	for _, event := range events {
		if err := tx.Model(event).Update("status", models.EventStatusSwappable).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *SwapService) resolveRequest(tx *gorm.DB, request *models.SwapRequest, status models.SwapStatus) error {
	now := time.Now()
	if err := tx.Model(request).Updates(map[string]interface{}{
		"status":       status,
		"responded_at": &now,
	}).Error; err != nil {
		return err
	}
	request.Status = status
	request.RespondedAt = &now
	return nil
}
