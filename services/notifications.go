package services

import (
	"encoding/json"
	"fmt"
	"log"

	"slotswap-server/models"
	"slotswap-server/storage"
	"slotswap-server/utils"
)

// NotificationService handles all swap notification logic: in-app rows,
// the live-update channel and best-effort push delivery.
type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotificationData represents the data payload for push notifications
type NotificationData struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	EventID string `json:"eventId,omitempty"`
	UserID  string `json:"userId,omitempty"`
	// Deep linking data
	Screen string `json:"screen"`
	Action string `json:"action,omitempty"`
}

// getUserPushTokens retrieves all push tokens for a user
func (ns *NotificationService) getUserPushTokens(userID uint) ([]string, error) {
	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %v", err)
	}

	if user.AllowsNotifications == nil || !*user.AllowsNotifications || user.PushTokens == nil {
		return nil, fmt.Errorf("user has notifications disabled or no tokens")
	}

	var tokens []string
	if err := json.Unmarshal(user.PushTokens, &tokens); err != nil {
		return nil, fmt.Errorf("failed to unmarshal push tokens: %v", err)
	}

	return tokens, nil
}

func (ns *NotificationService) SendNotificationToUser(userID uint, title, body string, data NotificationData) error {
	tokens, err := ns.getUserPushTokens(userID)
	if err != nil {
		log.Printf("Failed to get push tokens for user %d: %v", userID, err)
		return err
	}

	dataMap := map[string]string{
		"type":    data.Type,
		"id":      data.ID,
		"eventId": data.EventID,
		"userId":  data.UserID,
		"screen":  data.Screen,
		"action":  data.Action,
	}

	var lastError error
	for _, token := range tokens {
		if err := utils.SendNotification(token, title, body, dataMap); err != nil {
			log.Printf("Failed to send notification to token %s: %v", token, err)
			lastError = err
		}
	}

	return lastError
}

// notify writes the in-app notification row, pushes the live-update event
// and attempts push delivery. All failures are logged, never propagated:
// the swap itself has already committed.
func (ns *NotificationService) notify(userID uint, ntype, title, message, refType string, refID uint) {
	notification := models.Notification{
		UserID:  userID,
		Type:    ntype,
		Title:   title,
		Message: message,
		RefType: refType,
		RefID:   refID,
	}
	if err := storage.DB.Create(&notification).Error; err != nil {
		log.Printf("❌ NOTIFICATION ERROR: failed to store notification for user %d: %v", userID, err)
	}

	PublishRealtimeEvent(userID, RealtimeEvent{
		Type:    ntype,
		RefType: refType,
		RefID:   refID,
	})

	data := NotificationData{
		Type:   ntype,
		ID:     fmt.Sprintf("%d", refID),
		UserID: fmt.Sprintf("%d", userID),
		Screen: "SwapRequests",
		Action: "view_request",
	}
	ns.SendNotificationToUser(userID, title, message, data)
}

// PublishEventChange mirrors a change to one of the user's own events onto
// their live-update channel. No in-app row: the user made the change.
func (ns *NotificationService) PublishEventChange(userID, eventID uint, change string) {
	PublishRealtimeEvent(userID, RealtimeEvent{
		Type:    change,
		RefType: "event",
		RefID:   eventID,
	})
}

func (ns *NotificationService) NotifySwapProposed(request *models.SwapRequest) {
	requesterName := ns.displayNameFor(request.RequesterID)
	title := "New swap request"
	message := fmt.Sprintf("%s wants to swap slots with you", requesterName)
	ns.notify(request.RecipientID, "swap_proposed", title, message, "swap_request", request.ID)
}

func (ns *NotificationService) NotifySwapAccepted(request *models.SwapRequest) {
	recipientName := ns.displayNameFor(request.RecipientID)
	title := "Swap accepted"
	message := fmt.Sprintf("%s accepted your swap, the slots have changed owners", recipientName)
	ns.notify(request.RequesterID, "swap_accepted", title, message, "swap_request", request.ID)

	// The recipient's calendar changed too
	PublishRealtimeEvent(request.RecipientID, RealtimeEvent{
		Type:    "swap_accepted",
		RefType: "swap_request",
		RefID:   request.ID,
	})
}

func (ns *NotificationService) NotifySwapRejected(request *models.SwapRequest) {
	recipientName := ns.displayNameFor(request.RecipientID)
	title := "Swap rejected"
	message := fmt.Sprintf("%s rejected your swap request", recipientName)
	ns.notify(request.RequesterID, "swap_rejected", title, message, "swap_request", request.ID)
}

func (ns *NotificationService) NotifySwapWithdrawn(request *models.SwapRequest) {
	requesterName := ns.displayNameFor(request.RequesterID)
	title := "Swap request withdrawn"
	message := fmt.Sprintf("%s withdrew their swap request", requesterName)
	ns.notify(request.RecipientID, "swap_withdrawn", title, message, "swap_request", request.ID)
}

// NotifySwapCancelledByDeletion tells the other party that a slot involved
// in their pending request was deleted and the request resolved with it.
func (ns *NotificationService) NotifySwapCancelledByDeletion(request *models.SwapRequest, deleterID uint) {
	target := request.RecipientID
	if deleterID == request.RecipientID {
		target = request.RequesterID
	}
	deleterName := ns.displayNameFor(deleterID)
	title := "Swap request cancelled"
	message := fmt.Sprintf("%s deleted a slot involved in your swap request", deleterName)
	ns.notify(target, "swap_withdrawn", title, message, "swap_request", request.ID)
}

func (ns *NotificationService) displayNameFor(userID uint) string {
	var user models.User
	if err := storage.DB.Preload("Profile").First(&user, userID).Error; err != nil {
		return "Someone"
	}
	name := user.DisplayName()
	if name == "" {
		return "Someone"
	}
	return name
}
