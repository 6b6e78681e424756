package routes

import (
	"time"

	"slotswap-server/models"
	"slotswap-server/storage"

	"github.com/kataras/iris/v12"
)

type marketplaceListing struct {
	ID        uint               `json:"id"`
	Title     string             `json:"title"`
	StartTime time.Time          `json:"startTime"`
	EndTime   time.Time          `json:"endTime"`
	Status    models.EventStatus `json:"status"`
	OwnerID   uint               `json:"ownerID"`
	OwnerName string             `json:"ownerName"`
}

// GetMarketplace returns every other user's SWAPPABLE slot, annotated with
// the owner's display name, plus the caller's own SWAPPABLE slots as the
// offer side of a proposal. The caller's events never appear as listings.
func GetMarketplace(ctx iris.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var others []models.Event
	storage.DB.
		Preload("User").
		Preload("User.Profile").
		Where("status = ? AND user_id <> ?", models.EventStatusSwappable, userID).
		Order("start_time ASC").
		Find(&others)

	listings := make([]marketplaceListing, 0, len(others))
	for i := range others {
		event := &others[i]
		listings = append(listings, marketplaceListing{
			ID:        event.ID,
			Title:     event.Title,
			StartTime: event.StartTime,
			EndTime:   event.EndTime,
			Status:    event.Status,
			OwnerID:   event.UserID,
			OwnerName: event.User.DisplayName(),
		})
	}

	var mine []models.Event
	storage.DB.
		Where("status = ? AND user_id = ?", models.EventStatusSwappable, userID).
		Order("start_time ASC").
		Find(&mine)

	ctx.JSON(iris.Map{
		"success":  true,
		"listings": listings,
		"mine":     mine,
	})
}
