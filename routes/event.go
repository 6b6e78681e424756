package routes

import (
	"net/http"
	"time"

	"slotswap-server/models"
	"slotswap-server/services"
	"slotswap-server/storage"
	"slotswap-server/utils"

	"github.com/kataras/iris/v12"
)

type eventInput struct {
	Title     string    `json:"title" validate:"required,max=200"`
	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime" validate:"required"`
	// Offered creates the slot already flagged for exchange.
	Offered bool `json:"offered"`
}

type eventStatusInput struct {
	Status models.EventStatus `json:"status" validate:"required"`
}

// GetMyEvents lists the caller's own slots for the dashboard view.
func GetMyEvents(ctx iris.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var events []models.Event
	storage.DB.Where("user_id = ?", userID).Order("start_time ASC").Find(&events)
	ctx.JSON(iris.Map{"success": true, "events": events})
}

func CreateEvent(ctx iris.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var input eventInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	event, err := services.NewSwapService(storage.DB).
		CreateEvent(userID, input.Title, input.StartTime, input.EndTime, input.Offered)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.StatusCode(http.StatusCreated)
	ctx.JSON(iris.Map{"success": true, "event": event})
}

func UpdateEvent(ctx iris.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	eventID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	var input eventInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	event, svcErr := services.NewSwapService(storage.DB).
		UpdateEvent(userID, eventID, input.Title, input.StartTime, input.EndTime)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(iris.Map{"success": true, "event": event})
}

// SetEventStatus toggles a slot between BUSY and SWAPPABLE.
func SetEventStatus(ctx iris.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	eventID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	var input eventStatusInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	event, svcErr := services.NewSwapService(storage.DB).
		ToggleEventStatus(userID, eventID, input.Status)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(iris.Map{"success": true, "event": event})
}

func DeleteEvent(ctx iris.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	eventID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	if svcErr := services.NewSwapService(storage.DB).DeleteEvent(userID, eventID); svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.StatusCode(http.StatusNoContent)
}
