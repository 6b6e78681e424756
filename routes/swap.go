package routes

import (
	"errors"
	"net/http"

	"slotswap-server/models"
	"slotswap-server/services"
	"slotswap-server/storage"
	"slotswap-server/utils"

	"github.com/kataras/iris/v12"
)

type proposeSwapInput struct {
	RequesterEventID uint `json:"requesterEventID" validate:"required"`
	RecipientEventID uint `json:"recipientEventID" validate:"required"`
}

// CreateSwapRequest proposes exchanging one of the caller's swappable slots
// for another user's swappable slot.
func CreateSwapRequest(ctx iris.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var input proposeSwapInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	request, err := services.NewSwapService(storage.DB).
		Propose(userID, input.RequesterEventID, input.RecipientEventID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.StatusCode(http.StatusCreated)
	ctx.JSON(iris.Map{"success": true, "request": request})
}

// GetSwapInbox returns the caller's incoming and outgoing requests, newest
// first, with both slots and the counterpart user preloaded.
func GetSwapInbox(ctx iris.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var incoming []models.SwapRequest
	storage.DB.
		Preload("RequesterEvent").
		Preload("RecipientEvent").
		Preload("Requester").
		Preload("Requester.Profile").
		Where("recipient_id = ?", userID).
		Order("created_at DESC").
		Find(&incoming)

	var outgoing []models.SwapRequest
	storage.DB.
		Preload("RequesterEvent").
		Preload("RecipientEvent").
		Preload("Recipient").
		Preload("Recipient.Profile").
		Where("requester_id = ?", userID).
		Order("created_at DESC").
		Find(&outgoing)

	ctx.JSON(iris.Map{
		"success":  true,
		"incoming": incoming,
		"outgoing": outgoing,
	})
}

func AcceptSwapRequest(ctx iris.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	requestID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	request, svcErr := services.NewSwapService(storage.DB).Accept(userID, requestID)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(iris.Map{"success": true, "request": request})
}

func RejectSwapRequest(ctx iris.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	requestID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	request, svcErr := services.NewSwapService(storage.DB).Reject(userID, requestID)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(iris.Map{"success": true, "request": request})
}

func WithdrawSwapRequest(ctx iris.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	requestID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	request, svcErr := services.NewSwapService(storage.DB).Withdraw(userID, requestID)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(iris.Map{"success": true, "request": request})
}

// respondServiceError maps the service's sentinel errors onto HTTP statuses.
func respondServiceError(ctx iris.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.CreateNotFound(ctx)
	case errors.Is(err, services.ErrForbidden):
		utils.JSONError(ctx, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.JSONError(ctx, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, services.ErrValidation):
		utils.JSONError(ctx, http.StatusUnprocessableEntity, "validation", err.Error())
	default:
		utils.CreateInternalServerError(ctx)
	}
}
