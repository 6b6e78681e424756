package routes

import (
	"errors"

	"slotswap-server/models"
	"slotswap-server/storage"
	"slotswap-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

type upsertProfileInput struct {
	DisplayName string `json:"displayName" validate:"required,max=100"`
	AvatarURL   string `json:"avatarURL"`
	Bio         string `json:"bio" validate:"max=500"`
}

func GetUserProfile(ctx iris.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var profile models.UserProfile
	if err := storage.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "profile": profile})
}

func CreateOrUpdateUserProfile(ctx iris.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var input upsertProfileInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	profile := models.UserProfile{
		UserID:      userID,
		DisplayName: input.DisplayName,
		AvatarURL:   input.AvatarURL,
		Bio:         input.Bio,
	}
	err := storage.DB.Where("user_id = ?", userID).
		Assign(map[string]interface{}{
			"display_name": input.DisplayName,
			"avatar_url":   input.AvatarURL,
			"bio":          input.Bio,
		}).
		FirstOrCreate(&profile).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "profile": profile})
}
