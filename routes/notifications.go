package routes

import (
	"net/http"
	"time"

	"slotswap-server/models"
	"slotswap-server/storage"

	"github.com/kataras/iris/v12"
)

// ListNotifications returns the caller's recent notifications (last 50).
func ListNotifications(ctx iris.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var notifications []models.Notification
	storage.DB.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(50).
		Find(&notifications)

	var unread int64
	storage.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread)

	ctx.JSON(iris.Map{
		"success":       true,
		"notifications": notifications,
		"unreadCount":   unread,
	})
}

func MarkNotificationRead(ctx iris.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	notificationID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	now := time.Now()
	result := storage.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	if result.RowsAffected == 0 {
		ctx.StopWithStatus(http.StatusNotFound)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

func MarkAllNotificationsRead(ctx iris.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	now := time.Now()
	storage.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})

	ctx.JSON(iris.Map{"success": true})
}
