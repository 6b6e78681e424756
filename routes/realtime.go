package routes

import (
	"fmt"
	"log"
	"net/http"

	"slotswap-server/services"
	"slotswap-server/storage"

	"github.com/google/uuid"
	"github.com/kataras/iris/v12"
)

// StreamRealtime serves the live-update channel as server-sent events. It is
// an availability optimization only: a client that misses messages stays
// correct by re-fetching, since every mutation response carries the
// committed state. The stream ends when the client disconnects.
func StreamRealtime(ctx iris.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	if storage.Redis == nil {
		ctx.StopWithStatus(http.StatusServiceUnavailable)
		return
	}

	reqCtx := ctx.Request().Context()
	pubsub := services.SubscribeRealtimeEvents(reqCtx, userID)
	defer pubsub.Close()

	subscriberID := uuid.NewString()
	log.Printf("realtime: subscriber %s connected for user %d", subscriberID, userID)
	defer log.Printf("realtime: subscriber %s disconnected", subscriberID)

	ctx.ContentType("text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")

	w := ctx.ResponseWriter()
	fmt.Fprintf(w, ": connected %s\n\n", subscriberID)
	w.Flush()

	ch := pubsub.Channel()
	for {
		select {
		case <-reqCtx.Done():
			return
		case msg, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "id: %s\nevent: change\ndata: %s\n\n", uuid.NewString(), msg.Payload)
			w.Flush()
		}
	}
}
