package main

import (
	"fmt"
	"log"
	"os"

	"slotswap-server/routes"
	"slotswap-server/storage"
	"slotswap-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// buildApp wires middleware and routes onto a fresh iris application. Kept
// separate from main so the HTTP tests can mount the same app.
func buildApp() *iris.Application {
	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	// Minimal middleware - compression only
	app.Use(iris.Compression)

	// JWT Verifiers
	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Post("/google", routes.GoogleLoginOrSignUp)
		user.Post("/apple", routes.AppleLoginOrSignUp)
		user.Get("/profile", accessTokenVerifierMiddleware, routes.GetUserProfile)
		user.Post("/profile", accessTokenVerifierMiddleware, routes.CreateOrUpdateUserProfile)
		user.Put("/profile", accessTokenVerifierMiddleware, routes.CreateOrUpdateUserProfile)
		user.Patch("/{id}/pushtoken", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AlterPushToken)
		user.Patch("/{id}/settings/notifications", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AllowsNotifications)
	}

	events := app.Party("/api/events", accessTokenVerifierMiddleware)
	{
		events.Get("/", routes.GetMyEvents)
		events.Post("/", routes.CreateEvent)
		events.Patch("/{id:uint}", routes.UpdateEvent)
		events.Patch("/{id:uint}/status", routes.SetEventStatus)
		events.Delete("/{id:uint}", routes.DeleteEvent)
	}

	app.Get("/api/marketplace", accessTokenVerifierMiddleware, routes.GetMarketplace)

	swaps := app.Party("/api/swaps", accessTokenVerifierMiddleware)
	{
		swaps.Get("/", routes.GetSwapInbox)
		swaps.Post("/", routes.CreateSwapRequest)
		swaps.Post("/{id:uint}/accept", routes.AcceptSwapRequest)
		swaps.Post("/{id:uint}/reject", routes.RejectSwapRequest)
		swaps.Delete("/{id:uint}", routes.WithdrawSwapRequest)
	}

	notifications := app.Party("/api/notifications", accessTokenVerifierMiddleware)
	{
		notifications.Get("/", routes.ListNotifications)
		notifications.Patch("/{id:uint}/read", routes.MarkNotificationRead)
		notifications.Patch("/read-all", routes.MarkAllNotificationsRead)
	}

	app.Get("/api/realtime", accessTokenVerifierMiddleware, routes.StreamRealtime)

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	return app
}

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	storage.InitializeDB()
	storage.InitializeRedis()

	app := buildApp()

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000" // fallback for local dev
	}
	addr := ":" + port

	fmt.Println("🚀 Starting server on", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ failed to start server: %v", err)
	}
}
