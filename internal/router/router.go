package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/appraisal-go-api/internal/config"
	"github.com/noah-isme/appraisal-go-api/internal/handler"
	"github.com/noah-isme/appraisal-go-api/internal/middleware"
	"github.com/noah-isme/appraisal-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AppraisalHandler      *handler.AppraisalHandler
	ReviewHandler         *handler.ReviewHandler
	ScoringHandler        *handler.ScoringHandler
	WorkflowHandler       *handler.WorkflowHandler
	AdminActivityHandler  *handler.AdminActivityHandler
	AdminAnalyticsHandler *handler.AdminAnalyticsHandler
	SeedHandler           *handler.SeedHandler
	JWTMiddleware         fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group(middleware.APIPrefix, func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Stateless scoring and workflow helpers
	if deps.ScoringHandler != nil {
		scoring := api.Group("/scoring", jwtMiddleware, requireRole(middleware.AuthRoleAny))
		deps.ScoringHandler.Register(scoring, middleware.RateLimit("scoring-preview", cfg.ScoringRateLimit, time.Minute))
	}
	if deps.WorkflowHandler != nil {
		workflow := api.Group("/workflow", jwtMiddleware, requireRole(middleware.AuthRoleAny))
		deps.WorkflowHandler.Register(workflow)
	}

	// Submitter side. Reviewers also read appraisals through these routes;
	// the service narrows what each role may see or change.
	if deps.AppraisalHandler != nil {
		appraisals := api.Group("/appraisals", jwtMiddleware, requireRole(middleware.AuthRoleAny))
		deps.AppraisalHandler.Register(appraisals, requireRole(middleware.AuthRoleSubmitter))
	}

	// Reviewer side
	if deps.ReviewHandler != nil {
		reviews := api.Group("/reviews", jwtMiddleware, requireRole(middleware.AuthRoleReviewer))
		deps.ReviewHandler.Register(reviews)
	}

	// Admin
	if deps.AdminActivityHandler != nil {
		activity := api.Group("/admin/activity", jwtMiddleware, middleware.RequireRole(middleware.AuthRoleAdmin))
		deps.AdminActivityHandler.Register(activity)
	}
	if deps.AdminAnalyticsHandler != nil {
		analytics := api.Group("/admin/analytics", jwtMiddleware, middleware.RequireRole(middleware.AuthRoleAdmin, "principal"))
		deps.AdminAnalyticsHandler.Register(analytics)
	}

	// Tooling, guarded by the seed token rather than a JWT
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}
}

func requireRole(role string) fiber.Handler {
	return middleware.WithAuth(func(c *fiber.Ctx) error { return c.Next() }, middleware.AuthOptions{Role: role, RequireUser: true})
}
