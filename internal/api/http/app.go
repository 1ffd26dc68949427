package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/i474232898/country-insights/internal/insights"
	"github.com/i474232898/country-insights/internal/logger"
)

const (
	serviceName = "country-insights"

	// requestTimeout bounds the upstream work of one request. It stays under
	// WriteTimeout so the error response can still be written.
	requestTimeout = 25 * time.Second
)

// NewApp builds the Fiber app with the centralized error handler, global
// middleware and all routes registered.
func NewApp(service *insights.Service) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		UnescapePath:          true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          errorHandler,
	})

	app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: uuid.NewString,
	}))
	app.Use(accessLog)
	app.Use(recover.New())
	app.Use(requestContext)

	RegisterRoutes(app, service)
	return app
}

// errorHandler renders every error as {"error": true, "message": ...}.
// Dependency failures also name the failed stage.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"
	body := fiber.Map{"error": true}

	var fe *fiber.Error
	var df *insights.DependencyFailure
	var ue *insights.UpstreamError

	switch {
	case errors.As(err, &fe):
		code, message = fe.Code, fe.Message
	case errors.Is(err, insights.ErrNotFound):
		code, message = fiber.StatusNotFound, insights.ErrNotFound.Error()
	case errors.Is(err, insights.ErrInvalidCursor):
		code, message = fiber.StatusBadRequest, insights.ErrInvalidCursor.Error()
	case errors.As(err, &df):
		message = "failed to load country details"
		body["stage"] = df.Stage
	case errors.As(err, &ue):
		message = "upstream provider " + ue.Provider + " failed"
	}

	body["message"] = message
	return c.Status(code).JSON(body)
}

// requestContext gives every handler a UserContext with a deadline, so
// provider calls made for the request stop once it expires.
func requestContext(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	c.SetUserContext(ctx)
	return c.Next()
}

// accessLog writes one structured entry per request. Errors are rendered
// here so the logged status is the one sent to the client.
func accessLog(c *fiber.Ctx) error {
	start := time.Now()

	if chainErr := c.Next(); chainErr != nil {
		if err := c.App().ErrorHandler(c, chainErr); err != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	status := c.Response().StatusCode()
	entry := logger.Log.WithFields(logger.Fields{
		"method":      c.Method(),
		"path":        c.Path(),
		"status":      status,
		"duration":    time.Since(start).String(),
		"request_id":  c.GetRespHeader(fiber.HeaderXRequestID),
		"remote_addr": c.IP(),
	})
	if status >= fiber.StatusInternalServerError {
		entry.Warn("request failed")
	} else {
		entry.Info("request completed")
	}
	return nil
}
