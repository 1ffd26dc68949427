package httpapi

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/country-insights/internal/insights"
	"github.com/i474232898/country-insights/internal/metrics"
	"github.com/i474232898/country-insights/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *insights.Service) {
	app.Get("/health", func(c *fiber.Ctx) error {
		upstreams := service.UpstreamStatus()

		status := "ok"
		for _, r := range upstreams {
			if !r.Healthy {
				status = "degraded"
				break
			}
		}

		return c.JSON(fiber.Map{
			"status":    status,
			"service":   serviceName,
			"upstreams": upstreams,
		})
	})

	app.Get("/health/upstreams/:name", func(c *fiber.Ctx) error {
		history, err := service.ProbeHistory(c.Params("name"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no probe results for upstream")
			}
			return err
		}
		return c.JSON(history)
	})

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Get("/countries/search", func(c *fiber.Ctx) error {
		results, err := service.Search(c.UserContext(), c.Query("q"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "country search failed")
		}
		return c.JSON(results)
	})

	app.Get("/country", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "country id is required")
	})

	app.Get("/country/:id", func(c *fiber.Ctx) error {
		id, err := parseCountryID(c)
		if err != nil {
			return err
		}

		detail, err := service.CountryDetail(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(detail)
	})

	app.Get("/country/:id/news", func(c *fiber.Ctx) error {
		var req newsRequest
		if err := req.bind(c); err != nil {
			return err
		}

		page, err := service.News(c.UserContext(), insights.NewsQuery{
			Term:    req.Term,
			Country: req.Country,
			Cursor:  req.Cursor,
		})
		if err != nil {
			if errors.Is(err, insights.ErrInvalidCursor) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch news")
		}
		return c.JSON(page)
	})
}

// parseCountryID accepts ISO 3166-1 alpha-2 or alpha-3 codes.
func parseCountryID(c *fiber.Ctx) (string, error) {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "country id is required")
	}
	if err := validate.Var(id, "alpha,min=2,max=3"); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "country id must be an ISO alpha-2 or alpha-3 code")
	}
	return id, nil
}

// newsRequest holds the parameters of the news endpoint. Term is the
// country display name; Country optionally narrows results to an ISO-2 code.
type newsRequest struct {
	Term    string `validate:"required,max=100"`
	Country string `validate:"omitempty,alpha,len=2"`
	Cursor  string `validate:"max=512"`
}

func (r *newsRequest) bind(c *fiber.Ctx) error {
	r.Term = strings.TrimSpace(c.Params("id"))
	r.Country = strings.TrimSpace(c.Query("country"))
	r.Cursor = strings.TrimSpace(c.Query("page"))

	if r.Term == "" {
		return fiber.NewError(fiber.StatusBadRequest, "country id is required")
	}
	if err := validate.Struct(r); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
