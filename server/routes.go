package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/meikuraledutech/flowchart"
	"github.com/meikuraledutech/flowchart/archive"
	"github.com/meikuraledutech/flowchart/catalog"
	"github.com/meikuraledutech/flowchart/internal/logging"
	"github.com/meikuraledutech/flowchart/internal/metrics"
	"github.com/meikuraledutech/flowchart/reconcile"
)

// store is what the API needs from a backend.
type store interface {
	flowchart.Store
	DeleteProduct(ctx context.Context, productID int64) error
}

type api struct {
	store    store
	rec      *reconcile.Reconciler
	archiver *archive.Archiver // nil when archiving is off
	log      *slog.Logger
}

func newApp(s store, archiver *archive.Archiver, reg *metrics.Registry, log *slog.Logger) *fiber.App {
	a := &api{
		store:    s,
		rec:      reconcile.New(s, reconcile.WithMetrics(reg)),
		archiver: archiver,
		log:      log,
	}

	app := fiber.New()

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", func(c fiber.Ctx) error {
		if err := a.store.CreateSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if err := a.store.DropSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	// ── Palette ───────────────────────────────────────────────────────
	app.Get("/catalog", func(c fiber.Ctx) error {
		return c.JSON(catalog.Categories())
	})

	app.Get("/templates", func(c fiber.Ctx) error {
		return c.JSON(catalog.Templates())
	})

	// ── Flowchart ─────────────────────────────────────────────────────
	app.Get("/products/:id/flowchart", a.load)
	app.Put("/products/:id/flowchart", a.save)
	app.Delete("/products/:id/flowchart", a.remove)
	app.Post("/products/:id/flowchart/validate", a.validate)
	app.Post("/products/:id/flowchart/from-template", a.fromTemplate)
	app.Get("/products/:id/flowchart/export", a.export)
	app.Post("/products/:id/flowchart/archive", a.archive)

	app.Get("/metrics", adaptor.HTTPHandler(reg.Handler()))

	return app
}

func (a *api) ctx(c fiber.Ctx) context.Context {
	return logging.WithLogger(c.Context(), a.log.With("method", c.Method(), "path", c.Path()))
}

func productID(c fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid product id")
	}
	return id, nil
}

// body decodes a flowchart from the request and pins it to the product in the path.
func body(c fiber.Ctx, id int64) (*flowchart.Flowchart, error) {
	var chart flowchart.Flowchart
	if err := c.Bind().JSON(&chart); err != nil {
		return nil, errors.New("invalid body")
	}
	if err := chart.Check(); err != nil {
		return nil, err
	}
	chart.ProductID = id
	return &chart, nil
}

func (a *api) load(c fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	chart, report, err := a.rec.Load(a.ctx(c), id, c.Query("name"))
	if errors.Is(err, reconcile.ErrNoFlowchart) {
		return c.Status(404).JSON(fiber.Map{
			"error":     "no flowchart stored",
			"templates": catalog.Templates(),
		})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"flowchart": chart, "report": report})
}

func (a *api) save(c fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	chart, err := body(c, id)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	res, err := a.rec.Save(a.ctx(c), chart)
	var verr *flowchart.ValidationError
	if errors.As(err, &verr) {
		return c.Status(422).JSON(fiber.Map{"error": "validation failed", "messages": verr.Messages})
	}
	var perr *reconcile.PersistenceError
	if errors.As(err, &perr) {
		return c.Status(500).JSON(fiber.Map{
			"error":     perr.Error(),
			"nodeId":    perr.NodeID,
			"succeeded": perr.Succeeded,
			"created":   perr.Created,
			"updated":   perr.Updated,
		})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(res)
}

func (a *api) remove(c fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	if err := a.store.DeleteProduct(c.Context(), id); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(204)
}

func (a *api) validate(c fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	chart, err := body(c, id)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	var verr *flowchart.ValidationError
	if errors.As(flowchart.Validate(chart), &verr) {
		return c.Status(422).JSON(fiber.Map{"valid": false, "messages": verr.Messages})
	}
	return c.JSON(fiber.Map{"valid": true})
}

func (a *api) fromTemplate(c fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	var req struct {
		Template    string `json:"template"`
		ProductName string `json:"productName"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}
	chart, err := catalog.NewFromTemplate(req.Template, id, req.ProductName)
	if errors.Is(err, catalog.ErrUnknownTemplate) {
		return c.Status(404).JSON(fiber.Map{"error": "template not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(201).JSON(chart)
}

// stored loads the product's flowchart for export; writes the error response itself.
func (a *api) stored(c fiber.Ctx) (*flowchart.Flowchart, bool, error) {
	id, err := productID(c)
	if err != nil {
		return nil, false, c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	chart, _, err := a.rec.Load(a.ctx(c), id, c.Query("name"))
	if errors.Is(err, reconcile.ErrNoFlowchart) {
		return nil, false, c.Status(404).JSON(fiber.Map{"error": "no flowchart stored"})
	}
	if err != nil {
		return nil, false, c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return chart, true, nil
}

func exportFormat(c fiber.Ctx) (flowchart.ExportFormat, bool) {
	f := flowchart.ExportFormat(c.Query("format", string(flowchart.FormatJSON)))
	return f, f == flowchart.FormatJSON || f == flowchart.FormatYAML
}

func (a *api) export(c fiber.Ctx) error {
	format, ok := exportFormat(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "unsupported format"})
	}
	chart, ok, err := a.stored(c)
	if !ok {
		return err
	}
	var buf bytes.Buffer
	if err := chart.Export(&buf, format); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set(fiber.HeaderContentType, format.ContentType())
	return c.Send(buf.Bytes())
}

func (a *api) archive(c fiber.Ctx) error {
	if a.archiver == nil {
		return c.Status(503).JSON(fiber.Map{"error": "archiving is not configured"})
	}
	format, ok := exportFormat(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "unsupported format"})
	}
	chart, ok, err := a.stored(c)
	if !ok {
		return err
	}
	res, err := a.archiver.Archive(c.Context(), chart, format)
	if err != nil {
		return c.Status(502).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(201).JSON(res)
}
