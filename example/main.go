package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/flowchart"
	"github.com/meikuraledutech/flowchart/catalog"
	"github.com/meikuraledutech/flowchart/internal/logging"
	"github.com/meikuraledutech/flowchart/memstore"
	"github.com/meikuraledutech/flowchart/postgres"
	"github.com/meikuraledutech/flowchart/reconcile"
	"github.com/meikuraledutech/flowchart/session"
)

const productID = 1001

func main() {
	log := logging.New(os.Getenv("LOG_LEVEL"), "text", os.Stderr)
	ctx := logging.WithLogger(context.Background(), log)

	// Postgres when DATABASE_URL is set, memory otherwise.
	var store flowchart.Store = memstore.New()
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			fatal(log, "connect", err)
		}
		defer pool.Close()
		store = postgres.New(pool)
	}

	if err := store.CreateSchema(ctx); err != nil {
		fatal(log, "schema", err)
	}
	fmt.Println("schema created")

	rec := reconcile.New(store)

	// ── Nothing stored yet: start from a template ─────────────────────
	chart, _, err := rec.Load(ctx, productID, "Fresh cheese")
	if errors.Is(err, reconcile.ErrNoFlowchart) {
		fmt.Println("\nno flowchart stored, templates available:")
		for _, t := range catalog.Templates() {
			fmt.Printf("  %-12s %s\n", t.Name, t.Title)
		}
		chart, err = catalog.NewFromTemplate("dairy-line", productID, "Fresh cheese")
	}
	if err != nil {
		fatal(log, "load", err)
	}

	// ── Edit: drop a node, fill it in, wire it up ─────────────────────
	ctl := session.New(chart, session.WithLogger(log))
	node, err := ctl.Drop(flowchart.NodeMetalDetection, flowchart.Position{X: 500, Y: 840}, session.Hooks{
		OnEdit: func(id string) { fmt.Printf("editing %s\n", id) },
	})
	if err != nil {
		fatal(log, "drop", err)
	}
	fmt.Printf("\ndropped %s (%s)\n", node.ID, node.Label)

	draft, err := ctl.Open(node.ID)
	if err != nil {
		fatal(log, "open", err)
	}
	draft.SetStepNumber(10)
	draft.SetEquipment("Detector MD-2")
	hazards := draft.Hazards()
	if len(hazards) > 0 {
		if err := draft.SetHazardScores(hazards[0].ID, 3, 5); err != nil {
			fatal(log, "score", err)
		}
	}
	res, err := draft.Commit()
	if err != nil {
		fatal(log, "commit", err)
	}
	fmt.Printf("committed %s, open issues: %d\n", res.NodeID, len(res.Issues))
	for _, h := range res.Node.Data.Hazards {
		fmt.Printf("  hazard %-10s L%d x S%d = %s\n", h.Type, h.Likelihood, h.Severity, h.RiskLevel)
	}

	// Insert it in front of END.
	for _, e := range chart.Edges {
		end, _ := chart.Node(e.Target)
		if end.Type != flowchart.NodeEnd {
			continue
		}
		if err := chart.Disconnect(e.ID); err != nil {
			fatal(log, "disconnect", err)
		}
		if _, err := chart.Connect(e.Source, node.ID, ""); err != nil {
			fatal(log, "connect", err)
		}
		if _, err := chart.Connect(node.ID, end.ID, ""); err != nil {
			fatal(log, "connect", err)
		}
		break
	}

	// ── Save, reload, save again ──────────────────────────────────────
	saved, err := rec.Save(ctx, chart)
	if err != nil {
		fatal(log, "save", err)
	}
	fmt.Printf("\nsaved: %d created, %d updated, %d edges\n", saved.Created, saved.Updated, saved.EdgesSaved)

	loaded, report, err := rec.Load(ctx, productID, "Fresh cheese")
	if err != nil {
		fatal(log, "reload", err)
	}
	fmt.Printf("reloaded %d nodes, %d edges, clean=%v\n", len(loaded.Nodes), len(loaded.Edges), report.Clean())

	again, err := rec.Save(ctx, loaded)
	if err != nil {
		fatal(log, "save again", err)
	}
	fmt.Printf("saved again: %d created, %d updated\n", again.Created, again.Updated)

	// ── Export ────────────────────────────────────────────────────────
	fmt.Println("\nexport:")
	if err := loaded.Export(os.Stdout, flowchart.FormatYAML); err != nil {
		fatal(log, "export", err)
	}

	fmt.Println("\nrisk summary:")
	printJSON(summary(loaded))
}

type stepRisk struct {
	Node    string              `json:"node"`
	Label   string              `json:"label"`
	Highest flowchart.RiskLevel `json:"highest,omitempty"`
	CCP     string              `json:"ccp,omitempty"`
}

func summary(chart *flowchart.Flowchart) []stepRisk {
	rank := map[flowchart.RiskLevel]int{
		flowchart.RiskLow: 1, flowchart.RiskMedium: 2, flowchart.RiskHigh: 3, flowchart.RiskCritical: 4,
	}
	var out []stepRisk
	for _, n := range chart.ProcessSteps() {
		s := stepRisk{Node: n.ID, Label: n.Label}
		for _, h := range n.Data.Hazards {
			if rank[h.RiskLevel] > rank[s.Highest] {
				s.Highest = h.RiskLevel
			}
		}
		if n.Data.CCP != nil {
			s.CCP = n.Data.CCP.Number
		}
		out = append(out, s)
	}
	return out
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
