package checker

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alexisbeaulieu97/atlcheck/internal/atl"
	"github.com/alexisbeaulieu97/atlcheck/internal/edg"
)

// CheckText checks an LCGS model against a textual ATL formula with default
// options and returns the text a front-end displays: the verdict, or the
// reason the check failed.
func CheckText(model, formula string) string {
	return New(Options{}).Check(context.Background(), model, formula).Text()
}

// Index lists the player and label indexes of an LCGS model, one "name : index"
// per line, so formulas can be written with indexes.
func (e *Engine) Index(model string) (string, error) {
	if e.opts.ModelType != ModelLCGS {
		return "", fmt.Errorf("the 'index' command is only valid for LCGS models")
	}
	loaded, err := e.LoadModel(model)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Players:\n")
	for _, player := range loaded.LCGS.Players() {
		fmt.Fprintf(&sb, "%s : %d\n", player.Name, player.Index)
	}
	sb.WriteString("\nLabels:\n")
	for _, label := range loaded.LCGS.Propositions() {
		fmt.Fprintf(&sb, "%s : %d\n", label.QualifiedName(), label.Index)
	}
	return sb.String(), nil
}

// Graph writes the dependency graph reachable from the formula's root vertex
// in Graphviz format. It returns the rendered formula.
func (e *Engine) Graph(ctx context.Context, w io.Writer, req Request) (string, error) {
	model, err := e.LoadModel(req.Model)
	if err != nil {
		return "", err
	}
	phi, err := e.ParseFormula(model, req.Formula)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	graph := atl.NewGraph(model.Game)
	if err := edg.WriteDot[atl.Vertex](w, graph, graph.Root(phi)); err != nil {
		return "", fmt.Errorf("write graph: %w", err)
	}
	rendered := model.Render(phi)
	e.logger.Info(ctx, "graph written", "formula", rendered)
	return rendered, nil
}
