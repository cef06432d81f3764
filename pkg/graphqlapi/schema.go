// Package graphqlapi exposes a read-only GraphQL view of the panel: live
// runs, archived history and the topology the dashboard draws. Mutations
// stay on the REST API where the busy-guard semantics live.
package graphqlapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/benchdeck/benchdeck/pkg/history"
	"github.com/benchdeck/benchdeck/pkg/runner"
	"github.com/benchdeck/benchdeck/pkg/topology"
)

// RunSource is the slice of the supervisor the schema reads.
type RunSource interface {
	Runs() []runner.RunInfo
	Get(runID string) (runner.RunInfo, error)
}

// Deps provides the live data the schema resolves against.
type Deps struct {
	Runs    RunSource
	History history.Store
}

// topologyView is the resolved shape of the topology query.
type topologyView struct {
	NodeCount int
	Expanded  []int
	Elements  []topology.Element
}

// GenerateSchema builds the panel's query schema.
func GenerateSchema(deps Deps) (graphql.Schema, error) {
	runType := createRunType()
	elementType := createElementType()
	topologyType := createTopologyType(elementType)
	historyType := createHistoryType()

	queryFields := graphql.Fields{
		// Always include a health check query
		"health": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return "ok", nil
			},
		},

		// runs(state: "running") lists supervisor runs, newest first.
		"runs": &graphql.Field{
			Type: graphql.NewList(runType),
			Args: graphql.FieldConfigArgument{
				"state": &graphql.ArgumentConfig{
					Type: graphql.String,
				},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				runs := deps.Runs.Runs()
				state, _ := p.Args["state"].(string)
				if state == "" {
					return runs, nil
				}
				filtered := make([]runner.RunInfo, 0, len(runs))
				for _, run := range runs {
					if string(run.State) == state {
						filtered = append(filtered, run)
					}
				}
				return filtered, nil
			},
		},

		// run(id: ID!) fetches a single supervisor run.
		"run": &graphql.Field{
			Type: runType,
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.ID),
				},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id, _ := p.Args["id"].(string)
				run, err := deps.Runs.Get(id)
				if err != nil {
					return nil, err
				}
				return run, nil
			},
		},

		// topology(nodes: 7, expanded: "0,1") mirrors the dashboard view.
		"topology": &graphql.Field{
			Type: topologyType,
			Args: graphql.FieldConfigArgument{
				"nodes": &graphql.ArgumentConfig{
					Type:         graphql.Int,
					DefaultValue: topology.DefaultNodeCount,
				},
				"expanded": &graphql.ArgumentConfig{
					Type: graphql.String,
				},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				nodeCount, _ := p.Args["nodes"].(int)
				if nodeCount <= 0 {
					nodeCount = topology.DefaultNodeCount
				}
				raw, _ := p.Args["expanded"].(string)
				expanded := topology.ParseSet(raw)
				return topologyView{
					NodeCount: nodeCount,
					Expanded:  expanded.IDs(),
					Elements:  topology.BuildElements(nodeCount, expanded),
				}, nil
			},
		},

		// history(limit: 20) lists archived runs, newest first.
		"history": &graphql.Field{
			Type: graphql.NewList(historyType),
			Args: graphql.FieldConfigArgument{
				"limit": &graphql.ArgumentConfig{
					Type:         graphql.Int,
					DefaultValue: 20,
				},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if deps.History == nil {
					return nil, errors.New("history store not configured")
				}
				limit, _ := p.Args["limit"].(int)
				return deps.History.ListRuns(p.Context, limit)
			},
		},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: queryFields,
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}

	return schema, nil
}

// createRunType creates the GraphQL type for a supervisor run.
func createRunType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Run",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if run, ok := p.Source.(runner.RunInfo); ok {
						return run.ID, nil
					}
					return nil, nil
				},
			},
			"dataset": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if run, ok := p.Source.(runner.RunInfo); ok {
						return run.Params.Dataset, nil
					}
					return nil, nil
				},
			},
			"query": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if run, ok := p.Source.(runner.RunInfo); ok {
						return run.Params.Query, nil
					}
					return nil, nil
				},
			},
			"heterogeneity": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if run, ok := p.Source.(runner.RunInfo); ok {
						return run.Params.Heterogeneity, nil
					}
					return nil, nil
				},
			},
			"topology": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if run, ok := p.Source.(runner.RunInfo); ok {
						return run.Params.Topology, nil
					}
					return nil, nil
				},
			},
			"nodes": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if run, ok := p.Source.(runner.RunInfo); ok {
						return run.Params.Nodes, nil
					}
					return nil, nil
				},
			},
			"state": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if run, ok := p.Source.(runner.RunInfo); ok {
						return string(run.State), nil
					}
					return nil, nil
				},
			},
			"startedAt": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if run, ok := p.Source.(runner.RunInfo); ok {
						return run.StartedAt.Format(time.RFC3339), nil
					}
					return nil, nil
				},
			},
			"finishedAt": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if run, ok := p.Source.(runner.RunInfo); ok && run.FinishedAt != nil {
						return run.FinishedAt.Format(time.RFC3339), nil
					}
					return nil, nil
				},
			},
			"exitCode": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if run, ok := p.Source.(runner.RunInfo); ok {
						return run.ExitCode, nil
					}
					return nil, nil
				},
			},
			"error": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if run, ok := p.Source.(runner.RunInfo); ok {
						return run.Error, nil
					}
					return nil, nil
				},
			},
		},
	})
}

// createElementType creates the GraphQL type for one drawn element. Nodes
// carry id and label; edges carry source and target.
func createElementType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Element",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if el, ok := p.Source.(topology.Element); ok {
						return el.Data.ID, nil
					}
					return nil, nil
				},
			},
			"label": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if el, ok := p.Source.(topology.Element); ok {
						return el.Data.Label, nil
					}
					return nil, nil
				},
			},
			"source": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if el, ok := p.Source.(topology.Element); ok {
						return el.Data.Source, nil
					}
					return nil, nil
				},
			},
			"target": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if el, ok := p.Source.(topology.Element); ok {
						return el.Data.Target, nil
					}
					return nil, nil
				},
			},
		},
	})
}

// createTopologyType wraps the element list with its parameters.
func createTopologyType(elementType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Topology",
		Fields: graphql.Fields{
			"nodeCount": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if v, ok := p.Source.(topologyView); ok {
						return v.NodeCount, nil
					}
					return nil, nil
				},
			},
			"expanded": &graphql.Field{
				Type: graphql.NewList(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if v, ok := p.Source.(topologyView); ok {
						return v.Expanded, nil
					}
					return nil, nil
				},
			},
			"elements": &graphql.Field{
				Type: graphql.NewList(elementType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if v, ok := p.Source.(topologyView); ok {
						return v.Elements, nil
					}
					return nil, nil
				},
			},
		},
	})
}

// createHistoryType creates the GraphQL type for an archived run.
func createHistoryType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "HistoryRecord",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if rec, ok := p.Source.(*history.Record); ok {
						return rec.ID, nil
					}
					return nil, nil
				},
			},
			"dataset": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if rec, ok := p.Source.(*history.Record); ok {
						return rec.Params.Dataset, nil
					}
					return nil, nil
				},
			},
			"query": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if rec, ok := p.Source.(*history.Record); ok {
						return rec.Params.Query, nil
					}
					return nil, nil
				},
			},
			"state": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if rec, ok := p.Source.(*history.Record); ok {
						return rec.State, nil
					}
					return nil, nil
				},
			},
			"startedAt": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if rec, ok := p.Source.(*history.Record); ok {
						return rec.StartedAt.Format(time.RFC3339), nil
					}
					return nil, nil
				},
			},
			"finishedAt": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if rec, ok := p.Source.(*history.Record); ok {
						return rec.FinishedAt.Format(time.RFC3339), nil
					}
					return nil, nil
				},
			},
			"exitCode": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if rec, ok := p.Source.(*history.Record); ok {
						return rec.ExitCode, nil
					}
					return nil, nil
				},
			},
			"durationSeconds": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if rec, ok := p.Source.(*history.Record); ok {
						return rec.Duration().Seconds(), nil
					}
					return nil, nil
				},
			},
		},
	})
}
