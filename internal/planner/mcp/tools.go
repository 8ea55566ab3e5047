package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/rsned/production-planner/pkg/planner"
)

// Tool names.
const (
	ToolCatalogLookup = "catalog_lookup"
	ToolAddTree       = "add_tree"
	ToolDeleteTree    = "delete_tree"
	ToolSetTreeRate   = "set_tree_rate"
	ToolSetRecipe     = "set_recipe"
	ToolSetExcess     = "set_excess"
	ToolCreateImport  = "create_import"
	ToolRemoveImport  = "remove_import"
	ToolGetPlan       = "get_plan"
	ToolAccumulate    = "accumulate"
	ToolItemTotals    = "item_totals"
	ToolAffectedPaths = "affected_paths"
	ToolSavePlan      = "save_plan"
	ToolLoadPlan      = "load_plan"
	ToolListPlans     = "list_plans"
)

var errNoPlanStore = errors.New("plan persistence is not configured")

// ToolDefinition describes an MCP tool.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// JSONSchema is a simplified JSON Schema representation.
type JSONSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a schema property.
type Property struct {
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Default     any      `json:"default,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
}

var zero = 0.0

var (
	treeIDProp   = Property{Type: "string", Description: "Production tree ID"}
	pathIDProp   = Property{Type: "string", Description: "Node path ID within the tree"}
	rateProp     = Property{Type: "number", Description: "Demand in units per minute", Minimum: &zero}
	planNameProp = Property{Type: "string", Description: "Name of the stored plan"}
)

func object(required []string, props map[string]Property) JSONSchema {
	return JSONSchema{Type: "object", Properties: props, Required: required}
}

// GetToolDefinitions returns all tool definitions.
func GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        ToolCatalogLookup,
			Description: "Look up an item or recipe in the catalog. Returns the recipes producing the item, the recipes consuming it and the default recipe the planner would pick.",
			InputSchema: object(nil, map[string]Property{
				"item_id":   {Type: "string", Description: "Item to look up"},
				"recipe_id": {Type: "string", Description: "Recipe to look up"},
			}),
		},
		{
			Name:        ToolAddTree,
			Description: "Create a production tree for a target item at a rate. The whole chain down to raw materials is resolved.",
			InputSchema: object([]string{"item_id", "rate_per_minute"}, map[string]Property{
				"tree_id":         {Type: "string", Description: "Tree ID, generated when omitted. Must not contain ':' or '/'"},
				"name":            {Type: "string", Description: "Display name, defaults to the item ID"},
				"item_id":         {Type: "string", Description: "Target item"},
				"rate_per_minute": rateProp,
				"recipe_id":       {Type: "string", Description: "Recipe for the root, defaults to the catalog default"},
			}),
		},
		{
			Name:        ToolDeleteTree,
			Description: "Delete a production tree. Trees importing from it produce those items locally again.",
			InputSchema: object([]string{"tree_id"}, map[string]Property{"tree_id": treeIDProp}),
		},
		{
			Name:        ToolSetTreeRate,
			Description: "Change the demand of a tree root. Trees it imports from follow the change.",
			InputSchema: object([]string{"tree_id", "rate_per_minute"}, map[string]Property{
				"tree_id":         treeIDProp,
				"rate_per_minute": rateProp,
			}),
		},
		{
			Name:        ToolSetRecipe,
			Description: "Choose the recipe used at a node. An empty recipe_id restores the default.",
			InputSchema: object([]string{"tree_id", "path_id"}, map[string]Property{
				"tree_id":   treeIDProp,
				"path_id":   pathIDProp,
				"recipe_id": {Type: "string", Description: "Recipe producing the node's item"},
			}),
		},
		{
			Name:        ToolSetExcess,
			Description: "Produce extra units per minute at a node on top of its demand. Zero clears it.",
			InputSchema: object([]string{"tree_id", "path_id", "units"}, map[string]Property{
				"tree_id": treeIDProp,
				"path_id": pathIDProp,
				"units":   {Type: "number", Description: "Extra units per minute", Minimum: &zero},
			}),
		},
		{
			Name:        ToolCreateImport,
			Description: "Satisfy a node from the root of another tree producing the same item. The source tree's rate grows by the node's demand.",
			InputSchema: object([]string{"consumer_tree_id", "consumer_path_id", "source_tree_id"}, map[string]Property{
				"consumer_tree_id": treeIDProp,
				"consumer_path_id": pathIDProp,
				"source_tree_id":   {Type: "string", Description: "Tree whose root supplies the item"},
			}),
		},
		{
			Name:        ToolRemoveImport,
			Description: "Produce an imported node locally again. A source tree left with no demand is deleted.",
			InputSchema: object([]string{"consumer_tree_id", "consumer_path_id"}, map[string]Property{
				"consumer_tree_id": treeIDProp,
				"consumer_path_id": pathIDProp,
			}),
		},
		{
			Name:        ToolGetPlan,
			Description: "Return the resolved trees and import links of the plan, or a single tree.",
			InputSchema: object(nil, map[string]Property{"tree_id": treeIDProp}),
		},
		{
			Name:        ToolAccumulate,
			Description: "Return the per-node ledger of demand, excess and recipe for the plan or a single tree.",
			InputSchema: object(nil, map[string]Property{"tree_id": treeIDProp}),
		},
		{
			Name:        ToolItemTotals,
			Description: "Return total demand per item and recipe across the plan, classified as target, intermediate, raw or byproduct.",
			InputSchema: object(nil, nil),
		},
		{
			Name:        ToolAffectedPaths,
			Description: "Return the node paths an edit at the given node would recompute.",
			InputSchema: object([]string{"tree_id", "path_id"}, map[string]Property{
				"tree_id": treeIDProp,
				"path_id": pathIDProp,
			}),
		},
		{
			Name:        ToolSavePlan,
			Description: "Save the current plan under a name.",
			InputSchema: object([]string{"name"}, map[string]Property{"name": planNameProp}),
		},
		{
			Name:        ToolLoadPlan,
			Description: "Replace the current plan with a saved one.",
			InputSchema: object([]string{"name"}, map[string]Property{"name": planNameProp}),
		},
		{
			Name:        ToolListPlans,
			Description: "List saved plans.",
			InputSchema: object(nil, nil),
		},
	}
}

// callTool dispatches to the appropriate tool handler.
func (s *Server) callTool(ctx context.Context, name string, args json.RawMessage) (any, error) {
	switch name {
	case ToolCatalogLookup:
		return s.toolCatalogLookup(ctx, args)
	case ToolAddTree:
		return s.toolAddTree(ctx, args)
	case ToolDeleteTree:
		return s.toolDeleteTree(ctx, args)
	case ToolSetTreeRate:
		return s.toolSetTreeRate(ctx, args)
	case ToolSetRecipe:
		return s.toolSetRecipe(ctx, args)
	case ToolSetExcess:
		return s.toolSetExcess(ctx, args)
	case ToolCreateImport:
		return s.toolCreateImport(ctx, args)
	case ToolRemoveImport:
		return s.toolRemoveImport(ctx, args)
	case ToolGetPlan:
		return s.toolGetPlan(args)
	case ToolAccumulate:
		return s.toolAccumulate(args)
	case ToolItemTotals:
		return s.store.ItemTotals(), nil
	case ToolAffectedPaths:
		return s.toolAffectedPaths(args)
	case ToolSavePlan:
		return s.toolSavePlan(ctx, args)
	case ToolLoadPlan:
		return s.toolLoadPlan(ctx, args)
	case ToolListPlans:
		return s.toolListPlans(ctx)
	default:
		return nil, &Error{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("unknown tool: %s", name)}
	}
}

// bind decodes and validates tool arguments.
func bind[T any](v *validator.Validate, args json.RawMessage) (T, error) {
	var req T
	if len(args) > 0 {
		if err := json.Unmarshal(args, &req); err != nil {
			return req, &Error{Code: ErrCodeInvalidParams, Message: fmt.Sprintf("invalid arguments: %v", err)}
		}
	}
	if err := v.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return req, &Error{
				Code:    ErrCodeInvalidParams,
				Message: fmt.Sprintf("invalid arguments: %s fails %q", fe.Field(), fe.Tag()),
			}
		}
		return req, &Error{Code: ErrCodeInvalidParams, Message: fmt.Sprintf("invalid arguments: %v", err)}
	}
	return req, nil
}

// toolError converts a tool failure to a JSON-RPC error. Import rejections
// carry a machine-readable reason.
func toolError(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	out := &Error{Code: ErrCodeTool, Message: err.Error()}
	if reason := planner.ImportRejectionReason(err); reason != "" {
		out.Data = map[string]string{"reason": reason}
	}
	return out
}

// Tool handlers

func (s *Server) toolCatalogLookup(ctx context.Context, args json.RawMessage) (any, error) {
	req, err := bind[planner.CatalogLookupRequest](s.validate, args)
	if err != nil {
		return nil, err
	}
	return s.engine.CatalogLookup(ctx, req)
}

func (s *Server) toolAddTree(ctx context.Context, args json.RawMessage) (any, error) {
	req, err := bind[planner.AddTreeRequest](s.validate, args)
	if err != nil {
		return nil, err
	}
	return s.store.AddTree(ctx, req)
}

func (s *Server) toolDeleteTree(ctx context.Context, args json.RawMessage) (any, error) {
	req, err := bind[planner.TreeRequest](s.validate, args)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteTree(ctx, req.TreeID); err != nil {
		return nil, err
	}
	return s.plan(), nil
}

func (s *Server) toolSetTreeRate(ctx context.Context, args json.RawMessage) (any, error) {
	req, err := bind[planner.SetTreeRateRequest](s.validate, args)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetTreeRate(ctx, req.TreeID, req.RatePerMinute); err != nil {
		return nil, err
	}
	return s.store.Tree(req.TreeID)
}

func (s *Server) toolSetRecipe(ctx context.Context, args json.RawMessage) (any, error) {
	req, err := bind[planner.SetRecipeRequest](s.validate, args)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetRecipe(ctx, req.TreeID, req.PathID, req.RecipeID); err != nil {
		return nil, err
	}
	return s.store.Tree(req.TreeID)
}

func (s *Server) toolSetExcess(ctx context.Context, args json.RawMessage) (any, error) {
	req, err := bind[planner.SetExcessRequest](s.validate, args)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetExcess(ctx, req.TreeID, req.PathID, req.Units); err != nil {
		return nil, err
	}
	return s.store.Tree(req.TreeID)
}

func (s *Server) toolCreateImport(ctx context.Context, args json.RawMessage) (any, error) {
	req, err := bind[planner.CreateImportRequest](s.validate, args)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateImport(ctx, req.ConsumerTreeID, req.ConsumerPathID, req.SourceTreeID); err != nil {
		return nil, err
	}
	return s.plan(), nil
}

func (s *Server) toolRemoveImport(ctx context.Context, args json.RawMessage) (any, error) {
	req, err := bind[planner.RemoveImportRequest](s.validate, args)
	if err != nil {
		return nil, err
	}
	if err := s.store.RemoveImport(ctx, req.ConsumerTreeID, req.ConsumerPathID); err != nil {
		return nil, err
	}
	return s.plan(), nil
}

func (s *Server) toolGetPlan(args json.RawMessage) (any, error) {
	req, err := bind[planner.PlanQueryRequest](s.validate, args)
	if err != nil {
		return nil, err
	}
	if req.TreeID == "" {
		return s.plan(), nil
	}
	tree, err := s.store.Tree(req.TreeID)
	if err != nil {
		return nil, err
	}
	return planner.PlanResponse{Trees: []*planner.ProductionTree{tree}}, nil
}

func (s *Server) toolAccumulate(args json.RawMessage) (any, error) {
	req, err := bind[planner.PlanQueryRequest](s.validate, args)
	if err != nil {
		return nil, err
	}
	if req.TreeID == "" {
		return s.store.Accumulate(), nil
	}
	return s.store.AccumulateTree(req.TreeID)
}

func (s *Server) toolAffectedPaths(args json.RawMessage) (any, error) {
	req, err := bind[planner.AffectedPathsRequest](s.validate, args)
	if err != nil {
		return nil, err
	}
	affected, err := s.store.AffectedPaths(req.TreeID, req.PathID)
	if err != nil {
		return nil, err
	}
	resp := planner.AffectedPathsResponse{PathIDs: make([]string, 0, len(affected))}
	for p := range affected {
		resp.PathIDs = append(resp.PathIDs, p)
	}
	sort.Strings(resp.PathIDs)
	return resp, nil
}

func (s *Server) toolSavePlan(ctx context.Context, args json.RawMessage) (any, error) {
	req, err := bind[planner.PlanNameRequest](s.validate, args)
	if err != nil {
		return nil, err
	}
	if s.plans == nil {
		return nil, errNoPlanStore
	}
	snap := s.store.Snapshot()
	if err := s.plans.SavePlan(ctx, req.Name, snap); err != nil {
		return nil, err
	}
	return planner.PlanInfo{Name: req.Name, TreeCount: len(snap.Trees)}, nil
}

func (s *Server) toolLoadPlan(ctx context.Context, args json.RawMessage) (any, error) {
	req, err := bind[planner.PlanNameRequest](s.validate, args)
	if err != nil {
		return nil, err
	}
	if s.plans == nil {
		return nil, errNoPlanStore
	}
	snap, err := s.plans.LoadPlan(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.store.Restore(ctx, *snap); err != nil {
		return nil, err
	}
	return s.plan(), nil
}

func (s *Server) toolListPlans(ctx context.Context) (any, error) {
	if s.plans == nil {
		return nil, errNoPlanStore
	}
	return s.plans.ListPlans(ctx)
}

func (s *Server) plan() planner.PlanResponse {
	return planner.PlanResponse{Trees: s.store.Trees(), Imports: s.store.Imports()}
}
