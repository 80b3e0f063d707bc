package erpnext

import (
	"context"
	"errors"
	"log/slog"

	"github.com/quoteproc/quote-processor/constants"
	"github.com/quoteproc/quote-processor/internal/common"
	"github.com/quoteproc/quote-processor/internal/document"
	"github.com/quoteproc/quote-processor/internal/normalize"
)

// Engine idempotently creates canonical items and their dependencies
// in ERPNext. One item's failure never prevents processing of the
// rest of a batch. `item_code` is the external system's natural key;
// uniqueness is enforced there, not here: a race between two upserts
// of the same code resolves to one created and one failed.
type Engine struct {
	client DocClient
	logger *slog.Logger
}

func NewEngine(client DocClient, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{client: client, logger: logger}
}

// Upsert creates one item unless it already exists.
func (e *Engine) Upsert(ctx context.Context, item normalize.CanonicalItem) document.UpsertResult {
	existing, err := e.client.GetDoc(ctx, "Item", item.ItemCode)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		// Lookup failure other than not-found still means we cannot
		// prove existence; treat as absent and let creation decide.
		e.logger.Warn("upsert.lookup_degraded", "item_code", item.ItemCode, "error", err)
	}
	if existing != nil {
		e.logger.Info("upsert.skipped", "item_code", item.ItemCode)
		return document.UpsertResult{
			ItemCode: item.ItemCode,
			Status:   document.StatusSkipped,
			Message:  "already exists",
		}
	}

	e.ensureItemGroup(ctx, item.ItemGroup)
	e.ensureUOM(ctx, item.StockUOM)

	payload := map[string]any{
		"doctype":    "Item",
		"item_code":  item.ItemCode,
		"item_name":  item.ItemName,
		"item_group": item.ItemGroup,
		"stock_uom":  item.StockUOM,
	}
	if item.Description != "" {
		payload["description"] = item.Description
	}
	if item.StandardRate != nil {
		payload["standard_rate"] = *item.StandardRate
	}
	if item.IsStockItem != nil {
		payload["is_stock_item"] = *item.IsStockItem
	}

	if _, err := e.client.InsertDoc(ctx, "Item", payload); err != nil {
		e.logger.Error("upsert.create_failed", "item_code", item.ItemCode, "error", err)
		return document.UpsertResult{
			ItemCode: item.ItemCode,
			Status:   document.StatusFailed,
			Message:  err.Error(),
		}
	}
	e.logger.Info("upsert.created", "item_code", item.ItemCode, "item_group", item.ItemGroup, "stock_uom", item.StockUOM)
	return document.UpsertResult{ItemCode: item.ItemCode, Status: document.StatusCreated}
}

// UpsertAll processes items independently, one result per item.
func (e *Engine) UpsertAll(ctx context.Context, items []normalize.CanonicalItem) []document.UpsertResult {
	results := make([]document.UpsertResult, 0, len(items))
	for _, item := range items {
		results = append(results, e.Upsert(ctx, item))
	}
	return results
}

// ensureItemGroup creates the referenced item group when absent.
// Failures are logged, never fatal: the item creation attempt proceeds
// optimistically and ERPNext gives the final verdict.
func (e *Engine) ensureItemGroup(ctx context.Context, name string) {
	if _, err := e.client.GetDoc(ctx, "Item Group", name); err == nil {
		return
	} else if !errors.Is(err, common.ErrNotFound) {
		e.logger.Warn("upsert.item_group_lookup_failed", "item_group", name, "error", err)
	}

	payload := map[string]any{
		"doctype":           "Item Group",
		"item_group_name":   name,
		"parent_item_group": constants.DefaultItemGroupParent,
		"is_group":          0,
	}
	if _, err := e.client.InsertDoc(ctx, "Item Group", payload); err != nil {
		e.logger.Warn("upsert.item_group_create_failed", "item_group", name, "error", err)
		return
	}
	e.logger.Info("upsert.item_group_created", "item_group", name)
}

// ensureUOM creates the referenced unit of measure when absent,
// marking count-like units as whole-number only.
func (e *Engine) ensureUOM(ctx context.Context, name string) {
	if _, err := e.client.GetDoc(ctx, "UOM", name); err == nil {
		return
	} else if !errors.Is(err, common.ErrNotFound) {
		e.logger.Warn("upsert.uom_lookup_failed", "uom", name, "error", err)
	}

	payload := map[string]any{
		"doctype":  "UOM",
		"uom_name": name,
	}
	if constants.IsWholeNumberUOM(name) {
		payload["must_be_whole_number"] = 1
	}
	if _, err := e.client.InsertDoc(ctx, "UOM", payload); err != nil {
		e.logger.Warn("upsert.uom_create_failed", "uom", name, "error", err)
		return
	}
	e.logger.Info("upsert.uom_created", "uom", name)
}
