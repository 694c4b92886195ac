// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package service wires the writer engine to HTTP: one gin route per
// read-only OData surface this deployment supports (entity sets, single
// resources, nested navigation, and a $delta feed), each request owning its
// own Writer and its own back-end instance. Tracing, request ids, and
// backpressure are applied as gin middleware; each handler counts its own
// responses in the requests metric.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/AntiGuideAkquinet/odata.net/internal/odata/archive"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/deltafeed"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/edm"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/modelcache"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/odataerrors"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/odatajson"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/state"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/writer"
)

// DataSource supplies the resources a handler writes for a navigation
// source, independent of any particular request's writer engine.
type DataSource interface {
	// Resources returns every top-level resource currently in
	// navigationSourceName, each as a property-name-to-value map plus its
	// resolved concrete type name.
	Resources(ctx context.Context, navigationSourceName string) ([]ResourceRow, error)
	// Resource returns a single resource by key, and whether it exists.
	Resource(ctx context.Context, navigationSourceName, key string) (ResourceRow, bool, error)
}

// ResourceRow is one entity as the data source hands it to a handler.
type ResourceRow struct {
	Key        string
	TypeName   string
	Properties map[string]any
}

// Handler bundles the dependencies every route needs.
type Handler struct {
	Model   edm.Model
	Data    DataSource
	Cache   *modelcache.Cache
	Limiter *rate.Limiter
	// Archive, when set, tees every served payload to compliance storage
	// as it is written. A nil Archive disables teeing entirely.
	Archive *archive.Store

	requestsTotal *prometheus.CounterVec

	// deltaMu guards deltaSnapshots, the per-entity-set text of the last
	// snapshot served by getDelta, against concurrent requests for the
	// same entity set.
	deltaMu        sync.Mutex
	deltaSnapshots map[string]string
}

// NewHandler constructs a Handler and registers its Prometheus collectors.
// store may be nil, in which case served payloads are not archived.
func NewHandler(model edm.Model, data DataSource, cache *modelcache.Cache, store *archive.Store, registry *prometheus.Registry) *Handler {
	h := &Handler{
		Model:   model,
		Data:    data,
		Cache:   cache,
		Archive: store,
		// 50 requests/sec with a burst of 100 is a starting point for a
		// single-instance deployment; production tuning belongs in config.
		Limiter: rate.NewLimiter(rate.Limit(50), 100),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odata_requests_total",
			Help: "Total OData HTTP requests served, by entity set and status.",
		}, []string{"entity_set", "status"}),
		deltaSnapshots: map[string]string{},
	}
	registry.MustRegister(h.requestsTotal)
	return h
}

// Router builds the gin engine, with otel tracing and request-id injection
// applied to every route.
func (h *Handler) Router(tracerServiceName string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(tracerServiceName))
	r.Use(h.requestIDMiddleware)
	r.Use(h.rateLimitMiddleware)

	r.GET("/:entitySet", h.getResourceSet)
	r.GET("/:entitySet/:key", h.getResource)
	r.GET("/:entitySet/:key/:navigation", h.getNestedResourceSet)
	r.GET("/:entitySet/$delta", h.getDelta)
	r.GET("/:entitySet/$delta/live", h.getDeltaLive)

	reg := prometheus.NewRegistry()
	reg.MustRegister(h.requestsTotal)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	return r
}

func (h *Handler) requestIDMiddleware(c *gin.Context) {
	c.Set("request_id", uuid.NewString())
	c.Next()
}

func (h *Handler) rateLimitMiddleware(c *gin.Context) {
	if !h.Limiter.Allow() {
		c.AbortWithStatus(http.StatusTooManyRequests)
		return
	}
	c.Next()
}

func (h *Handler) getResourceSet(c *gin.Context) {
	entitySet := c.Param("entitySet")
	rows, err := h.Data.Resources(c.Request.Context(), entitySet)
	if err != nil {
		h.writeError(c, entitySet, err)
		return
	}
	h.writeResourceSet(c, entitySet, "", rows)
}

func (h *Handler) getResource(c *gin.Context) {
	entitySet := c.Param("entitySet")
	key := c.Param("key")
	row, ok, err := h.Data.Resource(c.Request.Context(), entitySet, key)
	if err != nil {
		h.writeError(c, entitySet, err)
		return
	}
	if !ok {
		c.Status(http.StatusNotFound)
		h.requestsTotal.WithLabelValues(entitySet, "404").Inc()
		return
	}
	h.writeSingleResource(c, entitySet, row)
}

func (h *Handler) getNestedResourceSet(c *gin.Context) {
	entitySet := c.Param("entitySet")
	key := c.Param("key")
	navigation := c.Param("navigation")

	navProp, ok := h.Model.FindNavigationProperty(resourceTypeForSet(h.Model, entitySet), navigation)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	target, ok := h.Model.NavigationTarget(entitySet, navProp)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	_ = key // a real data source would filter the target set by the parent key
	rows, err := h.Data.Resources(c.Request.Context(), target)
	if err != nil {
		h.writeError(c, entitySet, err)
		return
	}
	h.writeResourceSet(c, target, "", rows)
}

// getDelta computes what changed in entitySet since the last time this
// handler served a $delta request for it, by diffing a line-per-entity
// snapshot of the current rows against the snapshot stored from the
// previous call. A row present now but absent before (by id or by
// content) is written as an added/changed resource; a row absent now but
// present before is written as a deleted resource. The first request for
// a given entity set has no prior snapshot, so every row is reported as
// added.
func (h *Handler) getDelta(c *gin.Context) {
	entitySet := c.Param("entitySet")
	rows, err := h.Data.Resources(c.Request.Context(), entitySet)
	if err != nil {
		h.writeError(c, entitySet, err)
		return
	}

	current := snapshotLines(rows)
	previous := h.swapDeltaSnapshot(entitySet, current)
	changes, _, err := deltafeed.Diff(previous, current)
	if err != nil {
		h.writeError(c, entitySet, err)
		return
	}
	added, removed := splitChanges(changes)
	byKey := make(map[string]ResourceRow, len(rows))
	for _, row := range rows {
		byKey[row.Key] = row
	}

	c.Status(http.StatusOK)
	c.Writer.Header().Set("Content-Type", "application/json;odata.metadata=minimal")
	dst, closeArchive := h.archiveTee(c, entitySet+"-delta")
	defer closeArchive()
	back := odatajson.New(dst, fmt.Sprintf("$metadata#%s/$delta", entitySet))
	w, err := writer.New(writer.Options{Model: h.Model, Hooks: back}, entitySet, true, "")
	if err != nil {
		h.writeError(c, entitySet, err)
		return
	}
	ctx := c.Request.Context()
	if err := w.StartDeltaResourceSet(ctx, &state.ResourceSetInfo{}); err != nil {
		h.writeError(c, entitySet, err)
		return
	}
	for _, key := range added {
		row, ok := byKey[key]
		if !ok {
			continue
		}
		if err := writeRow(ctx, w, row); err != nil {
			h.writeError(c, entitySet, err)
			return
		}
	}
	resourceType := resourceTypeForSet(h.Model, entitySet)
	for _, key := range removed {
		if err := w.StartDeletedResource(ctx, &state.ResourceInfo{TypeName: resourceType, ID: key}); err != nil {
			h.writeError(c, entitySet, err)
			return
		}
		if err := w.End(ctx); err != nil {
			h.writeError(c, entitySet, err)
			return
		}
	}
	if err := w.End(ctx); err != nil {
		h.writeError(c, entitySet, err)
		return
	}
	h.requestsTotal.WithLabelValues(entitySet, "200").Inc()
}

// swapDeltaSnapshot stores current as the entity set's new snapshot and
// returns whatever snapshot was stored before the call (empty for the
// first request).
func (h *Handler) swapDeltaSnapshot(entitySet, current string) string {
	h.deltaMu.Lock()
	defer h.deltaMu.Unlock()
	previous := h.deltaSnapshots[entitySet]
	h.deltaSnapshots[entitySet] = current
	return previous
}

// snapshotLines renders rows as deltafeed's one-entity-per-line format,
// keyed by the entity's id up to the first tab. Rows are sorted by key so
// the same set of rows always renders the same snapshot text regardless
// of the order the data source returned them in.
func snapshotLines(rows []ResourceRow) string {
	sorted := make([]ResourceRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var b strings.Builder
	for _, row := range sorted {
		props, _ := json.Marshal(row.Properties)
		fmt.Fprintf(&b, "%s\t%s\t%s\n", row.Key, row.TypeName, props)
	}
	return b.String()
}

// splitChanges separates deltafeed's line-level changes into the keys of
// resources to report as added/changed and the keys to report as
// deleted. A resource whose content changed appears as both an Added and
// a Removed line sharing one id; splitChanges treats that id as
// added/changed only, never also as deleted.
func splitChanges(changes []deltafeed.Change) (added, removed []string) {
	addedSet := make(map[string]bool)
	for _, c := range changes {
		if c.Kind == deltafeed.Added {
			addedSet[c.ID] = true
			added = append(added, c.ID)
		}
	}
	for _, c := range changes {
		if c.Kind == deltafeed.Removed && !addedSet[c.ID] {
			removed = append(removed, c.ID)
		}
	}
	return added, removed
}

func (h *Handler) writeResourceSet(c *gin.Context, entitySet, key string, rows []ResourceRow) {
	c.Writer.Header().Set("Content-Type", "application/json;odata.metadata=minimal")
	dst, closeArchive := h.archiveTee(c, entitySet)
	defer closeArchive()
	back := odatajson.New(dst, fmt.Sprintf("$metadata#%s", entitySet))
	w, err := writer.New(writer.Options{Model: h.Model, Hooks: back}, entitySet, true, "")
	if err != nil {
		h.writeError(c, entitySet, err)
		return
	}
	ctx := c.Request.Context()
	count := int64(len(rows))
	if err := w.StartResourceSet(ctx, &state.ResourceSetInfo{Count: &count}); err != nil {
		h.writeError(c, entitySet, err)
		return
	}
	for _, row := range rows {
		if err := writeRow(ctx, w, row); err != nil {
			h.writeError(c, entitySet, err)
			return
		}
	}
	if err := w.End(ctx); err != nil {
		h.writeError(c, entitySet, err)
		return
	}
	h.requestsTotal.WithLabelValues(entitySet, "200").Inc()
}

func (h *Handler) writeSingleResource(c *gin.Context, entitySet string, row ResourceRow) {
	c.Writer.Header().Set("Content-Type", "application/json;odata.metadata=minimal")
	dst, closeArchive := h.archiveTee(c, entitySet)
	defer closeArchive()
	back := odatajson.New(dst, fmt.Sprintf("$metadata#%s/$entity", entitySet))
	w, err := writer.New(writer.Options{Model: h.Model, Hooks: back}, entitySet, false, "")
	if err != nil {
		h.writeError(c, entitySet, err)
		return
	}
	ctx := c.Request.Context()
	if err := writeRow(ctx, w, row); err != nil {
		h.writeError(c, entitySet, err)
		return
	}
	if err := w.End(ctx); err != nil {
		h.writeError(c, entitySet, err)
		return
	}
	h.requestsTotal.WithLabelValues(entitySet, "200").Inc()
}

func (h *Handler) writeError(c *gin.Context, entitySet string, err error) {
	status := http.StatusInternalServerError
	if odataerrors.Of(err, odataerrors.KindTypeNameNotFound) {
		status = http.StatusNotFound
	} else if isAPIUsageOrSchemaError(err) {
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"message":    err.Error(),
			"request_id": c.GetString("request_id"),
		},
	})
	h.requestsTotal.WithLabelValues(entitySet, fmt.Sprint(status)).Inc()
}

// archiveTee returns the writer a handler should serialize into, and a
// close func the caller must defer. When no Archive is configured, it
// returns c.Writer unchanged and a no-op close.
func (h *Handler) archiveTee(c *gin.Context, objectName string) (io.Writer, func()) {
	if h.Archive == nil {
		return c.Writer, func() {}
	}
	ts := time.Now().UTC().Format("20060102T150405.000Z")
	dst, closeTee := h.Archive.Tee(c.Request.Context(), c.Writer, fmt.Sprintf("%s/%s.json", objectName, ts))
	return dst, func() {
		if err := closeTee(); err != nil {
			h.requestsTotal.WithLabelValues(c.Param("entitySet"), "archive-error").Inc()
		}
	}
}

func isAPIUsageOrSchemaError(err error) bool {
	for _, k := range []odataerrors.Kind{
		odataerrors.KindIncompatibleResourceTypes,
		odataerrors.KindDerivedTypeConstraint,
		odataerrors.KindCountInRequest,
		odataerrors.KindDeltaLinkInRequest,
	} {
		if odataerrors.Of(err, k) {
			return true
		}
	}
	return false
}

func resourceTypeForSet(model edm.Model, entitySetName string) string {
	if es, ok := model.FindEntitySet(entitySetName); ok {
		return es.EntityType.Name
	}
	return ""
}

// writeRow drives a single resource through w: start, properties (carried
// directly on the ResourceInfo the back-end reads from), end.
func writeRow(ctx context.Context, w *writer.Writer, row ResourceRow) error {
	info := &state.ResourceInfo{
		TypeName:   row.TypeName,
		ID:         row.Key,
		Properties: row.Properties,
	}
	if err := w.StartResource(ctx, info); err != nil {
		return err
	}
	return w.End(ctx)
}

// requestTimeout is a 30-second per-request budget. No handler in this
// package applies it; requests are bounded only by the HTTP server's own
// read/write timeouts.
const requestTimeout = 30 * time.Second
