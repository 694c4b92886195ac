// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package service

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"
	"github.com/gorilla/websocket"
)

var liveFeedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// This deployment serves one trusted front end; a real multi-tenant
	// deployment would check Origin against an allowlist here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveFeedEvent is one row pushed to a $delta/live subscriber, framed as a
// standalone JSON message rather than as part of a single OData payload
// document (a websocket connection has no single response body to nest
// annotations inside).
type liveFeedEvent struct {
	EntitySet string          `json:"entitySet"`
	Key       string          `json:"key"`
	ChangedAt strfmt.DateTime `json:"changedAt"`
	Resource  ResourceRow     `json:"resource"`
}

// getDeltaLive upgrades the connection and pushes the entity set's current
// rows as a sequence of liveFeedEvent messages, one websocket message per
// row, and then closes the connection. It replays the current snapshot once
// and does not push later changes.
func (h *Handler) getDeltaLive(c *gin.Context) {
	entitySet := c.Param("entitySet")
	rows, err := h.Data.Resources(c.Request.Context(), entitySet)
	if err != nil {
		h.writeError(c, entitySet, err)
		return
	}

	conn, err := liveFeedUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.requestsTotal.WithLabelValues(entitySet, "websocket-upgrade-error").Inc()
		return
	}
	defer conn.Close()

	for _, row := range rows {
		event := liveFeedEvent{
			EntitySet: entitySet,
			Key:       row.Key,
			ChangedAt: strfmt.DateTime(time.Now().UTC()),
			Resource:  row,
		}
		payload, err := json.Marshal(event)
		if err != nil {
			h.requestsTotal.WithLabelValues(entitySet, "websocket-encode-error").Inc()
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.requestsTotal.WithLabelValues(entitySet, "websocket-write-error").Inc()
			return
		}
	}
	h.requestsTotal.WithLabelValues(entitySet, "101").Inc()
}
