package controllers

import (
	"github.com/gin-gonic/gin"

	stream "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Stream"
)

// StreamController exposes the live-update WebSocket endpoints.
type StreamController struct {
	hub *stream.Hub
}

// NewStreamController creates a new stream controller.
func NewStreamController(hub *stream.Hub) *StreamController {
	return &StreamController{hub: hub}
}

// RegisterRoutes registers the WebSocket routes with Gin.
func (c *StreamController) RegisterRoutes(router *gin.Engine) {
	ws := router.Group("/ws")
	{
		ws.GET("/sensors", c.Global)
		ws.GET("/sensors/:rfid_tag", c.Animal)
	}
}

// Global upgrades to an all-animals live session: GET /ws/sensors
func (c *StreamController) Global(ctx *gin.Context) {
	c.hub.HandleGlobal(ctx.Writer, ctx.Request)
}

// Animal upgrades to a single-animal live session: GET /ws/sensors/:rfid_tag
func (c *StreamController) Animal(ctx *gin.Context) {
	c.hub.HandleAnimal(ctx.Writer, ctx.Request, ctx.Param("rfid_tag"))
}
