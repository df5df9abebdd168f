package controller

import (
	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/viznest/viznest-backend/internal/middleware"
	"github.com/viznest/viznest-backend/internal/websocket"
)

type OrderEventsController struct {
	hub      *websocket.Hub
	upgrader *gorillaws.Upgrader
}

func NewOrderEventsController(hub *websocket.Hub, allowedOrigins []string) *OrderEventsController {
	return &OrderEventsController{
		hub:      hub,
		upgrader: websocket.NewUpgrader(allowedOrigins),
	}
}

// Subscribe upgrades to a websocket that receives the caller's order status changes.
// Browsers pass the access token as ?token= since they cannot set headers here.
// GET /api/v1/ws/orders
func (ctrl *OrderEventsController) Subscribe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already wrote the error response
		log.Warn("WebSocket upgrade failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	ctrl.hub.Serve(conn, userID)
	log.Info("Order events subscriber connected", map[string]interface{}{
		"user_id":  userID,
		"sessions": ctrl.hub.SessionCount(userID),
	})
}
