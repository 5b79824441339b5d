package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RootMessage is returned by the root liveness routes.
const RootMessage = "Server is Running! 🏃"

// Root godoc
// @ID          root
// @Summary     Server banner
// @Description Confirms the server is up. Served on "/" and on the API base path.
// @Tags        System
// @Produce     json
// @Success     200  {object}  handlers.SuccessResponse
// @Router      / [get]
func Root(c *gin.Context) {
	SendResponse(c, http.StatusOK, RootMessage, nil)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Tags        System
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Failure     500  {object}  middleware.ErrorBody
// @Router      /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
