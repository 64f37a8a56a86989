package handler

import (
	"slices"

	"github.com/crm/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// DocumentRoutes creates the route group for document endpoints. renderGuard
// runs in front of every route that renders (rate limit, timeout).
func DocumentRoutes(handler *DocumentHandler, renderGuard ...gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("documents", "/documents")

	group.POST("/totals", handler.CalculateTotals)

	// Reference data
	group.GET("/types", handler.GetDocumentTypes)
	group.GET("/paper-sizes", handler.GetPaperSizes)
	group.GET("/backends", handler.GetBackends)

	guarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(slices.Clone(renderGuard), h)
	}
	group.POST("/:type/:id/pdf", guarded(handler.GeneratePDF)...)
	group.GET("/:type/:id/pdf", guarded(handler.DownloadPDF)...)
	group.GET("/:type/:id/preview", guarded(handler.Preview)...)

	return group
}
