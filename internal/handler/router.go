package handler

import (
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Fee    *FeeHandler
	Rule   *RuleHandler
	Link   *LinkHandler
	Ledger *LedgerHandler
}

// Register 挂载 /api/v1 下的管理与触发接口，鉴权由调用方在 g 上配置
func Register(g *gin.RouterGroup, h Handlers) {
	fees := g.Group("/fees")
	{
		fees.POST("/periods", h.Fee.CreatePeriod)
		fees.PUT("/periods/:id", h.Fee.UpdatePeriod)
		fees.GET("/periods", h.Fee.ListPeriods)
		fees.GET("/resolve", h.Fee.Resolve)
		fees.POST("/calculate", h.Fee.Calculate)
		fees.GET("/settings/:marketplace", h.Fee.GetSettings)
		fees.PUT("/settings/:marketplace", h.Fee.SaveSettings)
	}

	rules := g.Group("/rules")
	{
		rules.POST("", h.Rule.Create)
		rules.PUT("/:id", h.Rule.Update)
		rules.DELETE("/:id", h.Rule.Disable)
		rules.GET("", h.Rule.List)
		rules.POST("/validate", h.Rule.Validate)
		rules.POST("/test", h.Rule.Test)
		rules.POST("/process", h.Rule.Process)
	}

	links := g.Group("/links")
	{
		links.POST("", h.Link.Link)
		links.DELETE("/:id", h.Link.Unlink)
		links.POST("/auto", h.Link.AutoLink)
	}

	ledger := g.Group("/ledger")
	{
		ledger.POST("/ingest", h.Ledger.Ingest)
		ledger.GET("/net/:erpOrderId", h.Ledger.NetPosition)
	}
}
