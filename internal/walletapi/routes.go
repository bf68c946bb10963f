package walletapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/salvium/wallet-core/internal/store"
)

// Handler binds the wallet Core to the HTTP/WebSocket surface.
type Handler struct {
	core  Core
	wsHub *Hub
}

// SetupRouter builds the full gin.Engine: public read endpoints, a
// bearer-token-gated send/address group, and the WebSocket stream.
func SetupRouter(core Core, wsHub *Hub) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("WALLET_API_ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	h := &Handler{core: core, wsHub: wsHub}

	pub := r.Group("/api/v1")
	{
		pub.GET("/health", h.handleHealth)
		pub.GET("/balance", h.handleBalance)
		pub.GET("/outputs", h.handleOutputs)
		pub.GET("/transactions", h.handleTransactions)
		pub.GET("/sync/height", h.handleSyncHeight)
		pub.GET("/stream", wsHub.Subscribe)
	}

	protected := r.Group("/api/v1")
	protected.Use(AuthMiddleware())
	protected.Use(NewRateLimiter(30, 5).Middleware())
	{
		protected.POST("/send", h.handleSend)
		protected.POST("/address", h.handleNewSubaddress)
	}

	return r
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "operational"})
}

func (h *Handler) handleBalance(c *gin.Context) {
	assetType := c.DefaultQuery("asset_type", "SAL")
	bal, err := h.core.Balance(c.Request.Context(), assetType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"assetType": assetType,
		"total":     bal.Total,
		"unlocked":  bal.Unlocked,
		"locked":    bal.Locked,
	})
}

func (h *Handler) handleOutputs(c *gin.Context) {
	filter := store.OutputFilter{AssetType: c.Query("asset_type")}
	if spentStr := c.Query("spent"); spentStr != "" {
		spent := spentStr == "true"
		filter.SpentState = &spent
	}

	outputs, err := h.core.Outputs(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	currentHeight, err := h.core.SyncHeight(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"outputs": toOutputDTOs(outputs, currentHeight)})
}

func (h *Handler) handleTransactions(c *gin.Context) {
	filter := store.TransactionFilter{
		AssetType: c.Query("asset_type"),
		Direction: store.TxDirection(c.Query("direction")),
	}
	txs, err := h.core.Transactions(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": toTransactionDTOs(txs)})
}

func (h *Handler) handleSyncHeight(c *gin.Context) {
	walletHeight, err := h.core.SyncHeight(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	daemonHeight, err := h.core.DaemonHeight(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"walletHeight": walletHeight,
		"daemonHeight": daemonHeight,
		"synchronized": walletHeight >= daemonHeight,
	})
}

func (h *Handler) handleSend(c *gin.Context) {
	var req struct {
		Destinations []SendDestination `json:"destinations"`
		AssetType    string            `json:"assetType"`
		Priority     int               `json:"priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Destinations) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one destination is required"})
		return
	}

	result, err := h.core.Send(c.Request.Context(), SendRequest{
		Destinations: req.Destinations,
		AssetType:    req.AssetType,
		Priority:     req.Priority,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.wsHub.BroadcastEvent(Event{Type: EventTransaction, Data: result})
	c.JSON(http.StatusOK, gin.H{"txHash": result.TxHash, "fee": result.Fee})
}

func (h *Handler) handleNewSubaddress(c *gin.Context) {
	majorStr := c.DefaultQuery("major", "0")
	minorStr := c.DefaultQuery("minor", "0")
	major, err := strconv.ParseUint(majorStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid major index"})
		return
	}
	minor, err := strconv.ParseUint(minorStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid minor index"})
		return
	}

	address, err := h.core.NewSubaddress(c.Request.Context(), SubaddressRequest{
		Major: uint32(major),
		Minor: uint32(minor),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address})
}
