package handlers

import (
	"net/http"

	"afisha/internal/models"

	"github.com/gin-gonic/gin"
)

// Wallet handlers

// GetWallet - GET /api/users/:id/wallet
// Получить кошелек пользователя
func (h *Handlers) GetWallet(c *gin.Context) {
	userID := pathID(c, "id")
	if userID == 0 {
		respondBadRequest(c, "invalid user id")
		return
	}

	wallet, err := h.services.Wallets.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.WalletResponse{Wallet: wallet})
}

// RechargeWallet - POST /api/users/:id/wallet/recharge
// Пополнить кошелек
func (h *Handlers) RechargeWallet(c *gin.Context) {
	userID := pathID(c, "id")
	if userID == 0 {
		respondBadRequest(c, "invalid user id")
		return
	}

	var req models.RechargeWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	wallet, transaction, err := h.services.Wallets.Recharge(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.RechargeWalletResponse{
		Message:     "Wallet recharged successfully",
		Wallet:      wallet,
		Transaction: transaction,
	})
}

// ListWalletTransactions - GET /api/users/:id/wallet/transactions
// История операций кошелька
func (h *Handlers) ListWalletTransactions(c *gin.Context) {
	userID := pathID(c, "id")
	if userID == 0 {
		respondBadRequest(c, "invalid user id")
		return
	}

	page, pageSize := pageParams(c)
	response, err := h.services.Wallets.Transactions(c.Request.Context(), userID, page, pageSize, c.Query("type"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
