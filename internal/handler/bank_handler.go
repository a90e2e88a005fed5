package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
	"github.com/pablogaravito/psm1-exam-simulator/internal/response"
	"github.com/pablogaravito/psm1-exam-simulator/internal/service"
)

// BankHandler exposes the loaded question bank's composition.
type BankHandler struct {
	bankService *service.BankService
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(bankService *service.BankService) *BankHandler {
	return &BankHandler{bankService: bankService}
}

type bankSummary struct {
	Total  int `json:"total"`
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

func summarize(b *model.Bank) bankSummary {
	counts := b.CountByDifficulty()
	return bankSummary{
		Total:  len(b.Records),
		Easy:   counts[model.DifficultyEasy],
		Medium: counts[model.DifficultyMedium],
		Hard:   counts[model.DifficultyHard],
	}
}

// GetSummary godoc
// GET /api/v1/bank
// Returns how many questions of each difficulty the bank holds, so the
// setup screen can size its choices.
func (h *BankHandler) GetSummary(c *gin.Context) {
	b, err := h.bankService.Bank(c.Request.Context())
	if err != nil {
		status, code := StatusFor(err)
		response.Fail(c, status, code)
		return
	}
	response.Success(c, http.StatusOK, summarize(b))
}

// Reload godoc
// POST /api/v1/bank/reload
// Drops the cached bank and loads it again from its source. Running
// attempts keep the questions they were started with.
func (h *BankHandler) Reload(c *gin.Context) {
	b, err := h.bankService.Reload(c.Request.Context())
	if err != nil {
		status, code := StatusFor(err)
		response.Fail(c, status, code)
		return
	}
	response.Success(c, http.StatusOK, summarize(b))
}
