package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"workshop/internal/core/apperror"
	"workshop/internal/domain/codebooks/currency"
)

// CurrencyHandler adds the FX operations on top of the generic currency
// codebook routes: conversion through the base pivot and feed refresh.
type CurrencyHandler struct {
	*BaseHandler
	currencies *currency.Service
	source     currency.RateSource
}

// NewCurrencyHandler creates the currency handler.
func NewCurrencyHandler(base *BaseHandler, currencies *currency.Service, source currency.RateSource) *CurrencyHandler {
	return &CurrencyHandler{BaseHandler: base, currencies: currencies, source: source}
}

// Convert handles GET /currencies/convert?amount=100&from=EUR&to=USD.
func (h *CurrencyHandler) Convert(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid amount").WithDetail("amount", c.Query("amount")))
		return
	}

	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		h.Error(c, apperror.NewInvalidInput("conversion requires both from and to ISO codes"))
		return
	}

	converted, err := h.currencies.Convert(c.Request.Context(), amount, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"amount":    amount,
		"from":      from,
		"to":        to,
		"converted": converted,
	})
}

// RefreshRates handles POST /currencies/refresh-rates. Pulls the feed and
// updates every non-base currency it covers.
func (h *CurrencyHandler) RefreshRates(c *gin.Context) {
	result, err := h.currencies.RefreshRates(c.Request.Context(), h.source)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Base handles GET /currencies/base.
func (h *CurrencyHandler) Base(c *gin.Context) {
	base, err := h.currencies.Base(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, base)
}
