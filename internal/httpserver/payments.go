package httpserver

import (
	"net/http"

	"healthmall/internal/domain"
	"github.com/gin-gonic/gin"
)

type paymentSuccessRequest struct {
	PaymentNo string `json:"paymentNo" binding:"required"`
	TradeNo   string `json:"tradeNo" binding:"required"`
}

type paymentFailureRequest struct {
	PaymentNo string `json:"paymentNo" binding:"required"`
	Reason    string `json:"reason"`
}

func paymentSuccessHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req paymentSuccessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apiError(c, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		if err := svc.PaymentSuccess(c.Request.Context(), req.PaymentNo, req.TradeNo); err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	}
}

func paymentFailureHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req paymentFailureRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apiError(c, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		if err := svc.PaymentFailure(c.Request.Context(), req.PaymentNo, req.Reason); err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	}
}

// samplingAdvanceHandler is driven by the logistics collaborator as the
// collected sample moves toward the lab.
func samplingAdvanceHandler(svc OrderService, to domain.SamplingStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}
		if err := svc.AdvanceSampling(c.Request.Context(), orderID, to); err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	}
}
