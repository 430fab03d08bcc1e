package httpserver

import (
	"net/http"
	"strconv"

	"healthmall/internal/domain"
	ordersvc "healthmall/internal/service/order"
	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	ShippingType    int    `json:"shippingType" binding:"required"`
	ShippingAddress string `json:"shippingAddress"`
	ContactName     string `json:"contactName" binding:"required"`
	ContactPhone    string `json:"contactPhone" binding:"required"`
	Remark          string `json:"remark"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type appointmentRequest struct {
	AppointmentID int64 `json:"appointmentId" binding:"required"`
}

func createOrderHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apiError(c, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		shippingType, err := domain.SamplingMethodFromCode(req.ShippingType)
		if err != nil {
			apiError(c, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		order, err := svc.Create(c.Request.Context(), userID, ordersvc.CreateInput{
			ShippingType:    shippingType,
			ShippingAddress: req.ShippingAddress,
			ContactName:     req.ContactName,
			ContactPhone:    req.ContactPhone,
			Remark:          req.Remark,
		})
		if err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func listOrdersHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var statusCode *int
		if raw := c.Query("status"); raw != "" {
			code, err := strconv.Atoi(raw)
			if err != nil {
				apiError(c, http.StatusBadRequest, codeBadRequest, "invalid status")
				return
			}
			statusCode = &code
		}
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

		result, err := svc.List(c.Request.Context(), userID, statusCode, page, size)
		if err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func orderStatisticsHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		stats, err := svc.Statistics(c.Request.Context(), userID)
		if err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func getOrderHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}
		order, err := svc.Get(c.Request.Context(), userID, orderID)
		if err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func cancelOrderHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}
		var req cancelOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apiError(c, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		if err := svc.Cancel(c.Request.Context(), userID, orderID, req.Reason); err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cancelled"})
	}
}

func confirmReceiptHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}
		if err := svc.ConfirmReceipt(c.Request.Context(), userID, orderID); err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "completed"})
	}
}

func appointmentHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}
		var req appointmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apiError(c, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		if err := svc.SetAppointment(c.Request.Context(), userID, orderID, req.AppointmentID); err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "appointment set"})
	}
}

func orderIDParam(c *gin.Context) (int64, bool) {
	orderID, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil || orderID <= 0 {
		apiError(c, http.StatusNotFound, codeOrderNotFound, "order not found")
		return 0, false
	}
	return orderID, true
}
