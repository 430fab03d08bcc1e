package httpserver

import (
	"net/http"

	"healthmall/internal/domain"
	cartsvc "healthmall/internal/service/cart"
	"github.com/gin-gonic/gin"
)

type addCartRequest struct {
	PackageID      int64  `json:"packageId" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required"`
	SamplerID      *int64 `json:"samplerId"`
	SamplingMethod int    `json:"samplingMethod"`
}

type updateCartRequest struct {
	Quantity       *int   `json:"quantity"`
	SamplerID      *int64 `json:"samplerId"`
	SamplingMethod *int   `json:"samplingMethod"`
}

type batchDeleteRequest struct {
	CartIDs []string `json:"cartIds" binding:"required"`
}

func addToCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apiError(c, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		method := domain.SamplingSelf
		if req.SamplingMethod != 0 {
			var err error
			method, err = domain.SamplingMethodFromCode(req.SamplingMethod)
			if err != nil {
				apiError(c, http.StatusBadRequest, codeBadRequest, err.Error())
				return
			}
		}
		err := svc.Add(c.Request.Context(), actorFrom(c), cartsvc.AddInput{
			PackageID:      req.PackageID,
			Quantity:       req.Quantity,
			SamplerID:      req.SamplerID,
			SamplingMethod: method,
		})
		if err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "added"})
	}
}

func listCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.List(c.Request.Context(), actorFrom(c))
		if err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func cartStatusHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := svc.Status(c.Request.Context(), actorFrom(c))
		if err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

func updateCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apiError(c, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		var method *domain.SamplingMethod
		if req.SamplingMethod != nil {
			resolved, err := domain.SamplingMethodFromCode(*req.SamplingMethod)
			if err != nil {
				apiError(c, http.StatusBadRequest, codeBadRequest, err.Error())
				return
			}
			method = &resolved
		}
		err := svc.Update(c.Request.Context(), actorFrom(c), c.Param("cartId"), cartsvc.UpdateInput{
			Quantity:       req.Quantity,
			SamplerID:      req.SamplerID,
			SamplingMethod: method,
		})
		if err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "updated"})
	}
}

func removeCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Remove(c.Request.Context(), actorFrom(c), c.Param("cartId")); err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "removed"})
	}
}

func clearCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Clear(c.Request.Context(), actorFrom(c)); err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cleared"})
	}
}

func batchRemoveCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req batchDeleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apiError(c, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		if err := svc.RemoveMany(c.Request.Context(), actorFrom(c), req.CartIDs); err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "removed"})
	}
}

// mergeCartHandler folds the guest cart named by the X-Guest-Token header
// into the just-logged-in user's cart.
func mergeCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		guestToken := c.GetHeader(guestTokenHeader)
		if err := svc.MergeGuestIntoUser(c.Request.Context(), guestToken, userID); err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "merged"})
	}
}
