// Package handlers wires the REST surface onto the domain services.
// Error bodies use the {"message": ...} shape throughout.
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/incashhq/incash-server/internal/catalog"
	"github.com/incashhq/incash-server/internal/checkout"
	"github.com/incashhq/incash-server/internal/model"
	"github.com/incashhq/incash-server/internal/store"
	"github.com/incashhq/incash-server/internal/users"
	"github.com/incashhq/incash-server/internal/validation"
)

// HandlerConfig groups the dependencies of the API routes.
type HandlerConfig struct {
	Catalog  *catalog.Service
	Checkout *checkout.Processor
	Users    *users.Service
	Logger   *zap.Logger
}

// RegisterRoutes registers the full API surface on the engine.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	r.POST("/auth/login", func(c *gin.Context) {
		var req validation.LoginRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		user, err := cfg.Users.Authenticate(req.Username, req.Password)
		if err != nil {
			if errors.Is(err, users.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
				return
			}
			internalError(c, cfg.Logger, "login", err)
			return
		}
		c.JSON(http.StatusOK, user)
	})

	r.GET("/products", func(c *gin.Context) {
		products, err := cfg.Catalog.List(c.Query("category"), c.Query("search"))
		if err != nil {
			internalError(c, cfg.Logger, "list products", err)
			return
		}
		c.JSON(http.StatusOK, products)
	})

	r.GET("/products/:id", func(c *gin.Context) {
		product, err := cfg.Catalog.Get(c.Param("id"))
		if err != nil {
			productError(c, cfg.Logger, err)
			return
		}
		c.JSON(http.StatusOK, product)
	})

	r.POST("/products", func(c *gin.Context) {
		var req validation.CreateProductRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		product, err := cfg.Catalog.Create(model.Product{
			Name:        req.Name,
			SKU:         req.SKU,
			Barcode:     req.Barcode,
			Category:    req.Category,
			Price:       req.PriceDecimal(),
			Cost:        req.CostDecimal(),
			Stock:       req.Stock,
			Description: req.Description,
			Image:       req.Image,
		})
		if err != nil {
			internalError(c, cfg.Logger, "create product", err)
			return
		}
		c.JSON(http.StatusCreated, product)
	})

	r.PUT("/products/:id", func(c *gin.Context) {
		var req validation.UpdateProductRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		product, err := cfg.Catalog.Update(c.Param("id"), req.Patch())
		if err != nil {
			productError(c, cfg.Logger, err)
			return
		}
		c.JSON(http.StatusOK, product)
	})

	r.DELETE("/products/:id", func(c *gin.Context) {
		if _, err := cfg.Catalog.Delete(c.Param("id")); err != nil {
			productError(c, cfg.Logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
	})

	r.GET("/categories", func(c *gin.Context) {
		categories, err := cfg.Catalog.Categories()
		if err != nil {
			internalError(c, cfg.Logger, "list categories", err)
			return
		}
		c.JSON(http.StatusOK, categories)
	})

	r.GET("/transactions", func(c *gin.Context) {
		transactions, err := cfg.Checkout.List()
		if err != nil {
			internalError(c, cfg.Logger, "list transactions", err)
			return
		}
		c.JSON(http.StatusOK, transactions)
	})

	r.POST("/transactions", func(c *gin.Context) {
		var req validation.CreateTransactionRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		lines := make([]checkout.Line, 0, len(req.Items))
		for _, it := range req.Items {
			lines = append(lines, checkout.Line{ProductID: it.ID, Quantity: it.Quantity})
		}

		tx, err := cfg.Checkout.Process(c.Request.Context(), checkout.Request{
			Items:         lines,
			UserID:        req.UserID,
			PaymentMethod: req.PaymentMethod,
		})
		if err != nil {
			checkoutError(c, cfg.Logger, err)
			return
		}
		c.JSON(http.StatusCreated, tx)
	})

	r.GET("/users", func(c *gin.Context) {
		list, err := cfg.Users.List()
		if err != nil {
			internalError(c, cfg.Logger, "list users", err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.GET("/users/current", func(c *gin.Context) {
		user, err := cfg.Users.Current()
		if err != nil {
			if errors.Is(err, users.ErrNoUsers) {
				c.JSON(http.StatusNotFound, gin.H{"message": "No users found"})
				return
			}
			internalError(c, cfg.Logger, "current user", err)
			return
		}
		c.JSON(http.StatusOK, user)
	})
}

func checkoutError(c *gin.Context, log *zap.Logger, err error) {
	var notFound *checkout.ProductNotFoundError
	var insufficient *checkout.InsufficientStockError
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"message": "No items in transaction"})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("Product %s not found", notFound.ID)})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Insufficient stock for %s", insufficient.Name)})
	default:
		internalError(c, log, "checkout", err)
	}
}

func productError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
	default:
		internalError(c, log, "product", err)
	}
}

func internalError(c *gin.Context, log *zap.Logger, op string, err error) {
	var storageErr *store.StorageError
	if errors.As(err, &storageErr) {
		log.Error("durable write failed", zap.String("op", op), zap.Error(err))
	} else {
		log.Error("request failed", zap.String("op", op), zap.Error(err))
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
}
