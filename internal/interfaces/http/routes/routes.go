// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/orient-appliances/storefront/internal/interfaces/http/handlers"
)

// Handlers bundles the endpoint handlers and the guards of the protected groups
type Handlers struct {
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Product  *handlers.ProductHandler
	Order    *handlers.OrderHandler
	Dealer   *handlers.DealerHandler
	Auth     *handlers.AuthHandler

	RequireAdmin  gin.HandlerFunc
	RequireDealer gin.HandlerFunc
}

// SetupRoutes registers every route under rg
func SetupRoutes(rg *gin.RouterGroup, h *Handlers) {
	SetupProductRoutes(rg, h)
	SetupCartRoutes(rg, h)
	SetupCheckoutRoutes(rg, h)
	SetupDealerRoutes(rg, h)
	SetupAdminRoutes(rg, h)
}

// SetupProductRoutes sets up the public catalog
func SetupProductRoutes(rg *gin.RouterGroup, h *Handlers) {
	products := rg.Group("/products")
	{
		products.GET("", h.Product.ListProducts)
		products.GET("/categories", h.Product.GetCategories)
		products.GET("/top-selling", h.Product.GetTopSelling)
		products.GET("/:id", h.Product.GetProduct)
	}
}

// SetupCartRoutes sets up the session cart. Both views read the same store.
func SetupCartRoutes(rg *gin.RouterGroup, h *Handlers) {
	cart := rg.Group("/cart")
	{
		cart.GET("", h.Cart.GetCart)
		cart.GET("/panel", h.Cart.GetPanel)
		cart.DELETE("", h.Cart.ClearCart)
		cart.POST("/items", h.Cart.AddItem)
		cart.PATCH("/items/:productId", h.Cart.ChangeQuantity)
		cart.DELETE("/items/:productId", h.Cart.RemoveItem)
	}
}

// SetupCheckoutRoutes sets up checkout
func SetupCheckoutRoutes(rg *gin.RouterGroup, h *Handlers) {
	checkout := rg.Group("/checkout")
	{
		checkout.GET("/summary", h.Checkout.GetSummary)
		checkout.GET("/payment-methods", h.Checkout.GetPaymentMethods)
		checkout.POST("", h.Checkout.Submit)
	}
}

// SetupDealerRoutes sets up membership requests and the dealer area
func SetupDealerRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/membership", h.Dealer.SubmitMembership)

	dealer := rg.Group("/dealer")
	{
		dealer.POST("/login", h.Auth.DealerLogin)

		protected := dealer.Group("")
		protected.Use(h.RequireDealer)
		{
			protected.GET("/me", h.Auth.Me)
			protected.POST("/logout", h.Auth.Logout)
			protected.GET("/products", h.Dealer.ListProducts)
			protected.GET("/deals", h.Dealer.ListDeals)
		}
	}
}

// SetupAdminRoutes sets up the back office
func SetupAdminRoutes(rg *gin.RouterGroup, h *Handlers) {
	admin := rg.Group("/admin")
	admin.POST("/login", h.Auth.AdminLogin)

	protected := admin.Group("")
	protected.Use(h.RequireAdmin)
	{
		protected.GET("/me", h.Auth.Me)
		protected.POST("/logout", h.Auth.Logout)

		products := protected.Group("/products")
		{
			products.GET("", h.Product.AdminListProducts)
			products.POST("", h.Product.CreateProduct)
			products.POST("/import", h.Product.ImportProducts)
			products.GET("/:id", h.Product.AdminGetProduct)
			products.PATCH("/:id", h.Product.UpdateProduct)
			products.PATCH("/:id/status", h.Product.SetProductStatus)
			products.DELETE("/:id", h.Product.DeleteProduct)
		}

		topSelling := protected.Group("/top-selling")
		{
			topSelling.PUT("/:id", h.Product.PinTopSelling)
			topSelling.DELETE("/:id", h.Product.UnpinTopSelling)
		}

		orders := protected.Group("/orders")
		{
			orders.GET("", h.Order.ListOrders)
			orders.GET("/statuses", h.Order.GetStatuses)
			orders.POST("/staff", h.Order.CreateStaffOrder)
			orders.GET("/:id", h.Order.GetOrder)
			orders.PATCH("/:id/status", h.Order.UpdateOrderStatus)
			orders.GET("/:id/invoice", h.Order.DownloadInvoice)
			orders.DELETE("/:id", h.Order.DeleteOrder)
		}

		memberships := protected.Group("/memberships")
		{
			memberships.GET("", h.Dealer.ListMemberships)
			memberships.POST("/:id/accept", h.Dealer.AcceptMembership)
			memberships.DELETE("/:id", h.Dealer.RejectMembership)
		}

		dealerProducts := protected.Group("/dealer-products")
		{
			dealerProducts.GET("", h.Dealer.ListProducts)
			dealerProducts.POST("", h.Dealer.CreateProduct)
			dealerProducts.PATCH("/:id", h.Dealer.UpdateProduct)
			dealerProducts.DELETE("/:id", h.Dealer.DeleteProduct)
		}

		deals := protected.Group("/deals")
		{
			deals.GET("", h.Dealer.ListDeals)
			deals.POST("", h.Dealer.CreateDeal)
			deals.PATCH("/:id", h.Dealer.UpdateDeal)
			deals.DELETE("/:id", h.Dealer.DeleteDeal)
		}
	}
}
