package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/internal/app/repository"
	"github.com/viznest/viznest-backend/internal/app/service"
	"github.com/viznest/viznest-backend/internal/db"
	"github.com/viznest/viznest-backend/internal/middleware"
	"github.com/viznest/viznest-backend/internal/storage"
	"github.com/viznest/viznest-backend/internal/validation"
	"github.com/viznest/viznest-backend/internal/websocket"
	"github.com/viznest/viznest-backend/pkg/redis"
	"github.com/viznest/viznest-backend/pkg/util"
	"gorm.io/gorm"
)

const testJWTSecret = "controller-test-secret"

type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	hub    *websocket.Hub
	orders service.OrderService
}

// newTestEnv wires real services over in-memory SQLite and miniredis and
// mounts every controller the way the router does
func newTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)
	validation.Register()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	tokens := redis.Wrap(rdb)

	store, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)

	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	userRepo := repository.NewUserRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	addressRepo := repository.NewAddressRepository(testDB)

	authService := service.NewAuthService(userRepo, tokens, store, 5<<20, testJWTSecret, time.Hour, 24*time.Hour)
	cartService := service.NewCartService(
		repository.NewCartRepository(testDB),
		repository.NewGuestCartRepository(rdb, time.Hour),
		productRepo,
	)
	orderService := service.NewOrderService(repository.NewOrderRepository(testDB), addressRepo, hub)

	authCtrl := NewAuthController(authService, cartService)
	addressCtrl := NewAddressController(service.NewAddressService(addressRepo))
	productCtrl := NewProductController(service.NewProductService(productRepo, store, 5<<20))
	reviewCtrl := NewReviewController(service.NewReviewService(repository.NewReviewRepository(testDB), productRepo, userRepo))
	cartCtrl := NewCartController(cartService)
	orderCtrl := NewOrderController(orderService)
	wishlistCtrl := NewWishlistController(service.NewWishlistService(repository.NewWishlistRepository(testDB), productRepo))
	uploadCtrl := NewUploadController(store)
	eventsCtrl := NewOrderEventsController(hub, nil)

	authMW := middleware.NewAuthMiddleware(testJWTSecret, tokens)

	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authCtrl.Register)
	auth.POST("/login", authCtrl.Login)
	auth.POST("/refresh", authCtrl.RefreshToken)
	auth.POST("/logout", authMW.Authenticate(), authCtrl.Logout)
	auth.GET("/profile", authMW.Authenticate(), authCtrl.GetMe)
	auth.PUT("/profile", authMW.Authenticate(), authCtrl.UpdateMe)
	auth.POST("/avatar", authMW.Authenticate(), authCtrl.UploadAvatar)
	auth.GET("/address", authMW.Authenticate(), addressCtrl.ListAddresses)
	auth.POST("/address", authMW.Authenticate(), addressCtrl.AddAddress)
	auth.PUT("/address/:id", authMW.Authenticate(), addressCtrl.UpdateAddress)
	auth.DELETE("/address/:id", authMW.Authenticate(), addressCtrl.DeleteAddress)
	auth.PUT("/address/:id/primary", authMW.Authenticate(), addressCtrl.SetPrimary)

	products := v1.Group("/products")
	products.GET("", productCtrl.ListProducts)
	products.GET("/categories", productCtrl.ListCategories)
	products.GET("/:id", productCtrl.GetProductByID)
	products.GET("/:id/preview", productCtrl.Preview)
	products.GET("/:id/reviews", reviewCtrl.ListReviews)
	products.POST("", authMW.Authenticate(), authMW.RequireAdmin(), productCtrl.CreateProduct)
	products.PUT("/:id", authMW.Authenticate(), authMW.RequireAdmin(), productCtrl.UpdateProduct)
	products.DELETE("/:id", authMW.Authenticate(), authMW.RequireAdmin(), productCtrl.DeleteProduct)
	products.POST("/:id/reviews", authMW.Authenticate(), reviewCtrl.CreateReview)
	products.PUT("/:id/reviews/:reviewId", authMW.Authenticate(), reviewCtrl.UpdateReview)
	products.DELETE("/:id/reviews/:reviewId", authMW.Authenticate(), reviewCtrl.DeleteReview)

	cart := v1.Group("/cart", authMW.OptionalAuthenticate())
	cart.GET("", middleware.CartSession(false), cartCtrl.GetCart)
	cart.POST("", middleware.CartSession(true), cartCtrl.AddToCart)
	cart.PUT("/:itemId", middleware.CartSession(false), cartCtrl.UpdateCartItem)
	cart.DELETE("/:itemId", middleware.CartSession(false), cartCtrl.RemoveFromCart)
	cart.DELETE("", middleware.CartSession(false), cartCtrl.ClearCart)
	cart.POST("/merge", authMW.Authenticate(), cartCtrl.MergeCart)

	orders := v1.Group("/orders", authMW.Authenticate())
	orders.POST("", orderCtrl.CreateOrder)
	orders.GET("/myorders", orderCtrl.GetMyOrders)
	orders.GET("/all", authMW.RequireAdmin(), orderCtrl.GetAllOrders)
	orders.GET("/export", authMW.RequireAdmin(), orderCtrl.ExportOrders)
	orders.GET("/:id", orderCtrl.GetOrderByID)
	orders.PUT("/:id", authMW.RequireAdmin(), orderCtrl.UpdateOrderStatus)
	orders.GET("/:id/invoice", orderCtrl.GetInvoice)

	v1.GET("/wishlist", authMW.Authenticate(), wishlistCtrl.GetWishlist)
	v1.POST("/wishlist", authMW.Authenticate(), wishlistCtrl.ToggleWishlist)
	v1.POST("/upload/presigned-url", authMW.Authenticate(), uploadCtrl.GeneratePresignedURL)
	v1.GET("/ws/orders", authMW.AuthenticateUpgrade(), eventsCtrl.Subscribe)

	return &testEnv{t: t, db: testDB, router: router, hub: hub, orders: orderService}
}

// createUser stores a user with a valid password and returns an access token for it
func (e *testEnv) createUser(email string, role model.UserRole) (*model.User, string) {
	hashed, err := util.HashPassword("secret123")
	require.NoError(e.t, err)
	user := &model.User{Name: "Test User", Email: email, PasswordHash: hashed, Role: role}
	require.NoError(e.t, e.db.Create(user).Error)

	pair, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role), testJWTSecret, time.Hour, 24*time.Hour)
	require.NoError(e.t, err)
	return user, pair.AccessToken
}

func (e *testEnv) createProduct(name string, price float64, customizable bool) *model.Product {
	product := &model.Product{
		Name:           name,
		Price:          price,
		Category:       "chairs",
		Image:          "https://cdn.viznest.test/" + name + ".png",
		IsCustomizable: customizable,
		StockQuantity:  10,
		Materials: []model.ProductMaterial{
			{Name: "Oak", ExtraPrice: 0},
			{Name: "Walnut", ExtraPrice: 25.5},
		},
	}
	require.NoError(e.t, e.db.Create(product).Error)
	return product
}

type header struct {
	key, value string
}

func (e *testEnv) do(method, path, token string, body interface{}, headers ...header) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(req, token, headers...)
}

func (e *testEnv) send(req *http.Request, token string, headers ...header) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, h := range headers {
		req.Header.Set(h.key, h.value)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// multipartRequest builds a form with plain fields and files keyed by field name
func multipartRequest(t *testing.T, method, path string, fields map[string]string, files map[string][][]byte) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, contents := range files {
		for i, content := range contents {
			fw, err := mw.CreateFormFile(field, fmt.Sprintf("%s-%d.png", field, i))
			require.NoError(t, err)
			_, err = fw.Write(content)
			require.NoError(t, err)
		}
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	code, _ := decodeBody(t, w)["error"].(string)
	return code
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
