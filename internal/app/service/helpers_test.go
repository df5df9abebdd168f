package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/internal/db"
	"github.com/viznest/viznest-backend/internal/storage"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func setupRedis(t *testing.T) *goredis.Client {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func setupStorage(t *testing.T) *storage.LocalStorage {
	store, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)
	return store
}

func createUser(t *testing.T, testDB *gorm.DB, email string, role model.UserRole) *model.User {
	user := &model.User{Name: "Test User", Email: email, PasswordHash: "hash", Role: role}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createProduct(t *testing.T, testDB *gorm.DB, name string, price float64, customizable bool) *model.Product {
	product := &model.Product{
		Name:           name,
		Price:          price,
		Category:       "chairs",
		Image:          "https://cdn.viznest.test/" + name + ".png",
		IsCustomizable: customizable,
		Materials: []model.ProductMaterial{
			{Name: "Oak", ExtraPrice: 0},
			{Name: "Walnut", ExtraPrice: 25.5},
		},
	}
	require.NoError(t, testDB.Create(product).Error)
	return product
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

func pngUpload(t *testing.T, name string, c color.Color) FileUpload {
	data := pngBytes(t, 4, 4, c)
	return FileUpload{Filename: name, Size: int64(len(data)), Content: bytes.NewReader(data)}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events map[uint][]OrderEvent
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{events: make(map[uint][]OrderEvent)}
}

func (n *recordingNotifier) PublishOrderEvent(userID uint, event OrderEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events[userID] = append(n.events[userID], event)
}
