package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/viznest/viznest-backend/internal/app/model"
)

const (
	GuestSessionHeader = "X-Guest-Session"
	CartOwnerKey       = "cart_owner"

	maxGuestSessionLength = 64
)

// CartSession resolves whose cart the request works on. Signed-in users own
// their server cart; anyone else is identified by the X-Guest-Session header.
// With issue set, a guest without a session is given a new id, echoed back in
// the same header. Must run after OptionalAuthenticate.
func CartSession(issue bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := model.CartOwner{GuestID: guestSessionID(c)}
		if userID, ok := GetUserID(c); ok {
			owner.UserID = userID
		}

		if owner.IsGuest() && owner.GuestID == "" && issue {
			owner.GuestID = uuid.NewString()
			GetLoggerFromContext(c).Debug("Issued guest cart session", map[string]interface{}{
				"guest_id": owner.GuestID,
			})
		}
		if owner.IsGuest() && owner.GuestID != "" {
			c.Header(GuestSessionHeader, owner.GuestID)
		}

		c.Set(CartOwnerKey, owner)
		c.Next()
	}
}

func guestSessionID(c *gin.Context) string {
	id := strings.TrimSpace(c.GetHeader(GuestSessionHeader))
	if len(id) > maxGuestSessionLength {
		return ""
	}
	return id
}

// GetCartOwner returns the owner set by CartSession
func GetCartOwner(c *gin.Context) model.CartOwner {
	if v, ok := c.Get(CartOwnerKey); ok {
		if owner, ok := v.(model.CartOwner); ok {
			return owner
		}
	}
	return model.CartOwner{}
}

// GetGuestSession returns the raw guest session header, used when merging after login
func GetGuestSession(c *gin.Context) string {
	return guestSessionID(c)
}
