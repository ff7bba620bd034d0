package deps

import (
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marks/internal/actions"
	"github.com/MrSnakeDoc/marks/internal/dataservice"
	"github.com/MrSnakeDoc/marks/internal/logger"
	redisstore "github.com/MrSnakeDoc/marks/internal/store/redis"
)

// ImportStatus reports on the Homepage bookmarks import.
type ImportStatus interface {
	LastRun() time.Time
	LastAdded() int
	LastError() error
}

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	TimeNow       func() time.Time // for testing, defaults to time.Now
	AllowedHosts  []string         // Host headers allowed to access the server, also websocket origins
	AllowedCIDRS  []string         // IPs allowed to access healthz/readyz/infra endpoints
	TrustProxy    bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	SecureCookies bool             // set the Secure flag on session cookies
	AuthRateBurst int              // burst of sign-in attempts per IP
	AuthRatePerMn int              // refill of sign-in attempts per IP per minute
	APIRateBurst  int              // burst of API writes per user, 0 disables the limit
	APIRatePerMn  int              // refill of API writes per user per minute
	FeedBackend   string           // "redis" | "memory", reported by /infra

	RedisClient *redis.Client        // Redis client connection
	Data        *dataservice.Service // data service handle
	Actions     *actions.Handlers    // mutation handlers
	Pages       *redisstore.Store    // page snapshot cache

	LiveViews        *atomic.Int64 // mounted live views, reported by /healthz (optional)
	LiveSessionCheck time.Duration // how often live views re-check their session (0: view default)

	ImportTrigger chan struct{} // Channel to trigger a manual import (nil if import disabled)
	Import        ImportStatus  // nil if import disabled
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
