package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"lexintake-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// TeamGetter looks up a team by ID for request authentication
type TeamGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
}

// TeamAuth verifies that the :teamId in the route names a known team and,
// when the team carries an API key hash, that the request presents the
// matching X-API-Key. The team is stored on the context for handlers.
func TeamAuth(teams TeamGetter) gin.HandlerFunc {
	return func(c *gin.Context) {
		teamID, err := uuid.Parse(c.Param("teamId"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TEAM_ID",
					"message": "Invalid team ID format",
				},
			})
			return
		}

		team, err := teams.GetByID(c.Request.Context(), teamID)
		if err != nil || team == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNKNOWN_TEAM",
					"message": "Team not recognized",
				},
			})
			return
		}

		if team.APIKeyHash != "" {
			apiKey := c.GetHeader("X-API-Key")
			if apiKey == "" || bcrypt.CompareHashAndPassword([]byte(team.APIKeyHash), []byte(apiKey)) != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "INVALID_API_KEY",
						"message": "Missing or invalid API key",
					},
				})
				return
			}
		}

		c.Set("team", team)
		c.Next()
	}
}

// limiterIdleTimeout is how long a client's bucket survives without traffic
const limiterIdleTimeout = 3 * time.Minute

// limiterEntry pairs a client's bucket with its last use, for eviction
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter tracks one token bucket per client IP. Idle entries are swept
// when a new client arrives, so the map does not grow with every address
// ever seen.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

func (l *ipLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	entry, ok := l.limiters[ip]
	if !ok {
		for addr, e := range l.limiters {
			if now.Sub(e.lastSeen) > limiterIdleTimeout {
				delete(l.limiters, addr)
			}
		}
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// RateLimit rejects requests beyond rps per client IP with 429. Bursts up to
// the given size are absorbed.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	l := &ipLimiter{
		limiters: make(map[string]*limiterEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}

	return func(c *gin.Context) {
		if !l.limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "Too many requests, slow down",
				},
			})
			return
		}
		c.Next()
	}
}
