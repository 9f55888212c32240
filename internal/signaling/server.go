package signaling

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Server exposes the hub over HTTP.
type Server struct {
	hub      *Hub
	secret   []byte
	router   *gin.Engine
	upgrader websocket.Upgrader
}

// NewServer creates a signaling server. An empty secret disables token
// checks.
func NewServer(secret string) *Server {
	s := &Server{
		hub:    NewHub(),
		secret: []byte(secret),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.initRouter()
	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) initRouter() {
	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/ws", s.authMiddleware(), s.handleWebSocket)
	s.router.GET("/viewers", s.authMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"viewers": s.hub.Viewers()})
	})
}

// authMiddleware accepts a bearer token in the Authorization header or a
// token query parameter.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(s.secret) == 0 {
			c.Next()
			return
		}
		token := c.Query("token")
		if h := c.GetHeader("Authorization"); h != "" {
			parts := strings.SplitN(h, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
				return
			}
			token = parts[1]
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		sub, err := VerifyToken(s.secret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("subject", sub)
		c.Next()
	}
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	s.hub.Serve(conn)
}
