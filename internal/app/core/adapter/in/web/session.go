package web

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

const (
	sessionCookie = "jwt_token"
	flashCookie   = "flash"
	csrfField     = "_csrf"

	// locals 鍵值，樣板也以同名存取
	actorLocal     = "actor"
	userLocal      = "User"
	flashLocal     = "Flash"
	csrfLocal      = "CSRF"
	dbLocal        = "DBReady"
	pathLocal      = "Path"
	requestIDLocal = "RequestID"

	sessionIssuer = "tabungan-santri"
)

var errInvalidSession = errors.New("invalid session token")

// sessionClaims 登入 cookie 內容
type sessionClaims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenIssuer(secret string, ttl time.Duration) *tokenIssuer {
	if secret == "" {
		secret = "tabungan-santri-secret"
	}
	return &tokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *tokenIssuer) issue(actor domain.Actor) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := sessionClaims{
		UserID:   actor.ID,
		Username: actor.Username,
		FullName: actor.FullName,
		Role:     string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    sessionIssuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	return token, exp, err
}

func (t *tokenIssuer) parse(raw string) (domain.Actor, error) {
	token, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(sessionIssuer), jwt.WithTimeFunc(t.now))
	if err != nil {
		return domain.Actor{}, err
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return domain.Actor{}, errInvalidSession
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Actor{}, errInvalidSession
	}
	return domain.Actor{ID: claims.UserID, Username: claims.Username, FullName: claims.FullName, Role: role}, nil
}

// setSession 寫入登入 cookie
func (s *Server) setSession(c *fiber.Ctx, actor domain.Actor) error {
	token, exp, err := s.tokens.issue(actor)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HTTPOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: "Lax",
	})
	return nil
}

func (s *Server) clearSession(c *fiber.Ctx) {
	expireCookie(c, sessionCookie)
}

func expireCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
	})
}

// Flash 下一個頁面顯示一次的訊息
type Flash struct {
	Type    string
	Message string
}

const (
	flashSuccess = "success"
	flashError   = "error"
	flashWarning = "warning"
)

func setFlash(c *fiber.Ctx, kind, message string) {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + message),
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

func readFlash(raw string) *Flash {
	if raw == "" {
		return nil
	}
	v, err := url.QueryUnescape(raw)
	if err != nil {
		return nil
	}
	kind, msg, ok := strings.Cut(v, "|")
	if !ok || msg == "" {
		return nil
	}
	return &Flash{Type: kind, Message: msg}
}

// loadSession 解析登入 cookie 與 flash，放進 locals
func (s *Server) loadSession(c *fiber.Ctx) error {
	if raw := c.Cookies(sessionCookie); raw != "" {
		if actor, err := s.tokens.parse(raw); err == nil {
			c.Locals(actorLocal, actor)
			c.Locals(userLocal, &actor)
		} else {
			s.clearSession(c)
		}
	}
	if f := readFlash(c.Cookies(flashCookie)); f != nil {
		c.Locals(flashLocal, f)
		expireCookie(c, flashCookie)
	}
	if _, ok := c.Locals(csrfLocal).(string); !ok {
		c.Locals(csrfLocal, "")
	}
	c.Locals(dbLocal, s.cfg.DBReady)
	c.Locals(pathLocal, c.Path())
	return c.Next()
}

// currentActor 目前登入者；未登入回傳 false
func currentActor(c *fiber.Ctx) (domain.Actor, bool) {
	actor, ok := c.Locals(actorLocal).(domain.Actor)
	return actor, ok
}

func wantsJSON(c *fiber.Ctx) bool {
	p := c.Path()
	return strings.Contains(p, "/api/") || strings.HasSuffix(p, "/search")
}

func (s *Server) requireLogin(c *fiber.Ctx) error {
	if _, ok := currentActor(c); ok {
		return c.Next()
	}
	if wantsJSON(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	setFlash(c, flashError, "Silakan login terlebih dahulu.")
	return c.Redirect("/login")
}

func (s *Server) requireRole(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := currentActor(c)
		if ok && actor.Role == role {
			return c.Next()
		}
		if wantsJSON(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		setFlash(c, flashError, "Akses ditolak.")
		return c.Redirect("/login")
	}
}
