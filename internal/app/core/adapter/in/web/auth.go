package web

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

// render 以主版面輸出樣板
func render(c *fiber.Ctx, name, title string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["Title"] = title
	return c.Render(name, data)
}

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.ErrNotFound
	}
	return id, nil
}

func homeFor(role domain.Role) string {
	if role == domain.RoleAdmin {
		return "/dashboard/admin"
	}
	return "/dashboard/kasir"
}

func (s *Server) home(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return c.Redirect("/login")
	}
	return c.Redirect(homeFor(actor.Role))
}

func (s *Server) showLogin(c *fiber.Ctx) error {
	if actor, ok := currentActor(c); ok {
		return c.Redirect(homeFor(actor.Role))
	}
	return c.Render("login", fiber.Map{"Title": "Login"}, "")
}

func (s *Server) login(c *fiber.Ctx) error {
	user, err := s.svc.Users.Authenticate(c.UserContext(), c.FormValue("username"), c.FormValue("password"), c.FormValue("role"))
	if err != nil {
		return s.fail(c, err, "/login")
	}
	if err := s.setSession(c, user.Actor()); err != nil {
		return s.fail(c, err, "/login")
	}
	return c.Redirect(homeFor(user.Role))
}

func (s *Server) logout(c *fiber.Ctx) error {
	if actor, ok := currentActor(c); ok {
		s.svc.Users.Logout(c.UserContext(), actor)
	}
	s.clearSession(c)
	return c.Redirect("/login")
}
