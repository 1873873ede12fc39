package web

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

func userInputFromForm(c *fiber.Ctx) usecase.UserInput {
	return usecase.UserInput{
		Username: c.FormValue("username"),
		FullName: c.FormValue("full_name"),
		Role:     c.FormValue("role"),
		Password: c.FormValue("password"),
	}
}

func (s *Server) listUsers(c *fiber.Ctx) error {
	users, err := s.svc.Users.List(c.UserContext())
	if err != nil {
		s.logFailure(c, err)
		setFlashNow(c, flashError, messageOf(err))
	}
	return render(c, "users/list", "Kelola User", fiber.Map{"Users": users})
}

func (s *Server) newUser(c *fiber.Ctx) error {
	return render(c, "users/form", "Tambah User", fiber.Map{
		"Account": &domain.User{Role: domain.RoleKasir},
		"Action":  "/users/new",
		"IsNew":   true,
	})
}

func (s *Server) createUser(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	u, err := s.svc.Users.Create(c.UserContext(), actor, userInputFromForm(c))
	if err != nil {
		return s.fail(c, err, "/users/new")
	}
	setFlash(c, flashSuccess, fmt.Sprintf("User %s berhasil dibuat.", u.Username))
	return c.Redirect("/users")
}

func (s *Server) editUser(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	u, err := s.svc.Users.Get(c.UserContext(), id)
	if err != nil {
		return s.fail(c, err, "/users")
	}
	return render(c, "users/form", "Edit User", fiber.Map{
		"Account": u,
		"Action":  fmt.Sprintf("/users/%d/edit", id),
	})
}

func (s *Server) updateUser(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	actor, _ := currentActor(c)
	if err := s.svc.Users.Update(c.UserContext(), actor, id, userInputFromForm(c)); err != nil {
		return s.fail(c, err, fmt.Sprintf("/users/%d/edit", id))
	}
	setFlash(c, flashSuccess, "User berhasil diperbarui.")
	return c.Redirect("/users")
}

func (s *Server) deleteUser(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	actor, _ := currentActor(c)
	if err := s.svc.Users.Delete(c.UserContext(), actor, id); err != nil {
		return s.fail(c, err, "/users")
	}
	setFlash(c, flashSuccess, "User dihapus.")
	return c.Redirect("/users")
}

// --- account ---

func (s *Server) showAccount(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	me, err := s.svc.Users.Get(c.UserContext(), actor.ID)
	if err != nil {
		return s.fail(c, err, homeFor(actor.Role))
	}
	return render(c, "account", "Pengaturan Akun", fiber.Map{"Me": me})
}

// updateAccount 修改自己的姓名或密碼，並以新姓名重新簽發登入 cookie
func (s *Server) updateAccount(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	u, err := s.svc.Users.UpdateAccount(c.UserContext(), actor, c.FormValue("full_name"), c.FormValue("password"), c.FormValue("password_confirm"))
	if err != nil {
		return s.fail(c, err, "/account")
	}
	if err := s.setSession(c, u.Actor()); err != nil {
		return s.fail(c, err, "/account")
	}
	setFlash(c, flashSuccess, "Akun berhasil diperbarui.")
	return c.Redirect("/account")
}
