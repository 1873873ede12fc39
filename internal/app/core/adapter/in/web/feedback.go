package web

import (
	"github.com/gofiber/fiber/v2"
)

func (s *Server) submitFeedback(c *fiber.Ctx) error {
	back := "/login"
	if _, ok := currentActor(c); ok {
		back = "/feedback"
	}
	if _, err := s.svc.Feedback.Submit(c.UserContext(), c.FormValue("nama"), c.FormValue("pesan")); err != nil {
		return s.fail(c, err, back)
	}
	setFlash(c, flashSuccess, "Terima kasih, masukan Anda sudah terkirim.")
	return c.Redirect(back)
}

func (s *Server) listFeedback(c *fiber.Ctx) error {
	list, err := s.svc.Feedback.List(c.UserContext())
	if err != nil {
		s.logFailure(c, err)
	}
	return render(c, "feedback", "Kritik & Saran", fiber.Map{"Items": list})
}

func (s *Server) deleteFeedback(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	actor, _ := currentActor(c)
	if err := s.svc.Feedback.Delete(c.UserContext(), actor, id); err != nil {
		return s.fail(c, err, "/feedback")
	}
	setFlash(c, flashSuccess, "Masukan dihapus.")
	return c.Redirect("/feedback")
}
