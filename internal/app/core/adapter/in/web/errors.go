package web

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

// statusOf 將用例錯誤對應到 HTTP 狀態碼
func statusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrAmbiguousReference), errors.Is(err, domain.ErrDuplicateKey):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInsufficientFunds):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStorageUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// messageOf 畫面上顯示的錯誤訊息
func messageOf(err error) string {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "Saldo tidak cukup untuk penarikan."
	case errors.Is(err, domain.ErrAmbiguousReference):
		return "Lebih dari satu hasil. Mohon masukkan nomor lengkap."
	case errors.Is(err, domain.ErrStudentNotFound):
		return "Santri tidak ditemukan."
	case errors.Is(err, domain.ErrTransactionNotFound):
		return "Transaksi tidak ditemukan."
	case errors.Is(err, domain.ErrUserNotFound):
		return "User tidak ditemukan."
	case errors.Is(err, domain.ErrPresetNotFound):
		return "Preset tidak ditemukan."
	case errors.Is(err, domain.ErrNotFound):
		return "Data tidak ditemukan."
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Login gagal. Periksa username, password, dan role."
	case errors.Is(err, domain.ErrForbidden):
		return "Akses ditolak."
	case errors.Is(err, domain.ErrStorageUnavailable):
		return "Database sedang tidak tersedia. Silakan coba lagi."
	}
	return "Terjadi kesalahan. Silakan coba lagi."
}

// logFailure 業務拒絕記為 Info，其餘為 Error
func (s *Server) logFailure(c *fiber.Ctx, err error) {
	attrs := []any{slog.String("method", c.Method()), slog.String("path", c.Path()), slog.Any("error", err)}
	if id, ok := c.Locals(requestIDLocal).(string); ok {
		attrs = append(attrs, slog.String("request_id", id))
	}
	if actor, ok := currentActor(c); ok {
		attrs = append(attrs, slog.String("user", actor.Username))
	}
	if domain.IsBusinessError(err) {
		s.logger.Info("request rejected", attrs...)
		return
	}
	s.logger.Error("request failed", attrs...)
}

// fail 以 flash 顯示錯誤並導向 redirect
func (s *Server) fail(c *fiber.Ctx, err error, redirect string) error {
	s.logFailure(c, err)
	setFlash(c, flashError, messageOf(err))
	return c.Redirect(redirect)
}

// failJSON JSON API 的錯誤回應
func (s *Server) failJSON(c *fiber.Ctx, err error) error {
	s.logFailure(c, err)
	return c.Status(statusOf(err)).JSON(fiber.Map{"error": messageOf(err)})
}

// errorHandler 處理未被處理器攔下的錯誤 (路由不存在、panic 等)
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := statusOf(err)
	if code >= fiber.StatusInternalServerError {
		s.logFailure(c, err)
	}
	if wantsJSON(c) {
		return c.Status(code).JSON(fiber.Map{"error": err.Error(), "code": code})
	}
	msg := messageOf(err)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		msg = fe.Message
	}
	if code == fiber.StatusNotFound {
		msg = "Halaman tidak ditemukan."
	}
	c.Status(code)
	if rerr := c.Render("error", fiber.Map{"Title": "Error", "Code": code, "Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}
