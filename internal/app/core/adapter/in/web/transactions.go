package web

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

// formKind 表單路徑上的類型 (setor / tarik)
type formKind struct {
	Path  string
	Type  domain.TransactionType
	Title string
}

var (
	depositKind    = formKind{Path: "setor", Type: domain.TransactionTypeDeposit, Title: "Transaksi Setoran"}
	withdrawalKind = formKind{Path: "tarik", Type: domain.TransactionTypeWithdrawal, Title: "Transaksi Penarikan"}
)

func kindOf(path string) formKind {
	if path == withdrawalKind.Path {
		return withdrawalKind
	}
	return depositKind
}

// presetJSON 快捷金額 API 的輸出
type presetJSON struct {
	ID     int64  `json:"id"`
	Amount int64  `json:"amount"`
	Label  string `json:"label"`
}

func (s *Server) depositForm(c *fiber.Ctx) error {
	return s.transactionForm(c, depositKind, nil, nil)
}

func (s *Server) withdrawalForm(c *fiber.Ctx) error {
	return s.transactionForm(c, withdrawalKind, nil, nil)
}

// transactionForm 存提款表單，可帶 santri_id 預選學生
func (s *Server) transactionForm(c *fiber.Ctx, kind formKind, student *domain.Student, candidates []domain.Student) error {
	ctx := c.UserContext()
	if student == nil && c.Query("santri_id") != "" {
		if id, err := strconv.ParseInt(c.Query("santri_id"), 10, 64); err == nil {
			if st, err := s.svc.Students.Get(ctx, id); err == nil {
				student = st
			}
		}
	}
	presets, err := s.svc.Engine.Presets(ctx, kind.Type)
	if err != nil {
		s.logFailure(c, err)
	}
	return render(c, "transactions/form", kind.Title, fiber.Map{
		"Kind":       kind,
		"Student":    student,
		"Candidates": candidates,
		"Presets":    presets,
	})
}

// findStudentForForm 表單上的姓名搜尋：一筆直接選取，多筆列出供選擇
func (s *Server) findStudentForForm(c *fiber.Ctx) error {
	kind := kindOf(c.FormValue("tipe"))
	back := "/transaksi/" + kind.Path
	q := strings.TrimSpace(c.FormValue("nama"))
	if q == "" {
		setFlash(c, flashError, "Isi nama santri untuk mencari.")
		return c.Redirect(back)
	}
	list, err := s.svc.Students.SearchForCashier(c.UserContext(), q, usecase.MaxSearchLimit)
	if err != nil {
		return s.fail(c, err, back)
	}
	switch len(list) {
	case 0:
		setFlash(c, flashError, "Santri tidak ditemukan.")
		return c.Redirect(back)
	case 1:
		return s.transactionForm(c, kind, &list[0], nil)
	}
	return s.transactionForm(c, kind, nil, list)
}

func formStudentID(c *fiber.Ctx) int64 {
	id, _ := strconv.ParseInt(c.FormValue("santri_id"), 10, 64)
	return id
}

func formBack(kind formKind, studentID int64) string {
	if studentID > 0 {
		return fmt.Sprintf("/transaksi/%s?santri_id=%d", kind.Path, studentID)
	}
	return "/transaksi/" + kind.Path
}

func (s *Server) deposit(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	studentID := formStudentID(c)
	back := formBack(depositKind, studentID)
	amount, err := domain.ParseAmount(c.FormValue("jumlah"))
	if err != nil {
		return s.fail(c, err, back)
	}
	out, err := s.svc.Engine.Deposit(c.UserContext(), domain.DepositRequest{
		StudentID: studentID,
		Amount:    amount,
		Note:      c.FormValue("keterangan"),
		Actor:     actor,
	})
	if err != nil {
		return s.fail(c, err, back)
	}
	setFlash(c, flashSuccess, fmt.Sprintf("Setoran %s berhasil dicatat (%s). Saldo %s: %s.",
		domain.FormatRupiah(out.Committed.Amount), out.Committed.TrxNo, out.Student.Name, domain.FormatRupiah(out.Student.Balance)))
	return c.Redirect("/dashboard/kasir")
}

func (s *Server) withdraw(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	studentID := formStudentID(c)
	back := formBack(withdrawalKind, studentID)
	amount, err := domain.ParseAmount(c.FormValue("jumlah"))
	if err != nil {
		return s.fail(c, err, back)
	}
	out, err := s.svc.Engine.Withdraw(c.UserContext(), domain.WithdrawalRequest{
		StudentID:    studentID,
		Amount:       amount,
		Note:         c.FormValue("keterangan"),
		ReceiverName: c.FormValue("nama_penerima"),
		Actor:        actor,
	})
	if err != nil {
		return s.fail(c, err, back)
	}
	base := fmt.Sprintf("Penarikan %s berhasil (%s). Saldo %s: %s.",
		domain.FormatRupiah(out.Committed.Amount), out.Committed.TrxNo, out.Student.Name, domain.FormatRupiah(out.Student.Balance))
	switch {
	case !out.Degraded():
		setFlash(c, flashSuccess, base+" PDF bukti dibuat.")
	case out.ReceiptWarning.Pending:
		setFlash(c, flashSuccess, base+" PDF bukti sedang dibuat.")
	default:
		s.logger.Warn("withdrawal committed without receipt",
			"trx_no", out.Committed.TrxNo, "error", out.ReceiptWarning.Err)
		setFlash(c, flashWarning, base+" Namun PDF bukti gagal dibuat.")
	}
	return c.Redirect("/dashboard/kasir")
}

func (s *Server) searchStudentsCashier(c *fiber.Ctx) error {
	list, err := s.svc.Students.SearchForCashier(c.UserContext(), c.Query("q"), c.QueryInt("limit", usecase.DefaultSearchLimit))
	if err != nil {
		return s.failJSON(c, err)
	}
	return c.JSON(toStudentJSON(list))
}

func (s *Server) presetsJSON(c *fiber.Ctx) error {
	t, err := domain.ParseTransactionType(c.Query("tipe"))
	if err != nil {
		return s.failJSON(c, err)
	}
	presets, err := s.svc.Engine.Presets(c.UserContext(), t)
	if err != nil {
		return s.failJSON(c, err)
	}
	out := make([]presetJSON, 0, len(presets))
	for _, p := range presets {
		out = append(out, presetJSON{ID: p.ID, Amount: p.Amount, Label: p.DisplayLabel()})
	}
	return c.JSON(out)
}

// receiptPDF 以 inline 方式輸出提款收據
func (s *Server) receiptPDF(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	back := homeFor(actor.Role)
	trxNo := c.Params("trxNo")
	view, err := s.svc.Transactions.GetTransaction(c.UserContext(), trxNo)
	if err != nil {
		return s.fail(c, err, back)
	}
	if view.ReceiptPath == "" {
		setFlash(c, flashError, "PDF bukti tidak ditemukan.")
		return c.Redirect(back)
	}
	f, err := s.svc.Files.Open(view.ReceiptPath)
	if err != nil {
		s.logger.Warn("receipt file missing", "trx_no", trxNo, "path", view.ReceiptPath, "error", err)
		setFlash(c, flashError, "File PDF tidak tersedia.")
		return c.Redirect(back)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s.pdf"`, view.TrxNo))
	return c.SendStream(f)
}

// --- reversal ---

func (s *Server) reversalForm(c *fiber.Ctx) error {
	return render(c, "transactions/reverse", "Hapus Transaksi", fiber.Map{})
}

func (s *Server) reverse(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	ref := strings.TrimSpace(c.FormValue("trx"))
	if ref == "" {
		setFlash(c, flashError, "Nomor TRX wajib diisi.")
		return c.Redirect("/transaksi/hapus")
	}
	out, err := s.svc.Engine.Reverse(c.UserContext(), domain.ReversalRequest{Reference: ref, Actor: actor})
	if err != nil {
		return s.fail(c, err, "/transaksi/hapus")
	}
	msg := fmt.Sprintf("Transaksi %s berhasil dihapus dan saldo diperbarui.", out.Reversed.TrxNo)
	if out.NegativeBalance {
		setFlash(c, flashWarning, fmt.Sprintf("%s Saldo %s sekarang negatif (%s).", msg, out.Student.Name, domain.FormatRupiah(out.Student.Balance)))
	} else {
		setFlash(c, flashSuccess, msg)
	}
	return c.Redirect("/transaksi/hapus")
}

// --- presets (admin) ---

func (s *Server) listPresets(c *fiber.Ctx) error {
	all, err := s.svc.Presets.List(c.UserContext())
	if err != nil {
		s.logFailure(c, err)
		setFlashNow(c, flashError, messageOf(err))
	}
	var deposits, withdrawals []domain.PresetNominal
	for _, p := range all {
		if p.Type == domain.TransactionTypeDeposit {
			deposits = append(deposits, p)
		} else {
			withdrawals = append(withdrawals, p)
		}
	}
	return render(c, "transactions/presets", "Kelola Nominal Preset", fiber.Map{
		"Deposits":    deposits,
		"Withdrawals": withdrawals,
	})
}

func presetFromForm(c *fiber.Ctx) (*domain.PresetNominal, error) {
	t, err := domain.ParseTransactionType(c.FormValue("tipe"))
	if err != nil {
		return nil, err
	}
	amount, err := domain.ParseAmount(c.FormValue("amount"))
	if err != nil {
		return nil, err
	}
	order, _ := strconv.Atoi(strings.TrimSpace(c.FormValue("sort_order")))
	return &domain.PresetNominal{
		Type:      t,
		Amount:    amount,
		Label:     c.FormValue("label"),
		SortOrder: order,
		Active:    c.FormValue("active") != "",
	}, nil
}

func (s *Server) createPreset(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	p, err := presetFromForm(c)
	if err == nil {
		err = s.svc.Presets.Create(c.UserContext(), actor, p)
	}
	if err != nil {
		return s.fail(c, err, "/transaksi/presets")
	}
	setFlash(c, flashSuccess, "Preset berhasil ditambahkan.")
	return c.Redirect("/transaksi/presets")
}

func (s *Server) updatePreset(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	actor, _ := currentActor(c)
	p, err := presetFromForm(c)
	if err == nil {
		p.ID = id
		err = s.svc.Presets.Update(c.UserContext(), actor, p)
	}
	if err != nil {
		return s.fail(c, err, "/transaksi/presets")
	}
	setFlash(c, flashSuccess, "Preset berhasil diperbarui.")
	return c.Redirect("/transaksi/presets")
}

func (s *Server) deletePreset(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	actor, _ := currentActor(c)
	if err := s.svc.Presets.Delete(c.UserContext(), actor, id); err != nil {
		return s.fail(c, err, "/transaksi/presets")
	}
	setFlash(c, flashSuccess, "Preset dihapus.")
	return c.Redirect("/transaksi/presets")
}
