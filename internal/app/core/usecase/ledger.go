package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

const (
	// DefaultStorageTimeout 單次儲存操作的上限，逾時回報 domain.ErrStorageUnavailable
	DefaultStorageTimeout = 5 * time.Second
	// DefaultReceiptTimeout 產生收據的上限
	DefaultReceiptTimeout = 15 * time.Second
)

// Engine 是帳務交易引擎：存款、提款 (含收據)、沖正與快捷金額查詢
//
// 結構:
//
//	store: 帳務儲存層，提供交易邊界與列鎖
//	presets: 快捷金額來源
//	receipts: 收據產生器
//	files: 沖正時刪除附檔
//	audit: 稽核紀錄 (盡力而為)
type Engine struct {
	store    LedgerStore
	presets  PresetStore
	receipts ReceiptRenderer
	files    FileRemover
	audit    auditor
	logger   *slog.Logger

	now            func() time.Time
	newTrxNo       domain.TrxNoGenerator
	timeout        time.Duration
	receiptTimeout time.Duration
	// asyncReceipts 為 true 時收據於背景產生，回應不等待
	asyncReceipts bool
	pending       sync.WaitGroup
}

// EngineOption 定義 Engine 的配置選項函數
type EngineOption func(*Engine)

// WithClock 替換時間來源
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithTrxNoGenerator 替換交易編號產生器
func WithTrxNoGenerator(gen domain.TrxNoGenerator) EngineOption {
	return func(e *Engine) { e.newTrxNo = gen }
}

// WithStorageTimeout 設定儲存操作逾時
func WithStorageTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithReceiptTimeout 設定收據產生逾時
func WithReceiptTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.receiptTimeout = d
		}
	}
}

// WithAsyncReceipts 收據改為背景產生，路徑事後回寫
func WithAsyncReceipts(async bool) EngineOption {
	return func(e *Engine) { e.asyncReceipts = async }
}

// WithLogger 設定 logger
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine 建立交易引擎
//
// 參數:
//
//	store: 帳務儲存層
//	presets: 快捷金額來源
//	receipts: 收據產生器
//	files: 附檔刪除器 (可為 nil)
//	audit: 稽核接收端 (可為 nil)
//	opts: 可選配置
//
// 回傳:
//
//	*Engine: 交易引擎
func NewEngine(store LedgerStore, presets PresetStore, receipts ReceiptRenderer, files FileRemover, audit AuditSink, opts ...EngineOption) *Engine {
	e := &Engine{
		store:          store,
		presets:        presets,
		receipts:       receipts,
		files:          files,
		logger:         slog.Default(),
		now:            time.Now,
		newTrxNo:       domain.NewTrxNo,
		timeout:        DefaultStorageTimeout,
		receiptTimeout: DefaultReceiptTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.audit = newAuditor(audit, e.logger)
	e.audit.now = e.now
	return e
}

// Deposit 存款：同一個交易內增加餘額並新增交易紀錄，完成後寫稽核
//
// 參數:
//
//	ctx: 上下文
//	req: 存款請求
//
// 回傳:
//
//	*domain.Outcome: 已入帳的交易與學生餘額
//	error: 驗證錯誤、domain.ErrStudentNotFound、domain.ErrStorageUnavailable
func (e *Engine) Deposit(ctx context.Context, req domain.DepositRequest) (*domain.Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out domain.Outcome
	err := e.commit(ctx, func(ctx context.Context, tx LedgerTx, trxNo string, now time.Time) error {
		student, err := tx.LockStudent(ctx, req.StudentID)
		if err != nil {
			return err
		}
		if student.Balance > math.MaxInt64-req.Amount {
			return domain.NewValidationError("jumlah", "saldo melebihi batas")
		}
		student.Balance += req.Amount
		if err := tx.SetBalance(ctx, student.ID, student.Balance); err != nil {
			return err
		}
		tran := domain.Transaction{
			TrxNo:     trxNo,
			StudentID: student.ID,
			UserID:    req.Actor.UserID(),
			Type:      domain.TransactionTypeDeposit,
			Amount:    req.Amount,
			Note:      req.Note,
			CreatedAt: now,
		}
		if err := tx.InsertTransaction(ctx, &tran); err != nil {
			return err
		}
		out.Committed = tran
		out.Student = *student
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("deposit committed",
		slog.String("trx_no", out.Committed.TrxNo),
		slog.Int64("student_id", out.Student.ID),
		slog.Int64("amount", req.Amount),
		slog.Int64("balance", out.Student.Balance))
	e.audit.record(ctx, req.Actor, domain.AuditActionCreate, domain.AuditEntityTransaction, out.Committed.TrxNo, map[string]any{
		"type":       string(domain.TransactionTypeDeposit),
		"student_id": out.Student.ID,
		"amount":     req.Amount,
	})
	return &out, nil
}

// Withdraw 提款：檢查餘額後扣款並新增交易，提交後才產生收據
// 收據失敗不回滾，以 Outcome.ReceiptWarning 回報降級成功
//
// 參數:
//
//	ctx: 上下文
//	req: 提款請求
//
// 回傳:
//
//	*domain.Outcome: 已入帳的交易 (可能附帶收據警告)
//	error: 驗證錯誤、domain.ErrInsufficientFunds、domain.ErrStudentNotFound、domain.ErrStorageUnavailable
func (e *Engine) Withdraw(ctx context.Context, req domain.WithdrawalRequest) (*domain.Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out domain.Outcome
	err := e.commit(ctx, func(ctx context.Context, tx LedgerTx, trxNo string, now time.Time) error {
		student, err := tx.LockStudent(ctx, req.StudentID)
		if err != nil {
			return err
		}
		if student.Balance < req.Amount {
			return fmt.Errorf("%w: saldo %s, diminta %s", domain.ErrInsufficientFunds,
				domain.FormatRupiah(student.Balance), domain.FormatRupiah(req.Amount))
		}
		student.Balance -= req.Amount
		if err := tx.SetBalance(ctx, student.ID, student.Balance); err != nil {
			return err
		}
		tran := domain.Transaction{
			TrxNo:     trxNo,
			StudentID: student.ID,
			UserID:    req.Actor.UserID(),
			Type:      domain.TransactionTypeWithdrawal,
			Amount:    req.Amount,
			Note:      req.Note,
			CreatedAt: now,
		}
		if err := tx.InsertTransaction(ctx, &tran); err != nil {
			return err
		}
		out.Committed = tran
		out.Student = *student
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("withdrawal committed",
		slog.String("trx_no", out.Committed.TrxNo),
		slog.Int64("student_id", out.Student.ID),
		slog.Int64("amount", req.Amount),
		slog.Int64("balance", out.Student.Balance))

	receiver := req.ReceiverName
	if receiver == "" {
		receiver = out.Student.Name
	}
	receipt := ReceiptRequest{
		TrxNo:        out.Committed.TrxNo,
		CreatedAt:    out.Committed.CreatedAt,
		StudentName:  out.Student.Name,
		StudentNIS:   out.Student.NIS,
		StudentClass: out.Student.ClassOrDash(),
		Amount:       out.Committed.Amount,
		Note:         out.Committed.Note,
		GiverName:    req.Actor.DisplayName(),
		ReceiverName: receiver,
	}

	if e.asyncReceipts {
		out.ReceiptWarning = &domain.ReceiptWarning{Pending: true}
		bg := context.WithoutCancel(ctx)
		e.pending.Add(1)
		go func() {
			defer e.pending.Done()
			path, err := e.produceReceipt(bg, receipt)
			e.auditWithdrawal(bg, req.Actor, &out.Committed, path, err)
		}()
		return &out, nil
	}

	path, err := e.produceReceipt(ctx, receipt)
	if path != "" {
		out.Committed.ReceiptPath = path
	}
	if err != nil {
		out.ReceiptWarning = &domain.ReceiptWarning{Err: err}
	}
	e.auditWithdrawal(ctx, req.Actor, &out.Committed, path, err)
	return &out, nil
}

// produceReceipt 產生收據並回寫路徑
// 檔案已產生但回寫失敗時，同時回傳路徑與錯誤
func (e *Engine) produceReceipt(ctx context.Context, req ReceiptRequest) (string, error) {
	if e.receipts == nil {
		return "", fmt.Errorf("%w: no renderer configured", domain.ErrRender)
	}
	rctx, cancel := context.WithTimeout(ctx, e.receiptTimeout)
	path, err := e.receipts.RenderWithdrawal(rctx, req)
	cancel()
	if err != nil {
		if !errors.Is(err, domain.ErrRender) {
			err = fmt.Errorf("%w: %w", domain.ErrRender, err)
		}
		e.logger.Error("receipt render failed", slog.String("trx_no", req.TrxNo), slog.Any("error", err))
		return "", err
	}

	actx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := e.store.AttachReceipt(actx, req.TrxNo, path); err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			// 背景產生期間交易已被沖正，收據不再屬於任何交易
			e.discardReceipt(path, req.TrxNo)
			return "", fmt.Errorf("simpan lokasi bukti: %w", err)
		}
		err = classifyStorageError(err)
		e.logger.Error("attach receipt failed", slog.String("trx_no", req.TrxNo), slog.String("path", path), slog.Any("error", err))
		return path, fmt.Errorf("simpan lokasi bukti: %w", err)
	}
	return path, nil
}

func (e *Engine) discardReceipt(path, trxNo string) {
	if e.files == nil {
		return
	}
	if err := e.files.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		e.logger.Warn("remove orphaned receipt failed", slog.String("trx_no", trxNo), slog.String("path", path), slog.Any("error", err))
		return
	}
	e.logger.Info("orphaned receipt removed", slog.String("trx_no", trxNo), slog.String("path", path))
}

func (e *Engine) auditWithdrawal(ctx context.Context, actor domain.Actor, tran *domain.Transaction, path string, receiptErr error) {
	details := map[string]any{
		"type":       string(domain.TransactionTypeWithdrawal),
		"student_id": tran.StudentID,
		"amount":     tran.Amount,
		"pdf":        path,
	}
	if receiptErr != nil {
		details["receipt_error"] = receiptErr.Error()
	}
	e.audit.record(ctx, actor, domain.AuditActionCreate, domain.AuditEntityTransaction, tran.TrxNo, details)
}

// Reverse 沖正 (刪除) 一筆交易並還原餘額
// 參照可為完整編號或 8 位後綴；後綴對應多筆時回傳 domain.ErrAmbiguousReference 且不異動
// 餘額還原與刪除在同一個交易內；附檔刪除在交易外，失敗只記 log
//
// 參數:
//
//	ctx: 上下文
//	req: 沖正請求
//
// 回傳:
//
//	*domain.ReversalOutcome: 被刪除的交易與還原後的學生餘額
//	error: 驗證錯誤、domain.ErrForbidden、domain.ErrTransactionNotFound、domain.ErrAmbiguousReference、domain.ErrStorageUnavailable
func (e *Engine) Reverse(ctx context.Context, req domain.ReversalRequest) (*domain.ReversalOutcome, error) {
	ref, err := req.Validate()
	if err != nil {
		return nil, err
	}
	var out domain.ReversalOutcome
	err = e.withinTx(ctx, func(ctx context.Context, tx LedgerTx) error {
		matches, err := tx.FindTransactions(ctx, ref)
		if err != nil {
			return err
		}
		switch len(matches) {
		case 0:
			return fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, ref)
		case 1:
		default:
			return fmt.Errorf("%w: %s cocok dengan %d transaksi", domain.ErrAmbiguousReference, ref, len(matches))
		}

		// 先鎖學生再鎖交易，與存提款的鎖定順序一致
		student, err := tx.LockStudent(ctx, matches[0].StudentID)
		if err != nil {
			return err
		}
		tran, err := tx.LockTransaction(ctx, matches[0].ID)
		if err != nil {
			return err
		}
		student.Balance -= tran.BalanceDelta()
		if err := tx.SetBalance(ctx, student.ID, student.Balance); err != nil {
			return err
		}
		if err := tx.DeleteTransaction(ctx, tran.ID); err != nil {
			return err
		}
		out.Reversed = *tran
		out.Student = *student
		return nil
	})
	if err != nil {
		return nil, err
	}

	out.NegativeBalance = out.Student.Balance < 0
	if out.NegativeBalance {
		e.logger.Warn("reversal left negative balance",
			slog.String("trx_no", out.Reversed.TrxNo),
			slog.Int64("student_id", out.Student.ID),
			slog.Int64("balance", out.Student.Balance))
	}
	e.logger.Info("transaction reversed",
		slog.String("trx_no", out.Reversed.TrxNo),
		slog.Int64("student_id", out.Student.ID),
		slog.Int64("balance", out.Student.Balance))

	for _, path := range out.Reversed.Files() {
		if e.files == nil {
			break
		}
		if err := e.files.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			e.logger.Warn("remove transaction file failed", slog.String("path", path), slog.Any("error", err))
			out.FileErrors = append(out.FileErrors, path)
		}
	}

	e.audit.record(ctx, req.Actor, domain.AuditActionDelete, domain.AuditEntityTransaction, out.Reversed.TrxNo, map[string]any{
		"type":             string(out.Reversed.Type),
		"student_id":       out.Reversed.StudentID,
		"amount":           out.Reversed.Amount,
		"balance_after":    out.Student.Balance,
		"negative_balance": out.NegativeBalance,
	})
	return &out, nil
}

// Presets 回傳指定類型啟用中的快捷金額，依 sort_order、金額遞增
func (e *Engine) Presets(ctx context.Context, tranType domain.TransactionType) ([]domain.PresetNominal, error) {
	if !tranType.Valid() {
		return nil, domain.NewValidationError("tipe", "tipe transaksi tidak valid")
	}
	tctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	presets, err := e.presets.ActivePresets(tctx, tranType)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	active := presets[:0:0]
	for _, p := range presets {
		if p.Active && p.Type == tranType {
			active = append(active, p)
		}
	}
	domain.SortPresets(active)
	return active, nil
}

// Close 等待背景收據工作完成
func (e *Engine) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// commit 產生交易編號並執行 fn；編號衝突時重新產生一次，仍衝突則回傳錯誤
func (e *Engine) commit(ctx context.Context, fn func(ctx context.Context, tx LedgerTx, trxNo string, now time.Time) error) error {
	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		now := e.now()
		trxNo, genErr := e.newTrxNo(now)
		if genErr != nil {
			return fmt.Errorf("generate trx_no: %w", genErr)
		}
		err = e.withinTx(ctx, func(ctx context.Context, tx LedgerTx) error {
			return fn(ctx, tx, trxNo, now)
		})
		if !errors.Is(err, domain.ErrDuplicateTrxNo) {
			return err
		}
		e.logger.Warn("trx_no collision", slog.String("trx_no", trxNo), slog.Int("attempt", attempt))
	}
	return fmt.Errorf("trx_no collision persisted after retry: %w", err)
}

// withinTx 以逾時包住儲存層交易，並將未知錯誤歸類為 domain.ErrStorageUnavailable
func (e *Engine) withinTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error {
	tctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	err := e.store.WithinTx(tctx, func(tx LedgerTx) error {
		return fn(tctx, tx)
	})
	return classifyStorageError(err)
}

// classifyStorageError 業務錯誤原樣回傳，其餘視為儲存層不可用
func classifyStorageError(err error) error {
	if err == nil || domain.IsBusinessError(err) || errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
}
