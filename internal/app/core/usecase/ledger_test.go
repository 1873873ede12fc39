package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

var (
	kasir = domain.Actor{ID: 2, Username: "kasir", FullName: "Kasir Utama", Role: domain.RoleKasir}
	admin = domain.Actor{ID: 1, Username: "admin", FullName: "Admin Utama", Role: domain.RoleAdmin}
)

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 5, 1, 8, 0, 0, 0, time.Local)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fakeRenderer struct {
	mu       sync.Mutex
	err      error
	requests []usecase.ReceiptRequest
	gate     chan struct{} // 非 nil 時，關閉前不完成產生
}

func (r *fakeRenderer) RenderWithdrawal(ctx context.Context, req usecase.ReceiptRequest) (string, error) {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if r.err != nil {
		return "", r.err
	}
	return "receipts/" + req.TrxNo + ".pdf", nil
}

type fakeRemover struct {
	mu      sync.Mutex
	removed []string
	err     error
}

func (f *fakeRemover) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, path)
	return f.err
}

type failingAudit struct{ calls int }

func (a *failingAudit) Record(ctx context.Context, entry domain.AuditEntry) error {
	a.calls++
	return errors.New("audit table locked")
}

type fixture struct {
	engine   *usecase.Engine
	store    *memory.Store
	renderer *fakeRenderer
	remover  *fakeRemover
	student  int64
}

func newFixture(t *testing.T, audit usecase.AuditSink, opts ...usecase.EngineOption) *fixture {
	t.Helper()
	store := memory.NewStore()
	st, err := store.CreateStudent(context.Background(), domain.StudentProfile{NIS: "1001", Name: "Ahmad Fauzi", Class: "7A"}, "")
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	if audit == nil {
		audit = store
	}
	f := &fixture{store: store, renderer: &fakeRenderer{}, remover: &fakeRemover{}, student: st.ID}
	clock := newStepClock()
	opts = append([]usecase.EngineOption{usecase.WithClock(clock.Now)}, opts...)
	f.engine = usecase.NewEngine(store, store, f.renderer, f.remover, audit, opts...)
	return f
}

func (f *fixture) balance(t *testing.T) int64 {
	t.Helper()
	st, err := f.store.GetStudent(context.Background(), f.student)
	if err != nil {
		t.Fatalf("GetStudent: %v", err)
	}
	return st.Balance
}

func (f *fixture) rows(t *testing.T) []domain.Transaction {
	t.Helper()
	rows, err := f.store.TransactionsOfStudent(context.Background(), f.student)
	if err != nil {
		t.Fatalf("TransactionsOfStudent: %v", err)
	}
	return rows
}

func TestDepositWithdrawReverseScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	dep, err := f.engine.Deposit(ctx, domain.DepositRequest{StudentID: f.student, Amount: 50000, Actor: kasir})
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if got := f.balance(t); got != 50000 {
		t.Fatalf("balance after deposit = %d, want 50000", got)
	}
	if rows := f.rows(t); len(rows) != 1 || rows[0].Type != domain.TransactionTypeDeposit {
		t.Fatalf("rows after deposit = %+v", rows)
	}
	if !domain.IsTrxNo(dep.Committed.TrxNo) {
		t.Fatalf("trx_no %q has wrong format", dep.Committed.TrxNo)
	}

	wd, err := f.engine.Withdraw(ctx, domain.WithdrawalRequest{StudentID: f.student, Amount: 20000, ReceiverName: "Ali", Actor: kasir})
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if wd.Degraded() {
		t.Fatalf("unexpected receipt warning: %v", wd.ReceiptWarning)
	}
	if wd.Committed.ReceiptPath == "" {
		t.Fatal("receipt path is empty")
	}
	if got := f.balance(t); got != 30000 {
		t.Fatalf("balance after withdrawal = %d, want 30000", got)
	}
	rows := f.rows(t)
	if len(rows) != 2 || rows[1].Type != domain.TransactionTypeWithdrawal || rows[1].ReceiptPath == "" {
		t.Fatalf("rows after withdrawal = %+v", rows)
	}
	req := f.renderer.requests[0]
	if req.ReceiverName != "Ali" || req.GiverName != "Kasir Utama" || req.StudentNIS != "1001" || req.Amount != 20000 {
		t.Fatalf("receipt request = %+v", req)
	}

	_, err = f.engine.Withdraw(ctx, domain.WithdrawalRequest{StudentID: f.student, Amount: 100000, Actor: kasir})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("overdraw err = %v, want ErrInsufficientFunds", err)
	}
	if got := f.balance(t); got != 30000 {
		t.Fatalf("balance after rejected withdrawal = %d, want 30000", got)
	}

	rev, err := f.engine.Reverse(ctx, domain.ReversalRequest{Reference: wd.Committed.TrxNo, Actor: admin})
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if got := f.balance(t); got != 50000 {
		t.Fatalf("balance after reversal = %d, want 50000", got)
	}
	if rev.NegativeBalance {
		t.Fatal("reversal flagged a negative balance")
	}
	rows = f.rows(t)
	if len(rows) != 1 || rows[0].TrxNo != dep.Committed.TrxNo {
		t.Fatalf("rows after reversal = %+v", rows)
	}
	if len(f.remover.removed) != 1 || f.remover.removed[0] != wd.Committed.ReceiptPath {
		t.Fatalf("removed files = %v", f.remover.removed)
	}
}

func TestBalanceEqualsReplayedLog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	rng := rand.New(rand.NewSource(42))

	var expected int64
	for i := 0; i < 300; i++ {
		amount := int64(rng.Intn(50)+1) * 1000
		if rng.Intn(3) == 0 {
			_, err := f.engine.Withdraw(ctx, domain.WithdrawalRequest{StudentID: f.student, Amount: amount, Actor: kasir})
			switch {
			case amount > expected:
				if !errors.Is(err, domain.ErrInsufficientFunds) {
					t.Fatalf("step %d: overdraw err = %v", i, err)
				}
			case err != nil:
				t.Fatalf("step %d: Withdraw: %v", i, err)
			default:
				expected -= amount
			}
			continue
		}
		if _, err := f.engine.Deposit(ctx, domain.DepositRequest{StudentID: f.student, Amount: amount, Actor: kasir}); err != nil {
			t.Fatalf("step %d: Deposit: %v", i, err)
		}
		expected += amount
	}

	got := f.balance(t)
	if got != expected {
		t.Fatalf("balance = %d, want %d", got, expected)
	}
	if replayed := domain.ReplayBalance(0, f.rows(t)); replayed != got {
		t.Fatalf("replayed = %d, balance = %d", replayed, got)
	}
}

func TestReverseAdjustsByExactAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	dep, err := f.engine.Deposit(ctx, domain.DepositRequest{StudentID: f.student, Amount: 70000, Actor: kasir})
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	wd, err := f.engine.Withdraw(ctx, domain.WithdrawalRequest{StudentID: f.student, Amount: 25000, Actor: kasir})
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	before := f.balance(t)
	if _, err := f.engine.Reverse(ctx, domain.ReversalRequest{Reference: domain.TrxSuffix(wd.Committed.TrxNo), Actor: admin}); err != nil {
		t.Fatalf("Reverse withdrawal: %v", err)
	}
	if got := f.balance(t); got != before+25000 {
		t.Fatalf("after withdrawal reversal = %d, want %d", got, before+25000)
	}

	before = f.balance(t)
	if _, err := f.engine.Reverse(ctx, domain.ReversalRequest{Reference: dep.Committed.TrxNo, Actor: admin}); err != nil {
		t.Fatalf("Reverse deposit: %v", err)
	}
	if got := f.balance(t); got != before-70000 {
		t.Fatalf("after deposit reversal = %d, want %d", got, before-70000)
	}

	_, err = f.engine.Reverse(ctx, domain.ReversalRequest{Reference: dep.Committed.TrxNo, Actor: admin})
	if !errors.Is(err, domain.ErrTransactionNotFound) || !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second reversal err = %v, want not found", err)
	}
}

func TestReverseDepositFlagsNegativeBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	dep, err := f.engine.Deposit(ctx, domain.DepositRequest{StudentID: f.student, Amount: 50000, Actor: kasir})
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if _, err := f.engine.Withdraw(ctx, domain.WithdrawalRequest{StudentID: f.student, Amount: 40000, Actor: kasir}); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	rev, err := f.engine.Reverse(ctx, domain.ReversalRequest{Reference: dep.Committed.TrxNo, Actor: admin})
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if !rev.NegativeBalance || rev.Student.Balance != -40000 {
		t.Fatalf("outcome = %+v, want negative balance -40000", rev)
	}
	if got := f.balance(t); got != -40000 {
		t.Fatalf("stored balance = %d", got)
	}
	entries := f.store.AuditEntries()
	last := entries[len(entries)-1]
	if last.Action != domain.AuditActionDelete || last.Details["negative_balance"] != true {
		t.Fatalf("last audit entry = %+v", last)
	}
}

func TestReverseAmbiguousSuffix(t *testing.T) {
	ctx := context.Background()
	sameSuffix := func(now time.Time) (string, error) {
		return domain.FormatTrxNo(now, "abcd1234"), nil
	}
	f := newFixture(t, nil, usecase.WithTrxNoGenerator(sameSuffix))

	for i := 0; i < 2; i++ {
		if _, err := f.engine.Deposit(ctx, domain.DepositRequest{StudentID: f.student, Amount: 10000, Actor: kasir}); err != nil {
			t.Fatalf("Deposit %d: %v", i, err)
		}
	}
	before := f.balance(t)

	_, err := f.engine.Reverse(ctx, domain.ReversalRequest{Reference: "abcd1234", Actor: admin})
	if !errors.Is(err, domain.ErrAmbiguousReference) {
		t.Fatalf("err = %v, want ErrAmbiguousReference", err)
	}
	if got := f.balance(t); got != before {
		t.Fatalf("balance changed: %d -> %d", before, got)
	}
	if rows := f.rows(t); len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	rows := f.rows(t)
	if _, err := f.engine.Reverse(ctx, domain.ReversalRequest{Reference: rows[0].TrxNo, Actor: admin}); err != nil {
		t.Fatalf("exact reversal should still work: %v", err)
	}
}

func TestReverseRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	dep, err := f.engine.Deposit(ctx, domain.DepositRequest{StudentID: f.student, Amount: 10000, Actor: kasir})
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	_, err = f.engine.Reverse(ctx, domain.ReversalRequest{Reference: dep.Committed.TrxNo, Actor: kasir})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestWithdrawReceiptFailureIsDegradedSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.renderer.err = errors.New("font missing")

	if _, err := f.engine.Deposit(ctx, domain.DepositRequest{StudentID: f.student, Amount: 30000, Actor: kasir}); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	out, err := f.engine.Withdraw(ctx, domain.WithdrawalRequest{StudentID: f.student, Amount: 10000, Actor: kasir})
	if err != nil {
		t.Fatalf("Withdraw should succeed when the receipt fails: %v", err)
	}
	if !out.Degraded() || !errors.Is(out.ReceiptWarning, domain.ErrRender) {
		t.Fatalf("warning = %v, want render error", out.ReceiptWarning)
	}
	if got := f.balance(t); got != 20000 {
		t.Fatalf("balance = %d, want 20000", got)
	}
	rows := f.rows(t)
	if len(rows) != 2 || rows[1].ReceiptPath != "" {
		t.Fatalf("rows = %+v", rows)
	}
	if len(f.renderer.requests) != 1 || f.renderer.requests[0].ReceiverName != "Ahmad Fauzi" {
		t.Fatalf("receiver should default to the student name: %+v", f.renderer.requests)
	}
}

func TestAuditFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	audit := &failingAudit{}
	f := newFixture(t, audit)

	if _, err := f.engine.Deposit(ctx, domain.DepositRequest{StudentID: f.student, Amount: 30000, Actor: kasir}); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	out, err := f.engine.Withdraw(ctx, domain.WithdrawalRequest{StudentID: f.student, Amount: 30000, Actor: kasir})
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if _, err := f.engine.Reverse(ctx, domain.ReversalRequest{Reference: out.Committed.TrxNo, Actor: admin}); err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if audit.calls != 3 {
		t.Fatalf("audit calls = %d, want 3", audit.calls)
	}
	if got := f.balance(t); got != 30000 {
		t.Fatalf("balance = %d, want 30000", got)
	}
}

func TestValidationAndNotFoundLeaveNoRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if _, err := f.engine.Deposit(ctx, domain.DepositRequest{StudentID: f.student, Amount: 0, Actor: kasir}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("zero deposit err = %v", err)
	}
	if _, err := f.engine.Withdraw(ctx, domain.WithdrawalRequest{StudentID: f.student, Amount: -5, Actor: kasir}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("negative withdrawal err = %v", err)
	}
	if _, err := f.engine.Deposit(ctx, domain.DepositRequest{StudentID: 999, Amount: 1000, Actor: kasir}); !errors.Is(err, domain.ErrStudentNotFound) {
		t.Fatalf("unknown student err = %v", err)
	}
	if _, err := f.engine.Reverse(ctx, domain.ReversalRequest{Reference: "TRX-2024", Actor: admin}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("malformed reference err = %v", err)
	}
	if rows := f.rows(t); len(rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(rows))
	}
	if got := f.balance(t); got != 0 {
		t.Fatalf("balance = %d, want 0", got)
	}
}

func TestTrxNoCollisionRetriedOnce(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	calls := 0
	gen := func(now time.Time) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		// 前兩次產生相同編號，第三次不同
		if calls <= 2 {
			return "TRX-20240501-080000-00000001", nil
		}
		return fmt.Sprintf("TRX-20240501-080000-%08x", calls), nil
	}
	f := newFixture(t, nil, usecase.WithTrxNoGenerator(gen))

	if _, err := f.engine.Deposit(ctx, domain.DepositRequest{StudentID: f.student, Amount: 1000, Actor: kasir}); err != nil {
		t.Fatalf("first Deposit: %v", err)
	}
	out, err := f.engine.Deposit(ctx, domain.DepositRequest{StudentID: f.student, Amount: 2000, Actor: kasir})
	if err != nil {
		t.Fatalf("second Deposit should succeed after regeneration: %v", err)
	}
	if out.Committed.TrxNo == "TRX-20240501-080000-00000001" {
		t.Fatal("collided trx_no was committed")
	}
	if got := f.balance(t); got != 3000 {
		t.Fatalf("balance = %d, want 3000", got)
	}
}

func TestTrxNoCollisionPersistentIsFatal(t *testing.T) {
	ctx := context.Background()
	fixed := func(now time.Time) (string, error) { return "TRX-20240501-080000-00000001", nil }
	f := newFixture(t, nil, usecase.WithTrxNoGenerator(fixed))

	if _, err := f.engine.Deposit(ctx, domain.DepositRequest{StudentID: f.student, Amount: 1000, Actor: kasir}); err != nil {
		t.Fatalf("first Deposit: %v", err)
	}
	_, err := f.engine.Deposit(ctx, domain.DepositRequest{StudentID: f.student, Amount: 2000, Actor: kasir})
	if !errors.Is(err, domain.ErrDuplicateTrxNo) {
		t.Fatalf("err = %v, want ErrDuplicateTrxNo", err)
	}
	if got := f.balance(t); got != 1000 {
		t.Fatalf("balance = %d, want 1000", got)
	}
}

// brokenStore 讓交易內的新增失敗，驗證餘額異動一併回滾
type brokenStore struct {
	*memory.Store
	insertErr error
	block     bool
}

type brokenTx struct {
	usecase.LedgerTx
	insertErr error
}

func (tx brokenTx) InsertTransaction(ctx context.Context, tran *domain.Transaction) error {
	return tx.insertErr
}

func (s *brokenStore) WithinTx(ctx context.Context, fn func(tx usecase.LedgerTx) error) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.Store.WithinTx(ctx, func(tx usecase.LedgerTx) error {
		return fn(brokenTx{LedgerTx: tx, insertErr: s.insertErr})
	})
}

func TestStorageFailureRollsBackBalance(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	st, _ := store.CreateStudent(ctx, domain.StudentProfile{NIS: "1", Name: "Budi"}, "")
	broken := &brokenStore{Store: store, insertErr: errors.New("connection reset")}
	engine := usecase.NewEngine(broken, store, &fakeRenderer{}, nil, store)

	_, err := engine.Deposit(ctx, domain.DepositRequest{StudentID: st.ID, Amount: 5000, Actor: kasir})
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("err = %v, want ErrStorageUnavailable", err)
	}
	got, _ := store.GetStudent(ctx, st.ID)
	if got.Balance != 0 {
		t.Fatalf("balance = %d, want 0 (rolled back)", got.Balance)
	}
}

func TestStorageTimeoutReportsUnavailable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	st, _ := store.CreateStudent(ctx, domain.StudentProfile{NIS: "1", Name: "Budi"}, "")
	broken := &brokenStore{Store: store, block: true}
	engine := usecase.NewEngine(broken, store, &fakeRenderer{}, nil, store, usecase.WithStorageTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := engine.Deposit(ctx, domain.DepositRequest{StudentID: st.ID, Amount: 5000, Actor: kasir})
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("err = %v, want ErrStorageUnavailable", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("timeout was not bounded")
	}
}

func TestAsyncReceiptAttachedLater(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, usecase.WithAsyncReceipts(true))

	if _, err := f.engine.Deposit(ctx, domain.DepositRequest{StudentID: f.student, Amount: 30000, Actor: kasir}); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	out, err := f.engine.Withdraw(ctx, domain.WithdrawalRequest{StudentID: f.student, Amount: 10000, Actor: kasir})
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if out.ReceiptWarning == nil || !out.ReceiptWarning.Pending {
		t.Fatalf("warning = %v, want pending", out.ReceiptWarning)
	}

	closeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := f.engine.Close(closeCtx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	view, err := f.store.GetTransaction(ctx, out.Committed.TrxNo)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if view.ReceiptPath == "" {
		t.Fatal("receipt path was not attached")
	}
}

func TestAsyncReceiptOfReversedWithdrawalIsRemoved(t *testing.T) {
	tests := []struct {
		name        string
		reverse     bool
		wantRemoved bool
	}{
		{name: "reversed before render finished", reverse: true, wantRemoved: true},
		{name: "still committed", reverse: false, wantRemoved: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, nil, usecase.WithAsyncReceipts(true), usecase.WithReceiptTimeout(5*time.Second))
			f.renderer.gate = make(chan struct{})

			if _, err := f.engine.Deposit(ctx, domain.DepositRequest{StudentID: f.student, Amount: 30000, Actor: kasir}); err != nil {
				t.Fatalf("Deposit: %v", err)
			}
			out, err := f.engine.Withdraw(ctx, domain.WithdrawalRequest{StudentID: f.student, Amount: 10000, Actor: kasir})
			if err != nil {
				t.Fatalf("Withdraw: %v", err)
			}
			if tt.reverse {
				if _, err := f.engine.Reverse(ctx, domain.ReversalRequest{Reference: out.Committed.TrxNo, Actor: admin}); err != nil {
					t.Fatalf("Reverse: %v", err)
				}
			}
			close(f.renderer.gate)

			closeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := f.engine.Close(closeCtx); err != nil {
				t.Fatalf("Close: %v", err)
			}

			path := "receipts/" + out.Committed.TrxNo + ".pdf"
			f.remover.mu.Lock()
			removed := append([]string(nil), f.remover.removed...)
			f.remover.mu.Unlock()
			if tt.wantRemoved {
				if len(removed) != 1 || removed[0] != path {
					t.Fatalf("removed files = %v, want [%s]", removed, path)
				}
				if _, err := f.store.GetTransaction(ctx, out.Committed.TrxNo); !errors.Is(err, domain.ErrTransactionNotFound) {
					t.Fatalf("GetTransaction err = %v, want ErrTransactionNotFound", err)
				}
				return
			}
			if len(removed) != 0 {
				t.Fatalf("removed files = %v, want none", removed)
			}
			view, err := f.store.GetTransaction(ctx, out.Committed.TrxNo)
			if err != nil {
				t.Fatalf("GetTransaction: %v", err)
			}
			if view.ReceiptPath != path {
				t.Fatalf("receipt path = %q, want %q", view.ReceiptPath, path)
			}
		})
	}
}

func TestPresetsOrderedAndActiveOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	for _, p := range []domain.PresetNominal{
		{Type: domain.TransactionTypeDeposit, Amount: 50000, SortOrder: 2, Active: true},
		{Type: domain.TransactionTypeDeposit, Amount: 20000, SortOrder: 1, Active: true},
		{Type: domain.TransactionTypeDeposit, Amount: 10000, SortOrder: 1, Active: true},
		{Type: domain.TransactionTypeDeposit, Amount: 5000, SortOrder: 0, Active: false},
		{Type: domain.TransactionTypeWithdrawal, Amount: 1000, SortOrder: 0, Active: true},
	} {
		p := p
		if err := f.store.CreatePreset(ctx, &p); err != nil {
			t.Fatalf("CreatePreset: %v", err)
		}
	}
	got, err := f.engine.Presets(ctx, domain.TransactionTypeDeposit)
	if err != nil {
		t.Fatalf("Presets: %v", err)
	}
	want := []int64{10000, 20000, 50000}
	if len(got) != len(want) {
		t.Fatalf("got %d presets, want %d", len(got), len(want))
	}
	for i, p := range got {
		if p.Amount != want[i] {
			t.Fatalf("position %d = %d, want %d", i, p.Amount, want[i])
		}
	}
	if _, err := f.engine.Presets(ctx, domain.TransactionType("transfer")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("unknown type err = %v", err)
	}
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	if _, err := f.engine.Deposit(ctx, domain.DepositRequest{StudentID: f.student, Amount: 100000, Actor: kasir}); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Withdraw(ctx, domain.WithdrawalRequest{StudentID: f.student, Amount: 10000, Actor: kasir})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			} else if !errors.Is(err, domain.ErrInsufficientFunds) {
				t.Errorf("Withdraw: %v", err)
			}
		}()
	}
	wg.Wait()
	if ok != 10 {
		t.Fatalf("successful withdrawals = %d, want 10", ok)
	}
	if got := f.balance(t); got != 0 {
		t.Fatalf("balance = %d, want 0", got)
	}
}
