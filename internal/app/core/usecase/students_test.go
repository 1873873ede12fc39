package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

func seedStudents(t *testing.T, store *memory.Store, names ...string) {
	t.Helper()
	for i, n := range names {
		p := domain.StudentProfile{NIS: string(rune('A'+i)) + "-01", Name: n, Class: "7A"}
		if _, err := store.CreateStudent(context.Background(), p, ""); err != nil {
			t.Fatalf("CreateStudent: %v", err)
		}
	}
}

func names(list []domain.Student) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Name
	}
	return out
}

func TestSearchForCashierPrefixThenContains(t *testing.T) {
	store := memory.NewStore()
	seedStudents(t, store, "Abdul Rahman", "Rahmat Hidayat", "Siti Rahmah", "Budi", "rahma")
	svc := usecase.NewStudentService(store, store, nil, store, nil)
	ctx := context.Background()

	got, err := svc.SearchForCashier(ctx, "rahm", 10)
	if err != nil {
		t.Fatalf("SearchForCashier: %v", err)
	}
	// 前綴比對在前 (依姓名排序)，其後補上包含比對
	want := []string{"rahma", "Rahmat Hidayat", "Abdul Rahman", "Siti Rahmah"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", names(got), want)
	}
	for i := range want {
		if got[i].Name != want[i] {
			t.Fatalf("got %v, want %v", names(got), want)
		}
	}

	short, _ := svc.SearchForCashier(ctx, "ra", 10)
	if len(short) != 2 {
		t.Fatalf("short query should only use prefix match, got %v", names(short))
	}

	all, _ := svc.SearchForCashier(ctx, "", 3)
	if len(all) != 3 || all[0].Name != "Abdul Rahman" {
		t.Fatalf("empty query = %v", names(all))
	}
}

func TestSearchForAdminEmptyAndFields(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	_, _ = store.CreateStudent(ctx, domain.StudentProfile{NIS: "2024001", Name: "Zaid", Group: "Asrama Timur"}, "")
	svc := usecase.NewStudentService(store, store, nil, store, nil)

	empty, err := svc.SearchForAdmin(ctx, "  ", 10)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty admin search = %v, %v", empty, err)
	}
	byNIS, _ := svc.SearchForAdmin(ctx, "24001", 10)
	if len(byNIS) != 1 {
		t.Fatalf("admin search by NIS = %v", names(byNIS))
	}
	byGroup, _ := svc.SearchForAdmin(ctx, "timur", 100)
	if len(byGroup) != 1 {
		t.Fatalf("admin search by group = %v", names(byGroup))
	}
}

func TestStudentUpdateNeverTouchesBalance(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := usecase.NewStudentService(store, store, nil, store, nil)
	st, err := svc.Create(ctx, admin, domain.StudentProfile{NIS: "1", Name: "Ali"}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	engine := usecase.NewEngine(store, store, &fakeRenderer{}, nil, store)
	if _, err := engine.Deposit(ctx, domain.DepositRequest{StudentID: st.ID, Amount: 9000, Actor: kasir}); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if err := svc.Update(ctx, admin, st.ID, domain.StudentProfile{NIS: "1", Name: "Ali Akbar", Class: "9C"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := svc.Get(ctx, st.ID)
	if got.Name != "Ali Akbar" || got.Balance != 9000 {
		t.Fatalf("student = %+v", got)
	}

	if _, err := svc.Create(ctx, admin, domain.StudentProfile{NIS: "1", Name: "Dup"}, ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("duplicate NIS err = %v", err)
	}
	if _, err := svc.Create(ctx, kasir, domain.StudentProfile{NIS: "2", Name: "X"}, ""); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("kasir create err = %v", err)
	}
}

func TestStudentDeleteRemovesFilesAndTransactions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	remover := &fakeRemover{}
	svc := usecase.NewStudentService(store, store, remover, store, nil)
	st, _ := svc.Create(ctx, admin, domain.StudentProfile{NIS: "1", Name: "Ali"}, "uploads/fotos/ali.jpg")
	engine := usecase.NewEngine(store, store, &fakeRenderer{}, nil, store)
	if _, err := engine.Deposit(ctx, domain.DepositRequest{StudentID: st.ID, Amount: 9000, Actor: kasir}); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	wd, err := engine.Withdraw(ctx, domain.WithdrawalRequest{StudentID: st.ID, Amount: 1000, Actor: kasir})
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	if err := svc.Delete(ctx, admin, st.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, st.ID); !errors.Is(err, domain.ErrStudentNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
	rows, _ := store.TransactionsOfStudent(ctx, st.ID)
	if len(rows) != 0 {
		t.Fatalf("transactions not cascaded: %d", len(rows))
	}
	if len(remover.removed) != 2 || remover.removed[0] != "uploads/fotos/ali.jpg" || remover.removed[1] != wd.Committed.ReceiptPath {
		t.Fatalf("removed = %v", remover.removed)
	}
}

func TestDetailReportsReconciliation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := usecase.NewStudentService(store, store, nil, store, nil)
	st, err := svc.Create(ctx, admin, domain.StudentProfile{NIS: "77", Name: "Umar"}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	engine := usecase.NewEngine(store, store, &fakeRenderer{}, nil, store)
	for _, amt := range []int64{5000, 7000} {
		if _, err := engine.Deposit(ctx, domain.DepositRequest{StudentID: st.ID, Amount: amt, Actor: kasir}); err != nil {
			t.Fatalf("Deposit: %v", err)
		}
	}

	d, err := svc.Detail(ctx, st.ID)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if !d.Reconciled || d.Student.Balance != 12000 || len(d.History) != 2 {
		t.Fatalf("detail = %+v", d)
	}

	// 繞過引擎直接改餘額，模擬帳實不符
	err = store.WithinTx(ctx, func(tx usecase.LedgerTx) error {
		return tx.SetBalance(ctx, st.ID, 99999)
	})
	if err != nil {
		t.Fatalf("SetBalance: %v", err)
	}
	d, _ = svc.Detail(ctx, st.ID)
	if d.Reconciled {
		t.Fatal("Reconciled = true after balance was tampered")
	}
}
