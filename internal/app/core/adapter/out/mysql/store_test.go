package mysql

import (
	"errors"
	"fmt"
	"testing"

	driver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

func TestTranslateError(t *testing.T) {
	connErr := errors.New("driver: bad connection")
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"not found", gorm.ErrRecordNotFound, domain.ErrStudentNotFound},
		{"wrapped not found", fmt.Errorf("first: %w", gorm.ErrRecordNotFound), domain.ErrStudentNotFound},
		{"duplicate trx_no", &driver.MySQLError{Number: 1062, Message: "Duplicate entry 'TRX-1' for key 'transactions.uq_transactions_trx_no'"}, domain.ErrDuplicateTrxNo},
		{"duplicate nis", &driver.MySQLError{Number: 1062, Message: "Duplicate entry '1' for key 'students.uq_students_nis'"}, domain.ErrDuplicateKey},
		{"other", connErr, connErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err, domain.ErrStudentNotFound)
			if !errors.Is(got, tt.want) && got != tt.want {
				t.Fatalf("translateError = %v, want %v", got, tt.want)
			}
		})
	}
	if !errors.Is(translateError(&driver.MySQLError{Number: 1062, Message: "trx_no"}, nil), domain.ErrDuplicateKey) {
		t.Fatal("duplicate trx_no should also match ErrDuplicateKey")
	}
}

func TestModelRoundTripKeepsInactivePreset(t *testing.T) {
	p := &domain.PresetNominal{ID: 3, Type: domain.TransactionTypeWithdrawal, Amount: 5000, Label: "5 rb", SortOrder: 2, Active: false}
	row := newSQLPreset(p)
	if row.Active == nil || *row.Active {
		t.Fatalf("inactive preset must be stored explicitly, got %v", row.Active)
	}
	if got := row.toDomain(); got != *p {
		t.Fatalf("toDomain = %+v, want %+v", got, *p)
	}
}
