package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tesoreria/internal/auth"
	"tesoreria/internal/config"
	"tesoreria/internal/domain"
	"tesoreria/internal/events"
	"tesoreria/internal/events/mock_events"
	"tesoreria/internal/storage/sqlite"

	"go.uber.org/mock/gomock"
)

var baseTime = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, pub events.Publisher, strict bool) *Service {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	tokens := auth.NewTokenService(config.Config{JWTSecret: "test-secret", JWTExpiresIn: time.Hour})
	svc := New(store, tokens, pub, nil, strict)

	// each call moves the clock one second so creation order is observable
	var tick atomic.Int64
	svc.now = func() time.Time {
		return baseTime.Add(time.Duration(tick.Add(1)) * time.Second)
	}
	return svc
}

func quietPublisher(t *testing.T) *mock_events.MockPublisher {
	ctrl := gomock.NewController(t)
	pub := mock_events.NewMockPublisher(ctrl)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	return pub
}

func mustRegister(t *testing.T, svc *Service, username string) domain.Treasurer {
	t.Helper()
	tr, err := svc.Register(context.Background(), RegisterInput{Username: username, Password: "secreto1", ParaleloName: "3ro B"})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return tr
}

func mustStudent(t *testing.T, svc *Service, owner, name, cedula string) domain.Student {
	t.Helper()
	st, err := svc.AddStudent(context.Background(), owner, name, cedula)
	if err != nil {
		t.Fatalf("add student %s: %v", name, err)
	}
	return st
}

func mustSettings(t *testing.T, svc *Service, owner string, months ...string) {
	t.Helper()
	_, err := svc.SaveSettings(context.Background(), owner, SettingsInput{
		MonthlyAmount:  domain.MoneyFromCents(500),
		AcademicYear:   "2024",
		SelectedMonths: months,
	})
	if err != nil {
		t.Fatalf("save settings: %v", err)
	}
}

func payment(studentID, month string, cents int64) PaymentInput {
	return PaymentInput{StudentID: studentID, Month: month, Year: "2024", Amount: domain.MoneyFromCents(cents)}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t, nil, true)
	ctx := context.Background()

	tr := mustRegister(t, svc, "tesorera")
	if tr.PasswordHash == "secreto1" || tr.PasswordHash == "" {
		t.Fatalf("password must be hashed")
	}

	_, err := svc.Register(ctx, RegisterInput{Username: "tesorera", Password: "otraclave", ParaleloName: "x"})
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected duplicate username, got %v", err)
	}
	_, err = svc.Register(ctx, RegisterInput{Username: "corto", Password: "123", ParaleloName: "x"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}

	token, got, err := svc.Login(ctx, "tesorera", "secreto1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || got.ID != tr.ID {
		t.Fatalf("unexpected login result %q %+v", token, got)
	}
	id, err := svc.tokens.ParseToken(token)
	if err != nil || id != tr.ID {
		t.Fatalf("token subject = %q, %v", id, err)
	}

	if _, _, err := svc.Login(ctx, "tesorera", "mala"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nadie", "secreto1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}

	me, err := svc.Me(ctx, tr.ID)
	if err != nil || me.Username != "tesorera" {
		t.Fatalf("me: %+v %v", me, err)
	}
	if _, err := svc.Me(ctx, "ghost"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for unknown treasurer, got %v", err)
	}
}

func TestOwnerRequired(t *testing.T) {
	svc := newTestService(t, nil, true)
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["list students"] = svc.ListStudents(ctx, "")
	_, checks["add student"] = svc.AddStudent(ctx, "", "Ana", "1")
	checks["delete student"] = svc.DeleteStudent(ctx, "", "x")
	_, checks["settings"] = svc.GetSettings(ctx, "")
	_, checks["payment"] = svc.RecordPayment(ctx, "", payment("x", "Enero", 100))
	_, checks["expense"] = svc.ListExpenses(ctx, "", domain.ExpenseFilter{})
	_, checks["dashboard"] = svc.DashboardSummary(ctx, "")
	_, checks["upload"] = svc.UploadImage(ctx, "", []byte("x"))

	for name, err := range checks {
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("%s: expected unauthorized, got %v", name, err)
		}
	}
}

func TestAddStudentDuplicateCedula(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mock_events.NewMockPublisher(ctrl)
	svc := newTestService(t, pub, true)
	ctx := context.Background()
	owner := mustRegister(t, svc, "ana").ID

	pub.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e events.Event) error {
			if e.Type != events.StudentCreated || e.TreasurerID != owner {
				t.Errorf("unexpected event %+v", e)
			}
			return nil
		}).
		Times(1)

	first := mustStudent(t, svc, owner, "  Luis   Pérez ", "0102030405")
	if first.Name != "Luis Pérez" {
		t.Fatalf("name not cleaned: %q", first.Name)
	}

	other := mustRegister(t, svc, "beto").ID
	_, err := svc.AddStudent(ctx, other, "Otro", "01-0203 0405")
	if !errors.Is(err, domain.ErrDuplicateCedula) {
		t.Fatalf("expected duplicate cedula across treasurers, got %v", err)
	}

	if students, _ := svc.ListStudents(ctx, other); len(students) != 0 {
		t.Fatalf("duplicate cedula created a student: %+v", students)
	}
	if students, _ := svc.ListStudents(ctx, owner); len(students) != 1 || students[0].ID != first.ID {
		t.Fatalf("unexpected students %+v", students)
	}

	if _, err := svc.AddStudent(ctx, owner, " ", "123"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
	if _, err := svc.AddStudent(ctx, owner, "Ana", " - "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for blank cedula, got %v", err)
	}
}

func TestRecordPaymentDuplicate(t *testing.T) {
	svc := newTestService(t, quietPublisher(t), true)
	ctx := context.Background()
	owner := mustRegister(t, svc, "ana").ID
	mustSettings(t, svc, owner, "Enero", "Febrero")
	st := mustStudent(t, svc, owner, "Luis", "0102030405")

	p, err := svc.RecordPayment(ctx, owner, payment(st.ID, "enero", 500))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if p.Month != "Enero" {
		t.Fatalf("month not canonical: %q", p.Month)
	}

	if _, err := svc.RecordPayment(ctx, owner, payment(st.ID, "ENERO", 500)); !errors.Is(err, domain.ErrDuplicatePayment) {
		t.Fatalf("expected duplicate payment, got %v", err)
	}

	payments, err := svc.ListPayments(ctx, owner, domain.PaymentFilter{StudentID: st.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("expected exactly one payment, got %d", len(payments))
	}
}

func TestRecordPaymentConcurrentDuplicate(t *testing.T) {
	svc := newTestService(t, quietPublisher(t), true)
	ctx := context.Background()
	owner := mustRegister(t, svc, "ana").ID
	mustSettings(t, svc, owner, "Marzo")
	st := mustStudent(t, svc, owner, "Luis", "0102030405")

	const attempts = 8
	var (
		wg       sync.WaitGroup
		ok, dup  atomic.Int32
		failures = make(chan error, attempts)
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordPayment(ctx, owner, payment(st.ID, "Marzo", 500))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrDuplicatePayment):
				dup.Add(1)
			default:
				failures <- err
			}
		}()
	}
	wg.Wait()
	close(failures)

	for err := range failures {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok.Load() != 1 || dup.Load() != attempts-1 {
		t.Fatalf("expected 1 success and %d duplicates, got %d and %d", attempts-1, ok.Load(), dup.Load())
	}

	payments, _ := svc.ListPayments(ctx, owner, domain.PaymentFilter{})
	if len(payments) != 1 {
		t.Fatalf("expected one persisted payment, got %d", len(payments))
	}
}

func TestRecordPaymentRejections(t *testing.T) {
	svc := newTestService(t, quietPublisher(t), true)
	ctx := context.Background()
	owner := mustRegister(t, svc, "ana").ID
	st := mustStudent(t, svc, owner, "Luis", "0102030405")

	if _, err := svc.RecordPayment(ctx, owner, payment(st.ID, "Enero", 500)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error without settings, got %v", err)
	}

	mustSettings(t, svc, owner, "Enero")

	tests := []struct {
		name string
		in   PaymentInput
		want error
	}{
		{"zero amount", payment(st.ID, "Enero", 0), domain.ErrValidation},
		{"negative amount", payment(st.ID, "Enero", -100), domain.ErrValidation},
		{"unknown month", payment(st.ID, "Smarch", 500), domain.ErrValidation},
		{"month not payable", payment(st.ID, "Julio", 500), domain.ErrValidation},
		{"bad year", PaymentInput{StudentID: st.ID, Month: "Enero", Year: "24", Amount: domain.MoneyFromCents(500)}, domain.ErrValidation},
		{"unknown student", payment("ghost", "Enero", 500), domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.RecordPayment(ctx, owner, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	other := mustRegister(t, svc, "beto").ID
	mustSettings(t, svc, other, "Enero")
	if _, err := svc.RecordPayment(ctx, other, payment(st.ID, "Enero", 500)); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for another treasurer's student, got %v", err)
	}

	payments, _ := svc.ListPayments(ctx, owner, domain.PaymentFilter{})
	if len(payments) != 0 {
		t.Fatalf("rejected payments must not be stored, got %d", len(payments))
	}
}

func TestRecordPaymentLenientMonths(t *testing.T) {
	svc := newTestService(t, nil, false)
	ctx := context.Background()
	owner := mustRegister(t, svc, "ana").ID
	st := mustStudent(t, svc, owner, "Luis", "0102030405")

	if _, err := svc.RecordPayment(ctx, owner, payment(st.ID, "Julio", 500)); err != nil {
		t.Fatalf("lenient mode should accept any month: %v", err)
	}
}

func TestDeleteStudentCascade(t *testing.T) {
	svc := newTestService(t, quietPublisher(t), true)
	ctx := context.Background()
	owner := mustRegister(t, svc, "ana").ID
	mustSettings(t, svc, owner, "Enero", "Febrero")
	luis := mustStudent(t, svc, owner, "Luis", "111")
	eva := mustStudent(t, svc, owner, "Eva", "222")

	for _, p := range []PaymentInput{payment(luis.ID, "Enero", 500), payment(luis.ID, "Febrero", 500), payment(eva.ID, "Enero", 500)} {
		if _, err := svc.RecordPayment(ctx, owner, p); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	exp, err := svc.RecordExpense(ctx, owner, ExpenseInput{ResponsibleStudentID: luis.ID, Description: "Globos", Amount: domain.MoneyFromCents(300)})
	if err != nil {
		t.Fatalf("expense: %v", err)
	}

	if err := svc.DeleteStudent(ctx, owner, luis.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	payments, _ := svc.ListPayments(ctx, owner, domain.PaymentFilter{})
	for _, p := range payments {
		if p.StudentID == luis.ID {
			t.Fatalf("payment of deleted student still visible: %+v", p)
		}
	}
	if len(payments) != 1 {
		t.Fatalf("expected only Eva's payment, got %d", len(payments))
	}

	expenses, _ := svc.ListExpenses(ctx, owner, domain.ExpenseFilter{})
	if len(expenses) != 1 || expenses[0].ID != exp.ID || expenses[0].ResponsibleStudentID != nil {
		t.Fatalf("expected detached expense, got %+v", expenses)
	}

	if err := svc.DeleteStudent(ctx, owner, luis.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeletePaymentAndExpense(t *testing.T) {
	svc := newTestService(t, quietPublisher(t), true)
	ctx := context.Background()
	owner := mustRegister(t, svc, "ana").ID
	other := mustRegister(t, svc, "beto").ID
	mustSettings(t, svc, owner, "Enero")
	st := mustStudent(t, svc, owner, "Luis", "111")

	p, err := svc.RecordPayment(ctx, owner, payment(st.ID, "Enero", 500))
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	e, err := svc.RecordExpense(ctx, owner, ExpenseInput{ResponsibleStudentID: st.ID, Description: "Cinta", Amount: domain.MoneyFromCents(100)})
	if err != nil {
		t.Fatalf("record expense: %v", err)
	}

	if err := svc.DeletePayment(ctx, other, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for other owner, got %v", err)
	}
	if err := svc.DeletePayment(ctx, owner, p.ID); err != nil {
		t.Fatalf("delete payment: %v", err)
	}
	if err := svc.DeletePayment(ctx, owner, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on repeat, got %v", err)
	}

	if err := svc.DeleteExpense(ctx, owner, e.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	if err := svc.DeleteExpense(ctx, owner, e.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on repeat, got %v", err)
	}
}

func TestRecordExpenseRejections(t *testing.T) {
	svc := newTestService(t, nil, true)
	ctx := context.Background()
	owner := mustRegister(t, svc, "ana").ID
	st := mustStudent(t, svc, owner, "Luis", "111")

	tests := []struct {
		name string
		in   ExpenseInput
		want error
	}{
		{"blank description", ExpenseInput{ResponsibleStudentID: st.ID, Description: "  ", Amount: domain.MoneyFromCents(100)}, domain.ErrValidation},
		{"zero amount", ExpenseInput{ResponsibleStudentID: st.ID, Description: "x", Amount: domain.MoneyFromCents(0)}, domain.ErrValidation},
		{"no responsible", ExpenseInput{Description: "x", Amount: domain.MoneyFromCents(100)}, domain.ErrValidation},
		{"unknown responsible", ExpenseInput{ResponsibleStudentID: "ghost", Description: "x", Amount: domain.MoneyFromCents(100)}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.RecordExpense(ctx, owner, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSaveSettings(t *testing.T) {
	svc := newTestService(t, nil, true)
	ctx := context.Background()
	owner := mustRegister(t, svc, "ana").ID

	got, err := svc.GetSettings(ctx, owner)
	if err != nil || got != nil {
		t.Fatalf("expected no settings, got %v %v", got, err)
	}

	saved, err := svc.SaveSettings(ctx, owner, SettingsInput{
		MonthlyAmount:  domain.MoneyFromCents(500),
		AcademicYear:   " 2024 ",
		SelectedMonths: []string{"marzo", "Enero", "enero"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.AcademicYear != "2024" || len(saved.SelectedMonths) != 2 || saved.SelectedMonths[0] != "Enero" {
		t.Fatalf("unexpected settings %+v", saved)
	}

	bad := []SettingsInput{
		{MonthlyAmount: domain.MoneyFromCents(0), AcademicYear: "2024", SelectedMonths: []string{"Enero"}},
		{MonthlyAmount: domain.MoneyFromCents(500), AcademicYear: "2024", SelectedMonths: nil},
		{MonthlyAmount: domain.MoneyFromCents(500), AcademicYear: "2024", SelectedMonths: []string{"Foo"}},
	}
	for i, in := range bad {
		if _, err := svc.SaveSettings(ctx, owner, in); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}

	got, _ = svc.GetSettings(ctx, owner)
	if got == nil || got.ID != saved.ID {
		t.Fatalf("rejected saves must keep the previous settings, got %+v", got)
	}
}

func TestDashboardSummary(t *testing.T) {
	svc := newTestService(t, nil, true)
	ctx := context.Background()
	owner := mustRegister(t, svc, "ana").ID

	empty, err := svc.DashboardSummary(ctx, owner)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if empty.CurrentBalance.Cents() != 0 || empty.PendingPayments != 0 || empty.TotalStudents != 0 {
		t.Fatalf("unexpected empty summary %+v", empty)
	}

	luis := mustStudent(t, svc, owner, "Luis", "111")
	eva := mustStudent(t, svc, owner, "Eva", "222")
	noSettings, _ := svc.DashboardSummary(ctx, owner)
	if noSettings.PendingPayments != 0 || noSettings.TotalStudents != 2 {
		t.Fatalf("expected no pending without settings, got %+v", noSettings)
	}
	if err := svc.DeleteStudent(ctx, owner, eva.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mustSettings(t, svc, owner, "Enero", "Febrero")
	if _, err := svc.RecordPayment(ctx, owner, payment(luis.ID, "Enero", 500)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := svc.RecordExpense(ctx, owner, ExpenseInput{ResponsibleStudentID: luis.ID, Description: "Globos", Amount: domain.MoneyFromCents(125)}); err != nil {
		t.Fatalf("expense: %v", err)
	}

	got, err := svc.DashboardSummary(ctx, owner)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got.PendingPayments != 1 {
		t.Fatalf("expected 1 pending (Febrero), got %d", got.PendingPayments)
	}
	if got.TotalIncome.Cents() != 500 || got.TotalExpenses.Cents() != 125 || got.CurrentBalance.Cents() != 375 {
		t.Fatalf("unexpected totals %+v", got)
	}
	if !got.CurrentBalance.Equal(got.TotalIncome.Sub(got.TotalExpenses)) {
		t.Fatalf("balance must equal income minus expenses")
	}
}

func TestStudentStatement(t *testing.T) {
	svc := newTestService(t, nil, false)
	ctx := context.Background()
	owner := mustRegister(t, svc, "ana").ID
	st := mustStudent(t, svc, owner, "Luis", "0102030405")
	other := mustStudent(t, svc, owner, "Eva", "999")

	for _, p := range []PaymentInput{payment(st.ID, "Enero", 1000), payment(st.ID, "Febrero", 1500), payment(other.ID, "Enero", 7700), payment(st.ID, "Marzo", 2000)} {
		if _, err := svc.RecordPayment(ctx, owner, p); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := svc.StudentStatement(ctx, "01-0203-0405")
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if got.TotalPaid.Cents() != 4500 || got.TotalPaid.String() != "45.00" {
		t.Fatalf("total paid = %s, want 45.00", got.TotalPaid)
	}
	if len(got.Payments) != 3 || got.Payments[0].Month != "Enero" || got.Payments[2].Month != "Marzo" {
		t.Fatalf("unexpected payments %+v", got.Payments)
	}
	if got.Name != "Luis" || got.Cedula != "0102030405" {
		t.Fatalf("unexpected statement header %+v", got)
	}

	if _, err := svc.StudentStatement(ctx, "000"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.StudentStatement(ctx, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for empty cedula, got %v", err)
	}
}

func TestClassSummary(t *testing.T) {
	svc := newTestService(t, nil, false)
	ctx := context.Background()
	tr := mustRegister(t, svc, "ana")
	luis := mustStudent(t, svc, tr.ID, "Luis", "111")
	eva := mustStudent(t, svc, tr.ID, "Eva", "222")

	if _, err := svc.RecordPayment(ctx, tr.ID, payment(eva.ID, "Enero", 2000)); err != nil {
		t.Fatalf("record: %v", err)
	}
	for _, in := range []ExpenseInput{
		{ResponsibleStudentID: luis.ID, Description: "Globos", Amount: domain.MoneyFromCents(300)},
		{ResponsibleStudentID: eva.ID, Description: "Cinta", Amount: domain.MoneyFromCents(200)},
	} {
		if _, err := svc.RecordExpense(ctx, tr.ID, in); err != nil {
			t.Fatalf("expense: %v", err)
		}
	}
	if err := svc.DeleteStudent(ctx, tr.ID, luis.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := svc.ClassSummary(ctx, tr.ID)
	if err != nil {
		t.Fatalf("class summary: %v", err)
	}
	if got.ParaleloName != "3ro B" || got.CurrentBalance.Cents() != 1500 {
		t.Fatalf("unexpected summary %+v", got)
	}
	if len(got.Expenses) != 2 || got.Expenses[0].ResponsibleStudent != "N/A" || got.Expenses[1].ResponsibleStudent != "Eva" {
		t.Fatalf("unexpected expenses %+v", got.Expenses)
	}

	if _, err := svc.ClassSummary(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mock_events.NewMockPublisher(ctrl)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down")).AnyTimes()

	svc := newTestService(t, pub, true)
	owner := mustRegister(t, svc, "ana").ID
	st := mustStudent(t, svc, owner, "Luis", "111")

	students, err := svc.ListStudents(context.Background(), owner)
	if err != nil || len(students) != 1 || students[0].ID != st.ID {
		t.Fatalf("student should be stored despite publish failure: %v %v", students, err)
	}
}

func TestMutationEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mock_events.NewMockPublisher(ctrl)
	svc := newTestService(t, pub, true)
	ctx := context.Background()
	owner := mustRegister(t, svc, "ana").ID

	var (
		mu   sync.Mutex
		seen []string
	)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Type)
		return nil
	}).AnyTimes()

	st := mustStudent(t, svc, owner, "Luis", "111")
	mustSettings(t, svc, owner, "Enero")
	p, err := svc.RecordPayment(ctx, owner, payment(st.ID, "Enero", 500))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := svc.RecordPayment(ctx, owner, payment(st.ID, "Enero", 500)); err == nil {
		t.Fatalf("expected duplicate")
	}
	if err := svc.DeletePayment(ctx, owner, p.ID); err != nil {
		t.Fatalf("delete payment: %v", err)
	}
	if err := svc.DeleteStudent(ctx, owner, st.ID); err != nil {
		t.Fatalf("delete student: %v", err)
	}

	want := []string{events.StudentCreated, events.SettingsSaved, events.PaymentRecorded, events.PaymentDeleted, events.StudentDeleted}
	if len(seen) != len(want) {
		t.Fatalf("events = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("events = %v, want %v", seen, want)
		}
	}
}

func TestUploadImage(t *testing.T) {
	svc := newTestService(t, nil, true)
	ctx := context.Background()

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	ref, err := svc.UploadImage(ctx, "owner", png)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(ref) < len("data:image/png;base64,") || ref[:22] != "data:image/png;base64," {
		t.Fatalf("unexpected reference %q", ref)
	}

	if _, err := svc.UploadImage(ctx, "owner", []byte("plain text")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.UploadImage(ctx, "owner", nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty file, got %v", err)
	}
}
