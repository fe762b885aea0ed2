// Package sqlite is the single-file storage backend. Amounts are stored as
// integer cents and timestamps as unix microseconds.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tesoreria/internal/domain"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Storage struct {
	db *sql.DB
}

// DSN enables foreign keys and a busy timeout on every connection.
func DSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Open creates the database file if needed and migrates it.
func Open(path string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(path)
	if err := RunMigrations(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; transactions never wait on a second connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func translate(err error) error {
	var sqlErr *sqlitedrv.Error
	if !errors.As(err, &sqlErr) || sqlErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return err
	}
	msg := sqlErr.Error()
	switch {
	case strings.Contains(msg, "students.cedula"):
		return domain.ErrDuplicateCedula
	case strings.Contains(msg, "payments.student_id, payments.month, payments.year"):
		return domain.ErrDuplicatePayment
	case strings.Contains(msg, "treasurers.username"):
		return domain.ErrDuplicateUsername
	case strings.Contains(msg, "FOREIGN KEY"):
		return domain.ErrNotFound
	}
	return err
}

func micros(t time.Time) int64 { return t.UnixMicro() }

func fromMicros(v int64) time.Time { return time.UnixMicro(v).UTC() }

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// === TreasurerStorage ===

func (s *Storage) CreateTreasurer(ctx context.Context, t domain.Treasurer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO treasurers (id, username, password_hash, paralelo_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, t.ID, t.Username, t.PasswordHash, t.ParaleloName, micros(t.CreatedAt))
	if err != nil {
		if mapped := translate(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert treasurer: %w", err)
	}
	return nil
}

func (s *Storage) findTreasurer(ctx context.Context, column string, arg string) (*domain.Treasurer, error) {
	var (
		t       domain.Treasurer
		created int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, paralelo_name, created_at
		FROM treasurers WHERE `+column+` = ?
	`, arg).Scan(&t.ID, &t.Username, &t.PasswordHash, &t.ParaleloName, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find treasurer: %w", err)
	}
	t.CreatedAt = fromMicros(created)
	return &t, nil
}

func (s *Storage) FindTreasurerByUsername(ctx context.Context, username string) (*domain.Treasurer, error) {
	return s.findTreasurer(ctx, "username", username)
}

func (s *Storage) FindTreasurerByID(ctx context.Context, id string) (*domain.Treasurer, error) {
	return s.findTreasurer(ctx, "id", id)
}

// === StudentStorage ===

func (s *Storage) CreateStudent(ctx context.Context, st domain.Student) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (id, treasurer_id, name, cedula, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, st.ID, st.TreasurerID, st.Name, st.Cedula, micros(st.CreatedAt))
	if err != nil {
		if mapped := translate(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (domain.Student, error) {
	var (
		st      domain.Student
		created int64
	)
	if err := row.Scan(&st.ID, &st.TreasurerID, &st.Name, &st.Cedula, &created); err != nil {
		return st, err
	}
	st.CreatedAt = fromMicros(created)
	return st, nil
}

func (s *Storage) ListStudents(ctx context.Context, treasurerID string) ([]domain.Student, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, treasurer_id, name, cedula, created_at
		FROM students WHERE treasurer_id = ? ORDER BY seq
	`, treasurerID)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	students := []domain.Student{}
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

func (s *Storage) findStudent(ctx context.Context, query string, args ...any) (*domain.Student, error) {
	st, err := scanStudent(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &st, nil
}

func (s *Storage) FindStudent(ctx context.Context, treasurerID, id string) (*domain.Student, error) {
	return s.findStudent(ctx, `
		SELECT id, treasurer_id, name, cedula, created_at
		FROM students WHERE id = ? AND treasurer_id = ?
	`, id, treasurerID)
}

func (s *Storage) FindStudentByCedula(ctx context.Context, cedula string) (*domain.Student, error) {
	return s.findStudent(ctx, `
		SELECT id, treasurer_id, name, cedula, created_at
		FROM students WHERE cedula = ?
	`, cedula)
}

func (s *Storage) DeleteStudent(ctx context.Context, treasurerID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var found string
	err = tx.QueryRowContext(ctx, "SELECT id FROM students WHERE id = ? AND treasurer_id = ?", id, treasurerID).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("find student: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM payments WHERE student_id = ?", id); err != nil {
		return fmt.Errorf("delete student payments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE expenses SET responsible_student_id = NULL WHERE responsible_student_id = ?", id); err != nil {
		return fmt.Errorf("detach student expenses: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM students WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// === SettingsStorage ===

func (s *Storage) GetSettings(ctx context.Context, treasurerID string) (*domain.PaymentSettings, error) {
	var (
		ps      domain.PaymentSettings
		cents   int64
		months  string
		created int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, treasurer_id, monthly_amount_cents, academic_year, selected_months, created_at
		FROM payment_settings WHERE treasurer_id = ?
	`, treasurerID).Scan(&ps.ID, &ps.TreasurerID, &cents, &ps.AcademicYear, &months, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if err := json.Unmarshal([]byte(months), &ps.SelectedMonths); err != nil {
		return nil, fmt.Errorf("decode selected months: %w", err)
	}
	ps.MonthlyAmount = domain.MoneyFromCents(cents)
	ps.CreatedAt = fromMicros(created)
	return &ps, nil
}

func (s *Storage) SaveSettings(ctx context.Context, ps domain.PaymentSettings) error {
	months, err := json.Marshal(ps.SelectedMonths)
	if err != nil {
		return fmt.Errorf("encode selected months: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO payment_settings (id, treasurer_id, monthly_amount_cents, academic_year, selected_months, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (treasurer_id) DO UPDATE SET
			id = excluded.id,
			monthly_amount_cents = excluded.monthly_amount_cents,
			academic_year = excluded.academic_year,
			selected_months = excluded.selected_months,
			created_at = excluded.created_at
	`, ps.ID, ps.TreasurerID, ps.MonthlyAmount.Cents(), ps.AcademicYear, string(months), micros(ps.CreatedAt))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// === PaymentStorage ===

func (s *Storage) CreatePayment(ctx context.Context, p domain.Payment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (id, student_id, month, year, amount_cents, receipt_image, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.StudentID, p.Month, p.Year, p.Amount.Cents(), nullString(p.ReceiptImage), micros(p.CreatedAt))
	if err != nil {
		if mapped := translate(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (s *Storage) ListPayments(ctx context.Context, treasurerID string, f domain.PaymentFilter) ([]domain.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.student_id, p.month, p.year, p.amount_cents, p.receipt_image, p.created_at
		FROM payments p
		JOIN students st ON st.id = p.student_id
		WHERE st.treasurer_id = ? AND (? = '' OR p.student_id = ?)
		ORDER BY p.seq
	`, treasurerID, f.StudentID, f.StudentID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		var (
			p       domain.Payment
			cents   int64
			receipt sql.NullString
			created int64
		)
		if err := rows.Scan(&p.ID, &p.StudentID, &p.Month, &p.Year, &cents, &receipt, &created); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Amount = domain.MoneyFromCents(cents)
		p.ReceiptImage = stringPtr(receipt)
		p.CreatedAt = fromMicros(created)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *Storage) DeletePayment(ctx context.Context, treasurerID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM payments
		WHERE id = ? AND student_id IN (SELECT id FROM students WHERE treasurer_id = ?)
	`, id, treasurerID)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return requireAffected(res)
}

// === ExpenseStorage ===

func (s *Storage) CreateExpense(ctx context.Context, e domain.Expense) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, treasurer_id, responsible_student_id, description, amount_cents, activity_image, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.TreasurerID, nullString(e.ResponsibleStudentID), e.Description, e.Amount.Cents(), nullString(e.ActivityImage), micros(e.CreatedAt))
	if err != nil {
		if mapped := translate(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (s *Storage) ListExpenses(ctx context.Context, treasurerID string, f domain.ExpenseFilter) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, treasurer_id, responsible_student_id, description, amount_cents, activity_image, created_at
		FROM expenses
		WHERE treasurer_id = ? AND (? = '' OR responsible_student_id = ?)
		ORDER BY seq
	`, treasurerID, f.ResponsibleStudentID, f.ResponsibleStudentID)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []domain.Expense{}
	for rows.Next() {
		var (
			e           domain.Expense
			responsible sql.NullString
			cents       int64
			image       sql.NullString
			created     int64
		)
		if err := rows.Scan(&e.ID, &e.TreasurerID, &responsible, &e.Description, &cents, &image, &created); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.ResponsibleStudentID = stringPtr(responsible)
		e.Amount = domain.MoneyFromCents(cents)
		e.ActivityImage = stringPtr(image)
		e.CreatedAt = fromMicros(created)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *Storage) DeleteExpense(ctx context.Context, treasurerID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ? AND treasurer_id = ?", id, treasurerID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
