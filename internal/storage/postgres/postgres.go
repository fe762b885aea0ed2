// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tesoreria/internal/domain"
	"tesoreria/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

type Storage struct {
	db *pgxpool.Pool
}

func NewStorage(db *pgxpool.Pool) *Storage {
	return &Storage{db: db}
}

// Open connects to dsn and waits for the server, retrying the first ping
// with exponential backoff up to attempts times.
func Open(ctx context.Context, dsn string, attempts uint64) (*Storage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	backoff := retry.WithMaxRetries(attempts, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			slog.Warn("postgres not ready", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewStorage(pool), nil
}

// Migrate applies the embedded goose migrations over a database/sql handle.
func Migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Storage) Close() error {
	s.db.Close()
	return nil
}

// translate maps constraint violations onto domain errors.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		switch pgErr.ConstraintName {
		case "students_cedula_key":
			return domain.ErrDuplicateCedula
		case "payments_period_key":
			return domain.ErrDuplicatePayment
		case "treasurers_username_key":
			return domain.ErrDuplicateUsername
		}
	case codeForeignKeyViolation:
		return domain.ErrNotFound
	}
	return err
}

func parseAmount(s string) (domain.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return domain.Money{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return domain.NewMoney(d), nil
}

// === TreasurerStorage ===

func (s *Storage) CreateTreasurer(ctx context.Context, t domain.Treasurer) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO treasurers (id, username, password_hash, paralelo_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.Username, t.PasswordHash, t.ParaleloName, t.CreatedAt)
	if err != nil {
		if mapped := translate(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert treasurer: %w", err)
	}
	return nil
}

func (s *Storage) findTreasurer(ctx context.Context, where string, arg any) (*domain.Treasurer, error) {
	var t domain.Treasurer
	err := s.db.QueryRow(ctx, `
		SELECT id, username, password_hash, paralelo_name, created_at
		FROM treasurers WHERE `+where+` = $1
	`, arg).Scan(&t.ID, &t.Username, &t.PasswordHash, &t.ParaleloName, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find treasurer: %w", err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
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
	_, err := s.db.Exec(ctx, `
		INSERT INTO students (id, treasurer_id, name, cedula, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, st.ID, st.TreasurerID, st.Name, st.Cedula, st.CreatedAt)
	if err != nil {
		if mapped := translate(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

func (s *Storage) ListStudents(ctx context.Context, treasurerID string) ([]domain.Student, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, treasurer_id, name, cedula, created_at
		FROM students
		WHERE treasurer_id = $1
		ORDER BY seq
	`, treasurerID)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	students := []domain.Student{}
	for rows.Next() {
		var st domain.Student
		if err := rows.Scan(&st.ID, &st.TreasurerID, &st.Name, &st.Cedula, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		st.CreatedAt = st.CreatedAt.UTC()
		students = append(students, st)
	}
	return students, rows.Err()
}

func (s *Storage) findStudent(ctx context.Context, query string, args ...any) (*domain.Student, error) {
	var st domain.Student
	err := s.db.QueryRow(ctx, query, args...).Scan(&st.ID, &st.TreasurerID, &st.Name, &st.Cedula, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	st.CreatedAt = st.CreatedAt.UTC()
	return &st, nil
}

func (s *Storage) FindStudent(ctx context.Context, treasurerID, id string) (*domain.Student, error) {
	return s.findStudent(ctx, `
		SELECT id, treasurer_id, name, cedula, created_at
		FROM students WHERE id = $1 AND treasurer_id = $2
	`, id, treasurerID)
}

func (s *Storage) FindStudentByCedula(ctx context.Context, cedula string) (*domain.Student, error) {
	return s.findStudent(ctx, `
		SELECT id, treasurer_id, name, cedula, created_at
		FROM students WHERE cedula = $1
	`, cedula)
}

func (s *Storage) DeleteStudent(ctx context.Context, treasurerID, id string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var found string
	err = tx.QueryRow(ctx, `
		SELECT id FROM students WHERE id = $1 AND treasurer_id = $2 FOR UPDATE
	`, id, treasurerID).Scan(&found)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock student: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM payments WHERE student_id = $1", id); err != nil {
		return fmt.Errorf("delete student payments: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE expenses SET responsible_student_id = NULL WHERE responsible_student_id = $1
	`, id); err != nil {
		return fmt.Errorf("detach student expenses: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM students WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}

	return tx.Commit(ctx)
}

// === SettingsStorage ===

func (s *Storage) GetSettings(ctx context.Context, treasurerID string) (*domain.PaymentSettings, error) {
	var (
		ps     domain.PaymentSettings
		amount string
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, treasurer_id, monthly_amount::text, academic_year, selected_months, created_at
		FROM payment_settings WHERE treasurer_id = $1
	`, treasurerID).Scan(&ps.ID, &ps.TreasurerID, &amount, &ps.AcademicYear, &ps.SelectedMonths, &ps.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if ps.MonthlyAmount, err = parseAmount(amount); err != nil {
		return nil, err
	}
	ps.CreatedAt = ps.CreatedAt.UTC()
	return &ps, nil
}

func (s *Storage) SaveSettings(ctx context.Context, ps domain.PaymentSettings) error {
	// Amounts travel as text so the server does the decimal conversion.
	_, err := s.db.Exec(ctx, `
		INSERT INTO payment_settings (id, treasurer_id, monthly_amount, academic_year, selected_months, created_at)
		VALUES ($1, $2, $3::text::numeric, $4, $5, $6)
		ON CONFLICT (treasurer_id) DO UPDATE SET
			id = EXCLUDED.id,
			monthly_amount = EXCLUDED.monthly_amount,
			academic_year = EXCLUDED.academic_year,
			selected_months = EXCLUDED.selected_months,
			created_at = EXCLUDED.created_at
	`, ps.ID, ps.TreasurerID, ps.MonthlyAmount.String(), ps.AcademicYear, ps.SelectedMonths, ps.CreatedAt)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// === PaymentStorage ===

func (s *Storage) CreatePayment(ctx context.Context, p domain.Payment) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO payments (id, student_id, month, year, amount, receipt_image, created_at)
		VALUES ($1, $2, $3, $4, $5::text::numeric, $6, $7)
	`, p.ID, p.StudentID, p.Month, p.Year, p.Amount.String(), p.ReceiptImage, p.CreatedAt)
	if err != nil {
		if mapped := translate(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (s *Storage) ListPayments(ctx context.Context, treasurerID string, f domain.PaymentFilter) ([]domain.Payment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.student_id, p.month, p.year, p.amount::text, p.receipt_image, p.created_at
		FROM payments p
		JOIN students st ON st.id = p.student_id
		WHERE st.treasurer_id = $1 AND ($2::text = '' OR p.student_id = $2)
		ORDER BY p.seq
	`, treasurerID, f.StudentID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		var (
			p      domain.Payment
			amount string
		)
		if err := rows.Scan(&p.ID, &p.StudentID, &p.Month, &p.Year, &amount, &p.ReceiptImage, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		if p.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *Storage) DeletePayment(ctx context.Context, treasurerID, id string) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM payments p
		USING students st
		WHERE p.student_id = st.id AND p.id = $1 AND st.treasurer_id = $2
	`, id, treasurerID)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// === ExpenseStorage ===

func (s *Storage) CreateExpense(ctx context.Context, e domain.Expense) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO expenses (id, treasurer_id, responsible_student_id, description, amount, activity_image, created_at)
		VALUES ($1, $2, $3, $4, $5::text::numeric, $6, $7)
	`, e.ID, e.TreasurerID, e.ResponsibleStudentID, e.Description, e.Amount.String(), e.ActivityImage, e.CreatedAt)
	if err != nil {
		if mapped := translate(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (s *Storage) ListExpenses(ctx context.Context, treasurerID string, f domain.ExpenseFilter) ([]domain.Expense, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, treasurer_id, responsible_student_id, description, amount::text, activity_image, created_at
		FROM expenses
		WHERE treasurer_id = $1 AND ($2::text = '' OR responsible_student_id = $2)
		ORDER BY seq
	`, treasurerID, f.ResponsibleStudentID)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []domain.Expense{}
	for rows.Next() {
		var (
			e      domain.Expense
			amount string
		)
		if err := rows.Scan(&e.ID, &e.TreasurerID, &e.ResponsibleStudentID, &e.Description, &amount, &e.ActivityImage, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		e.CreatedAt = e.CreatedAt.UTC()
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *Storage) DeleteExpense(ctx context.Context, treasurerID, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM expenses WHERE id = $1 AND treasurer_id = $2", id, treasurerID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
