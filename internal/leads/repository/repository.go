// Package repository persists leads, conversation history and qualification
// answers on PostgreSQL. It backs both the conversation policy's Store
// interface and the read endpoints.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/qualification/policy"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `
	id, phone, name, status, conversation_state, ai_qualified,
	score, classification, priority, sentiment,
	interest, budget, timeframe, contact_preference, customer_type, company_size,
	next_question_id, assistant_msg_count, assigned_agent_id,
	escalated_at, qualified_at, created_at, updated_at`

func scanLead(row pgx.Row) (*domain.Lead, error) {
	var l domain.Lead
	err := row.Scan(
		&l.ID, &l.Phone, &l.Name, &l.Status, &l.ConversationState, &l.AIQualified,
		&l.Score, &l.Classification, &l.Priority, &l.Sentiment,
		&l.Interest, &l.Budget, &l.Timeframe, &l.ContactPreference, &l.CustomerType, &l.CompanySize,
		&l.NextQuestionID, &l.AssistantMsgCount, &l.AssignedAgentID,
		&l.EscalatedAt, &l.QualifiedAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// GetLead returns the lead by id, or (nil, nil) when absent.
func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `SELECT`+leadColumns+` FROM leads WHERE id = $1`, id))
}

// GetLeadByPhone returns the lead with the given normalized phone, or (nil, nil).
func (r *Repository) GetLeadByPhone(ctx context.Context, phone string) (*domain.Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `SELECT`+leadColumns+` FROM leads WHERE phone = $1`, phone))
}

// UpsertLeadByPhone returns the existing lead for the phone or creates a new
// one in triage. The insert races safely against concurrent webhooks through
// the phone unique constraint.
func (r *Repository) UpsertLeadByPhone(ctx context.Context, phone, name string) (*domain.Lead, bool, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO leads (phone, name, status, conversation_state)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (phone) DO NOTHING
		RETURNING`+leadColumns,
		phone, name, domain.StatusInTriage, domain.ConversationNew,
	))
	if err != nil {
		return nil, false, err
	}
	if lead != nil {
		return lead, true, nil
	}

	lead, err = r.GetLeadByPhone(ctx, phone)
	if err != nil {
		return nil, false, err
	}
	if lead == nil {
		return nil, false, ErrNotFound
	}
	return lead, false, nil
}

// ListLeads returns leads filtered by optional status, newest first.
func (r *Repository) ListLeads(ctx context.Context, status string, limit, offset int) ([]domain.Lead, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT` + leadColumns + ` FROM leads
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeads(rows)
}

// ListQualifiedQueue returns AI-qualified leads ordered by priority tier then
// score, the order agents should pick them up in.
func (r *Repository) ListQualifiedQueue(ctx context.Context, limit int) ([]domain.Lead, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT`+leadColumns+`
		FROM leads
		WHERE ai_qualified AND status = $1
		ORDER BY
			CASE priority
				WHEN 'vip' THEN 0
				WHEN 'high' THEN 1
				WHEN 'normal' THEN 2
				ELSE 3
			END,
			score DESC NULLS LAST,
			qualified_at ASC
		LIMIT $2`, domain.StatusQualified, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeads(rows)
}

func collectLeads(rows pgx.Rows) ([]domain.Lead, error) {
	var leads []domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

// ListMessages returns the full conversation, oldest first.
func (r *Repository) ListMessages(ctx context.Context, leadID uuid.UUID) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, sender, body, created_at
		FROM lead_messages
		WHERE lead_id = $1
		ORDER BY created_at, id`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.LeadID, &m.Sender, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// AppendMessage persists a message and bumps the assistant counter when the
// assistant is the sender.
func (r *Repository) AppendMessage(ctx context.Context, leadID uuid.UUID, sender, body string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `
		INSERT INTO lead_messages (lead_id, sender, body)
		VALUES ($1, $2, $3)`, leadID, sender, body); err != nil {
		return err
	}

	if sender == domain.SenderAssistant {
		if _, err = tx.Exec(ctx, `
			UPDATE leads
			SET assistant_msg_count = assistant_msg_count + 1, updated_at = now()
			WHERE id = $1`, leadID); err != nil {
			return err
		}
	}

	err = tx.Commit(ctx)
	return err
}

// ListAnswers returns the collected answers, oldest first.
func (r *Repository) ListAnswers(ctx context.Context, leadID uuid.UUID) ([]domain.Answer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lead_id, question_id, value, created_at, updated_at
		FROM lead_answers
		WHERE lead_id = $1
		ORDER BY created_at`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.LeadID, &a.QuestionID, &a.Value, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// SaveAnswer upserts the answer for (lead, question); a later answer replaces
// the earlier one.
func (r *Repository) SaveAnswer(ctx context.Context, leadID uuid.UUID, questionID, value string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_answers (lead_id, question_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (lead_id, question_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		leadID, questionID, value)
	return err
}

// SetConversationState updates the assistant-facing conversation state.
func (r *Repository) SetConversationState(ctx context.Context, leadID uuid.UUID, state string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads SET conversation_state = $2, updated_at = now() WHERE id = $1`,
		leadID, state)
	return err
}

// SetNextQuestion records (or clears) the question the assistant awaits.
func (r *Repository) SetNextQuestion(ctx context.Context, leadID uuid.UUID, questionID *string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads SET next_question_id = $2, updated_at = now() WHERE id = $1`,
		leadID, questionID)
	return err
}

// MarkEscalated transitions the conversation to escalated and records the
// moment and the reason in the activity log.
func (r *Repository) MarkEscalated(ctx context.Context, leadID uuid.UUID, reason string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `
		UPDATE leads
		SET conversation_state = $2, escalated_at = now(), updated_at = now()
		WHERE id = $1`, leadID, domain.ConversationEscalated); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `
		INSERT INTO lead_activity (lead_id, event, detail)
		VALUES ($1, 'escalated', $2)`, leadID, reason); err != nil {
		return err
	}

	err = tx.Commit(ctx)
	return err
}

// UpdateLeadQualification writes the finalization result: score fields, the
// denormalized answers and the qualified status, plus an activity entry.
func (r *Repository) UpdateLeadQualification(ctx context.Context, leadID uuid.UUID, upd policy.QualificationUpdate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `
		UPDATE leads SET
			name = CASE WHEN $2 <> '' THEN $2 ELSE name END,
			status = $3,
			ai_qualified = $4,
			score = $5,
			classification = $6,
			priority = $7,
			sentiment = $8,
			interest = NULLIF($9, ''),
			budget = NULLIF($10, ''),
			timeframe = NULLIF($11, ''),
			contact_preference = NULLIF($12, ''),
			customer_type = NULLIF($13, ''),
			company_size = NULLIF($14, ''),
			next_question_id = NULL,
			qualified_at = now(),
			updated_at = now()
		WHERE id = $1`,
		leadID, upd.Name, domain.StatusQualified, upd.Qualified,
		upd.Score, upd.Classification, upd.Priority, upd.Sentiment,
		upd.Interest, upd.Budget, upd.Timeframe,
		upd.ContactPreference, upd.CustomerType, upd.CompanySize,
	); err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO lead_activity (lead_id, event, detail)
		VALUES ($1, 'qualified', $2)`, leadID, upd.Classification); err != nil {
		return err
	}

	err = tx.Commit(ctx)
	return err
}

// AddActivity appends a lead activity log entry.
func (r *Repository) AddActivity(ctx context.Context, leadID uuid.UUID, event, detail string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_activity (lead_id, event, detail)
		VALUES ($1, $2, $3)`, leadID, event, detail)
	return err
}
