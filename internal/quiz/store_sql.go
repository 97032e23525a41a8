package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutTest(ctx context.Context, t Test) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO tests
		(id,creator_id,title,description,join_code,accept_responses,requires_login,start_time,end_time,max_attempts,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		t.ID, t.CreatorID, t.Title, t.Description, t.JoinCode, t.AcceptResponses,
		t.RequiresLogin, t.StartTime, t.EndTime, t.MaxAttempts, t.CreatedAt)
	if err != nil {
		return err
	}
	for _, q := range t.Questions {
		if err := insertQuestion(ctx, tx, q); err != nil {
			return err
		}
	}
	for _, p := range t.Prerequisites {
		_, err = tx.ExecContext(ctx, `INSERT INTO test_prerequisites (test_id,required_test_id,min_score)
			VALUES ($1,$2,$3)`, t.ID, p.RequiredTestID, p.MinScore)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertQuestion(ctx context.Context, tx *sql.Tx, q Question) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO questions
		(id,test_id,position,type,text,max_score,answer_text,exact_answer)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		q.ID, q.TestID, q.Position, string(q.Type), q.Text, q.MaxScore, q.AnswerText, q.ExactAnswer)
	if err != nil {
		return err
	}
	for _, c := range q.Choices {
		_, err = tx.ExecContext(ctx, `INSERT INTO choices (id,question_id,text,is_correct)
			VALUES ($1,$2,$3,$4)`, c.ID, q.ID, c.Text, c.IsCorrect)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (Test, error) {
	return s.getTest(ctx, `SELECT id,creator_id,title,description,join_code,accept_responses,requires_login,
		start_time,end_time,max_attempts,created_at FROM tests WHERE id=$1`, id)
}

func (s *SQLStore) GetTestByCode(ctx context.Context, code string) (Test, error) {
	return s.getTest(ctx, `SELECT id,creator_id,title,description,join_code,accept_responses,requires_login,
		start_time,end_time,max_attempts,created_at FROM tests WHERE join_code=$1`, code)
}

func (s *SQLStore) getTest(ctx context.Context, query, arg string) (Test, error) {
	var t Test
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&t.ID, &t.CreatorID, &t.Title, &t.Description, &t.JoinCode, &t.AcceptResponses,
		&t.RequiresLogin, &t.StartTime, &t.EndTime, &t.MaxAttempts, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, &NotFoundError{Resource: "test"}
		}
		return Test{}, err
	}
	if t.Questions, err = s.listQuestions(ctx, t.ID); err != nil {
		return Test{}, err
	}
	if t.Prerequisites, err = s.listPrerequisites(ctx, t.ID); err != nil {
		return Test{}, err
	}
	return t, nil
}

func (s *SQLStore) listQuestions(ctx context.Context, testID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,test_id,position,type,text,max_score,answer_text,exact_answer
		FROM questions WHERE test_id=$1 ORDER BY position`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var qs []Question
	for rows.Next() {
		var q Question
		var typ string
		if err := rows.Scan(&q.ID, &q.TestID, &q.Position, &typ, &q.Text, &q.MaxScore, &q.AnswerText, &q.ExactAnswer); err != nil {
			return nil, err
		}
		q.Type = QuestionType(typ)
		qs = append(qs, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range qs {
		if qs[i].Choices, err = s.listChoices(ctx, qs[i].ID); err != nil {
			return nil, err
		}
	}
	return qs, nil
}

func (s *SQLStore) listChoices(ctx context.Context, questionID string) ([]Choice, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,question_id,text,is_correct
		FROM choices WHERE question_id=$1 ORDER BY id`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cs []Choice
	for rows.Next() {
		var c Choice
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.Text, &c.IsCorrect); err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, rows.Err()
}

func (s *SQLStore) listPrerequisites(ctx context.Context, testID string) ([]Prerequisite, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT test_id,required_test_id,min_score
		FROM test_prerequisites WHERE test_id=$1`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ps []Prerequisite
	for rows.Next() {
		var p Prerequisite
		if err := rows.Scan(&p.TestID, &p.RequiredTestID, &p.MinScore); err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, rows.Err()
}

func (s *SQLStore) ListTests(ctx context.Context, creatorID string) ([]TestSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT t.id,t.title,t.join_code,t.accept_responses,t.created_at,
		(SELECT COUNT(*) FROM questions q WHERE q.test_id=t.id)
		FROM tests t WHERE t.creator_id=$1 ORDER BY t.created_at DESC`, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TestSummary{}
	for rows.Next() {
		var ts TestSummary
		if err := rows.Scan(&ts.ID, &ts.Title, &ts.JoinCode, &ts.AcceptResponses, &ts.CreatedAt, &ts.QuestionCount); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	var q Question
	var typ string
	err := s.db.QueryRowContext(ctx, `SELECT id,test_id,position,type,text,max_score,answer_text,exact_answer
		FROM questions WHERE id=$1`, id).Scan(
		&q.ID, &q.TestID, &q.Position, &typ, &q.Text, &q.MaxScore, &q.AnswerText, &q.ExactAnswer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, &NotFoundError{Resource: "question"}
		}
		return Question{}, err
	}
	q.Type = QuestionType(typ)
	if q.Choices, err = s.listChoices(ctx, q.ID); err != nil {
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) UpdateQuestion(ctx context.Context, q Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE questions SET position=$1,text=$2,max_score=$3,answer_text=$4,exact_answer=$5
		WHERE id=$6`, q.Position, q.Text, q.MaxScore, q.AnswerText, q.ExactAnswer, q.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Resource: "question"}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM choices WHERE question_id=$1`, q.ID); err != nil {
		return err
	}
	for _, c := range q.Choices {
		_, err = tx.ExecContext(ctx, `INSERT INTO choices (id,question_id,text,is_correct)
			VALUES ($1,$2,$3,$4)`, c.ID, q.ID, c.Text, c.IsCorrect)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) SetAcceptResponses(ctx context.Context, testID string, accept bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tests SET accept_responses=$1 WHERE id=$2`, accept, testID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Resource: "test"}
	}
	return nil
}

func (s *SQLStore) NextCodeSeq(ctx context.Context) (uint32, error) {
	if s.driver == "postgres" {
		var n int64
		err := s.db.QueryRowContext(ctx, `INSERT INTO code_seq DEFAULT VALUES RETURNING n`).Scan(&n)
		return uint32(n), err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO code_seq DEFAULT VALUES`)
	if err != nil {
		return 0, err
	}
	n, err := res.LastInsertId()
	return uint32(n), err
}

func (s *SQLStore) CreateParticipant(ctx context.Context, p Participant, answers []Answer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO participants (id,test_id,user_id,guest_name,score,completed,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.TestID, p.UserID, p.GuestName, p.Score, p.Completed, p.CreatedAt)
	if err != nil {
		return err
	}
	for _, a := range answers {
		ids, err := json.Marshal(a.SelectedChoiceIDs)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO answers
			(id,participant_id,question_id,type,answer_text,selected_choice_id,selected_choice_ids_json,score,explanation)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			a.ID, a.ParticipantID, a.QuestionID, string(a.Type), a.AnswerText,
			a.SelectedChoiceID, string(ids), a.Score, a.Explanation)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetParticipant(ctx context.Context, id string) (Participant, error) {
	var p Participant
	err := s.db.QueryRowContext(ctx, `SELECT id,test_id,user_id,guest_name,score,completed,created_at
		FROM participants WHERE id=$1`, id).Scan(
		&p.ID, &p.TestID, &p.UserID, &p.GuestName, &p.Score, &p.Completed, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Participant{}, &NotFoundError{Resource: "participant"}
		}
		return Participant{}, err
	}
	return p, nil
}

func (s *SQLStore) ListParticipants(ctx context.Context, testID string) ([]Participant, error) {
	return s.scanParticipants(ctx, `SELECT id,test_id,user_id,guest_name,score,completed,created_at
		FROM participants WHERE test_id=$1 ORDER BY created_at`, testID)
}

func (s *SQLStore) FindAttempts(ctx context.Context, testID string, who Identity) ([]Participant, error) {
	if who.UserID != "" {
		return s.scanParticipants(ctx, `SELECT id,test_id,user_id,guest_name,score,completed,created_at
			FROM participants WHERE test_id=$1 AND user_id=$2 ORDER BY created_at`, testID, who.UserID)
	}
	return s.scanParticipants(ctx, `SELECT id,test_id,user_id,guest_name,score,completed,created_at
		FROM participants WHERE test_id=$1 AND user_id='' AND guest_name=$2 ORDER BY created_at`, testID, who.GuestName)
}

func (s *SQLStore) scanParticipants(ctx context.Context, query string, args ...any) ([]Participant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Participant{}
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.TestID, &p.UserID, &p.GuestName, &p.Score, &p.Completed, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) BestCompletedScore(ctx context.Context, testID, userID string) (int, bool, error) {
	var best sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(score) FROM participants
		WHERE test_id=$1 AND user_id=$2 AND completed=$3`, testID, userID, true).Scan(&best)
	if err != nil {
		return 0, false, err
	}
	if !best.Valid {
		return 0, false, nil
	}
	return int(best.Int64), true, nil
}

func (s *SQLStore) GetAnswer(ctx context.Context, id string) (Answer, error) {
	var a Answer
	var typ, idsJSON string
	err := s.db.QueryRowContext(ctx, `SELECT id,participant_id,question_id,type,answer_text,
		selected_choice_id,selected_choice_ids_json,score,explanation FROM answers WHERE id=$1`, id).Scan(
		&a.ID, &a.ParticipantID, &a.QuestionID, &typ, &a.AnswerText,
		&a.SelectedChoiceID, &idsJSON, &a.Score, &a.Explanation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Answer{}, &NotFoundError{Resource: "answer"}
		}
		return Answer{}, err
	}
	a.Type = QuestionType(typ)
	if err := json.Unmarshal([]byte(idsJSON), &a.SelectedChoiceIDs); err != nil {
		a.SelectedChoiceIDs = nil
	}
	return a, nil
}

func (s *SQLStore) ListAnswers(ctx context.Context, participantID string) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT a.id,a.participant_id,a.question_id,a.type,a.answer_text,
		a.selected_choice_id,a.selected_choice_ids_json,a.score,a.explanation
		FROM answers a JOIN questions q ON q.id=a.question_id
		WHERE a.participant_id=$1 ORDER BY q.position`, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Answer{}
	for rows.Next() {
		var a Answer
		var typ, idsJSON string
		if err := rows.Scan(&a.ID, &a.ParticipantID, &a.QuestionID, &typ, &a.AnswerText,
			&a.SelectedChoiceID, &idsJSON, &a.Score, &a.Explanation); err != nil {
			return nil, err
		}
		a.Type = QuestionType(typ)
		if err := json.Unmarshal([]byte(idsJSON), &a.SelectedChoiceIDs); err != nil {
			a.SelectedChoiceIDs = nil
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateAnswer(ctx context.Context, a Answer) error {
	ids, err := json.Marshal(a.SelectedChoiceIDs)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE answers SET answer_text=$1,selected_choice_id=$2,
		selected_choice_ids_json=$3,score=$4,explanation=$5 WHERE id=$6`,
		a.AnswerText, a.SelectedChoiceID, string(ids), a.Score, a.Explanation, a.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Resource: "answer"}
	}
	return nil
}

func (s *SQLStore) SetParticipantScore(ctx context.Context, id string, score int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE participants SET score=$1 WHERE id=$2`, score, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Resource: "participant"}
	}
	return nil
}

func (s *SQLStore) MarkCompleted(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE participants SET completed=$1 WHERE id=$2`, true, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Resource: "participant"}
	}
	return nil
}
