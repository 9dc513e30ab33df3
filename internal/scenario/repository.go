package scenario

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Repository interface {
	List(ctx context.Context, lang string) ([]Summary, error)
	Get(ctx context.Context, id, lang string) (*Scenario, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

// Translations fall back to English when the requested language is missing.
const listQuery = `
	SELECT s.id, s.difficulty,
		COALESCE(t.title, e.title, s.id),
		COALESCE(t.learning_path, e.learning_path, '')
	FROM scenarios s
	LEFT JOIN scenario_translations t ON t.scenario_id = s.id AND t.language_code = $1
	LEFT JOIN scenario_translations e ON e.scenario_id = s.id AND e.language_code = 'en'
	ORDER BY s.id`

func (r *postgresRepo) List(ctx context.Context, lang string) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, listQuery, NormalizeLanguage(lang))
	if err != nil {
		return nil, fmt.Errorf("scenario: list: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Difficulty, &s.Title, &s.LearningPath); err != nil {
			return nil, fmt.Errorf("scenario: list scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scenario: list rows: %w", err)
	}
	return out, nil
}

const getQuery = `
	SELECT s.id, s.difficulty, s.message_limit, COALESCE(s.initial_emotional_state, ''),
		COALESCE(s.voice_id_en, ''), COALESCE(s.voice_id_cs, ''), COALESCE(s.voice_id_sk, ''),
		COALESCE(t.language_code, e.language_code, 'en'),
		COALESCE(t.title, e.title, s.id),
		COALESCE(t.learning_path, e.learning_path, ''),
		COALESCE(t.goal, e.goal, ''),
		COALESCE(t.persona_prompt, e.persona_prompt, ''),
		COALESCE(t.opening_line, e.opening_line, '')
	FROM scenarios s
	LEFT JOIN scenario_translations t ON t.scenario_id = s.id AND t.language_code = $2
	LEFT JOIN scenario_translations e ON e.scenario_id = s.id AND e.language_code = 'en'
	WHERE s.id = $1`

func (r *postgresRepo) Get(ctx context.Context, id, lang string) (*Scenario, error) {
	var s Scenario
	var voiceEN, voiceCS, voiceSK string
	err := r.db.QueryRowContext(ctx, getQuery, id, NormalizeLanguage(lang)).Scan(
		&s.ID,
		&s.Difficulty,
		&s.MessageLimit,
		&s.InitialEmotionalState,
		&voiceEN, &voiceCS, &voiceSK,
		&s.Language,
		&s.Title,
		&s.LearningPath,
		&s.Goal,
		&s.PersonaPrompt,
		&s.OpeningLine,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scenario: get %q: %w", id, err)
	}
	s.VoiceID = pickVoice(s.Language, voiceEN, voiceCS, voiceSK)

	skills, err := r.skills(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Skills = skills
	return &s, nil
}

func (r *postgresRepo) skills(ctx context.Context, id string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT skill_name FROM scenario_skills WHERE scenario_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("scenario: skills: %w", err)
	}
	defer rows.Close()

	skills := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scenario: skills scan: %w", err)
		}
		skills = append(skills, name)
	}
	return skills, rows.Err()
}

// pickVoice returns the voice for lang, falling back to the English voice.
func pickVoice(lang, en, cs, sk string) string {
	switch lang {
	case "cs":
		if cs != "" {
			return cs
		}
	case "sk":
		if sk != "" {
			return sk
		}
	}
	return en
}
