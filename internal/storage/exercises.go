package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/liftlog/internal/models"
)

// UpsertExercises writes catalog entries into the exercises table, replacing
// rows with the same id. Returns the number of rows written.
func (db *DB) UpsertExercises(ctx context.Context, exercises []models.Exercise) (int64, error) {
	if len(exercises) == 0 {
		return 0, nil
	}

	query := `INSERT INTO exercises (id, name, muscle_group, equipment, difficulty_level, substitutes) VALUES `
	args := make([]any, 0, len(exercises)*6)
	valueStrings := make([]string, 0, len(exercises))

	for i, e := range exercises {
		base := i * 6
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
		))
		subs := e.Substitutes
		if subs == nil {
			subs = []string{}
		}
		level := e.DifficultyLevel
		if level == "" {
			level = "intermediate"
		}
		args = append(args, e.ID, e.Name, e.MuscleGroup, e.Equipment, level, subs)
	}

	query += strings.Join(valueStrings, ",") + ` ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, muscle_group = EXCLUDED.muscle_group,
		equipment = EXCLUDED.equipment, difficulty_level = EXCLUDED.difficulty_level,
		substitutes = EXCLUDED.substitutes`

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("upserting exercises: %w", err)
	}
	return tag.RowsAffected(), nil
}
