package models

// Exercise is a catalog entry. MuscleGroup is compared case-insensitively.
type Exercise struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	MuscleGroup     string   `json:"muscle_group" yaml:"muscle_group"`
	Equipment       string   `json:"equipment" yaml:"equipment"`
	DifficultyLevel string   `json:"difficulty_level,omitempty" yaml:"difficulty_level"`
	Substitutes     []string `json:"substitutes,omitempty" yaml:"substitutes"`
	Aliases         []string `json:"-" yaml:"aliases"`
}
