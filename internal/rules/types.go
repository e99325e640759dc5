package rules

import "github.com/ppiankov/clauseguard/internal/model"

// File is the on-disk shape of a rule catalog
type File struct {
	Version            string             `yaml:"version"`
	Classifier         ClassifierSpec     `yaml:"classifier"`
	Categories         []CategorySpec     `yaml:"categories"`
	ContractTypes      ContractTypesSpec  `yaml:"contract_types"`
	Scoring            ScoringSpec        `yaml:"scoring"`
	RiskRules          []RiskRuleSpec     `yaml:"risk_rules"`
	MissingProtections MissingProtectSpec `yaml:"missing_protections"`
}

type ClassifierSpec struct {
	Threshold  float64 `yaml:"threshold"`
	Normalizer float64 `yaml:"normalizer"`
}

// CategorySpec lists weighted patterns for one clause category.
// Declaration order is the tie-break order.
type CategorySpec struct {
	Category model.Category `yaml:"category"`
	Patterns []PatternSpec  `yaml:"patterns"`
}

// PatternSpec is one weighted, case-insensitive regular expression
type PatternSpec struct {
	Pattern       string               `yaml:"pattern"`
	Weight        float64              `yaml:"weight"`
	Lang          model.Language       `yaml:"lang,omitempty"`           // Empty = any language
	Title         bool                 `yaml:"title,omitempty"`          // Contract types only: match in title lines
	ContractTypes []model.ContractType `yaml:"contract_types,omitempty"` // Empty = any contract type
}

type ContractTypesSpec struct {
	Threshold       float64            `yaml:"threshold"`
	Normalizer      float64            `yaml:"normalizer"`
	TitleLines      int                `yaml:"title_lines"`
	TitleMultiplier float64            `yaml:"title_multiplier"`
	MaxOccurrences  int                `yaml:"max_occurrences"`
	Types           []ContractTypeSpec `yaml:"types"`
}

type ContractTypeSpec struct {
	Type           model.ContractType `yaml:"type"`
	Patterns       []PatternSpec      `yaml:"patterns"`
	SubTypes       []SubTypeSpec      `yaml:"sub_types"`        // First match wins
	DefaultSubType string             `yaml:"default_sub_type"` // When no sub-type matches
}

// SubTypeSpec refines a contract type, e.g. a probationary employment contract
type SubTypeSpec struct {
	Name string   `yaml:"name"`
	Any  []string `yaml:"any"`
}

type ScoringSpec struct {
	CriticalBonus   int                        `yaml:"critical_bonus"`
	CriticalFloor   int                        `yaml:"critical_floor"`
	DefaultWeight   float64                    `yaml:"default_weight"`
	CategoryWeights map[model.Category]float64 `yaml:"category_weights"`
}

// RiskRuleSpec is one named red-flag heuristic
type RiskRuleSpec struct {
	ID            string               `yaml:"id"`
	Title         string               `yaml:"title"`
	Explanation   string               `yaml:"explanation"`
	Suggestion    string               `yaml:"suggestion"`
	LawReference  string               `yaml:"law_reference"`
	Severity      int                  `yaml:"severity"`
	Categories    []model.Category     `yaml:"categories"`     // Empty = any category
	ContractTypes []model.ContractType `yaml:"contract_types"` // Empty = generic rule
	When          ConditionSpec        `yaml:"when"`
}

// ConditionSpec is the matching condition of a risk rule. Every populated
// field must hold for the rule to match.
type ConditionSpec struct {
	All              []string           `yaml:"all"`
	Any              []string           `yaml:"any"`
	None             []string           `yaml:"none"`
	RequiresEntities []model.EntityType `yaml:"requires_entities"`
	AbsentEntities   []model.EntityType `yaml:"absent_entities"`
	MaxDurationDays  *float64           `yaml:"max_duration_days"` // Some duration strictly below N days
	MinDurationDays  *float64           `yaml:"min_duration_days"` // Some duration of at least N days
	MinAmount        *float64           `yaml:"min_amount"`        // Some amount of at least N
}

type MissingProtectSpec struct {
	MinClauses int       `yaml:"min_clauses"`
	Checks     []GapSpec `yaml:"checks"`
}

type GapSpec struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description"`
	Suggestion  string   `yaml:"suggestion"`
	Any         []string `yaml:"any"`
}
