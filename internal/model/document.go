package model

// Language identifies the language of the normalized input text
type Language string

const (
	LanguageEnglish         Language = "en"
	LanguageHindiNormalized Language = "hi-normalized"
)

// Valid reports whether the language is one the engine accepts
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageHindiNormalized
}

// ContractType is the overall kind of agreement
type ContractType string

const (
	ContractEmployment  ContractType = "employment"
	ContractVendor      ContractType = "vendor"
	ContractLease       ContractType = "lease"
	ContractPartnership ContractType = "partnership"
	ContractService     ContractType = "service"
	ContractNDA         ContractType = "nda"
	ContractOther       ContractType = "other"
	ContractUnknown     ContractType = "unknown"
)

// KnownContractTypes lists every type a catalog may reference
var KnownContractTypes = []ContractType{
	ContractEmployment, ContractVendor, ContractLease, ContractPartnership,
	ContractService, ContractNDA, ContractOther,
}

// Category is the tagged variant assigned to a clause
type Category string

const (
	CategoryUnilateralTermination Category = "unilateral-termination"
	CategoryTermination           Category = "termination"
	CategoryIndemnity             Category = "indemnity"
	CategoryPenalty               Category = "penalty"
	CategoryRenewal               Category = "renewal"
	CategoryNonCompete            Category = "non-compete"
	CategoryIPTransfer            Category = "ip-transfer"
	CategoryArbitration           Category = "arbitration"
	CategoryProhibition           Category = "prohibition"
	CategoryObligation            Category = "obligation"
	CategoryRight                 Category = "right"
	CategoryOther                 Category = "other"
	CategoryUnclassified          Category = "unclassified"
)

// KnownCategories is the fixed category set (unclassified excluded)
var KnownCategories = []Category{
	CategoryUnilateralTermination, CategoryTermination, CategoryIndemnity,
	CategoryPenalty, CategoryRenewal, CategoryNonCompete, CategoryIPTransfer,
	CategoryArbitration, CategoryProhibition, CategoryObligation,
	CategoryRight, CategoryOther,
}

// IsKnownCategory reports whether c belongs to the fixed category set
func IsKnownCategory(c Category) bool {
	for _, k := range KnownCategories {
		if k == c {
			return true
		}
	}
	return false
}

// IsKnownContractType reports whether t is a classifiable contract type
func IsKnownContractType(t ContractType) bool {
	for _, k := range KnownContractTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Document is one contract under analysis
type Document struct {
	Text         string       `json:"-"`
	Language     Language     `json:"language"`
	ContractType ContractType `json:"contract_type,omitempty"` // Empty until classified
	Clauses      []Clause     `json:"clauses"`
}

// Clause is one segmented span of the contract plus its downstream annotations
type Clause struct {
	Index       int          `json:"index"`            // Document order (0-based)
	Text        string       `json:"text"`             // Raw span, equals Document.Text[Start:End]
	Start       int          `json:"start"`            // Byte offset into the normalized text
	End         int          `json:"end"`              // Exclusive byte offset
	Marker      string       `json:"marker,omitempty"` // Structural heading ("5.", "Section 3") if any
	Category    Category     `json:"category"`
	Confidence  float64      `json:"confidence"`
	Entities    []Entity     `json:"entities"`
	Risk        ClauseRisk   `json:"risk"`
	Reasons     []RiskReason `json:"reasons,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Classification is the classifier's output for one clause
type Classification struct {
	Category   Category             `json:"category"`
	Confidence float64              `json:"confidence"`
	Scores     map[Category]float64 `json:"scores,omitempty"` // Per-category confidence, for transparency
	Matched    []string             `json:"matched,omitempty"`
	Ambiguous  bool                 `json:"ambiguous,omitempty"` // Tie resolved by declaration order
}

// ContractTypeResult is the contract type classifier's output
type ContractTypeResult struct {
	Type       ContractType `json:"type"`
	SubType    string       `json:"sub_type,omitempty"`
	Confidence float64      `json:"confidence"`
	Indicators []string     `json:"indicators,omitempty"`
}

// EntityType classifies an extracted entity
type EntityType string

const (
	EntityParty        EntityType = "party"
	EntityDate         EntityType = "date"
	EntityAmount       EntityType = "amount"
	EntityDuration     EntityType = "duration"
	EntityJurisdiction EntityType = "jurisdiction"
	EntityLiabilityCap EntityType = "liability-cap"
)

// EntitySource records which extraction layer produced an entity
type EntitySource string

const (
	SourcePattern EntitySource = "pattern"
	SourceTagger  EntitySource = "tagger"
)

// Entity is a structured value owned by exactly one clause
type Entity struct {
	Type     EntityType   `json:"type"`
	Value    string       `json:"value"`              // Normalized value (ISO date, "INR 50000.00", "30 days")
	Number   float64      `json:"number,omitempty"`   // Days for durations, amount for money and caps
	Currency string       `json:"currency,omitempty"` // ISO-ish code for amounts
	Text     string       `json:"text"`               // Raw matched text
	Start    int          `json:"start"`              // Offset within the owning clause
	End      int          `json:"end"`
	Source   EntitySource `json:"source"`
	Alias    string       `json:"alias,omitempty"`     // Defined short name ("the Company"), parties only
	PartyRef string       `json:"party_ref,omitempty"` // Registry id, parties only
}

// Len returns the span length
func (e Entity) Len() int {
	return e.End - e.Start
}

// Overlaps reports whether two entity spans intersect
func (e Entity) Overlaps(o Entity) bool {
	return e.Start < o.End && o.Start < e.End
}

// Party is a contract-wide party clustered from clause entities
type Party struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
	Clauses []int    `json:"clauses"`
}

// DiagnosticLevel is the severity of a non-fatal engine note
type DiagnosticLevel string

const (
	DiagnosticInfo    DiagnosticLevel = "info"
	DiagnosticWarning DiagnosticLevel = "warning"
	DiagnosticError   DiagnosticLevel = "error"
)

// Diagnostic codes
const (
	DiagAmbiguousClassification = "classification-ambiguous"
	DiagEntityDegraded          = "entity-extraction-degraded"
	DiagClauseError             = "clause-error"
	DiagLLMUnavailable          = "llm-unavailable"
)

// Diagnostic is a non-fatal note attached to a clause or report
type Diagnostic struct {
	Code    string          `json:"code"`
	Level   DiagnosticLevel `json:"level"`
	Message string          `json:"message"`
}
