package rules

import (
	"fmt"
	"regexp"

	"github.com/ppiankov/clauseguard/internal/model"
)

// Pattern is a compiled, weighted expression
type Pattern struct {
	Source        string
	Weight        float64
	Lang          model.Language
	Title         bool
	ContractTypes []model.ContractType
	re            *regexp.Regexp
}

// Applies reports whether the pattern is active for the language and contract type
func (p *Pattern) Applies(lang model.Language, ct model.ContractType) bool {
	if p.Lang != "" && p.Lang != lang {
		return false
	}
	if len(p.ContractTypes) == 0 {
		return true
	}
	for _, t := range p.ContractTypes {
		if t == ct {
			return true
		}
	}
	return false
}

// MatchString reports whether text contains a match
func (p *Pattern) MatchString(text string) bool {
	return p.re.MatchString(text)
}

// CountMatches returns the number of non-overlapping matches, capped at max (0 = no cap)
func (p *Pattern) CountMatches(text string, max int) int {
	n := max
	if n <= 0 {
		n = -1
	}
	return len(p.re.FindAllStringIndex(text, n))
}

// Category is a compiled category in declaration order
type Category struct {
	Name     model.Category
	Patterns []*Pattern
}

// ContractType is a compiled contract type with its indicators
type ContractType struct {
	Type           model.ContractType
	Patterns       []*Pattern
	SubTypes       []*SubType
	DefaultSubType string
}

// SubType is a compiled contract sub-type
type SubType struct {
	Name string
	Any  []*regexp.Regexp
}

// SubTypeOf returns the first sub-type with a match in text, else the default
func (t *ContractType) SubTypeOf(text string) string {
	for _, st := range t.SubTypes {
		for _, re := range st.Any {
			if re.MatchString(text) {
				return st.Name
			}
		}
	}
	return t.DefaultSubType
}

// ContractTypeSettings holds the contract type classifier calibration
type ContractTypeSettings struct {
	Threshold       float64
	Normalizer      float64
	TitleLines      int
	TitleMultiplier float64
	MaxOccurrences  int
	Types           []*ContractType
}

// Scoring holds the composite aggregation calibration
type Scoring struct {
	CriticalBonus   int
	CriticalFloor   int
	DefaultWeight   float64
	CategoryWeights map[model.Category]float64
}

// Weight returns the aggregation weight of a category
func (s Scoring) Weight(c model.Category) float64 {
	if w, ok := s.CategoryWeights[c]; ok {
		return w
	}
	return s.DefaultWeight
}

// Condition is a compiled risk rule condition
type Condition struct {
	All              []*regexp.Regexp
	Any              []*regexp.Regexp
	None             []*regexp.Regexp
	RequiresEntities []model.EntityType
	AbsentEntities   []model.EntityType
	MaxDurationDays  *float64
	MinDurationDays  *float64
	MinAmount        *float64
}

// Rule is a compiled risk rule
type Rule struct {
	ID            string
	Title         string
	Explanation   string
	Suggestion    string
	LawReference  string
	Severity      int
	Categories    []model.Category
	ContractTypes []model.ContractType
	When          Condition
}

// AppliesTo reports whether the rule is in scope for a clause category and
// contract type. Contract-specific rules never fire for an unknown contract.
func (r *Rule) AppliesTo(cat model.Category, ct model.ContractType) bool {
	if len(r.Categories) > 0 && !containsCategory(r.Categories, cat) {
		return false
	}
	if len(r.ContractTypes) == 0 {
		return true
	}
	for _, t := range r.ContractTypes {
		if t == ct {
			return true
		}
	}
	return false
}

// Gap is a compiled missing-protection check
type Gap struct {
	ID          string
	Description string
	Suggestion  string
	Any         []*regexp.Regexp
}

// Catalog is the compiled, immutable rule catalog used by one analysis
type Catalog struct {
	Version              string
	Hash                 string
	ClassifierThreshold  float64
	ClassifierNormalizer float64
	Categories           []*Category
	ContractTypes        ContractTypeSettings
	Scoring              Scoring
	Rules                []*Rule
	GapMinClauses        int
	Gaps                 []*Gap
}

// Compile validates a catalog file and compiles its expressions.
// Every problem is reported with the offending path.
func Compile(f *File) (*Catalog, error) {
	if f.Classifier.Threshold < 0 || f.Classifier.Threshold > 1 {
		return nil, fmt.Errorf("classifier.threshold must be within [0,1], got %v", f.Classifier.Threshold)
	}
	if f.Classifier.Normalizer <= 0 {
		return nil, fmt.Errorf("classifier.normalizer must be > 0")
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("catalog declares no categories")
	}

	c := &Catalog{
		Version:              f.Version,
		ClassifierThreshold:  f.Classifier.Threshold,
		ClassifierNormalizer: f.Classifier.Normalizer,
		GapMinClauses:        f.MissingProtections.MinClauses,
	}

	seenCat := make(map[model.Category]bool)
	for i, cs := range f.Categories {
		if !model.IsKnownCategory(cs.Category) {
			return nil, fmt.Errorf("categories[%d]: unknown category %q", i, cs.Category)
		}
		if seenCat[cs.Category] {
			return nil, fmt.Errorf("categories[%d]: duplicate category %q", i, cs.Category)
		}
		seenCat[cs.Category] = true

		cat := &Category{Name: cs.Category}
		for j, ps := range cs.Patterns {
			p, err := compilePattern(ps)
			if err != nil {
				return nil, fmt.Errorf("categories[%d].patterns[%d]: %w", i, j, err)
			}
			cat.Patterns = append(cat.Patterns, p)
		}
		c.Categories = append(c.Categories, cat)
	}

	ct := f.ContractTypes
	if ct.Threshold < 0 || ct.Threshold > 1 {
		return nil, fmt.Errorf("contract_types.threshold must be within [0,1], got %v", ct.Threshold)
	}
	if ct.Normalizer <= 0 {
		return nil, fmt.Errorf("contract_types.normalizer must be > 0")
	}
	c.ContractTypes = ContractTypeSettings{
		Threshold:       ct.Threshold,
		Normalizer:      ct.Normalizer,
		TitleLines:      ct.TitleLines,
		TitleMultiplier: ct.TitleMultiplier,
		MaxOccurrences:  ct.MaxOccurrences,
	}
	if c.ContractTypes.TitleMultiplier <= 0 {
		c.ContractTypes.TitleMultiplier = 1
	}
	seenType := make(map[model.ContractType]bool)
	for i, ts := range ct.Types {
		if !model.IsKnownContractType(ts.Type) {
			return nil, fmt.Errorf("contract_types.types[%d]: unknown contract type %q", i, ts.Type)
		}
		if seenType[ts.Type] {
			return nil, fmt.Errorf("contract_types.types[%d]: duplicate contract type %q", i, ts.Type)
		}
		seenType[ts.Type] = true

		typ := &ContractType{Type: ts.Type, DefaultSubType: ts.DefaultSubType}
		for j, ps := range ts.Patterns {
			p, err := compilePattern(ps)
			if err != nil {
				return nil, fmt.Errorf("contract_types.types[%d].patterns[%d]: %w", i, j, err)
			}
			typ.Patterns = append(typ.Patterns, p)
		}
		seenSub := make(map[string]bool)
		for j, ss := range ts.SubTypes {
			if ss.Name == "" {
				return nil, fmt.Errorf("contract_types.types[%d].sub_types[%d]: name is required", i, j)
			}
			if seenSub[ss.Name] {
				return nil, fmt.Errorf("contract_types.types[%d].sub_types[%d]: duplicate name %q", i, j, ss.Name)
			}
			seenSub[ss.Name] = true
			res, err := compileAll(ss.Any)
			if err != nil {
				return nil, fmt.Errorf("contract_types.types[%d].sub_types[%d]: %w", i, j, err)
			}
			if len(res) == 0 {
				return nil, fmt.Errorf("contract_types.types[%d].sub_types[%d]: at least one pattern is required", i, j)
			}
			typ.SubTypes = append(typ.SubTypes, &SubType{Name: ss.Name, Any: res})
		}
		c.ContractTypes.Types = append(c.ContractTypes.Types, typ)
	}

	sc := f.Scoring
	if sc.CriticalBonus < 0 || sc.CriticalFloor < 0 || sc.CriticalFloor > 100 {
		return nil, fmt.Errorf("scoring: critical_bonus must be >= 0 and critical_floor within [0,100]")
	}
	c.Scoring = Scoring{
		CriticalBonus:   sc.CriticalBonus,
		CriticalFloor:   sc.CriticalFloor,
		DefaultWeight:   sc.DefaultWeight,
		CategoryWeights: make(map[model.Category]float64, len(sc.CategoryWeights)),
	}
	if c.Scoring.DefaultWeight <= 0 {
		c.Scoring.DefaultWeight = 1
	}
	for cat, w := range sc.CategoryWeights {
		if cat != model.CategoryUnclassified && !model.IsKnownCategory(cat) {
			return nil, fmt.Errorf("scoring.category_weights: unknown category %q", cat)
		}
		if w <= 0 {
			return nil, fmt.Errorf("scoring.category_weights[%s] must be > 0", cat)
		}
		c.Scoring.CategoryWeights[cat] = w
	}

	seenRule := make(map[string]bool)
	for i, rs := range f.RiskRules {
		r, err := compileRule(rs)
		if err != nil {
			return nil, fmt.Errorf("risk_rules[%d]: %w", i, err)
		}
		if seenRule[r.ID] {
			return nil, fmt.Errorf("risk_rules[%d]: duplicate id %q", i, r.ID)
		}
		seenRule[r.ID] = true
		c.Rules = append(c.Rules, r)
	}

	seenGap := make(map[string]bool)
	for i, gs := range f.MissingProtections.Checks {
		if gs.ID == "" {
			return nil, fmt.Errorf("missing_protections.checks[%d]: id is required", i)
		}
		if seenGap[gs.ID] {
			return nil, fmt.Errorf("missing_protections.checks[%d]: duplicate id %q", i, gs.ID)
		}
		seenGap[gs.ID] = true
		res, err := compileAll(gs.Any)
		if err != nil {
			return nil, fmt.Errorf("missing_protections.checks[%d]: %w", i, err)
		}
		if len(res) == 0 {
			return nil, fmt.Errorf("missing_protections.checks[%d]: at least one pattern is required", i)
		}
		c.Gaps = append(c.Gaps, &Gap{
			ID:          gs.ID,
			Description: gs.Description,
			Suggestion:  gs.Suggestion,
			Any:         res,
		})
	}

	return c, nil
}

func compilePattern(ps PatternSpec) (*Pattern, error) {
	if ps.Weight < 0 {
		return nil, fmt.Errorf("weight must be >= 0, got %v", ps.Weight)
	}
	if ps.Lang != "" && !ps.Lang.Valid() {
		return nil, fmt.Errorf("lang %q: %w", ps.Lang, model.ErrUnsupportedLanguage)
	}
	for _, t := range ps.ContractTypes {
		if !model.IsKnownContractType(t) {
			return nil, fmt.Errorf("unknown contract type %q", t)
		}
	}
	re, err := compileExpr(ps.Pattern)
	if err != nil {
		return nil, err
	}
	return &Pattern{
		Source:        ps.Pattern,
		Weight:        ps.Weight,
		Lang:          ps.Lang,
		Title:         ps.Title,
		ContractTypes: ps.ContractTypes,
		re:            re,
	}, nil
}

func compileRule(rs RiskRuleSpec) (*Rule, error) {
	if rs.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	if rs.Severity < 0 {
		return nil, fmt.Errorf("%s: severity must be >= 0, got %d", rs.ID, rs.Severity)
	}
	for _, cat := range rs.Categories {
		if cat != model.CategoryUnclassified && !model.IsKnownCategory(cat) {
			return nil, fmt.Errorf("%s: unknown category %q", rs.ID, cat)
		}
	}
	for _, t := range rs.ContractTypes {
		if !model.IsKnownContractType(t) {
			return nil, fmt.Errorf("%s: unknown contract type %q", rs.ID, t)
		}
	}
	for _, et := range append(append([]model.EntityType{}, rs.When.RequiresEntities...), rs.When.AbsentEntities...) {
		if !isKnownEntityType(et) {
			return nil, fmt.Errorf("%s: unknown entity type %q", rs.ID, et)
		}
	}

	r := &Rule{
		ID:            rs.ID,
		Title:         rs.Title,
		Explanation:   rs.Explanation,
		Suggestion:    rs.Suggestion,
		LawReference:  rs.LawReference,
		Severity:      rs.Severity,
		Categories:    rs.Categories,
		ContractTypes: rs.ContractTypes,
	}

	var err error
	if r.When.All, err = compileAll(rs.When.All); err != nil {
		return nil, fmt.Errorf("%s: when.all: %w", rs.ID, err)
	}
	if r.When.Any, err = compileAll(rs.When.Any); err != nil {
		return nil, fmt.Errorf("%s: when.any: %w", rs.ID, err)
	}
	if r.When.None, err = compileAll(rs.When.None); err != nil {
		return nil, fmt.Errorf("%s: when.none: %w", rs.ID, err)
	}
	r.When.RequiresEntities = rs.When.RequiresEntities
	r.When.AbsentEntities = rs.When.AbsentEntities
	r.When.MaxDurationDays = rs.When.MaxDurationDays
	r.When.MinDurationDays = rs.When.MinDurationDays
	r.When.MinAmount = rs.When.MinAmount
	return r, nil
}

func compileAll(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		re, err := compileExpr(e)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

func compileExpr(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	return re, nil
}

func containsCategory(list []model.Category, c model.Category) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

func isKnownEntityType(t model.EntityType) bool {
	switch t {
	case model.EntityParty, model.EntityDate, model.EntityAmount,
		model.EntityDuration, model.EntityJurisdiction, model.EntityLiabilityCap:
		return true
	}
	return false
}
