package pipeline

import (
	"context"
	"fmt"

	"github.com/ppiankov/clauseguard/internal/classify"
	"github.com/ppiankov/clauseguard/internal/extract"
	"github.com/ppiankov/clauseguard/internal/model"
	"github.com/ppiankov/clauseguard/internal/score"
	"github.com/ppiankov/clauseguard/internal/worker"
)

// clauseJob classifies, extracts and scores one clause
type clauseJob struct {
	clause     model.Clause
	ct         model.ContractType
	lang       model.Language
	classifier *classify.ClauseClassifier
	extractor  *extract.EntityExtractor
	scorer     *score.Scorer
}

type clauseResult struct {
	clause model.Clause
	err    error
}

func (r *clauseResult) GetError() error {
	return r.err
}

// Execute runs the per-clause stages. Extraction degradation is recorded
// on the clause, never returned.
func (j *clauseJob) Execute(ctx context.Context) worker.Result {
	c := j.clause

	cls := j.classifier.Classify(c.Text, j.lang, j.ct)
	c.Category = cls.Category
	c.Confidence = cls.Confidence
	if cls.Ambiguous {
		c.Diagnostics = append(c.Diagnostics, model.Diagnostic{
			Code:    model.DiagAmbiguousClassification,
			Level:   model.DiagnosticWarning,
			Message: fmt.Sprintf("tie between categories; %s chosen by catalog order", cls.Category),
		})
	}

	entities, err := j.extractor.Extract(ctx, c.Text)
	if err != nil {
		c.Diagnostics = append(c.Diagnostics, model.Diagnostic{
			Code:    model.DiagEntityDegraded,
			Level:   model.DiagnosticWarning,
			Message: err.Error(),
		})
	}
	if entities == nil {
		entities = []model.Entity{}
	}
	c.Entities = entities

	c.Risk, c.Reasons = j.scorer.Score(c, j.ct)
	return &clauseResult{clause: c}
}

// Recover isolates a panic to this clause: unclassified, score 0
func (j *clauseJob) Recover(err error) worker.Result {
	c := j.clause
	c.Category = model.CategoryUnclassified
	c.Confidence = 0
	c.Entities = []model.Entity{}
	c.Risk = model.ClauseRisk{Score: 0, Band: model.BandLow}
	c.Reasons = nil
	c.Diagnostics = append(c.Diagnostics, model.Diagnostic{
		Code:    model.DiagClauseError,
		Level:   model.DiagnosticError,
		Message: "clause analysis failed; treated as unclassified with score 0",
	})
	return &clauseResult{clause: c, err: err}
}
