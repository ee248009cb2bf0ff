package app

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sloppy/threatone/internal/intel"
	"github.com/sloppy/threatone/internal/store"
)

func (d *Dashboard) AddIOC(draft intel.IOC) (intel.IOC, error) {
	return d.IOCs.Create(draft.WithDefaults(d.now().Format(dateTimeLayout)))
}

func (d *Dashboard) UpdateIOC(id string, patch intel.IOCPatch) (intel.IOC, error) {
	return d.IOCs.Update(id, patch.Apply)
}

func (d *Dashboard) DeleteIOC(id string) bool {
	removed := d.IOCs.Delete(id)
	d.Selected.IOC.ClearIf(id)
	return removed
}

func (d *Dashboard) AddActor(draft intel.ThreatActor) (intel.ThreatActor, error) {
	return d.Actors.Create(draft.WithDefaults(d.now().Format(dateLayout)))
}

// ReplaceActor stores an edited actor under its existing id.
func (d *Dashboard) ReplaceActor(id string, actor intel.ThreatActor) (intel.ThreatActor, error) {
	return d.Actors.Replace(id, actor)
}

func (d *Dashboard) DeleteActor(id string) bool {
	removed := d.Actors.Delete(id)
	d.Selected.Actor.ClearIf(id)
	return removed
}

// ResolveLeak marks a leaked credential as mitigated.
func (d *Dashboard) ResolveLeak(id string) (intel.LeakedCredential, error) {
	status := intel.LeakMitigated
	return d.Leaks.Update(id, intel.LeakPatch{Status: &status}.Apply)
}

func (d *Dashboard) DeleteLeak(id string) bool {
	removed := d.Leaks.Delete(id)
	d.Selected.Leak.ClearIf(id)
	return removed
}

// AddQuestion appends a question to the questionnaire.
func (d *Dashboard) AddQuestion(text, category string) (intel.AuditQuestion, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		category = intel.DefaultQuestionCategory
	}
	return d.Questions.CreateWith(
		intel.AuditQuestion{Text: strings.TrimSpace(text), Category: category},
		d.db.CreateQuestion,
	)
}

func (d *Dashboard) UpdateQuestion(id int64, patch intel.QuestionPatch) (intel.AuditQuestion, error) {
	return d.Questions.UpdateWith(id, patch.Apply, d.db.UpdateQuestion)
}

func (d *Dashboard) DeleteQuestion(id int64) (bool, error) {
	removed, err := d.Questions.DeleteWith(id, func(id int64) error {
		if err := d.db.DeleteQuestion(id); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete question: %w", err)
	}
	d.Selected.Question.ClearIf(id)
	return removed, nil
}

// AnswerQuestion records an answer for a question still in the list.
func (d *Dashboard) AnswerQuestion(id int64, yes bool) error {
	if _, ok := d.Questions.Get(id); !ok {
		return fmt.Errorf("answer question %d: %w", id, store.ErrNotFound)
	}
	d.Audit.Answer(id, yes)
	return nil
}
