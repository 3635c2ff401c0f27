// Package evaluator decides whether a submitted option selection answers a
// question correctly. It is the single correctness authority: the submit
// handler and any client-side preview must go through the same function so
// the stored result and the UI can never disagree.
package evaluator

import (
	"github.com/uninotes/quiz-service/internal/models"
)

// IsCorrect reports whether selected matches the correct option set for the
// given question type. It is total: any input yields a verdict, never an
// error. Order and duplicates in either slice are ignored.
//
//   - single_choice / true_false: exactly one option selected and it is the
//     correct one. Zero or multiple selections are simply incorrect.
//   - multi_choice: the selected set equals the correct set. No credit for
//     subsets or supersets.
func IsCorrect(selected, correct []uint, questionType models.QuestionType) bool {
	selectedSet := toSet(selected)

	switch questionType {
	case models.SingleChoice, models.TrueFalse:
		if len(selectedSet) != 1 {
			return false
		}
		correctSet := toSet(correct)
		if len(correctSet) != 1 {
			return false
		}
		for id := range selectedSet {
			_, ok := correctSet[id]
			return ok
		}
		return false
	case models.MultiChoice:
		correctSet := toSet(correct)
		if len(correctSet) == 0 || len(selectedSet) != len(correctSet) {
			return false
		}
		for id := range selectedSet {
			if _, ok := correctSet[id]; !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func toSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
