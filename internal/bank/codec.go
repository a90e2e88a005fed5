// Package bank reads, writes and caches question banks.
package bank

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
)

var (
	ErrMalformedBank  = errors.New("malformed question bank")
	ErrEmptyBank      = errors.New("question bank has no questions")
	ErrInvalidPayload = errors.New("invalid question payload")
)

// Decode expands a bank record into a question. The record's
// multipleCorrect flag wins when present; otherwise it is derived from the
// number of correct options.
func Decode(r model.QuestionRecord) (model.Question, error) {
	raw, err := base64.StdEncoding.DecodeString(r.Data)
	if err != nil {
		return model.Question{}, fmt.Errorf("%w: base64: %v", ErrInvalidPayload, err)
	}

	var p model.QuestionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.Question{}, fmt.Errorf("%w: json: %v", ErrInvalidPayload, err)
	}

	correct := 0
	for _, o := range p.Options {
		if o.Correct {
			correct++
		}
	}
	if correct == 0 {
		return model.Question{}, fmt.Errorf("%w: no correct option", ErrInvalidPayload)
	}

	multi := correct > 1
	if r.MultipleCorrect != nil {
		multi = *r.MultipleCorrect
	}
	if !multi && correct != 1 {
		return model.Question{}, fmt.Errorf("%w: single-answer question has %d correct options", ErrInvalidPayload, correct)
	}

	options := make([]model.Option, len(p.Options))
	copy(options, p.Options)

	return model.Question{
		Difficulty:      r.Difficulty,
		Text:            p.Question,
		Options:         options,
		MultipleCorrect: multi,
	}, nil
}

// Encode is the inverse of Decode. The multipleCorrect flag is always
// written explicitly so that decoding reproduces it.
func Encode(q model.Question) (model.QuestionRecord, error) {
	raw, err := json.Marshal(model.QuestionPayload{Question: q.Text, Options: q.Options})
	if err != nil {
		return model.QuestionRecord{}, fmt.Errorf("marshal payload: %w", err)
	}
	multi := q.MultipleCorrect
	return model.QuestionRecord{
		Difficulty:      q.Difficulty,
		Data:            base64.StdEncoding.EncodeToString(raw),
		MultipleCorrect: &multi,
	}, nil
}

// Parse reads a bank document and validates every record, so that a bank
// which loads successfully can always be decoded later.
func Parse(raw []byte) (*model.Bank, error) {
	var doc model.BankDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBank, err)
	}
	return FromDocument(doc)
}

// FromDocument validates an already decoded bank document.
func FromDocument(doc model.BankDocument) (*model.Bank, error) {
	if len(doc.Questions) == 0 {
		return nil, ErrEmptyBank
	}
	for i, r := range doc.Questions {
		if !r.Difficulty.Valid() {
			return nil, fmt.Errorf("%w: question %d: unknown difficulty %q", ErrMalformedBank, i, r.Difficulty)
		}
		if _, err := Decode(r); err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", ErrMalformedBank, i, err)
		}
	}

	records := make([]model.QuestionRecord, len(doc.Questions))
	copy(records, doc.Questions)
	return &model.Bank{Records: records}, nil
}

// Marshal renders records as a bank document.
func Marshal(records []model.QuestionRecord) ([]byte, error) {
	return json.Marshal(model.BankDocument{Questions: records})
}
