package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuestionKind is the question category. It selects the request schema, the
// persisted document and the collection.
type QuestionKind string

const (
	KindGrammaire   QuestionKind = "grammaire"
	KindSituation   QuestionKind = "situation"
	KindPassage     QuestionKind = "passage"
	KindOpenEnded   QuestionKind = "openEnded"
	KindComposition QuestionKind = "composition"
)

type kindSpec struct {
	collection  string
	newInput    func() QuestionInput
	newDocument func() QuestionDocument
}

var kindTable = map[QuestionKind]kindSpec{
	KindGrammaire: {
		collection:  "grammaire_questions",
		newInput:    func() QuestionInput { return &GrammaireQuestionRequest{} },
		newDocument: func() QuestionDocument { return &GrammaireQuestion{} },
	},
	KindSituation: {
		collection:  "situation_questions",
		newInput:    func() QuestionInput { return &SituationQuestionRequest{} },
		newDocument: func() QuestionDocument { return &SituationQuestion{} },
	},
	KindPassage: {
		collection:  "passage_questions",
		newInput:    func() QuestionInput { return &PassageQuestionRequest{} },
		newDocument: func() QuestionDocument { return &PassageQuestion{} },
	},
	KindOpenEnded: {
		collection:  "open_ended_questions",
		newInput:    func() QuestionInput { return &OpenEndedQuestionRequest{} },
		newDocument: func() QuestionDocument { return &OpenEndedQuestion{} },
	},
	KindComposition: {
		collection:  "composition_questions",
		newInput:    func() QuestionInput { return &CompositionQuestionRequest{} },
		newDocument: func() QuestionDocument { return &CompositionQuestion{} },
	},
}

// ParseKind resolves a wire name such as "openEnded" to a QuestionKind.
func ParseKind(s string) (QuestionKind, bool) {
	k := QuestionKind(s)
	_, ok := kindTable[k]
	return k, ok
}

// Kinds lists every supported kind.
func Kinds() []QuestionKind {
	return []QuestionKind{KindGrammaire, KindSituation, KindPassage, KindOpenEnded, KindComposition}
}

// Collection returns the MongoDB collection owning documents of this kind.
func (k QuestionKind) Collection() string {
	return kindTable[k].collection
}

// NewInput returns an empty create request for the kind, or nil.
func (k QuestionKind) NewInput() QuestionInput {
	entry, ok := kindTable[k]
	if !ok {
		return nil
	}
	return entry.newInput()
}

// NewDocument returns an empty document for the kind, or nil.
func (k QuestionKind) NewDocument() QuestionDocument {
	entry, ok := kindTable[k]
	if !ok {
		return nil
	}
	return entry.newDocument()
}

// QuestionInput is a validated create request for one kind.
type QuestionInput interface {
	Kind() QuestionKind
	Document(now time.Time) QuestionDocument
}

// QuestionDocument is a persisted question of one kind.
type QuestionDocument interface {
	Kind() QuestionKind
	DocumentID() primitive.ObjectID
	SetDocumentID(id primitive.ObjectID)
}

// ─── Grammaire ─────────────────────────────────────────────────────────

// GrammaireQuestionRequest is a four-option question with one right answer.
type GrammaireQuestionRequest struct {
	Content     string   `json:"content" binding:"required,notblank,max=2000"`
	Options     []string `json:"options" binding:"required,len=4,dive,required,notblank,max=500"`
	RightAnswer string   `json:"rightAnswer" binding:"required,oneof=a b c d"`
}

func (r *GrammaireQuestionRequest) Kind() QuestionKind { return KindGrammaire }

func (r *GrammaireQuestionRequest) Document(now time.Time) QuestionDocument {
	return &GrammaireQuestion{
		Content:     strings.TrimSpace(r.Content),
		Options:     trimAll(r.Options),
		RightAnswer: r.RightAnswer,
		CreatedAt:   now,
	}
}

type GrammaireQuestion struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Content     string             `bson:"content" json:"content" validate:"required"`
	Options     []string           `bson:"options" json:"options" validate:"len=4,dive,required"`
	RightAnswer string             `bson:"rightAnswer" json:"rightAnswer" validate:"oneof=a b c d"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

func (q *GrammaireQuestion) Kind() QuestionKind                  { return KindGrammaire }
func (q *GrammaireQuestion) DocumentID() primitive.ObjectID      { return q.ID }
func (q *GrammaireQuestion) SetDocumentID(id primitive.ObjectID) { q.ID = id }

// ─── Situation ─────────────────────────────────────────────────────────

// SituationQuestionRequest is a five-option question with two distinct right answers.
type SituationQuestionRequest struct {
	Content      string   `json:"content" binding:"required,notblank,max=2000"`
	Options      []string `json:"options" binding:"required,len=5,dive,required,notblank,max=500"`
	RightAnswers []string `json:"rightAnswers" binding:"required,len=2,unique,dive,oneof=a b c d e"`
}

func (r *SituationQuestionRequest) Kind() QuestionKind { return KindSituation }

func (r *SituationQuestionRequest) Document(now time.Time) QuestionDocument {
	return &SituationQuestion{
		Content:      strings.TrimSpace(r.Content),
		Options:      trimAll(r.Options),
		RightAnswers: append([]string(nil), r.RightAnswers...),
		CreatedAt:    now,
	}
}

type SituationQuestion struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Content      string             `bson:"content" json:"content" validate:"required"`
	Options      []string           `bson:"options" json:"options" validate:"len=5,dive,required"`
	RightAnswers []string           `bson:"rightAnswers" json:"rightAnswers" validate:"len=2,unique,dive,oneof=a b c d e"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

func (q *SituationQuestion) Kind() QuestionKind                  { return KindSituation }
func (q *SituationQuestion) DocumentID() primitive.ObjectID      { return q.ID }
func (q *SituationQuestion) SetDocumentID(id primitive.ObjectID) { q.ID = id }

// ─── Passage ───────────────────────────────────────────────────────────

// PassageQuestionRequest is a reading passage with grammaire-shaped questions.
type PassageQuestionRequest struct {
	Passage          string                     `json:"passage" binding:"required,notblank,max=20000"`
	RelatedQuestions []GrammaireQuestionRequest `json:"relatedQuestions" binding:"required,min=1,dive"`
}

func (r *PassageQuestionRequest) Kind() QuestionKind { return KindPassage }

func (r *PassageQuestionRequest) Document(now time.Time) QuestionDocument {
	related := make([]RelatedQuestion, 0, len(r.RelatedQuestions))
	for _, q := range r.RelatedQuestions {
		related = append(related, RelatedQuestion{
			Content:     strings.TrimSpace(q.Content),
			Options:     trimAll(q.Options),
			RightAnswer: q.RightAnswer,
		})
	}
	return &PassageQuestion{
		Passage:          strings.TrimSpace(r.Passage),
		RelatedQuestions: related,
		CreatedAt:        now,
	}
}

// RelatedQuestion is a grammaire question embedded in a passage.
type RelatedQuestion struct {
	Content     string   `bson:"content" json:"content" validate:"required"`
	Options     []string `bson:"options" json:"options" validate:"len=4,dive,required"`
	RightAnswer string   `bson:"rightAnswer" json:"rightAnswer" validate:"oneof=a b c d"`
}

type PassageQuestion struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Passage          string             `bson:"passage" json:"passage" validate:"required"`
	RelatedQuestions []RelatedQuestion  `bson:"relatedQuestions" json:"relatedQuestions" validate:"min=1,dive"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
}

func (q *PassageQuestion) Kind() QuestionKind                  { return KindPassage }
func (q *PassageQuestion) DocumentID() primitive.ObjectID      { return q.ID }
func (q *PassageQuestion) SetDocumentID(id primitive.ObjectID) { q.ID = id }

// ─── Open-ended and composition ────────────────────────────────────────

// OpenEndedQuestionRequest pairs two labelled elements with a free-text answer.
type OpenEndedQuestionRequest struct {
	Content  string   `json:"content" binding:"required,notblank,max=2000"`
	Elements []string `json:"elements" binding:"required,len=2,dive,required,notblank,max=500"`
	Answer   string   `json:"answer" binding:"required,notblank,max=5000"`
}

func (r *OpenEndedQuestionRequest) Kind() QuestionKind { return KindOpenEnded }

func (r *OpenEndedQuestionRequest) Document(now time.Time) QuestionDocument {
	return &OpenEndedQuestion{
		Content:   strings.TrimSpace(r.Content),
		Elements:  trimAll(r.Elements),
		Answer:    strings.TrimSpace(r.Answer),
		CreatedAt: now,
	}
}

type OpenEndedQuestion struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Content   string             `bson:"content" json:"content" validate:"required"`
	Elements  []string           `bson:"elements" json:"elements" validate:"len=2,dive,required"`
	Answer    string             `bson:"answer" json:"answer" validate:"required"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

func (q *OpenEndedQuestion) Kind() QuestionKind                  { return KindOpenEnded }
func (q *OpenEndedQuestion) DocumentID() primitive.ObjectID      { return q.ID }
func (q *OpenEndedQuestion) SetDocumentID(id primitive.ObjectID) { q.ID = id }

// CompositionQuestionRequest has the same shape as an open-ended question.
type CompositionQuestionRequest struct {
	Content  string   `json:"content" binding:"required,notblank,max=2000"`
	Elements []string `json:"elements" binding:"required,len=2,dive,required,notblank,max=500"`
	Answer   string   `json:"answer" binding:"required,notblank,max=5000"`
}

func (r *CompositionQuestionRequest) Kind() QuestionKind { return KindComposition }

func (r *CompositionQuestionRequest) Document(now time.Time) QuestionDocument {
	return &CompositionQuestion{
		Content:   strings.TrimSpace(r.Content),
		Elements:  trimAll(r.Elements),
		Answer:    strings.TrimSpace(r.Answer),
		CreatedAt: now,
	}
}

type CompositionQuestion struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Content   string             `bson:"content" json:"content" validate:"required"`
	Elements  []string           `bson:"elements" json:"elements" validate:"len=2,dive,required"`
	Answer    string             `bson:"answer" json:"answer" validate:"required"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

func (q *CompositionQuestion) Kind() QuestionKind                  { return KindComposition }
func (q *CompositionQuestion) DocumentID() primitive.ObjectID      { return q.ID }
func (q *CompositionQuestion) SetDocumentID(id primitive.ObjectID) { q.ID = id }

// RandomQuestionFilter narrows random sampling.
type RandomQuestionFilter struct {
	// Exclude skips documents with these IDs.
	Exclude []primitive.ObjectID
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
