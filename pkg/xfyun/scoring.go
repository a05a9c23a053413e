package xfyun

import (
	"encoding/xml"
	"fmt"
)

// Pronunciation evaluation scoring.
//
// The vendor returns a hierarchical scoring document
// (sentence -> word -> syllable -> phoneme) with per-phoneme binary
// correctness flags rather than continuous scores. The engine converts
// those flags onto the same 0/100 scale used at aggregate levels so the
// pass/fail logic is uniform across granularities:
//
//	weighted = 0.6*phone + 0.4*tone
//	pass     = weighted > 50

const (
	phoneWeight = 0.6
	toneWeight  = 0.4
	passMark    = 50
)

// ErrorClass classifies a phoneme/syllable mismatch between spoken and
// reference pronunciation
type ErrorClass string

const (
	ClassNone      ErrorClass = "none"
	ClassMissed    ErrorClass = "missed"
	ClassExtra     ErrorClass = "extra"
	ClassRepeated  ErrorClass = "repeated"
	ClassReplaced  ErrorClass = "replaced"
	ClassUndefined ErrorClass = "undefined"
)

// classifyDiff maps a vendor diff-position code onto an ErrorClass.
// The mapping is total: unknown codes classify as ClassUndefined.
func classifyDiff(code string) ErrorClass {
	switch code {
	case "0":
		return ClassNone
	case "16":
		return ClassMissed
	case "32":
		return ClassExtra
	case "64":
		return ClassRepeated
	case "128":
		return ClassReplaced
	}
	return ClassUndefined
}

// toneClass maps the vendor tone name to 1-4; anything else is the
// neutral tone 5
func toneClass(monoTone string) int {
	switch monoTone {
	case "TONE1":
		return 1
	case "TONE2":
		return 2
	case "TONE3":
		return 3
	case "TONE4":
		return 4
	}
	return 5
}

// weightedScore combines the phone and tone scores
func weightedScore(phone, tone float64) float64 {
	return phoneWeight*phone + toneWeight*tone
}

// ================== Score Tree ==================

// Score is the evaluated result at the requested granularity, enriched
// with the weighted pass/fail verdict and the full breakdown of child
// sentences, words and syllables
type Score struct {
	Category Category `json:"category"`
	Content  string   `json:"content"`

	Pass          bool    `json:"pass"`
	WeightedScore float64 `json:"weighted_score"`

	TotalScore float64 `json:"total_score"`
	PhoneScore float64 `json:"phone_score"`
	ToneScore  float64 `json:"tone_score"`

	// Sentence-level aggregates; zero for other granularities
	Accuracy  float64 `json:"accuracy,omitempty"`
	Emotion   float64 `json:"emotion,omitempty"`
	Fluency   float64 `json:"fluency,omitempty"`
	Integrity float64 `json:"integrity,omitempty"`

	Sentences []SentenceScore `json:"sentences,omitempty"`
}

// SentenceScore is one evaluated sentence
type SentenceScore struct {
	Content    string      `json:"content"`
	TotalScore float64     `json:"total_score"`
	PhoneScore float64     `json:"phone_score"`
	ToneScore  float64     `json:"tone_score"`
	Words      []WordScore `json:"words,omitempty"`
}

// WordScore is one evaluated word
type WordScore struct {
	Content    string          `json:"content"`
	Symbol     string          `json:"symbol,omitempty"`
	TotalScore float64         `json:"total_score"`
	PhoneScore float64         `json:"phone_score"`
	ToneScore  float64         `json:"tone_score"`
	Syllables  []SyllableScore `json:"syllables,omitempty"`
}

// SyllableScore is one evaluated syllable with its initial/final phoneme
// breakdown. Content is the recognized character, Symbol the reference
// phonetic transcription.
type SyllableScore struct {
	Content string     `json:"content"`
	Symbol  string     `json:"symbol,omitempty"`
	Class   ErrorClass `json:"class"`

	Initial *PhonemeScore `json:"initial,omitempty"`
	Final   *PhonemeScore `json:"final,omitempty"`
}

// PhonemeScore is one evaluated phoneme. Scores are exact: always 0 or
// 100, derived from the vendor's binary correctness flags.
type PhonemeScore struct {
	Content    string     `json:"content"`
	Class      ErrorClass `json:"class"`
	Tone       int        `json:"tone,omitempty"`
	PhoneScore float64    `json:"phone_score"`
	ToneScore  float64    `json:"tone_score"`
}

// ================== Vendor Document ==================

type resultDocument struct {
	XMLName      xml.Name        `xml:"xml_result"`
	ReadSyllable *categoryResult `xml:"read_syllable"`
	ReadWord     *categoryResult `xml:"read_word"`
	ReadSentence *categoryResult `xml:"read_sentence"`
}

type categoryResult struct {
	RecPaper recPaper `xml:"rec_paper"`
}

type recPaper struct {
	ReadSyllable *paperNode `xml:"read_syllable"`
	ReadWord     *paperNode `xml:"read_word"`
	ReadSentence *paperNode `xml:"read_sentence"`
}

type paperNode struct {
	Content        string  `xml:"content,attr"`
	TotalScore     float64 `xml:"total_score,attr"`
	PhoneScore     float64 `xml:"phone_score,attr"`
	ToneScore      float64 `xml:"tone_score,attr"`
	AccuracyScore  float64 `xml:"accuracy_score,attr"`
	EmotionScore   float64 `xml:"emotion_score,attr"`
	FluencyScore   float64 `xml:"fluency_score,attr"`
	IntegrityScore float64 `xml:"integrity_score,attr"`

	Sentences []sentenceNode `xml:"sentence"`
}

type sentenceNode struct {
	Content    string  `xml:"content,attr"`
	TotalScore float64 `xml:"total_score,attr"`
	PhoneScore float64 `xml:"phone_score,attr"`
	ToneScore  float64 `xml:"tone_score,attr"`

	Words []wordNode `xml:"word"`
}

type wordNode struct {
	Content    string  `xml:"content,attr"`
	Symbol     string  `xml:"symbol,attr"`
	TotalScore float64 `xml:"total_score,attr"`
	PhoneScore float64 `xml:"phone_score,attr"`
	ToneScore  float64 `xml:"tone_score,attr"`

	Syllables []syllNode `xml:"syll"`
}

type syllNode struct {
	Content   string `xml:"content,attr"`
	Symbol    string `xml:"symbol,attr"`
	DpMessage string `xml:"dp_message,attr"`

	Phones []phoneNode `xml:"phone"`
}

type phoneNode struct {
	Content   string `xml:"content,attr"`
	DpMessage string `xml:"dp_message,attr"`
	PerrMsg   string `xml:"perr_msg,attr"`
	IsYun     string `xml:"is_yun,attr"`
	MonoTone  string `xml:"mono_tone,attr"`
}

// ================== Engine ==================

// ParseResult decodes a scoring document and evaluates it at the
// requested granularity
func ParseResult(doc []byte, category Category) (*Score, error) {
	var parsed resultDocument
	if err := xml.Unmarshal(doc, &parsed); err != nil {
		return nil, wrapError(err, "parse result document")
	}

	var cat *categoryResult
	switch category {
	case CategorySyllable:
		cat = parsed.ReadSyllable
	case CategoryWord:
		cat = parsed.ReadWord
	case CategorySentence:
		cat = parsed.ReadSentence
	default:
		return nil, fmt.Errorf("xfyun: unknown evaluation category %q", category)
	}
	if cat == nil {
		return nil, fmt.Errorf("xfyun: result document has no %s node", category)
	}

	var node *paperNode
	switch category {
	case CategorySyllable:
		node = cat.RecPaper.ReadSyllable
	case CategoryWord:
		node = cat.RecPaper.ReadWord
	case CategorySentence:
		node = cat.RecPaper.ReadSentence
	}
	if node == nil {
		return nil, fmt.Errorf("xfyun: result document has no %s paper", category)
	}

	return evaluate(node, category), nil
}

// evaluate builds the enriched score tree from the top-level paper node
func evaluate(node *paperNode, category Category) *Score {
	weighted := weightedScore(node.PhoneScore, node.ToneScore)
	score := &Score{
		Category:      category,
		Content:       node.Content,
		Pass:          weighted > passMark,
		WeightedScore: weighted,
		TotalScore:    node.TotalScore,
		PhoneScore:    node.PhoneScore,
		ToneScore:     node.ToneScore,
		Accuracy:      node.AccuracyScore,
		Emotion:       node.EmotionScore,
		Fluency:       node.FluencyScore,
		Integrity:     node.IntegrityScore,
	}

	for _, sn := range node.Sentences {
		sentence := SentenceScore{
			Content:    sn.Content,
			TotalScore: sn.TotalScore,
			PhoneScore: sn.PhoneScore,
			ToneScore:  sn.ToneScore,
		}
		for _, wn := range sn.Words {
			word := WordScore{
				Content:    wn.Content,
				Symbol:     wn.Symbol,
				TotalScore: wn.TotalScore,
				PhoneScore: wn.PhoneScore,
				ToneScore:  wn.ToneScore,
			}
			for _, yn := range wn.Syllables {
				word.Syllables = append(word.Syllables, evaluateSyllable(yn))
			}
			sentence.Words = append(sentence.Words, word)
		}
		score.Sentences = append(score.Sentences, sentence)
	}

	return score
}

// evaluateSyllable scores a syllable's initial and final phonemes
func evaluateSyllable(n syllNode) SyllableScore {
	syll := SyllableScore{
		Content: n.Content,
		Symbol:  n.Symbol,
		Class:   classifyDiff(n.DpMessage),
	}

	for _, pn := range n.Phones {
		if pn.IsYun == "1" {
			syll.Final = evaluateFinal(pn)
		} else {
			syll.Initial = evaluateInitial(pn)
		}
	}

	return syll
}

// evaluateInitial scores an initial (consonant) phoneme: correct iff the
// vendor diff code is exactly "0"
func evaluateInitial(n phoneNode) *PhonemeScore {
	p := &PhonemeScore{
		Content: n.Content,
		Class:   classifyDiff(n.DpMessage),
	}
	if n.PerrMsg == "0" {
		p.PhoneScore = 100
	}
	return p
}

// evaluateFinal scores a final (vowel) phoneme. The vendor folds the
// tone verdict into the same code: 0 fully correct, 1 phone wrong with
// the tone right, 2 tone wrong with the phone right.
func evaluateFinal(n phoneNode) *PhonemeScore {
	p := &PhonemeScore{
		Content: n.Content,
		Class:   classifyDiff(n.DpMessage),
		Tone:    toneClass(n.MonoTone),
	}
	if n.PerrMsg == "0" || n.PerrMsg == "2" {
		p.PhoneScore = 100
	}
	if n.PerrMsg == "0" || n.PerrMsg == "1" {
		p.ToneScore = 100
	}
	return p
}
