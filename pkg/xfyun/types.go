package xfyun

// ================== Audio ==================

// AudioFormat represents audio container format (TTS output)
type AudioFormat string

const (
	FormatWAV AudioFormat = "wav"
	FormatMP3 AudioFormat = "mp3"
)

// Gender selects a default voice when none is given
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Language represents a translation language code
type Language string

const (
	LanguageZh Language = "zh"
	LanguageEn Language = "en"
)

// ================== Wire Messages ==================

// Frame status values on the wire (data.status)
const (
	StatusFirst    = 0
	StatusContinue = 1
	StatusLast     = 2
)

// Progressive result tags (pgs)
const (
	PgsAppend  = "apd"
	PgsReplace = "rpl"
)

// Message is the vendor-agnostic decoded form of one incoming frame.
//
// Code 0 means success; any other code carries a human-readable Message.
// Status follows the frame status values above: StatusLast marks the
// terminal message of the session.
type Message struct {
	Code    int
	Message string
	Sid     string
	Status  int

	// Result is the incremental recognition payload (IAT sessions)
	Result *RecognitionResult

	// Data is the base64-encoded evaluation document (ISE terminal message)
	Data string
}

// RecognitionResult is one incremental recognized-text fragment.
//
// Pgs tags the fragment: PgsAppend pushes Text as a new fragment,
// PgsReplace marks the 1-based inclusive Range of previously emitted
// fragments as superseded.
type RecognitionResult struct {
	Pgs   string
	Range [2]int
	Text  string
}

// ================== Recognition Options ==================

// IATOptions configures a recognition session
type IATOptions struct {
	// Punctuation enables punctuation in results (vendor ptt)
	Punctuation bool `json:"ptt" yaml:"ptt"`

	// SilenceTimeout ends the utterance after this many milliseconds
	// of trailing silence (vendor vad_eos)
	SilenceTimeout int `json:"vad_eos" yaml:"vad_eos"`

	// NormalizeNumbers converts spoken numbers to digits (vendor nunum)
	NormalizeNumbers bool `json:"nunum" yaml:"nunum"`
}

// ================== Evaluation Options ==================

// Category selects the pronunciation evaluation granularity
type Category string

const (
	CategorySyllable Category = "read_syllable"
	CategoryWord     Category = "read_word"
	CategorySentence Category = "read_sentence"
)

// ISEOptions configures an evaluation session
type ISEOptions struct {
	// Category is the evaluation granularity
	Category Category `json:"category" yaml:"category"`

	// Text is the reference text the speaker is asked to read
	Text string `json:"text" yaml:"text"`

	// Phonetic is an optional reference phonetic transcription
	// appended to the reference text
	Phonetic string `json:"phonetic,omitempty" yaml:"phonetic,omitempty"`
}

// ================== TTS Options ==================

// TTSOptions configures one-shot speech synthesis
type TTSOptions struct {
	// Voice is the vendor voice name (vcn); when empty a default is
	// chosen from Gender
	Voice string `json:"vcn,omitempty" yaml:"vcn,omitempty"`

	// Gender picks the default voice when Voice is empty
	Gender Gender `json:"gender,omitempty" yaml:"gender,omitempty"`

	// Speed is the speaking rate, 0-10 (vendor scale x10)
	Speed float64 `json:"speed,omitempty" yaml:"speed,omitempty"`

	// Volume is the output volume, 0-100
	Volume int `json:"volume,omitempty" yaml:"volume,omitempty"`

	// Format is the output container (wav or mp3)
	Format AudioFormat `json:"format,omitempty" yaml:"format,omitempty"`
}
