package faq

// Config holds runtime knobs for the FAQ vector store.
type Config struct {
	Collection    string
	DatasetName   string
	DatasetSplit  string
	QuestionField string
	AnswerField   string
	TopK          int
	BatchSize     int
}

func (c Config) withDefaults() Config {
	if c.QuestionField == "" {
		c.QuestionField = "question"
	}
	if c.AnswerField == "" {
		c.AnswerField = "answer"
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 32
	}
	return c
}
