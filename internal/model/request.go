package model

// GenerationRequest is what a caller asks the write path to do.
//
// TAGGED UNION IN GO:
// Go has no sum types, so we model "one of these three shapes" with an
// interface that has an unexported marker method. Only types in this package
// can implement it, and a type switch over the three variants is exhaustive
// in practice:
//
//	switch req := req.(type) {
//	case FileUpload:    // generate from the uploaded text
//	case DirectContent: // store the literal content
//	case TopicPrompt:   // generate from the topic
//	}
type GenerationRequest interface {
	isGenerationRequest()
}

// FileUpload carries raw uploaded bytes. Topic and Type are optional:
// Topic falls back to Filename and Type falls back to TypeFile.
type FileUpload struct {
	Filename string
	Data     []byte
	Topic    string
	Type     string
	ImageURL string
}

// DirectContent stores Content verbatim without calling the provider.
type DirectContent struct {
	Topic    string
	Type     string
	Content  string
	ImageURL string
}

// TopicPrompt asks the provider to generate content for Topic.
type TopicPrompt struct {
	Topic    string
	Type     string
	ImageURL string
}

func (FileUpload) isGenerationRequest()    {}
func (DirectContent) isGenerationRequest() {}
func (TopicPrompt) isGenerationRequest()   {}
