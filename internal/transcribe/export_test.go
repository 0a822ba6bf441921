package transcribe

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// AudioTranscriber exports audioTranscriber for mocks.
type AudioTranscriber = audioTranscriber

// NewTestTranscriber creates an OpenAITranscriber around a mock client.
func NewTestTranscriber(client audioTranscriber, opts ...TranscriberOption) *OpenAITranscriber {
	return newTranscriber(client, opts...)
}

// ClassifyError exports classifyError for unit testing.
var ClassifyError = classifyError
